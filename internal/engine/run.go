package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/weirlabs/weir/pkg/api"
	"github.com/weirlabs/weir/pkg/log"
)

// Initialise prepares every step for execution and seeds the run queue
// with the graph's sinks. A run pulls backward from its terminal nodes
func (e *Engine) Initialise(ctx context.Context) error {
	for _, node := range e.order {
		if err := node.step.Initialise(ctx, e.rc); err != nil {
			return fmt.Errorf("initialise step %s: %w", node.id, err)
		}
	}

	e.queue = append(e.queue[:0], e.sinks...)
	e.startedAt = time.Now()
	e.setStatus(api.StatusInitialised)
	e.logger.Info("Run initialised")
	return nil
}

// ExecuteStep performs one atomic unit of progress: it dequeues the least
// recently enqueued step, runs it, and mutates the queue according to the
// returned status. An empty queue finishes the run
func (e *Engine) ExecuteStep(ctx context.Context) error {
	switch e.Status() {
	case api.StatusInitialised:
		e.setStatus(api.StatusProcessing)
	case api.StatusProcessing:
	default:
		return fmt.Errorf("%w: status %s", ErrNotRunning, e.Status())
	}

	if len(e.queue) == 0 {
		e.setStatus(api.StatusFinished)
		e.logger.Info("Run finished")
		return nil
	}

	node := e.queue[0]
	e.queue = e.queue[1:]

	status, stepErr := node.step.Execute(ctx)
	node.last = status
	e.logger.Debug("Step executed",
		log.StepID(node.id),
		log.Status(status))

	switch status {
	case api.StatusBlocked, api.StatusWaiting:
		// Retry dependencies before retrying this step
		for _, upstream := range e.inOrder(node.upstreams) {
			e.queue = append(e.queue, upstream)
		}

	case api.StatusFinished, api.StatusCancelled:
		for _, downstream := range e.inOrder(node.downstreams) {
			e.queue = append(e.queue, downstream)
		}

	case api.StatusFlowing:
		for _, downstream := range e.inOrder(node.downstreams) {
			if downstream.IsFlow() {
				e.queue = append(e.queue, downstream)
			}
		}

	case api.StatusAborted:
		if stepErr == nil {
			stepErr = fmt.Errorf("step %s aborted", node.id)
		}
		return e.Abort(stepErr)

	default:
		return e.Abort(fmt.Errorf("%w: step %s returned %q",
			ErrInvalidStepStatus, node.id, status))
	}

	return nil
}

// Execute drives a run to completion: initialise, drain the queue one step
// at a time, and finalise unconditionally. A disabled dataflow only runs
// when the trigger is a dry run or a manual (non-automated) one
func (e *Engine) Execute(ctx context.Context) error {
	if err := e.Initialise(ctx); err != nil {
		return err
	}
	defer e.Finalise()

	if !e.canRun() {
		e.logger.Info("Dataflow disabled, skipping run")
		return nil
	}

	for {
		if err := e.ExecuteStep(ctx); err != nil {
			return err
		}
		switch e.Status() {
		case api.StatusFinished:
			return nil
		case api.StatusAborted:
			return e.Err()
		}
	}
}

// Abort stops the run early: the failure is recorded, every step's abort
// hook runs best-effort, the status settles at aborted, and the failure is
// returned so callers observe it both as state and as an error
func (e *Engine) Abort(failure error) error {
	for _, node := range e.order {
		node.step.Abort()
	}

	wrapped := fmt.Errorf("%w: %w", ErrRunAborted, failure)
	e.setFailure(wrapped)
	e.logger.Error("Run aborted", log.Error(failure))
	return wrapped
}

// Finalise releases every step's resources and settles the run status.
// Safe to call after a normal finish or after the abort protocol has
// already run the step-level abort hooks
func (e *Engine) Finalise() {
	for _, node := range e.order {
		node.step.Finalise()
	}

	e.mu.Lock()
	if e.status != api.StatusAborted {
		e.status = api.StatusFinalised
	}
	e.mu.Unlock()
	e.logger.Info("Run finalised")
}

func (e *Engine) canRun() bool {
	if e.dataflow.Enabled {
		return true
	}
	return e.dryRun || !e.automated
}

// inOrder returns linked nodes in step construction order, keeping queue
// mutation deterministic
func (e *Engine) inOrder(linked map[api.StepID]*Node) []*Node {
	var nodes []*Node
	for _, node := range e.order {
		if _, ok := linked[node.id]; ok {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

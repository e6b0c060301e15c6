package engine

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/weirlabs/weir/internal/steps"
	"github.com/weirlabs/weir/internal/store"
	"github.com/weirlabs/weir/pkg/api"
)

type (
	// Engine owns a single run of a dataflow: the step graph, the FIFO run
	// queue, the run status, and the captured failure. One engine instance
	// executes exactly one run, start to finish, from a single logical
	// thread of control; only the status and error accessors are safe to
	// call from other goroutines
	Engine struct {
		dataflow  *api.Dataflow
		runID     api.RunID
		logger    *slog.Logger
		vars      store.Variables
		output    io.Writer
		nodes     map[api.StepID]*Node
		order     []*Node
		sinks     []*Node
		caps      []*Node
		queue     []*Node
		rc        *steps.RunContext
		startedAt time.Time
		dryRun    bool
		automated bool

		mu     sync.RWMutex
		status api.Status
		err    error
	}

	// Option adjusts engine construction
	Option func(*Engine)
)

// WithDryRun marks the run as a dry run: run-level variable writes are
// skipped, and a disabled dataflow is still permitted to run
func WithDryRun(dryRun bool) Option {
	return func(e *Engine) {
		e.dryRun = dryRun
	}
}

// WithAutomated marks the run as automated (scheduler-triggered) rather
// than manually triggered
func WithAutomated(automated bool) Option {
	return func(e *Engine) {
		e.automated = automated
	}
}

// WithLogger sets the logger the run and its steps log through
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithOutput sets the writer flow sinks write records to
func WithOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.output = w
	}
}

// WithRunID overrides the generated run identifier
func WithRunID(id api.RunID) Option {
	return func(e *Engine) {
		e.runID = id
	}
}

// New constructs an engine for one run of the given dataflow. Construction
// builds the full step graph: every definition is instantiated through the
// registry in definition order, dependencies are resolved into symmetric
// upstream/downstream links, sinks are computed, and flow caps are
// injected. The topology is frozen once New returns
func New(
	dataflow *api.Dataflow, registry *steps.Registry, vars store.Variables,
	opts ...Option,
) (*Engine, error) {
	if err := dataflow.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		dataflow: dataflow,
		runID:    api.RunID(uuid.New().String()),
		logger:   slog.Default(),
		vars:     vars,
		output:   os.Stdout,
		nodes:    map[api.StepID]*Node{},
		status:   api.StatusNew,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(
		slog.String("run_id", string(e.runID)),
		slog.String("dataflow_id", string(dataflow.ID)))

	if err := e.buildGraph(registry); err != nil {
		return nil, err
	}

	e.rc = &steps.RunContext{
		RunID:      e.runID,
		DataflowID: dataflow.ID,
		DryRun:     e.dryRun,
		Logger:     e.logger,
		Vars:       &runVariables{engine: e},
		Output:     e.output,
	}
	return e, nil
}

func (e *Engine) buildGraph(registry *steps.Registry) error {
	for i := range e.dataflow.Steps {
		def := &e.dataflow.Steps[i]
		step, err := registry.New(def)
		if err != nil {
			return err
		}
		node := newNode(def.ID, step)
		e.nodes[def.ID] = node
		e.order = append(e.order, node)
	}

	for _, node := range e.order {
		for _, depID := range node.step.Def().DependsOn {
			upstream, ok := e.nodes[depID]
			if !ok {
				return fmt.Errorf("%w: step %s depends on %s",
					ErrUnresolvedDependency, node.id, depID)
			}
			link(upstream, node)
		}
	}

	if err := e.checkFlowBranches(); err != nil {
		return err
	}

	// Sinks are the natural ends of the graph, computed before caps exist
	for _, node := range e.order {
		if len(node.downstreams) == 0 {
			e.sinks = append(e.sinks, node)
		}
	}

	e.injectFlowCaps()

	for _, node := range e.order {
		if linker, ok := node.step.(steps.Linker); ok {
			linker.Link(node.upstreamSteps(e.order))
		}
	}
	return nil
}

// checkFlowBranches rejects graphs where a flow step feeds more than one
// flow downstream. Cap injection assumes flow sub-graphs are linear;
// failing fast here surfaces the limitation instead of mis-scheduling
func (e *Engine) checkFlowBranches() error {
	for _, node := range e.order {
		if !node.IsFlow() {
			continue
		}
		flowDownstreams := 0
		for _, down := range node.downstreams {
			if down.IsFlow() {
				flowDownstreams++
			}
		}
		if flowDownstreams > 1 {
			return fmt.Errorf("%w: step %s", ErrFlowBranches, node.id)
		}
	}
	return nil
}

// RunID returns the run's unique identifier
func (e *Engine) RunID() api.RunID {
	return e.runID
}

// Dataflow returns the definition this run was constructed from
func (e *Engine) Dataflow() *api.Dataflow {
	return e.dataflow
}

// Name returns the owning dataflow's display name
func (e *Engine) Name() string {
	return e.dataflow.Name
}

// IsDryRun returns true if the run never persists run-level variables
func (e *Engine) IsDryRun() bool {
	return e.dryRun
}

// IsAutomated returns true if the run was triggered by a scheduler rather
// than an interactive caller
func (e *Engine) IsAutomated() bool {
	return e.automated
}

// Status returns the run's current status
func (e *Engine) Status() api.Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// Err returns the failure captured by the abort protocol, if any. Callers
// must check both Status and Err: failure is surfaced by stored state in
// addition to the error returned from Execute
func (e *Engine) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.err
}

// State returns a point-in-time snapshot of the run for API consumers
func (e *Engine) State() api.RunState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	state := api.RunState{
		ID:         e.runID,
		DataflowID: e.dataflow.ID,
		Name:       e.dataflow.Name,
		Status:     e.status,
		DryRun:     e.dryRun,
		Automated:  e.automated,
		StartedAt:  e.startedAt,
	}
	if e.err != nil {
		state.Error = e.err.Error()
	}
	return state
}

// Node returns the engine step wrapper for a step id, or nil
func (e *Engine) Node(id api.StepID) *Node {
	return e.nodes[id]
}

// Sinks returns the nodes with no downstream consumers, the run's initial
// pull points
func (e *Engine) Sinks() []*Node {
	return e.sinks
}

func (e *Engine) setStatus(status api.Status) {
	e.mu.Lock()
	e.status = status
	e.mu.Unlock()
}

func (e *Engine) setFailure(err error) {
	e.mu.Lock()
	e.err = err
	e.status = api.StatusAborted
	e.mu.Unlock()
}

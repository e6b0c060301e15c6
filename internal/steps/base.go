package steps

import (
	"context"

	"github.com/weirlabs/weir/pkg/api"
)

// Base provides the bookkeeping shared by all step variants: definition
// access, upstream links, the one-slot flow output, and last-status
// tracking. Concrete steps embed it and report outcomes through its
// helpers so Done and Take stay consistent
type Base struct {
	def       *api.StepDef
	rc        *RunContext
	upstreams []Step
	out       *api.Record
	last      api.Status
}

// NewBase creates the shared bookkeeping for a step definition
func NewBase(def *api.StepDef) Base {
	return Base{def: def, last: api.StatusNew}
}

// Def returns the step's static definition
func (b *Base) Def() *api.StepDef {
	return b.def
}

// Initialise records the run context; variants that need resource setup
// override this and call it first
func (b *Base) Initialise(_ context.Context, rc *RunContext) error {
	b.rc = rc
	b.last = api.StatusInitialised
	return nil
}

// Link stores the resolved upstream implementations
func (b *Base) Link(upstreams []Step) {
	b.upstreams = upstreams
}

// Abort is a no-op; variants with in-flight resources override it
func (b *Base) Abort() {}

// Finalise is a no-op; variants with resources to release override it
func (b *Base) Finalise() {}

// Done returns true once the step has permanently completed
func (b *Base) Done() bool {
	return b.last == api.StatusFinished || b.last == api.StatusCancelled
}

// Take removes and returns the pending output record, if any
func (b *Base) Take() (api.Record, bool) {
	if b.out == nil {
		return nil, false
	}
	rec := *b.out
	b.out = nil
	return rec, true
}

// Run returns the run context recorded at initialisation
func (b *Base) Run() *RunContext {
	return b.rc
}

func (b *Base) flowing(rec api.Record) (api.Status, error) {
	b.out = &rec
	b.last = api.StatusFlowing
	return api.StatusFlowing, nil
}

func (b *Base) waiting() (api.Status, error) {
	b.last = api.StatusWaiting
	return api.StatusWaiting, nil
}

func (b *Base) blocked() (api.Status, error) {
	b.last = api.StatusBlocked
	return api.StatusBlocked, nil
}

func (b *Base) finished() (api.Status, error) {
	b.last = api.StatusFinished
	return api.StatusFinished, nil
}

func (b *Base) cancelled() (api.Status, error) {
	b.last = api.StatusCancelled
	return api.StatusCancelled, nil
}

func (b *Base) aborted(err error) (api.Status, error) {
	b.last = api.StatusAborted
	return api.StatusAborted, err
}

// source returns the step's flow upstream, if it has one
func (b *Base) source() (FlowEmitter, bool) {
	for _, up := range b.upstreams {
		if em, ok := up.(FlowEmitter); ok && em.IsFlow() {
			return em, true
		}
	}
	return nil, false
}

// upstreamsDone returns true once every upstream has permanently completed
func (b *Base) upstreamsDone() bool {
	for _, up := range b.upstreams {
		if !up.Done() {
			return false
		}
	}
	return true
}

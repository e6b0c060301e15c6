package steps_test

import (
	"context"
	"io"
	"log/slog"
	"maps"

	"github.com/weirlabs/weir/internal/steps"
	"github.com/weirlabs/weir/pkg/api"
)

type (
	// stubVars is an in-test Variables implementation recording writes
	stubVars struct {
		runs    api.Vars
		globals api.Vars
	}

	// stubEmitter is a scriptable flow upstream for driving steps directly
	stubEmitter struct {
		def  api.StepDef
		recs []api.Record
		done bool
	}
)

func newRunContext(out io.Writer) (*steps.RunContext, *stubVars) {
	vars := &stubVars{runs: api.Vars{}, globals: api.Vars{}}
	if out == nil {
		out = io.Discard
	}
	return &steps.RunContext{
		RunID:      "run-1",
		DataflowID: "orders",
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Vars:       vars,
		Output:     out,
	}, vars
}

func (v *stubVars) All(context.Context) (api.Vars, error) {
	merged := make(api.Vars, len(v.globals)+len(v.runs))
	maps.Copy(merged, v.globals)
	maps.Copy(merged, v.runs)
	return merged, nil
}

func (v *stubVars) Set(_ context.Context, name string, value any) error {
	v.runs[name] = value
	return nil
}

func (v *stubVars) SetGlobal(
	_ context.Context, name string, value any,
) error {
	v.globals[name] = value
	return nil
}

func newStubEmitter(recs ...api.Record) *stubEmitter {
	return &stubEmitter{
		def:  api.StepDef{ID: "source", Type: "stub-emitter"},
		recs: recs,
	}
}

func (s *stubEmitter) Def() *api.StepDef {
	return &s.def
}

func (s *stubEmitter) IsFlow() bool {
	return true
}

func (s *stubEmitter) Initialise(context.Context, *steps.RunContext) error {
	return nil
}

func (s *stubEmitter) Execute(context.Context) (api.Status, error) {
	return api.StatusFlowing, nil
}

func (s *stubEmitter) Abort() {}

func (s *stubEmitter) Finalise() {}

func (s *stubEmitter) Done() bool {
	return s.done
}

func (s *stubEmitter) Take() (api.Record, bool) {
	if len(s.recs) == 0 {
		return nil, false
	}
	rec := s.recs[0]
	s.recs = s.recs[1:]
	return rec, true
}

package steps

import (
	"context"
	"log/slog"

	"github.com/weirlabs/weir/pkg/api"
)

// Debugging is a connector that logs the run's variables and completes.
// Useful as a probe between connector stages while developing a dataflow
type Debugging struct {
	Base
}

const TypeDebugging = "debugging"

func init() {
	Default().MustRegister(TypeDebugging, NewDebugging)
}

// NewDebugging constructs a debugging step from its definition
func NewDebugging(def *api.StepDef) (Step, error) {
	return &Debugging{Base: NewBase(def)}, nil
}

func (s *Debugging) IsFlow() bool {
	return false
}

// Execute logs the current variable scope once its upstreams have completed
func (s *Debugging) Execute(ctx context.Context) (api.Status, error) {
	if !s.upstreamsDone() {
		return s.blocked()
	}

	vars, err := s.Run().Vars.All(ctx)
	if err != nil {
		return s.aborted(err)
	}

	s.Run().Logger.Info("Dataflow variables",
		slog.String("step_id", string(s.Def().ID)),
		slog.Any("vars", vars))

	return s.finished()
}

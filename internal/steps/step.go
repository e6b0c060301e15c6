package steps

import (
	"context"
	"io"
	"log/slog"

	"github.com/weirlabs/weir/pkg/api"
)

type (
	// Step is the contract every step variant implements. The engine drives
	// a step exclusively through this interface: Execute performs one unit
	// of work and reports the outcome as a status code; the error return is
	// populated only alongside StatusAborted
	Step interface {
		Def() *api.StepDef
		IsFlow() bool
		Initialise(ctx context.Context, rc *RunContext) error
		Execute(ctx context.Context) (api.Status, error)
		Abort()
		Finalise()
		Done() bool
	}

	// Linker receives the step's resolved upstream implementations before
	// the run begins. Steps that pull data from their dependencies keep the
	// references; others may ignore the call
	Linker interface {
		Link(upstreams []Step)
	}

	// FlowEmitter is implemented by flow steps. A flow step holds at most
	// one pending output record, taken by its downstream consumer
	FlowEmitter interface {
		Step
		Take() (api.Record, bool)
	}

	// Variables gives steps access to the run's variable scope. Run-level
	// writes are skipped by the engine during dry runs; global writes are
	// always persisted
	Variables interface {
		All(ctx context.Context) (api.Vars, error)
		Set(ctx context.Context, name string, value any) error
		SetGlobal(ctx context.Context, name string, value any) error
	}

	// RunContext carries the run-scoped collaborators a step may use while
	// executing
	RunContext struct {
		RunID      api.RunID
		DataflowID api.DataflowID
		DryRun     bool
		Logger     *slog.Logger
		Vars       Variables
		Output     io.Writer
	}
)

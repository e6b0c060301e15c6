package engine

import (
	"context"
	"maps"

	"github.com/weirlabs/weir/pkg/api"
)

// runVariables is the variable facade handed to steps through the run
// context. Reads merge the definition's declared vars with the persisted
// run scope; run-level writes are skipped during dry runs, global writes
// always persist
type runVariables struct {
	engine *Engine
}

// All returns the run's visible variables: globals, then the definition's
// declared vars, then persisted run values, later scopes winning
func (v *runVariables) All(ctx context.Context) (api.Vars, error) {
	e := v.engine

	globals, err := e.vars.GlobalVars(ctx)
	if err != nil {
		return nil, err
	}
	runVars, err := e.vars.RunVars(ctx, e.runID)
	if err != nil {
		return nil, err
	}

	merged := make(api.Vars, len(globals)+len(e.dataflow.Vars)+len(runVars))
	maps.Copy(merged, globals)
	maps.Copy(merged, e.dataflow.Vars)
	maps.Copy(merged, runVars)
	return merged, nil
}

// Set persists a named value at the run scope, unless this is a dry run
func (v *runVariables) Set(
	ctx context.Context, name string, value any,
) error {
	e := v.engine
	if e.dryRun {
		e.logger.Debug("Dry run, variable not persisted")
		return nil
	}
	return e.vars.SetRunVar(ctx, e.runID, name, value)
}

// SetGlobal persists a named value at the configuration scope, independent
// of the dry-run flag
func (v *runVariables) SetGlobal(
	ctx context.Context, name string, value any,
) error {
	return v.engine.vars.SetGlobalVar(ctx, name, value)
}

package steps_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weirlabs/weir/internal/steps"
	"github.com/weirlabs/weir/pkg/api"
)

func newSetVariable(t *testing.T, config string) (steps.Step, *stubVars) {
	t.Helper()
	step, err := steps.NewSetVariable(&api.StepDef{
		ID:     "setvar",
		Type:   steps.TypeSetVariable,
		Config: json.RawMessage(config),
	})
	require.NoError(t, err)

	rc, vars := newRunContext(nil)
	require.NoError(t, step.Initialise(context.Background(), rc))
	return step, vars
}

func TestSetVariableRunScope(t *testing.T) {
	step, vars := newSetVariable(t, `{"name": "count", "value": 3}`)

	status, err := step.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, api.StatusFinished, status)
	assert.Equal(t, float64(3), vars.runs["count"])
	assert.Empty(t, vars.globals)
}

func TestSetVariableGlobalScope(t *testing.T) {
	step, vars := newSetVariable(t,
		`{"name": "region", "value": "eu-west-1", "global": true}`)

	status, err := step.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, api.StatusFinished, status)
	assert.Equal(t, "eu-west-1", vars.globals["region"])
	assert.Empty(t, vars.runs)
}

func TestSetVariableBlocksUntilUpstreamsDone(t *testing.T) {
	step, vars := newSetVariable(t, `{"name": "count", "value": 1}`)
	src := newStubEmitter()
	step.(*steps.SetVariable).Link([]steps.Step{src})

	status, err := step.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, api.StatusBlocked, status)
	assert.Empty(t, vars.runs)

	src.done = true
	status, err = step.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, api.StatusFinished, status)
	assert.Equal(t, float64(1), vars.runs["count"])
}

func TestSetVariableNameEmpty(t *testing.T) {
	_, err := steps.NewSetVariable(&api.StepDef{
		ID:     "setvar",
		Type:   steps.TypeSetVariable,
		Config: json.RawMessage(`{"value": 1}`),
	})
	assert.ErrorIs(t, err, steps.ErrVariableNameEmpty)
}

func TestDebuggingLogsAndFinishes(t *testing.T) {
	step, err := steps.NewDebugging(&api.StepDef{
		ID:   "debug",
		Type: steps.TypeDebugging,
	})
	require.NoError(t, err)

	rc, vars := newRunContext(nil)
	vars.runs["count"] = 3
	require.NoError(t, step.Initialise(context.Background(), rc))

	status, err := step.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, api.StatusFinished, status)
}

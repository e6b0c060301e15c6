package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weirlabs/weir/internal/steps"
	"github.com/weirlabs/weir/internal/store"
	"github.com/weirlabs/weir/pkg/api"
)

func TestExecuteStepBeforeInitialise(t *testing.T) {
	stubs := stubSet{}
	eng := newStubEngine(t, stubs, stubDataflow(stubDef("a")))

	err := eng.ExecuteStep(context.Background())
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.Empty(t, eng.queue)
	assert.Equal(t, api.StatusNew, eng.Status())
}

func TestInitialiseSeedsQueueWithSinks(t *testing.T) {
	stubs := stubSet{}
	eng := newStubEngine(t, stubs, stubDataflow(
		stubDef("a"),
		stubDef("b", "a"),
	))

	require.NoError(t, eng.Initialise(context.Background()))
	assert.Equal(t, api.StatusInitialised, eng.Status())
	assert.Equal(t, []api.StepID{"b"}, queueIDs(eng))

	for id, stub := range stubs {
		assert.Equal(t, 1, stub.inits, string(id))
	}
}

func TestBlockedEnqueuesUpstreams(t *testing.T) {
	stubs := stubSet{
		"a": {script: []api.Status{api.StatusFinished}},
		"b": {script: []api.Status{
			api.StatusBlocked, api.StatusFinished,
		}},
	}
	eng := newStubEngine(t, stubs, stubDataflow(
		stubDef("a"),
		stubDef("b", "a"),
	))
	ctx := context.Background()
	require.NoError(t, eng.Initialise(ctx))

	// b blocks; its upstream is retried before b comes around again
	require.NoError(t, eng.ExecuteStep(ctx))
	assert.Equal(t, []api.StepID{"a"}, queueIDs(eng))
	assert.Equal(t, api.StatusProcessing, eng.Status())

	// a finishes; its downstream is enqueued
	require.NoError(t, eng.ExecuteStep(ctx))
	assert.Equal(t, []api.StepID{"b"}, queueIDs(eng))

	// b finishes; nothing is left downstream
	require.NoError(t, eng.ExecuteStep(ctx))
	assert.Empty(t, queueIDs(eng))

	// an empty queue finishes the run
	require.NoError(t, eng.ExecuteStep(ctx))
	assert.Equal(t, api.StatusFinished, eng.Status())
}

func TestLinearChainProgression(t *testing.T) {
	stubs := stubSet{
		"a": {script: []api.Status{api.StatusFinished}},
		"b": {script: []api.Status{api.StatusFinished}},
		"c": {script: []api.Status{
			api.StatusWaiting, api.StatusFinished,
		}},
	}
	eng := newStubEngine(t, stubs, stubDataflow(
		stubDef("a"),
		stubDef("b", "a"),
		stubDef("c", "b"),
	))
	ctx := context.Background()
	require.NoError(t, eng.Initialise(ctx))
	require.Equal(t, []api.StepID{"c"}, queueIDs(eng))

	require.NoError(t, eng.ExecuteStep(ctx))
	assert.Equal(t, []api.StepID{"b"}, queueIDs(eng))

	require.NoError(t, eng.ExecuteStep(ctx))
	assert.Equal(t, []api.StepID{"c"}, queueIDs(eng))

	require.NoError(t, eng.ExecuteStep(ctx))
	require.NoError(t, eng.ExecuteStep(ctx))
	assert.Equal(t, api.StatusFinished, eng.Status())
}

func TestWaitingEnqueuesUpstreams(t *testing.T) {
	stubs := stubSet{
		"src": {flow: true, script: []api.Status{
			api.StatusFlowing, api.StatusFinished,
		}},
		"out": {flow: true, script: []api.Status{
			api.StatusWaiting, api.StatusFinished,
		}},
	}
	eng := newStubEngine(t, stubs, stubDataflow(
		stubDef("src"),
		stubDef("out", "src"),
	))
	ctx := context.Background()
	require.NoError(t, eng.Initialise(ctx))
	require.Equal(t, []api.StepID{"out"}, queueIDs(eng))

	require.NoError(t, eng.ExecuteStep(ctx))
	assert.Equal(t, []api.StepID{"src"}, queueIDs(eng))
}

func TestFlowingEnqueuesOnlyFlowDownstreams(t *testing.T) {
	stubs := stubSet{
		"src": {flow: true, script: []api.Status{api.StatusFlowing}},
		"f":   {flow: true, script: []api.Status{api.StatusFinished}},
		"c":   {script: []api.Status{api.StatusFinished}},
	}
	eng := newStubEngine(t, stubs, stubDataflow(
		stubDef("src"),
		stubDef("f", "src"),
		stubDef("c", "src"),
	))
	ctx := context.Background()
	require.NoError(t, eng.Initialise(ctx))

	eng.queue = []*Node{eng.Node("src")}
	require.NoError(t, eng.ExecuteStep(ctx))
	assert.Equal(t, []api.StepID{"f"}, queueIDs(eng))
}

func TestCancelledEnqueuesDownstreams(t *testing.T) {
	stubs := stubSet{
		"a": {script: []api.Status{api.StatusCancelled}},
		"b": {script: []api.Status{
			api.StatusBlocked, api.StatusFinished,
		}},
	}
	eng := newStubEngine(t, stubs, stubDataflow(
		stubDef("a"),
		stubDef("b", "a"),
	))
	ctx := context.Background()
	require.NoError(t, eng.Initialise(ctx))

	eng.queue = []*Node{eng.Node("a")}
	require.NoError(t, eng.ExecuteStep(ctx))
	assert.Equal(t, []api.StepID{"b"}, queueIDs(eng))
	assert.Equal(t, api.StatusCancelled, eng.Node("a").LastStatus())
}

func TestInvalidStatusAbortsRun(t *testing.T) {
	stubs := stubSet{
		"a": {script: []api.Status{api.StatusProcessing}},
	}
	eng := newStubEngine(t, stubs, stubDataflow(stubDef("a")))
	ctx := context.Background()
	require.NoError(t, eng.Initialise(ctx))

	err := eng.ExecuteStep(ctx)
	assert.ErrorIs(t, err, ErrInvalidStepStatus)
	assert.ErrorIs(t, err, ErrRunAborted)
	assert.Equal(t, api.StatusAborted, eng.Status())
	assert.Equal(t, 1, stubs["a"].aborts)
}

func TestAbortProtocol(t *testing.T) {
	boom := errors.New("boom")
	stubs := stubSet{
		"a": {script: []api.Status{api.StatusFinished}},
		"b": {script: []api.Status{api.StatusAborted}, err: boom},
	}
	eng := newStubEngine(t, stubs, stubDataflow(
		stubDef("a"),
		stubDef("b", "a"),
	))
	ctx := context.Background()
	require.NoError(t, eng.Initialise(ctx))

	eng.queue = []*Node{eng.Node("b")}
	err := eng.ExecuteStep(ctx)
	assert.ErrorIs(t, err, ErrRunAborted)
	assert.ErrorIs(t, err, boom)

	// every step's abort hook ran exactly once
	for id, stub := range stubs {
		assert.Equal(t, 1, stub.aborts, string(id))
	}

	// the failure is surfaced as state in addition to the error return
	assert.Equal(t, api.StatusAborted, eng.Status())
	assert.ErrorIs(t, eng.Err(), boom)
	assert.NotEmpty(t, eng.State().Error)

	// an aborted run makes no further progress
	err = eng.ExecuteStep(ctx)
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestExecuteFinalisesAfterAbort(t *testing.T) {
	boom := errors.New("boom")
	stubs := stubSet{
		"a": {script: []api.Status{api.StatusAborted}, err: boom},
	}
	eng := newStubEngine(t, stubs, stubDataflow(stubDef("a")))

	err := eng.Execute(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, api.StatusAborted, eng.Status())
	assert.Equal(t, 1, stubs["a"].finals)
}

func TestExecuteRunsToCompletion(t *testing.T) {
	stubs := stubSet{
		"a": {script: []api.Status{api.StatusFinished}},
		"b": {script: []api.Status{
			api.StatusBlocked, api.StatusFinished,
		}},
	}
	eng := newStubEngine(t, stubs, stubDataflow(
		stubDef("a"),
		stubDef("b", "a"),
	))

	require.NoError(t, eng.Execute(context.Background()))
	assert.Equal(t, api.StatusFinalised, eng.Status())
	for id, stub := range stubs {
		assert.Equal(t, 1, stub.finals, string(id))
	}
}

func TestDisabledDataflowSkipsAutomatedRun(t *testing.T) {
	stubs := stubSet{}
	dataflow := stubDataflow(stubDef("a"))
	dataflow.Enabled = false
	eng := newStubEngine(t, stubs, dataflow, WithAutomated(true))

	require.NoError(t, eng.Execute(context.Background()))
	assert.Equal(t, api.StatusFinalised, eng.Status())
	assert.Equal(t, 0, stubs["a"].execs)
	assert.Equal(t, 1, stubs["a"].inits)
	assert.Equal(t, 1, stubs["a"].finals)
}

func TestDisabledDataflowRunsManually(t *testing.T) {
	stubs := stubSet{}
	dataflow := stubDataflow(stubDef("a"))
	dataflow.Enabled = false
	eng := newStubEngine(t, stubs, dataflow)

	require.NoError(t, eng.Execute(context.Background()))
	assert.Equal(t, 1, stubs["a"].execs)
}

func TestDisabledDataflowRunsWhenDry(t *testing.T) {
	stubs := stubSet{}
	dataflow := stubDataflow(stubDef("a"))
	dataflow.Enabled = false
	eng := newStubEngine(t, stubs, dataflow,
		WithAutomated(true), WithDryRun(true))

	require.NoError(t, eng.Execute(context.Background()))
	assert.Equal(t, 1, stubs["a"].execs)
}

func TestExecuteDrainsFlowPipeline(t *testing.T) {
	dataflow := &api.Dataflow{
		ID:      "pipeline",
		Name:    "Pipeline",
		Enabled: true,
		Steps: []api.StepDef{
			{
				ID:   "read",
				Type: steps.TypeJSONReader,
				Config: json.RawMessage(
					`{"source": [{"value": 1}, {"value": 2}]}`),
			},
			{
				ID:        "double",
				Type:      steps.TypeLuaTransform,
				DependsOn: []api.StepID{"read"},
				Config: json.RawMessage(`{
					"script": "record.doubled = record.value * 2; return record"
				}`),
			},
			{
				ID:        "write",
				Type:      steps.TypeNDJSONWriter,
				DependsOn: []api.StepID{"double"},
			},
		},
	}

	var out bytes.Buffer
	eng, err := New(dataflow, steps.Default(), store.NewMemoryVariables(),
		WithLogger(quietLogger()),
		WithOutput(&out),
	)
	require.NoError(t, err)

	require.NoError(t, eng.Execute(context.Background()))
	assert.Equal(t, api.StatusFinalised, eng.Status())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"value": 1, "doubled": 2}`, lines[0])
	assert.JSONEq(t, `{"value": 2, "doubled": 4}`, lines[1])

	writer := eng.Node("write").Step().(*steps.NDJSONWriter)
	assert.Equal(t, 2, writer.Written())
}

package log_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/weirlabs/weir/pkg/api"
	"github.com/weirlabs/weir/pkg/log"
)

type errStub string

func TestRunID(t *testing.T) {
	attr := log.RunID(api.RunID("run-123"))
	assertAttrEqual(t, attr, "run_id", "run-123")
}

func TestDataflowID(t *testing.T) {
	attr := log.DataflowID(api.DataflowID("orders"))
	assertAttrEqual(t, attr, "dataflow_id", "orders")
}

func TestStepID(t *testing.T) {
	attr := log.StepID(api.StepID("step-abc"))
	assertAttrEqual(t, attr, "step_id", "step-abc")
}

func TestStatus(t *testing.T) {
	attr := log.Status(api.StatusFlowing)
	assertAttrEqual(t, attr, "status", "flowing")
}

func TestError(t *testing.T) {
	attr := log.Error(nil)
	assertAttrEqual(t, attr, "error", "")

	attr = log.Error(errStub("boom"))
	assertAttrEqual(t, attr, "error", "boom")
}

func TestErrorString(t *testing.T) {
	attr := log.ErrorString("badness")
	assertAttrEqual(t, attr, "error", "badness")
}

func (e errStub) Error() string { return string(e) }

func assertAttrEqual(t *testing.T, attr slog.Attr, key, value string) {
	t.Helper()
	assert.Equal(t, key, attr.Key)
	assert.Equal(t, value, attr.Value.String())
}

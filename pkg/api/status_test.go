package api_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/weirlabs/weir/pkg/api"
)

func TestStatusValid(t *testing.T) {
	for _, status := range []api.Status{
		api.StatusNew,
		api.StatusInitialised,
		api.StatusBlocked,
		api.StatusWaiting,
		api.StatusProcessing,
		api.StatusFlowing,
		api.StatusFinished,
		api.StatusCancelled,
		api.StatusAborted,
		api.StatusFinalised,
	} {
		assert.True(t, status.Valid(), string(status))
	}

	assert.False(t, api.Status("exploded").Valid())
	assert.False(t, api.Status("").Valid())
	assert.False(t, api.Status("Finished").Valid())
}

func TestStatusIsTerminal(t *testing.T) {
	assert.True(t, api.StatusFinished.IsTerminal())
	assert.True(t, api.StatusCancelled.IsTerminal())
	assert.True(t, api.StatusAborted.IsTerminal())

	assert.False(t, api.StatusNew.IsTerminal())
	assert.False(t, api.StatusWaiting.IsTerminal())
	assert.False(t, api.StatusFlowing.IsTerminal())
	assert.False(t, api.StatusFinalised.IsTerminal())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "flowing", api.StatusFlowing.String())
}

package store

import (
	"context"
	"maps"
	"sync"

	"github.com/weirlabs/weir/pkg/api"
)

type (
	// Variables persists named values produced during dataflow runs. Run
	// variables are scoped to a single run; global variables live at the
	// process-wide configuration level and survive across runs
	Variables interface {
		RunVars(ctx context.Context, id api.RunID) (api.Vars, error)
		SetRunVar(
			ctx context.Context, id api.RunID, name string, value any,
		) error
		GlobalVars(ctx context.Context) (api.Vars, error)
		SetGlobalVar(ctx context.Context, name string, value any) error
	}

	// MemoryVariables is an in-process Variables implementation used when
	// no Redis endpoint is configured, and by tests
	MemoryVariables struct {
		runs    map[api.RunID]api.Vars
		globals api.Vars
		mu      sync.RWMutex
	}
)

// NewMemoryVariables creates an empty in-process variable store
func NewMemoryVariables() *MemoryVariables {
	return &MemoryVariables{
		runs:    map[api.RunID]api.Vars{},
		globals: api.Vars{},
	}
}

// RunVars returns a copy of the variables recorded for a run
func (m *MemoryVariables) RunVars(
	_ context.Context, id api.RunID,
) (api.Vars, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.runs[id]), nil
}

// SetRunVar records a variable value at the run scope
func (m *MemoryVariables) SetRunVar(
	_ context.Context, id api.RunID, name string, value any,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	vars, ok := m.runs[id]
	if !ok {
		vars = api.Vars{}
		m.runs[id] = vars
	}
	vars[name] = value
	return nil
}

// GlobalVars returns a copy of the process-wide variables
func (m *MemoryVariables) GlobalVars(_ context.Context) (api.Vars, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.globals), nil
}

// SetGlobalVar records a variable value at the configuration scope
func (m *MemoryVariables) SetGlobalVar(
	_ context.Context, name string, value any,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.globals[name] = value
	return nil
}

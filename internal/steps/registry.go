package steps

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/weirlabs/weir/pkg/api"
)

type (
	// Factory constructs a step implementation from its definition
	Factory func(def *api.StepDef) (Step, error)

	// Registry maps step type tags to factories. Unknown tags fail at
	// dataflow construction time, before any run starts
	Registry struct {
		factories map[string]Factory
		mu        sync.RWMutex
	}
)

var (
	ErrUnknownStepType   = errors.New("unknown step type")
	ErrDuplicateStepType = errors.New("step type already registered")
)

var defaultRegistry = NewRegistry()

// NewRegistry creates an empty step type registry
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Default returns the process-wide registry populated by package init
func Default() *Registry {
	return defaultRegistry
}

// Register adds a factory for a step type tag
func (r *Registry) Register(tag string, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[tag]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateStepType, tag)
	}
	r.factories[tag] = factory
	return nil
}

// MustRegister adds a factory and panics on a duplicate tag. Intended for
// package init blocks where duplication is a programming error
func (r *Registry) MustRegister(tag string, factory Factory) {
	if err := r.Register(tag, factory); err != nil {
		panic(err)
	}
}

// New constructs a step implementation for the definition's type tag
func (r *Registry) New(def *api.StepDef) (Step, error) {
	r.mu.RLock()
	factory, ok := r.factories[def.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s (step %s)",
			ErrUnknownStepType, def.Type, def.ID)
	}
	return factory(def)
}

// Known returns true if the type tag has a registered factory
func (r *Registry) Known(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[tag]
	return ok
}

// Types returns the registered type tags in sorted order
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.factories))
	for tag := range r.factories {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

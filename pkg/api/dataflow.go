package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/weirlabs/weir/internal/util"
)

type (
	// Dataflow is the static definition of a pipeline: an ordered set of
	// step definitions with declared dependency edges. It is read-only from
	// the engine's perspective during a run
	Dataflow struct {
		ID      DataflowID `json:"id"`
		Name    string     `json:"name"`
		Enabled bool       `json:"enabled"`
		Vars    Vars       `json:"vars,omitempty"`
		Steps   []StepDef  `json:"steps"`
	}

	// StepDef declares a single step: its identity, a type tag resolved
	// through the step registry, the ids of its upstream dependencies, and
	// opaque type-specific configuration
	StepDef struct {
		ID        StepID          `json:"id"`
		Name      string          `json:"name,omitempty"`
		Type      string          `json:"type"`
		DependsOn []StepID        `json:"depends_on,omitempty"`
		Config    json.RawMessage `json:"config,omitempty"`
	}
)

var (
	ErrDataflowIDEmpty = errors.New("dataflow ID empty")
	ErrDataflowNoSteps = errors.New("dataflow has no steps")
	ErrStepIDEmpty     = errors.New("step ID empty")
	ErrStepTypeEmpty   = errors.New("step type empty")
	ErrDuplicateStepID = errors.New("duplicate step ID")
	ErrSelfDependency  = errors.New("step depends on itself")
	ErrEmptyDependency = errors.New("dependency ID empty")
)

// Validate checks the structural validity of a dataflow definition. Cycle
// detection and dependency resolution are left to engine construction
func (d *Dataflow) Validate() error {
	if d.ID == "" {
		return ErrDataflowIDEmpty
	}
	if len(d.Steps) == 0 {
		return fmt.Errorf("%w: %s", ErrDataflowNoSteps, d.ID)
	}

	seen := util.Set[StepID]{}
	for _, s := range d.Steps {
		if err := s.Validate(); err != nil {
			return err
		}
		if seen.Contains(s.ID) {
			return fmt.Errorf("%w: %s", ErrDuplicateStepID, s.ID)
		}
		seen.Add(s.ID)
	}
	return nil
}

// Validate checks the structural validity of a single step definition
func (s *StepDef) Validate() error {
	if s.ID == "" {
		return ErrStepIDEmpty
	}
	if s.Type == "" {
		return fmt.Errorf("%w: %s", ErrStepTypeEmpty, s.ID)
	}
	for _, dep := range s.DependsOn {
		if dep == "" {
			return fmt.Errorf("%w: step %s", ErrEmptyDependency, s.ID)
		}
		if dep == s.ID {
			return fmt.Errorf("%w: %s", ErrSelfDependency, s.ID)
		}
	}
	return nil
}

// GetStep returns the step definition with the given id, or nil
func (d *Dataflow) GetStep(id StepID) *StepDef {
	for i := range d.Steps {
		if d.Steps[i].ID == id {
			return &d.Steps[i]
		}
	}
	return nil
}

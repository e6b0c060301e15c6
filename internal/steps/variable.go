package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/weirlabs/weir/pkg/api"
)

type (
	// SetVariable is a connector that persists a single named value through
	// the run's variable store. Run-scoped writes are skipped by the engine
	// during dry runs; global writes always persist
	SetVariable struct {
		Base
		config setVariableConfig
	}

	setVariableConfig struct {
		Name   string          `json:"name"`
		Value  json.RawMessage `json:"value"`
		Global bool            `json:"global,omitempty"`
	}
)

const TypeSetVariable = "set-variable"

var ErrVariableNameEmpty = errors.New("variable name empty")

func init() {
	Default().MustRegister(TypeSetVariable, NewSetVariable)
}

// NewSetVariable constructs a set-variable step from its definition
func NewSetVariable(def *api.StepDef) (Step, error) {
	s := &SetVariable{Base: NewBase(def)}
	if err := json.Unmarshal(def.Config, &s.config); err != nil {
		return nil, fmt.Errorf("step %s: %w", def.ID, err)
	}
	if s.config.Name == "" {
		return nil, fmt.Errorf("%w: step %s", ErrVariableNameEmpty, def.ID)
	}
	return s, nil
}

func (s *SetVariable) IsFlow() bool {
	return false
}

// Execute persists the configured value once its upstreams have completed
func (s *SetVariable) Execute(ctx context.Context) (api.Status, error) {
	if !s.upstreamsDone() {
		return s.blocked()
	}

	var value any
	if len(s.config.Value) > 0 {
		if err := json.Unmarshal(s.config.Value, &value); err != nil {
			return s.aborted(fmt.Errorf("step %s: %w", s.Def().ID, err))
		}
	}

	var err error
	if s.config.Global {
		err = s.Run().Vars.SetGlobal(ctx, s.config.Name, value)
	} else {
		err = s.Run().Vars.Set(ctx, s.config.Name, value)
	}
	if err != nil {
		return s.aborted(err)
	}
	return s.finished()
}

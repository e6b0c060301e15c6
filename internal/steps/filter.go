package steps

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/weirlabs/weir/pkg/api"
)

// LuaFilter is a flow step that drops records failing a Lua predicate. The
// predicate receives the record as a table named `record` and returns a
// boolean; a dropped record leaves the step waiting for the next one
type LuaFilter struct {
	Base
	env      *luaEnv
	compiled *compiledLua
	config   luaStepConfig
}

const TypeLuaFilter = "filter-lua"

func init() {
	Default().MustRegister(TypeLuaFilter, NewLuaFilter)
}

// NewLuaFilter constructs a Lua filter step, compiling its predicate so a
// bad script fails before any run starts
func NewLuaFilter(def *api.StepDef) (Step, error) {
	s := &LuaFilter{Base: NewBase(def), env: newLuaEnv()}
	if err := json.Unmarshal(def.Config, &s.config); err != nil {
		return nil, fmt.Errorf("step %s: %w", def.ID, err)
	}
	if s.config.Script == "" {
		return nil, fmt.Errorf("%w: step %s", ErrScriptEmpty, def.ID)
	}

	compiled, err := s.env.compile(s.config.Script, luaScriptArgs)
	if err != nil {
		return nil, fmt.Errorf("step %s: %w", def.ID, err)
	}
	s.compiled = compiled
	return s, nil
}

func (s *LuaFilter) IsFlow() bool {
	return true
}

// Execute pulls one record and either passes it through or drops it
func (s *LuaFilter) Execute(context.Context) (api.Status, error) {
	src, ok := s.source()
	if !ok {
		return s.finished()
	}

	rec, ok := src.Take()
	if !ok {
		if src.Done() {
			return s.finished()
		}
		return s.waiting()
	}

	result, err := s.env.execute(s.compiled, []any{rec})
	if err != nil {
		return s.aborted(err)
	}

	keep, ok := result.(bool)
	if !ok {
		return s.aborted(fmt.Errorf(
			"%w: predicate for step %s returned %T, want boolean",
			ErrLuaExecution, s.Def().ID, result))
	}

	if !keep {
		// The dropped record consumed this activation; wait for the next
		return s.waiting()
	}
	return s.flowing(rec)
}

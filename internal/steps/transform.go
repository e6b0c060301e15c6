package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/weirlabs/weir/pkg/api"
)

type (
	// LuaTransform is a flow step that maps each record through a sandboxed
	// Lua script. The script receives the record as a table named `record`
	// and returns the transformed record table
	LuaTransform struct {
		Base
		env      *luaEnv
		compiled *compiledLua
		config   luaStepConfig
	}

	luaStepConfig struct {
		Script string `json:"script"`
	}
)

const TypeLuaTransform = "transform-lua"

var ErrScriptEmpty = errors.New("script empty")

var luaScriptArgs = []string{"record"}

func init() {
	Default().MustRegister(TypeLuaTransform, NewLuaTransform)
}

// NewLuaTransform constructs a Lua transform step, compiling its script so
// a bad script fails before any run starts
func NewLuaTransform(def *api.StepDef) (Step, error) {
	s := &LuaTransform{Base: NewBase(def), env: newLuaEnv()}
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

func (s *LuaTransform) IsFlow() bool {
	return true
}

// Execute pulls one record from upstream and emits its transformation
func (s *LuaTransform) Execute(context.Context) (api.Status, error) {
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

	if mapped, ok := result.(map[string]any); ok {
		return s.flowing(api.Record(mapped))
	}
	return s.flowing(api.Record{"result": result})
}

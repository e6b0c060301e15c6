package steps

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/Shopify/go-lua"

	"github.com/weirlabs/weir/pkg/api"
)

type (
	// luaEnv is a sandboxed Lua execution environment with state pooling,
	// shared by the script-backed step variants
	luaEnv struct {
		statePool chan *lua.State
	}

	// compiledLua is a Lua script compiled to bytecode with its positional
	// argument names
	compiledLua struct {
		bytecode []byte
		argNames []string
	}
)

const (
	luaStatePoolSize    = 4
	luaGlobalTableIndex = -2
	luaTableValueIndex  = -3
	luaArgLocalTemplate = "local %s = select(%d, ...)"
	luaGlobalTableName  = "_G"
)

var (
	ErrLuaLoad      = errors.New("lua load error")
	ErrLuaExecution = errors.New("lua execution error")
)

var luaExclude = [...]string{
	"io", "os", "debug", "package", "require", "dofile", "loadfile", "load",
}

func newLuaEnv() *luaEnv {
	return &luaEnv{
		statePool: make(chan *lua.State, luaStatePoolSize),
	}
}

// compile prepends positional argument locals to the script and compiles
// the result to reusable bytecode
func (e *luaEnv) compile(
	script string, argNames []string,
) (*compiledLua, error) {
	argLocals := make([]string, len(argNames))
	for i, name := range argNames {
		argLocals[i] = fmt.Sprintf(luaArgLocalTemplate, name, i+1)
	}

	src := strings.Join(
		append(argLocals, script), "\n",
	)

	L := lua.NewState()
	e.setupSandbox(L)

	if err := lua.LoadString(L, src); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}

	var buf bytes.Buffer
	if err := L.Dump(&buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}

	return &compiledLua{
		bytecode: buf.Bytes(),
		argNames: argNames,
	}, nil
}

// execute runs a compiled script with the provided arguments and returns
// the single result value
func (e *luaEnv) execute(c *compiledLua, args []any) (any, error) {
	L := e.getState()
	defer e.returnState(L)

	e.setupSandbox(L)
	if err := L.Load(bytes.NewReader(c.bytecode), "chunk", "b"); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}

	for _, arg := range args {
		goToLua(L, arg)
	}

	if err := L.ProtectedCall(len(args), 1, 0); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaExecution, err)
	}

	result := luaToGo(L, -1)
	L.Pop(1)
	return result, nil
}

func (e *luaEnv) setupSandbox(L *lua.State) {
	lua.OpenLibraries(L)
	L.Global(luaGlobalTableName)
	for _, name := range luaExclude {
		L.PushNil()
		L.SetField(luaGlobalTableIndex, name)
	}
	L.Pop(1)
}

func (e *luaEnv) getState() *lua.State {
	select {
	case L := <-e.statePool:
		return L
	default:
		return lua.NewState()
	}
}

func (e *luaEnv) returnState(L *lua.State) {
	L.SetTop(0)

	select {
	case e.statePool <- L:
	default:
	}
}

func goToLua(L *lua.State, value any) {
	switch v := value.(type) {
	case string:
		L.PushString(v)
	case bool:
		L.PushBoolean(v)
	case int:
		L.PushInteger(v)
	case int64:
		L.PushInteger(int(v))
	case float64:
		L.PushNumber(v)
	case []any:
		pushLuaArray(L, v)
	case map[string]any:
		pushLuaMap(L, v)
	case api.Record:
		pushLuaMap(L, v)
	case api.Vars:
		pushLuaMap(L, v)
	case nil:
		L.PushNil()
	default:
		L.PushString(fmt.Sprintf("%v", v))
	}
}

func pushLuaArray(L *lua.State, arr []any) {
	L.CreateTable(len(arr), 0)
	for i, item := range arr {
		L.PushInteger(i + 1)
		goToLua(L, item)
		L.SetTable(luaTableValueIndex)
	}
}

func pushLuaMap[V any](L *lua.State, m map[string]V) {
	L.CreateTable(0, len(m))
	for k, val := range m {
		L.PushString(k)
		goToLua(L, val)
		L.SetTable(luaTableValueIndex)
	}
}

func luaToGo(L *lua.State, index int) any {
	switch {
	case L.IsNil(index):
		return nil
	case L.IsBoolean(index):
		return L.ToBoolean(index)
	case L.IsNumber(index):
		return luaNumberToGo(L, index)
	case L.IsString(index):
		str, _ := L.ToString(index)
		return str
	case L.IsTable(index):
		return luaTableToMap(L, index)
	default:
		return nil
	}
}

func luaNumberToGo(L *lua.State, index int) any {
	num, _ := L.ToNumber(index)
	if num == float64(int(num)) {
		return int(num)
	}
	return num
}

func luaTableToMap(L *lua.State, index int) map[string]any {
	result := map[string]any{}

	if index < 0 {
		index = L.Top() + index + 1
	}

	L.PushNil()
	for L.Next(index) {
		if key, ok := L.ToString(-2); ok {
			result[key] = luaToGo(L, -1)
		}
		L.Pop(1)
	}
	return result
}

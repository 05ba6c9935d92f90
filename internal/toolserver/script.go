package toolserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	lua "github.com/yuin/gopher-lua"
)

// scriptTool runs user-supplied Lua in a restricted interpreter: only
// the base, table, string, and math libraries are opened, print is
// captured, and execution is cut off after a wall-clock budget.
type scriptTool struct {
	budget time.Duration
}

func newScriptTool() *scriptTool {
	return &scriptTool{budget: 5 * time.Second}
}

func (t *scriptTool) run(ctx context.Context, source string) (map[string]any, error) {
	lState := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer lState.Close()

	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := lState.CallByParam(lua.P{
			Fn:      lState.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			return nil, fmt.Errorf("open lua lib %s: %w", lib.name, err)
		}
	}

	var printed strings.Builder
	lState.SetGlobal("print", lState.NewFunction(func(ls *lua.LState) int {
		top := ls.GetTop()
		for i := 1; i <= top; i++ {
			if i > 1 {
				printed.WriteByte('\t')
			}
			printed.WriteString(ls.ToStringMeta(ls.Get(i)).String())
		}
		printed.WriteByte('\n')
		return 0
	}))

	runCtx, cancel := context.WithTimeout(ctx, t.budget)
	defer cancel()
	lState.SetContext(runCtx)

	before := lState.GetTop()
	if err := lState.DoString(source); err != nil {
		return nil, fmt.Errorf("script failed: %w", err)
	}

	result := map[string]any{
		"output": printed.String(),
	}
	if lState.GetTop() > before {
		result["result"] = lState.Get(-1).String()
	}
	return result, nil
}

func (s *Server) handleScript(ctx context.Context, request mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	source := request.GetString("source", "")
	if source == "" {
		return errorResult("source is required"), nil
	}

	result, err := s.script.run(ctx, source)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return jsonResult(result)
}

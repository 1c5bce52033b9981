package tool

import (
	"encoding/json"
	"fmt"
	"runtime/debug"

	"github.com/hupe1980/taskmesh/core"
)

// panicError converts a recovered panic value to an error.
func panicError(r any) error { return &panicErr{val: r, stack: debug.Stack()} }

type panicErr struct {
	val   any
	stack []byte
}

func (p *panicErr) Error() string { return fmt.Sprintf("panic recovered: %v", p.val) }

// Execute resolves name among tools, decodes the JSON arguments and calls the
// tool. Every failure is reported as *ToolError: unknown tools as NOT_FOUND,
// undecodable arguments as VALIDATION_ERROR, panics and plain errors as
// EXECUTION_ERROR.
func Execute(toolCtx *core.ToolContext, tools []core.Tool, name, args string) (result any, err error) {
	impl := core.FindTool(tools, name)
	if impl == nil {
		return nil, NewToolError(name, fmt.Sprintf("tool %s not found", name), CodeNotFound)
	}

	argMap := map[string]any{}
	if args != "" {
		if err := json.Unmarshal([]byte(args), &argMap); err != nil {
			return nil, &ToolError{
				Tool:    name,
				Message: fmt.Sprintf("failed to unmarshal args: %v", err),
				Code:    CodeValidation,
			}
		}
	}

	defer func() {
		if r := recover(); r != nil {
			toolCtx.LogError("tool.call.panic", "tool", name, "recover", r)
			result = nil
			err = &ToolError{Tool: name, Message: panicError(r).Error(), Code: CodeExecution}
		}
	}()

	result, err = impl.Call(toolCtx, argMap)
	if err != nil {
		if _, ok := err.(*ToolError); !ok {
			err = &ToolError{Tool: name, Message: err.Error(), Code: CodeExecution}
		}
		return nil, err
	}

	return result, nil
}

// FormatResult renders a tool result as text for the model. Strings pass
// through, fmt.Stringer values use String, everything else is JSON encoded.
func FormatResult(v any) string {
	switch r := v.(type) {
	case nil:
		return ""
	case string:
		return r
	case fmt.Stringer:
		return r.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

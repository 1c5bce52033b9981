package tool

import (
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/internal/util"
)

// FunctionFunc is the implementation behind a FunctionTool. It receives
// arguments that already passed schema validation.
type FunctionFunc func(toolCtx *core.ToolContext, args map[string]any) (any, error)

// FunctionTool exposes a plain Go function as a tool. Arguments are checked
// against the declared schema before fn runs; failures surface as *ToolError:
//
//	schema mismatch      -> VALIDATION_ERROR
//	*ToolError from fn   -> forwarded unchanged
//	other error from fn  -> EXECUTION_ERROR
//
// A FunctionTool is immutable after construction and safe for concurrent use.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          FunctionFunc
}

// NewFunctionTool constructs a FunctionTool.
//
// Example:
//
//	promptTool := NewFunctionTool(
//	  "user_prompt",
//	  "Return the original user prompt of this run",
//	  map[string]any{"type": "object", "properties": map[string]any{}},
//	  func(tc *core.ToolContext, _ map[string]any) (any, error) {
//	    return tc.Input(core.InputUserPrompt), nil
//	  },
//	)
func NewFunctionTool(name, description string, parameters map[string]any, fn FunctionFunc) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// Name returns the tool name.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the description shown to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema of the accepted arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates args and invokes the function.
func (t *FunctionTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	start := time.Now()

	if err := util.ValidateParameters(args, t.parameters); err != nil {
		toolCtx.LogWarn("tool.call.validation_failed", "tool", t.name, "fc_id", toolCtx.FunctionCallID(), "error", err.Error())
		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
			Details: err,
		}
	}

	result, err := t.fn(toolCtx, args)
	if err != nil {
		toolCtx.LogError("tool.call.error", "tool", t.name, "fc_id", toolCtx.FunctionCallID(), "error", err.Error())

		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			return nil, toolErr
		}
		return nil, &ToolError{Tool: t.name, Message: err.Error(), Code: CodeExecution}
	}

	toolCtx.LogDebug("tool.call.success", "tool", t.name, "fc_id", toolCtx.FunctionCallID(),
		"duration_ms", time.Since(start).Milliseconds())

	return result, nil
}

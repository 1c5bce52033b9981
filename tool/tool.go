// Package tool implements the function / tool calling subsystem that lets agents
// invoke structured capabilities (knowledge retrieval, web search, memory lookups)
// with schema validated arguments, consistent error handling and rich metadata
// for model guidance.
package tool

import (
	"errors"
	"fmt"

	"github.com/hupe1980/taskmesh/core"
	"github.com/hupe1980/taskmesh/internal/util"
)

// Tool is the capability contract agents call. It is declared in core so
// that agents and tools share it without an import cycle.
type Tool = core.Tool

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// Error codes carried by ToolError.
const (
	// CodeValidation marks malformed or schema violating arguments.
	CodeValidation = "VALIDATION_ERROR"
	// CodeNotFound marks a call to a tool the agent was not given.
	CodeNotFound = "NOT_FOUND"
	// CodeExecution marks a failure of the capability itself (network, backend, I/O).
	CodeExecution = "EXECUTION_ERROR"
)

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// IsRecoverable reports whether err is a model mistake (bad arguments or an
// unknown tool) that can be reported back to the model instead of aborting
// the task.
func IsRecoverable(err error) bool {
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		return false
	}
	return toolErr.Code == CodeValidation || toolErr.Code == CodeNotFound
}

package tool

import (
	"fmt"

	"github.com/hupe1980/taskmesh/core"
)

// MemoryToolName is the name of the memory reader tool.
const MemoryToolName = "memory_reader"

// NewMemoryTool returns a read-only view of the run's MemoryStore. Agents use
// it to look up intermediate artifacts such as "idea" or
// "compliance_summary". Writes happen only through task completion handlers.
func NewMemoryTool() *FunctionTool {
	return NewFunctionTool(
		MemoryToolName,
		"Read intermediate results of this run. Operations: list_keys, get (requires key).",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"operation": map[string]any{
					"type":        "string",
					"enum":        []string{"get", "list_keys"},
					"description": "The read operation to perform",
				},
				"key": map[string]any{
					"type":        "string",
					"minLength":   1,
					"description": "Memory key for the get operation",
				},
			},
			"required": []string{"operation"},
		},
		func(tc *core.ToolContext, args map[string]any) (any, error) {
			switch args["operation"] {
			case "list_keys":
				keys := tc.MemoryKeys()
				return map[string]any{"keys": keys, "count": len(keys)}, nil
			case "get":
				key, _ := args["key"].(string)
				if key == "" {
					return nil, NewToolError(MemoryToolName, "key parameter is required for get operation", CodeValidation)
				}
				value, exists := tc.GetMemory(key)
				return map[string]any{"key": key, "exists": exists, "value": value}, nil
			default:
				return nil, NewToolError(MemoryToolName, fmt.Sprintf("unknown operation: %v", args["operation"]), CodeValidation)
			}
		},
	)
}

package core

// Tool defines the interface for extending agent capabilities with external functions.
//
// Tools are handed to agents per execution, allowing them to perform actions
// beyond text generation such as searching a knowledge corpus or the web.
// Every tool receives a ToolContext that exposes the run identifiers, a logger
// and read access to the run's MemoryStore.
//
// Tool implementations should:
//   - Provide clear, descriptive names (snake_case) and descriptions
//   - Define a JSON schema for parameters
//   - Be safe for concurrent use, since concurrent runs may share one instance
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description provided to the model.
	Description() string

	// Parameters returns a JSON schema describing the expected input format.
	Parameters() map[string]any

	// Call executes the tool with schema validated arguments.
	Call(toolCtx *ToolContext, args map[string]any) (any, error)
}

// FindTool returns the tool with the given name, or nil.
func FindTool(tools []Tool, name string) Tool {
	for _, t := range tools {
		if t.Name() == name {
			return t
		}
	}
	return nil
}

package util

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError reports the first argument that does not match a tool's
// parameter schema.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ValidateParameters checks model supplied arguments against the minimal
// JSON schema subset tools declare: required, properties.*.type,
// properties.*.enum and properties.*.minLength. Unknown fields pass.
func ValidateParameters(params map[string]any, schema map[string]any) error {
	for _, name := range stringList(schema["required"]) {
		if _, ok := params[name]; !ok {
			return &ValidationError{Field: name, Message: "required field is missing"}
		}
	}

	properties, _ := schema["properties"].(map[string]any)
	for name, value := range params {
		prop, ok := properties[name].(map[string]any)
		if !ok || value == nil {
			continue
		}

		if typ, _ := prop["type"].(string); !matchesType(value, typ) {
			return &ValidationError{Field: name, Value: value, Message: fmt.Sprintf("expected type %s, got %T", typ, value)}
		}

		if enum := stringList(prop["enum"]); len(enum) > 0 {
			if s, ok := value.(string); !ok || !slices.Contains(enum, s) {
				return &ValidationError{Field: name, Value: value, Message: "must be one of " + strings.Join(enum, ", ")}
			}
		}

		if minLen, ok := prop["minLength"].(int); ok {
			if s, isStr := value.(string); isStr && len(strings.TrimSpace(s)) < minLen {
				return &ValidationError{Field: name, Value: value, Message: fmt.Sprintf("must have at least %d characters", minLen)}
			}
		}
	}

	return nil
}

// stringList reads a list declared as []string (Go literals) or []any
// (decoded JSON).
func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// matchesType reports whether value fits the JSON schema type. JSON numbers
// decode to float64, so integral floats satisfy "integer".
func matchesType(value any, typ string) bool {
	switch typ {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			return v == float64(int64(v))
		}
		return false
	case "number":
		switch value.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}

package tool

import (
	"context"
	"fmt"
	"time"
)

// Tool is the interface every agent capability implements.
type Tool interface {
	Name() string
	Description() string
	Parameters() []Parameter
	Execute(ctx context.Context, params map[string]any) Result
}

// DefinitionOf derives the full Definition for a tool.
func DefinitionOf(t Tool) Definition {
	return Definition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Parameters(),
	}
}

// ValidateParams checks params against the tool's declared parameters:
// required presence, primitive type, and enum membership.
func ValidateParams(t Tool, params map[string]any) error {
	for _, p := range t.Parameters() {
		value, present := params[p.Name]
		if !present {
			if p.Required {
				return fmt.Errorf("missing required parameter: %s", p.Name)
			}
			continue
		}

		switch p.Type {
		case "string":
			if _, ok := value.(string); !ok {
				return fmt.Errorf("parameter %s must be a string", p.Name)
			}
		case "number":
			if !isNumber(value) {
				return fmt.Errorf("parameter %s must be a number", p.Name)
			}
		case "boolean":
			if _, ok := value.(bool); !ok {
				return fmt.Errorf("parameter %s must be a boolean", p.Name)
			}
		case "array":
			if _, ok := value.([]any); !ok {
				return fmt.Errorf("parameter %s must be an array", p.Name)
			}
		case "object":
			if _, ok := value.(map[string]any); !ok {
				return fmt.Errorf("parameter %s must be an object", p.Name)
			}
		}

		if len(p.EnumValues) > 0 {
			s, ok := value.(string)
			if !ok || !contains(p.EnumValues, s) {
				return fmt.Errorf("parameter %s must be one of: %v", p.Name, p.EnumValues)
			}
		}
	}
	return nil
}

// SafeExecute is the mandatory execution wrapper for all dispatch paths.
// It validates parameters, runs the tool, converts panics into ERROR
// results, and stamps the execution time. It never panics.
func SafeExecute(ctx context.Context, t Tool, params map[string]any) (result Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = Errorf("tool execution failed: %v", r)
		}
		result.ExecutionTime = time.Since(start)
	}()

	if params == nil {
		params = map[string]any{}
	}

	if err := ValidateParams(t, params); err != nil {
		return Errorf("parameter validation failed: %v", err)
	}

	return t.Execute(ctx, params)
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int32, int64, float32, float64:
		return true
	}
	return false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// Helpers for reading coerced parameter values. Extractors and JSON decode
// both produce float64 for numbers, so tools go through these rather than
// asserting concrete types.

func stringParam(params map[string]any, name, fallback string) string {
	if v, ok := params[name].(string); ok {
		return v
	}
	return fallback
}

func boolParam(params map[string]any, name string, fallback bool) bool {
	if v, ok := params[name].(bool); ok {
		return v
	}
	return fallback
}

func numberParam(params map[string]any, name string, fallback float64) float64 {
	switch v := params[name].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return fallback
}

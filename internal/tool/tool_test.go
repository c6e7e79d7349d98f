package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateParams(t *testing.T) {
	tl := &stubTool{
		name: "demo",
		params: []Parameter{
			{Name: "path", Type: "string", Required: true},
			{Name: "count", Type: "number"},
			{Name: "flag", Type: "boolean"},
			{Name: "mode", Type: "string", EnumValues: []string{"fast", "slow"}},
		},
	}

	assert.NoError(t, ValidateParams(tl, map[string]any{"path": "a"}))
	assert.NoError(t, ValidateParams(tl, map[string]any{
		"path": "a", "count": float64(3), "flag": true, "mode": "fast",
	}))

	err := ValidateParams(tl, map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required parameter: path")

	err = ValidateParams(tl, map[string]any{"path": 42})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a string")

	err = ValidateParams(tl, map[string]any{"path": "a", "count": "three"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be a number")

	err = ValidateParams(tl, map[string]any{"path": "a", "mode": "medium"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be one of")
}

func TestSafeExecuteValidationFailureSkipsExecution(t *testing.T) {
	ran := false
	tl := &stubTool{
		name:   "demo",
		params: []Parameter{{Name: "path", Type: "string", Required: true}},
		execute: func(_ context.Context, _ map[string]any) Result {
			ran = true
			return Result{Status: StatusSuccess}
		},
	}

	res := SafeExecute(context.Background(), tl, nil)

	assert.False(t, ran)
	assert.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.ErrorMessage, "parameter validation failed")
}

func TestSafeExecuteRecoversPanic(t *testing.T) {
	tl := &stubTool{
		name: "bomb",
		execute: func(_ context.Context, _ map[string]any) Result {
			panic("boom")
		},
	}

	var res Result
	assert.NotPanics(t, func() {
		res = SafeExecute(context.Background(), tl, map[string]any{})
	})
	assert.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.ErrorMessage, "boom")
}

func TestSafeExecuteStampsExecutionTime(t *testing.T) {
	tl := &stubTool{name: "demo"}
	res := SafeExecute(context.Background(), tl, map[string]any{})

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Greater(t, res.ExecutionTime.Nanoseconds(), int64(0))
}

func TestResultMessage(t *testing.T) {
	ok := Result{Status: StatusSuccess, Content: "done"}
	assert.Equal(t, "✅ Tool executed successfully:\ndone", ok.Message())

	bad := Result{Status: StatusError, ErrorMessage: "nope"}
	assert.Equal(t, "❌ Tool execution failed: nope", bad.Message())

	empty := Result{Status: StatusError}
	assert.Contains(t, empty.Message(), "Unknown error")
}

func TestNewCallNeverNilParams(t *testing.T) {
	call := NewCall("x", nil)
	require.NotNil(t, call.Parameters)
	assert.InDelta(t, 1.0, call.Confidence, 0.001)
}

func TestDefinitionSchema(t *testing.T) {
	d := Definition{
		Name:        "read_file",
		Description: "Read a file",
		Parameters: []Parameter{
			{Name: "file_path", Type: "string", Description: "path", Required: true},
			{Name: "max_size_mb", Type: "number", Description: "cap"},
		},
	}

	schema := d.Schema()
	assert.Equal(t, "function", schema["type"])

	fn := schema["function"].(map[string]any)
	assert.Equal(t, "read_file", fn["name"])

	params := fn["parameters"].(map[string]any)
	assert.Equal(t, []string{"file_path"}, params["required"])

	props := params["properties"].(map[string]any)
	assert.Len(t, props, 2)
}

func TestDefinitionPromptBlock(t *testing.T) {
	d := Definition{
		Name:        "write_file",
		Description: "Write a file",
		Parameters: []Parameter{
			{Name: "file_path", Type: "string", Description: "where", Required: true},
			{Name: "create_dirs", Type: "boolean", Description: "mkdirs", Default: false},
		},
	}

	block := d.PromptBlock()
	assert.Contains(t, block, "Tool: write_file")
	assert.Contains(t, block, "file_path (string, required)")
	assert.Contains(t, block, "create_dirs (boolean, optional)")
	assert.Contains(t, block, "[default: false]")
}

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opencrew/internal/tool"
)

func TestBraceSpans(t *testing.T) {
	spans := braceSpans(`before {"a": {"b": 1}} middle {"c": 2} after`)
	require.Len(t, spans, 2)
	assert.Equal(t, `{"a": {"b": 1}}`, spans[0])
	assert.Equal(t, `{"c": 2}`, spans[1])
}

func TestBraceSpansIgnoresBracesInStrings(t *testing.T) {
	spans := braceSpans(`{"content": "a } inside a string"}`)
	require.Len(t, spans, 1)
	assert.Equal(t, `{"content": "a } inside a string"}`, spans[0])
}

func TestBraceSpansUnbalanced(t *testing.T) {
	assert.Empty(t, braceSpans("{{{ never closed"))
	assert.Empty(t, braceSpans("}}} never opened"))
}

func TestCallFromMapNameKeyVariants(t *testing.T) {
	for _, key := range []string{"tool_name", "name", "function", "tool", "action"} {
		call := callFromMap(map[string]any{key: "read_file", "parameters": map[string]any{"file_path": "x"}})
		require.NotNil(t, call, "key %s", key)
		assert.Equal(t, "read_file", call.ToolName)
	}
}

func TestCallFromMapFlattenedParams(t *testing.T) {
	call := callFromMap(map[string]any{
		"tool":      "write_file",
		"file_path": "a.txt",
		"content":   "hi",
	})
	require.NotNil(t, call)
	assert.Equal(t, "write_file", call.ToolName)
	assert.Equal(t, "a.txt", call.Parameters["file_path"])
	assert.Equal(t, "hi", call.Parameters["content"])
}

func TestCallFromMapNoName(t *testing.T) {
	assert.Nil(t, callFromMap(map[string]any{"file_path": "a.txt"}))
}

func TestFunctionStrategyCoercion(t *testing.T) {
	calls, _, conf := functionStrategy{}.Extract(
		`do_thing(count=3, enabled=true, label="hello world", ratio=0.5)`)

	assert.InDelta(t, 0.9, conf, 0.001)
	require.Len(t, calls, 1)
	params := calls[0].Parameters
	assert.Equal(t, float64(3), params["count"])
	assert.Equal(t, true, params["enabled"])
	assert.Equal(t, "hello world", params["label"])
	assert.Equal(t, 0.5, params["ratio"])
}

func TestFunctionStrategyDenylist(t *testing.T) {
	calls, _, _ := functionStrategy{}.Extract(`print("hello") and len(items)`)
	assert.Empty(t, calls)
}

func TestFunctionStrategyZeroArgs(t *testing.T) {
	calls, _, _ := functionStrategy{}.Extract(`refresh_cache()`)
	require.Len(t, calls, 1)
	assert.Equal(t, "refresh_cache", calls[0].ToolName)
	assert.Empty(t, calls[0].Parameters)
}

func TestFunctionStrategyUnparseableArgsSkipped(t *testing.T) {
	calls, _, _ := functionStrategy{}.Extract(`read_file(...)`)
	assert.Empty(t, calls)
}

func TestXMLStrategyToolAttribute(t *testing.T) {
	calls, _, _ := xmlStrategy{}.Extract(
		`<tool name="read_file">{"file_path": "a.txt"}</tool>`)

	require.Len(t, calls, 1)
	assert.Equal(t, "read_file", calls[0].ToolName)
	assert.Equal(t, "a.txt", calls[0].Parameters["file_path"])
}

func TestXMLStrategyGenericTagJSONBody(t *testing.T) {
	calls, _, _ := xmlStrategy{}.Extract(`<write_file>{"file_path": "b.txt", "content": "x"}</write_file>`)

	require.Len(t, calls, 1)
	assert.Equal(t, "write_file", calls[0].ToolName)
	assert.Equal(t, "b.txt", calls[0].Parameters["file_path"])
}

func TestKeyValueStrategyObjectForm(t *testing.T) {
	calls, _, conf := keyValueStrategy{}.Extract(`run_tool: {"arg": "v"}`)

	assert.InDelta(t, 0.6, conf, 0.001)
	require.Len(t, calls, 1)
	assert.Equal(t, "run_tool", calls[0].ToolName)
	assert.Equal(t, "v", calls[0].Parameters["arg"])
}

func TestKeyValueStrategyDenylist(t *testing.T) {
	calls, _, _ := keyValueStrategy{}.Extract("note: remember this\nexample: {\"a\": 1}")
	assert.Empty(t, calls)
}

func TestFencedStrategyLanguagesExcluded(t *testing.T) {
	for _, lang := range []string{"python", "go", "json", "bash"} {
		calls, _, _ := fencedStrategy{}.Extract("```" + lang + "\nkey: value\n```")
		assert.Empty(t, calls, "language %s", lang)
	}
}

func TestNaturalStrategyWriteFileNeedsContent(t *testing.T) {
	calls, _, _ := naturalStrategy{}.Extract(`Please create a file named report.txt`)
	assert.Empty(t, calls)

	calls, _, _ = naturalStrategy{}.Extract(
		`Please create a file named report.txt with content: quarterly numbers look good`)
	require.Len(t, calls, 1)
	assert.Equal(t, "write_file", calls[0].ToolName)
	assert.Equal(t, "report.txt", calls[0].Parameters["file_path"])
	assert.Equal(t, "quarterly numbers look good", calls[0].Parameters["content"])
}

func TestNaturalStrategyDerivesFilename(t *testing.T) {
	calls, _, _ := naturalStrategy{}.Extract(
		`Write a file saying "Hello there, General Kenobi"`)

	require.Len(t, calls, 1)
	assert.Equal(t, "write_file", calls[0].ToolName)
	assert.Equal(t, "Hello there, General Kenobi", calls[0].Parameters["content"])
	assert.Equal(t, "hello_there_general.txt", calls[0].Parameters["file_path"])
}

func TestNaturalStrategyListDirectoryDefaultsDot(t *testing.T) {
	calls, _, _ := naturalStrategy{}.Extract(`Could you list the files in the current folder`)

	require.Len(t, calls, 1)
	assert.Equal(t, "list_directory", calls[0].ToolName)
	assert.Equal(t, ".", calls[0].Parameters["dir_path"])
}

func TestSimilarityExamples(t *testing.T) {
	// These sit on either side of the fuzzy threshold used by the
	// registry.
	assert.Greater(t, tool.Similarity("read_fil", "read_file"), 0.6)
	assert.Less(t, tool.Similarity("rd_fl", "read_file"), 0.6)
}

package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opencrew/internal/tool"
)

// fakeTool records whether it ran; the parser must never execute it.
type fakeTool struct {
	name     string
	params   []tool.Parameter
	executed bool
}

func (f *fakeTool) Name() string                { return f.name }
func (f *fakeTool) Description() string         { return "test tool " + f.name }
func (f *fakeTool) Parameters() []tool.Parameter { return f.params }
func (f *fakeTool) Execute(_ context.Context, _ map[string]any) tool.Result {
	f.executed = true
	return tool.Result{Status: tool.StatusSuccess, Content: "ran " + f.name}
}

func testRegistry(t *testing.T) *tool.Registry {
	t.Helper()
	reg := tool.NewRegistry()
	for _, name := range []string{"read_file", "write_file", "list_directory"} {
		require.NoError(t, reg.Register(&fakeTool{name: name}))
	}
	return reg
}

func TestParseFencedJSON(t *testing.T) {
	p := New(testRegistry(t))

	res := p.Parse("Sure, I'll create the file:\n```json\n" +
		`{"tool_name": "write_file", "parameters": {"file_path": "hello.py", "content": "print(1)"}}` +
		"\n```")

	require.Len(t, res.ToolCalls, 1)
	call := res.ToolCalls[0]
	assert.Equal(t, "write_file", call.ToolName)
	assert.Equal(t, "hello.py", call.Parameters["file_path"])
	assert.Equal(t, "print(1)", call.Parameters["content"])
	assert.InDelta(t, 1.0, call.Confidence, 0.001)
	assert.Empty(t, res.ParseErrors)
}

func TestParseBareJSONObject(t *testing.T) {
	p := New(testRegistry(t))

	res := p.Parse(`Here you go: {"tool_name": "read_file", "parameters": {"file_path": "x.txt"}}`)

	require.Len(t, res.ToolCalls, 1)
	assert.Equal(t, "read_file", res.ToolCalls[0].ToolName)
	assert.Equal(t, "x.txt", res.ToolCalls[0].Parameters["file_path"])
}

func TestParseSingleQuotedJSONIsRepaired(t *testing.T) {
	p := New(testRegistry(t))

	res := p.Parse(`{'tool_name': 'read_file', 'parameters': {'file_path': 'x.txt'}}`)

	require.Len(t, res.ToolCalls, 1)
	call := res.ToolCalls[0]
	assert.Equal(t, "read_file", call.ToolName)
	assert.Equal(t, "x.txt", call.Parameters["file_path"])
	assert.InDelta(t, 0.8, call.Confidence, 0.001)
}

func TestParseMisspelledNameFuzzyResolves(t *testing.T) {
	p := New(testRegistry(t))

	res := p.Parse(`{"tool_name": "read_fil", "parameters": {"file_path": "x.txt"}}`)

	require.Len(t, res.ToolCalls, 1)
	call := res.ToolCalls[0]
	assert.Equal(t, "read_file", call.ToolName)
	assert.InDelta(t, 0.8, call.Confidence, 0.001)
	assert.Empty(t, res.ParseErrors)
}

func TestParseUnknownToolDropped(t *testing.T) {
	p := New(testRegistry(t))

	res := p.Parse(`{"tool_name": "launch_rocket", "parameters": {"target": "moon"}}`)

	assert.Empty(t, res.ToolCalls)
	require.Len(t, res.ParseErrors, 1)
	assert.Equal(t, "Unknown tool: launch_rocket", res.ParseErrors[0])
}

func TestParseTooDistantNameNotResolved(t *testing.T) {
	p := New(testRegistry(t))

	res := p.Parse(`{"tool_name": "rd_fl", "parameters": {"file_path": "x.txt"}}`)

	assert.Empty(t, res.ToolCalls)
	require.Len(t, res.ParseErrors, 1)
	assert.Equal(t, "Unknown tool: rd_fl", res.ParseErrors[0])
}

func TestParseFunctionCallSyntax(t *testing.T) {
	p := New(testRegistry(t))

	res := p.Parse(`I'll check it: read_file(file_path="notes.md", max_size_mb=5)`)

	require.Len(t, res.ToolCalls, 1)
	call := res.ToolCalls[0]
	assert.Equal(t, "read_file", call.ToolName)
	assert.Equal(t, "notes.md", call.Parameters["file_path"])
	assert.Equal(t, float64(5), call.Parameters["max_size_mb"])
	assert.InDelta(t, 0.9, call.Confidence, 0.001)
}

func TestParseIdempotent(t *testing.T) {
	p := New(testRegistry(t))
	text := `First read_file(file_path="a.txt"), then write_file(file_path="b.txt", content="hi")`

	first := p.Parse(text)
	second := p.Parse(text)

	require.Len(t, first.ToolCalls, 2)
	assert.Equal(t, "read_file", first.ToolCalls[0].ToolName)
	assert.Equal(t, "write_file", first.ToolCalls[1].ToolName)
	assert.Equal(t, first.ToolCalls, second.ToolCalls)
	assert.Equal(t, first.ParseErrors, second.ParseErrors)
	assert.Equal(t, first.Confidence, second.Confidence)
}

func TestParseFunctionMentionInProseIgnored(t *testing.T) {
	p := New(testRegistry(t))

	res := p.Parse(`You can use read_file(...) to inspect any file on disk.`)

	assert.Empty(t, res.ToolCalls)
}

func TestParseXMLTags(t *testing.T) {
	p := New(testRegistry(t))

	res := p.Parse("<list_directory>\ndir_path: /tmp\nshow_hidden: true\n</list_directory>")

	require.Len(t, res.ToolCalls, 1)
	call := res.ToolCalls[0]
	assert.Equal(t, "list_directory", call.ToolName)
	assert.Equal(t, "/tmp", call.Parameters["dir_path"])
	assert.InDelta(t, 0.8, call.Confidence, 0.001)
}

func TestParseXMLIgnoresHTMLAndMismatchedTags(t *testing.T) {
	p := New(testRegistry(t))

	res := p.Parse("<div>just markup</div> and <read_file>file_path: alpha</write_file>")

	assert.Empty(t, res.ToolCalls)
}

func TestParseFencedToolBlock(t *testing.T) {
	p := New(testRegistry(t))

	res := p.Parse("```write_file\nfile_path: out.txt\ncontent: hello there\n```")

	require.Len(t, res.ToolCalls, 1)
	call := res.ToolCalls[0]
	assert.Equal(t, "write_file", call.ToolName)
	assert.Equal(t, "out.txt", call.Parameters["file_path"])
	assert.Equal(t, "hello there", call.Parameters["content"])
	assert.InDelta(t, 0.7, call.Confidence, 0.001)
}

func TestParseFencedCodeBlockIgnored(t *testing.T) {
	p := New(testRegistry(t))

	res := p.Parse("```python\nprint('hello')\n```")

	assert.Empty(t, res.ToolCalls)
}

func TestParseNaturalLanguageFallback(t *testing.T) {
	p := New(testRegistry(t))

	res := p.Parse(`Please read the file "config.json" and tell me what it says.`)

	require.Len(t, res.ToolCalls, 1)
	call := res.ToolCalls[0]
	assert.Equal(t, "read_file", call.ToolName)
	assert.Equal(t, "config.json", call.Parameters["file_path"])
	assert.InDelta(t, 0.4, call.Confidence, 0.001)
}

func TestParseHypotheticalMentionSkipped(t *testing.T) {
	p := New(testRegistry(t))

	res := p.Parse(`For example, you could read the file "secrets.txt" if you wanted.`)

	assert.Empty(t, res.ToolCalls)
}

func TestParseShortCircuitSkipsWeakStrategies(t *testing.T) {
	p := New(testRegistry(t))

	// The JSON block is explicit; the surrounding prose must not add a
	// second vague call for the same intent.
	res := p.Parse("I will write the file now.\n" +
		"```json\n" +
		`{"tool_name": "write_file", "parameters": {"file_path": "a.txt", "content": "hi"}}` +
		"\n```")

	require.Len(t, res.ToolCalls, 1)
	assert.Equal(t, "write_file", res.ToolCalls[0].ToolName)
}

func TestParseDeduplicatesIdenticalCalls(t *testing.T) {
	p := New(testRegistry(t))

	res := p.Parse(
		`{"tool_name": "read_file", "parameters": {"file_path": "x.txt"}}` + "\n" +
			`{"tool_name": "read_file", "parameters": {"file_path": "x.txt"}}`)

	assert.Len(t, res.ToolCalls, 1)
}

func TestParseMultipleDistinctCalls(t *testing.T) {
	p := New(testRegistry(t))

	res := p.Parse(
		`{"tool_name": "read_file", "parameters": {"file_path": "a.txt"}}` + "\n" +
			`{"tool_name": "read_file", "parameters": {"file_path": "b.txt"}}`)

	require.Len(t, res.ToolCalls, 2)
	assert.Equal(t, "a.txt", res.ToolCalls[0].Parameters["file_path"])
	assert.Equal(t, "b.txt", res.ToolCalls[1].Parameters["file_path"])
}

func TestParseNeverExecutes(t *testing.T) {
	reg := tool.NewRegistry()
	ft := &fakeTool{name: "write_file"}
	require.NoError(t, reg.Register(ft))
	p := New(reg)

	p.Parse(`{"tool_name": "write_file", "parameters": {"file_path": "a", "content": "b"}}`)

	assert.False(t, ft.executed)
}

func TestParseGarbageInputs(t *testing.T) {
	p := New(testRegistry(t))

	inputs := []string{
		"",
		"plain prose with no tools at all",
		"{{{{{{",
		"}}}}",
		`{"tool_name": }`,
		"```json\n{broken\n```",
		"<><><>",
		"\x00\xff\xfe",
	}
	for _, input := range inputs {
		assert.NotPanics(t, func() { p.Parse(input) }, "input %q", input)
	}
}

func TestParseConfidenceAggregation(t *testing.T) {
	p := New(testRegistry(t))

	res := p.Parse(`{"tool_name": "read_file", "parameters": {"file_path": "x.txt"}}`)
	assert.InDelta(t, 1.0, res.Confidence, 0.001)

	res = p.Parse("no tool calls here at all")
	assert.InDelta(t, 1.0, res.Confidence, 0.001)
}

func TestNewWithStagesCustomCascade(t *testing.T) {
	// Only the function-call strategy is installed; JSON must not parse.
	p := NewWithStages(testRegistry(t), []Stage{{functionStrategy{}, 0.7}})

	res := p.Parse(`{"tool_name": "read_file", "parameters": {"file_path": "x.txt"}}`)
	assert.Empty(t, res.ToolCalls)

	res = p.Parse(`read_file(file_path="x.txt")`)
	require.Len(t, res.ToolCalls, 1)
	assert.Equal(t, "read_file", res.ToolCalls[0].ToolName)
}

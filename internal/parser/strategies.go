package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"opencrew/internal/tool"
)

// Strategy is one self-contained extraction algorithm covering a single
// syntactic convention (JSON, function call, XML tags, ...). Extract is a
// pure function returning candidate calls, non-fatal errors for spans it
// could not make sense of, and the strategy's own confidence.
type Strategy interface {
	Name() string
	Extract(text string) (calls []tool.Call, errs []string, confidence float64)
}

// repairPenalty is applied to a call recovered only via textual repair.
const repairPenalty = 0.8

// nameKeys are the object keys a JSON span may use for the tool name, in
// lookup order.
var nameKeys = []string{"tool_name", "name", "function", "tool", "action"}

// paramKeys are the object keys a JSON span may use for the parameter map.
var paramKeys = []string{"parameters", "params", "arguments"}

// jsonStrategy finds fenced and bare JSON objects that look like tool
// calls, repairing near-JSON where a strict parse fails.
type jsonStrategy struct{}

func (jsonStrategy) Name() string { return "json_blocks" }

var (
	fencedJSONPattern    = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
	fencedGenericPattern = regexp.MustCompile("(?s)```\\s*(\\{.*?\\})\\s*```")
	nameKeyHintPattern   = regexp.MustCompile(`["']?(?:tool_name|name|function|tool|action)["']?\s*:`)
)

func (jsonStrategy) Extract(text string) ([]tool.Call, []string, float64) {
	var calls []tool.Call
	var errs []string
	confidence := 1.0

	seen := map[string]bool{}
	var spans []string
	for _, pattern := range []*regexp.Regexp{fencedJSONPattern, fencedGenericPattern} {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				spans = append(spans, m[1])
			}
		}
	}
	for _, span := range braceSpans(text) {
		if !seen[span] && nameKeyHintPattern.MatchString(span) {
			seen[span] = true
			spans = append(spans, span)
		}
	}

	for _, span := range spans {
		call, repaired, err := parseJSONCall(span)
		if err != nil {
			errs = append(errs, fmt.Sprintf("failed to parse JSON: %s", truncateSpan(span, 100)))
			confidence *= 0.9
			continue
		}
		if call == nil {
			continue // valid JSON, but not tool-call shaped
		}
		call.RawText = span
		if repaired {
			call.Confidence *= repairPenalty
		}
		calls = append(calls, *call)
	}

	return calls, errs, confidence
}

// parseJSONCall parses a span strictly, then retries each repair in order.
// It returns (nil, false, nil) for valid JSON that is not a tool call.
func parseJSONCall(span string) (*tool.Call, bool, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(span), &data); err == nil {
		return callFromMap(data), false, nil
	}

	for _, repair := range repairs {
		fixed := repair(span)
		if fixed == span {
			continue
		}
		if err := json.Unmarshal([]byte(fixed), &data); err == nil {
			return callFromMap(data), true, nil
		}
	}
	return nil, false, fmt.Errorf("irreparable JSON span")
}

// callFromMap extracts a tool call from a decoded object, or nil if the
// object carries no recognizable tool name.
func callFromMap(data map[string]any) *tool.Call {
	var name string
	for _, key := range nameKeys {
		if v, ok := data[key].(string); ok && v != "" {
			name = v
			break
		}
	}
	if name == "" {
		return nil
	}

	for _, key := range paramKeys {
		if v, ok := data[key].(map[string]any); ok {
			call := tool.NewCall(name, v)
			return &call
		}
	}

	// Flattened form: every non-name key is a parameter.
	params := map[string]any{}
	for k, v := range data {
		if !isNameKey(k) && !isParamKey(k) {
			params[k] = v
		}
	}
	call := tool.NewCall(name, params)
	return &call
}

func isNameKey(k string) bool  { return contains(nameKeys, k) }
func isParamKey(k string) bool { return contains(paramKeys, k) }

// braceSpans returns top-level balanced {...} spans, tracking string
// literals so braces inside quoted values don't confuse the depth count.
// Unbalanced trailing braces are simply ignored.
func braceSpans(text string) []string {
	var spans []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, r := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		switch r {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					spans = append(spans, text[start:i+1])
					start = -1
				}
			}
		}
	}
	return spans
}

// functionStrategy parses name(key=value, ...) syntax.
type functionStrategy struct{}

func (functionStrategy) Name() string { return "function_calls" }

var (
	funcCallPattern  = regexp.MustCompile(`(\w+)\s*\(([^()]*)\)`)
	funcParamPattern = regexp.MustCompile(`(\w+)\s*=\s*("[^"]*"|'[^']*'|[^,]+)`)

	// Identifiers that show up in code samples and prose but are never
	// tool invocations.
	funcDenylist = map[string]bool{
		"print": true, "println": true, "printf": true, "len": true,
		"range": true, "str": true, "int": true, "float": true,
		"list": true, "dict": true, "type": true, "input": true,
		"func": true, "main": true, "require": true, "import": true,
		"exit": true, "open": true,
	}
)

func (functionStrategy) Extract(text string) ([]tool.Call, []string, float64) {
	const confidence = 0.9
	var calls []tool.Call

	for _, m := range funcCallPattern.FindAllStringSubmatch(text, -1) {
		name := m[1]
		argsStr := strings.TrimSpace(m[2])

		if funcDenylist[strings.ToLower(name)] {
			continue
		}

		params := parseFunctionArgs(argsStr)
		// A non-empty argument list that yields no parameters is
		// documentation-shaped, e.g. read_file(...), not an invocation.
		if argsStr != "" && len(params) == 0 {
			continue
		}

		call := tool.NewCall(name, params)
		call.RawText = m[0]
		call.Confidence = confidence
		calls = append(calls, call)
	}

	return calls, nil, confidence
}

// parseFunctionArgs parses key=value pairs, coercing quoted strings,
// numbers, and booleans.
func parseFunctionArgs(argsStr string) map[string]any {
	params := map[string]any{}
	if argsStr == "" {
		return params
	}

	if strings.HasPrefix(argsStr, "{") {
		var data map[string]any
		if err := json.Unmarshal([]byte(argsStr), &data); err == nil {
			return data
		}
	}

	for _, m := range funcParamPattern.FindAllStringSubmatch(argsStr, -1) {
		params[m[1]] = coerceValue(strings.TrimSpace(m[2]))
	}
	return params
}

// coerceValue strips quotes and converts digit-only and boolean literals.
func coerceValue(value string) any {
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			return value[1 : len(value)-1]
		}
	}
	if n, err := strconv.ParseFloat(value, 64); err == nil {
		return n
	}
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	}
	return value
}

// xmlStrategy parses <tool name="...">...</tool> and <name>...</name>
// spans.
type xmlStrategy struct{}

func (xmlStrategy) Name() string { return "xml_tags" }

var (
	toolTagPattern    = regexp.MustCompile(`(?is)<tool[^>]*name=["']?(\w+)["']?[^>]*>(.*?)</tool>`)
	genericTagPattern = regexp.MustCompile(`(?is)<(\w+)>(.*?)</(\w+)>`)

	htmlDenylist = map[string]bool{
		"div": true, "span": true, "p": true, "a": true, "img": true,
		"br": true, "hr": true, "b": true, "i": true, "u": true,
		"ul": true, "ol": true, "li": true, "code": true, "pre": true,
		"html": true, "body": true, "head": true, "script": true,
		"style": true, "think": true, "thinking": true,
	}
)

func (xmlStrategy) Extract(text string) ([]tool.Call, []string, float64) {
	const confidence = 0.8
	var calls []tool.Call
	var errs []string

	emit := func(name, content, raw string) {
		if htmlDenylist[strings.ToLower(name)] {
			return
		}
		params, err := parseParamsContent(content)
		if err != nil {
			errs = append(errs, fmt.Sprintf("failed to parse tag content for %s: %v", name, err))
			return
		}
		call := tool.NewCall(name, params)
		call.RawText = raw
		call.Confidence = confidence
		calls = append(calls, call)
	}

	for _, m := range toolTagPattern.FindAllStringSubmatch(text, -1) {
		emit(m[1], strings.TrimSpace(m[2]), m[0])
	}
	for _, m := range genericTagPattern.FindAllStringSubmatch(text, -1) {
		// RE2 has no backreferences; enforce matching close tag here.
		if !strings.EqualFold(m[1], m[3]) {
			continue
		}
		emit(m[1], strings.TrimSpace(m[2]), m[0])
	}

	return calls, errs, confidence
}

// fencedStrategy treats a fenced code block whose language tag is not a
// programming language as a tool call: ```tool_name\nkey: value```.
type fencedStrategy struct{}

func (fencedStrategy) Name() string { return "fenced_blocks" }

var (
	fencedTagPattern = regexp.MustCompile("(?s)```(\\w+)[ \\t]*\\n(.*?)```")

	languageDenylist = map[string]bool{
		"python": true, "py": true, "javascript": true, "js": true,
		"typescript": true, "ts": true, "go": true, "golang": true,
		"bash": true, "shell": true, "sh": true, "zsh": true,
		"json": true, "yaml": true, "yml": true, "xml": true,
		"html": true, "css": true, "sql": true, "text": true,
		"txt": true, "markdown": true, "md": true, "c": true,
		"cpp": true, "java": true, "rust": true, "ruby": true,
		"diff": true, "toml": true, "dockerfile": true, "makefile": true,
	}
)

func (fencedStrategy) Extract(text string) ([]tool.Call, []string, float64) {
	const confidence = 0.7
	var calls []tool.Call
	var errs []string

	for _, m := range fencedTagPattern.FindAllStringSubmatch(text, -1) {
		name := m[1]
		content := strings.TrimSpace(m[2])

		if languageDenylist[strings.ToLower(name)] {
			continue
		}

		params, err := parseParamsContent(content)
		if err != nil {
			errs = append(errs, fmt.Sprintf("failed to parse fenced block for %s: %v", name, err))
			continue
		}
		call := tool.NewCall(name, params)
		call.RawText = m[0]
		call.Confidence = confidence
		calls = append(calls, call)
	}

	return calls, errs, confidence
}

// keyValueStrategy parses "name: {...}" and "name: value" shorthand at the
// start of a line.
type keyValueStrategy struct{}

func (keyValueStrategy) Name() string { return "key_value" }

var (
	kvObjectPattern = regexp.MustCompile(`(?m)^[ \t]*(\w+):\s*(\{.*\})\s*$`)
	kvPlainPattern  = regexp.MustCompile(`(?m)^[ \t]*(\w+):\s*([^{\s][^\n]*)$`)

	labelDenylist = map[string]bool{
		"note": true, "example": true, "output": true, "result": true,
		"error": true, "warning": true, "input": true, "status": true,
		"http": true, "https": true, "role": true, "goal": true,
		"task": true, "step": true, "name": true, "description": true,
	}
)

func (keyValueStrategy) Extract(text string) ([]tool.Call, []string, float64) {
	const confidence = 0.6
	var calls []tool.Call
	var errs []string

	for _, m := range kvObjectPattern.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if labelDenylist[strings.ToLower(name)] {
			continue
		}
		var params map[string]any
		if err := json.Unmarshal([]byte(m[2]), &params); err != nil {
			errs = append(errs, fmt.Sprintf("failed to parse key-value call %s: %v", name, err))
			continue
		}
		call := tool.NewCall(name, params)
		call.RawText = m[0]
		call.Confidence = confidence
		calls = append(calls, call)
	}

	for _, m := range kvPlainPattern.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if labelDenylist[strings.ToLower(name)] {
			continue
		}
		value := strings.TrimSpace(m[2])
		call := tool.NewCall(name, map[string]any{"value": stripQuotes(value)})
		call.RawText = m[0]
		call.Confidence = confidence
		calls = append(calls, call)
	}

	return calls, errs, confidence
}

// parseParamsContent parses tag/fence body text: a JSON object if it looks
// like one, otherwise newline-delimited "key: value" pairs.
func parseParamsContent(content string) (map[string]any, error) {
	if strings.HasPrefix(content, "{") && strings.HasSuffix(content, "}") {
		var params map[string]any
		if err := json.Unmarshal([]byte(content), &params); err != nil {
			return nil, err
		}
		return params, nil
	}
	return parseKeyValueLines(content), nil
}

// parseKeyValueLines splits content into "key: value" pairs, one per line.
func parseKeyValueLines(content string) map[string]any {
	params := map[string]any{}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		params[key] = stripQuotes(strings.TrimSpace(value))
	}
	return params
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func truncateSpan(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

package parser

import (
	"regexp"
	"strings"

	"opencrew/internal/tool"
)

// naturalStrategy is the last-resort extraction from plain prose. It only
// fires for a small set of well-known file operations and is deliberately
// conservative: a hypothetical or quoted mention must not become a call.
type naturalStrategy struct{}

func (naturalStrategy) Name() string { return "natural_language" }

const (
	// skipWindow is how far around an indicator we look for phrases that
	// mark the mention as hypothetical.
	skipWindow = 50
	// paramWindow is how far around an indicator we look for parameter
	// material such as quoted strings and file names.
	paramWindow = 200
)

// skipPhrases mark a tool mention as descriptive rather than imperative.
var skipPhrases = []string{
	"<think>", "would do", "could do", "should do", "would call",
	"example", "instructions", "available tools",
}

// actionIndicators map prose verbs to the tool they imply.
var actionIndicators = []struct {
	tool     string
	patterns []*regexp.Regexp
}{
	{
		tool: "write_file",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:write|create|save)\b.{0,30}\bfile\b`),
			regexp.MustCompile(`(?i)\bwrite_file\b`),
		},
	},
	{
		tool: "read_file",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(?:read|open|load|show)\b.{0,30}\bfile\b`),
			regexp.MustCompile(`(?i)\bread_file\b`),
		},
	},
	{
		tool: "list_directory",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\blist\b.{0,30}\b(?:director(?:y|ies)|folder|files)\b`),
			regexp.MustCompile(`(?i)\blist_directory\b`),
		},
	},
}

var (
	quotedStringPattern = regexp.MustCompile(`"([^"]{5,})"|'([^']{5,})'`)
	contentLabelPattern = regexp.MustCompile(`(?i)(?:content|text):\s*(.+)`)
	filenamePattern     = regexp.MustCompile(`\b([\w./-]+\.\w{1,5})\b`)
)

func (naturalStrategy) Extract(text string) ([]tool.Call, []string, float64) {
	const confidence = 0.4
	var calls []tool.Call

	for _, indicator := range actionIndicators {
		for _, pattern := range indicator.patterns {
			loc := pattern.FindStringIndex(text)
			if loc == nil {
				continue
			}
			if hasSkipPhrase(text, loc[0], loc[1]) {
				continue
			}

			window := windowAround(text, loc[0], loc[1], paramWindow)
			params, ok := naturalParams(indicator.tool, window)
			if !ok {
				continue
			}

			call := tool.NewCall(indicator.tool, params)
			call.RawText = strings.TrimSpace(window)
			call.Confidence = confidence
			calls = append(calls, call)
			break
		}
	}

	return calls, nil, confidence
}

// hasSkipPhrase reports whether a hypothetical marker appears near the
// indicator.
func hasSkipPhrase(text string, start, end int) bool {
	window := strings.ToLower(windowAround(text, start, end, skipWindow))
	for _, phrase := range skipPhrases {
		if strings.Contains(window, phrase) {
			return true
		}
	}
	return false
}

func windowAround(text string, start, end, radius int) string {
	lo := start - radius
	if lo < 0 {
		lo = 0
	}
	hi := end + radius
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}

// naturalParams builds the parameter map for a prose-derived call, or
// reports that the surrounding text carries too little to act on.
func naturalParams(toolName, window string) (map[string]any, bool) {
	switch toolName {
	case "write_file":
		content := extractContent(window)
		if content == "" {
			return nil, false
		}
		filename := extractFilename(window)
		if filename == "" {
			filename = defaultFilename(content)
		}
		return map[string]any{"file_path": filename, "content": content}, true

	case "read_file":
		filename := extractFilename(window)
		if filename == "" {
			return nil, false
		}
		return map[string]any{"file_path": filename}, true

	case "list_directory":
		dir := extractFilename(window)
		if dir == "" {
			dir = "."
		}
		return map[string]any{"dir_path": dir}, true
	}
	return nil, false
}

// extractContent pulls the most likely body text: a labeled content line
// first, then the longest quoted string.
func extractContent(window string) string {
	if m := contentLabelPattern.FindStringSubmatch(window); m != nil {
		return strings.TrimSpace(m[1])
	}

	best := ""
	for _, m := range quotedStringPattern.FindAllStringSubmatch(window, -1) {
		candidate := m[1]
		if candidate == "" {
			candidate = m[2]
		}
		if len(candidate) > len(best) {
			best = candidate
		}
	}
	return best
}

// extractFilename finds the first token that looks like a file name
// (has an extension).
func extractFilename(window string) string {
	if m := filenamePattern.FindStringSubmatch(window); m != nil {
		return m[1]
	}
	return ""
}

// defaultFilename derives a slug-style .txt name from the leading content.
func defaultFilename(content string) string {
	head := content
	if len(head) > 20 {
		head = head[:20]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(head) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '_' || r == '-':
			b.WriteRune('_')
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		name = "output"
	}
	return name + ".txt"
}

package parser

import (
	"regexp"
	"strings"
)

// repairFunc is one pure textual transformation attempting to turn
// near-JSON into valid JSON. Each repair is tried independently against the
// original span and its output re-validated by a strict parse; the repair
// set stays extensible without entangling repair logic with extraction.
type repairFunc func(string) string

// repairs is the ordered list of fixes for the JSON defects models
// actually produce.
var repairs = []repairFunc{
	quoteBareKeys,
	singleToDoubleQuotes,
	unescapeLiterals,
	stripTrailingCommas,
	escapeQuotesInContent,
}

var bareKeyPattern = regexp.MustCompile(`([{,]\s*)(\w+)(\s*):`)

// quoteBareKeys wraps unquoted object keys in double quotes:
// {tool_name: "x"} -> {"tool_name": "x"}.
func quoteBareKeys(s string) string {
	return bareKeyPattern.ReplaceAllString(s, `$1"$2"$3:`)
}

// singleToDoubleQuotes converts single-quoted strings to double-quoted.
// Crude, but models that emit single quotes rarely mix in apostrophes.
func singleToDoubleQuotes(s string) string {
	return strings.ReplaceAll(s, "'", `"`)
}

// unescapeLiterals replaces literal backslash escapes that were
// double-escaped by the model.
func unescapeLiterals(s string) string {
	replacer := strings.NewReplacer(
		`\\n`, "\n",
		`\\t`, "\t",
		`\\\\`, `\`,
	)
	return replacer.Replace(s)
}

var (
	trailingCommaObj = regexp.MustCompile(`,\s*}`)
	trailingCommaArr = regexp.MustCompile(`,\s*]`)
)

// stripTrailingCommas removes commas before closing braces/brackets.
func stripTrailingCommas(s string) string {
	s = trailingCommaObj.ReplaceAllString(s, "}")
	return trailingCommaArr.ReplaceAllString(s, "]")
}

var contentFieldPattern = regexp.MustCompile(`"content":\s*"((?:[^"\\]|\\.)*)"`)

// escapeQuotesInContent re-escapes quotes inside a "content" string
// value. The pattern ends at the first unescaped quote, so a value
// already broken by a bare quote is not recovered here; this repair only
// normalizes escape sequences within values that still parse as one
// string.
func escapeQuotesInContent(s string) string {
	return contentFieldPattern.ReplaceAllStringFunc(s, func(m string) string {
		sub := contentFieldPattern.FindStringSubmatch(m)
		if sub == nil {
			return m
		}
		content := sub[1]
		content = strings.ReplaceAll(content, `\"`, "\x00")
		content = strings.ReplaceAll(content, `"`, `\"`)
		content = strings.ReplaceAll(content, "\x00", `\"`)
		return `"content": "` + content + `"`
	})
}

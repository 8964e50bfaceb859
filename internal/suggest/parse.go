package suggest

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ParseKind tags which extraction strategy produced a result.
type ParseKind int

const (
	// ParseFailed means neither strategy extracted any subtasks.
	ParseFailed ParseKind = iota
	// ParsedArray means a JSON array of strings was found in the response.
	ParsedArray
	// ParsedLines means the line-based fallback produced the subtasks.
	ParsedLines
)

// ParseResult is the outcome of parsing a model response.
type ParseResult struct {
	Kind     ParseKind
	Subtasks []string
}

// maxLineSubtasks caps the line-based fallback; the prompt asks for 3-5.
const maxLineSubtasks = 5

var (
	ordinalPrefix = regexp.MustCompile(`^\d+\.\s*`)
	bulletPrefix  = regexp.MustCompile(`^[-*]\s*`)
)

// Parse extracts subtasks from a raw model response. The model is not
// contractually bound to return valid JSON, so parsing degrades
// gracefully: first the widest []-delimited substring is tried as a
// JSON array of strings, then a line-based cleanup of numbered or
// bulleted lists. ParseFailed is returned only when both strategies
// come up empty.
func Parse(raw string) ParseResult {
	if items, ok := parseArray(raw); ok {
		return ParseResult{Kind: ParsedArray, Subtasks: items}
	}
	if items := parseLines(raw); len(items) > 0 {
		return ParseResult{Kind: ParsedLines, Subtasks: items}
	}
	return ParseResult{Kind: ParseFailed}
}

func parseArray(raw string) ([]string, bool) {
	start := strings.Index(raw, "[")
	if start < 0 {
		return nil, false
	}
	end := strings.LastIndex(raw, "]")
	if end < start {
		return nil, false
	}
	var items []string
	if err := json.Unmarshal([]byte(raw[start:end+1]), &items); err != nil {
		return nil, false
	}
	return items, true
}

func parseLines(raw string) []string {
	var items []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" || strings.Contains(line, "```") {
			continue
		}
		line = ordinalPrefix.ReplaceAllString(line, "")
		line = bulletPrefix.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		items = append(items, line)
		if len(items) == maxLineSubtasks {
			break
		}
	}
	return items
}

package fieldval

import (
	"encoding/json"
	"regexp"
	"strings"
)

var multivalueSplit = regexp.MustCompile(`[\n,]+`)

// SplitMultivalue splits loosely delimited list text into ordered elements.
// Semicolons, newlines and commas all separate elements equally.
// Elements are trimmed of whitespace and leading dashes; empties are dropped.
// Returns nil when nothing survives.
func SplitMultivalue(value string) []string {
	if value == "" {
		return nil
	}
	candidate := strings.ReplaceAll(value, ";", "\n")
	var tokens []string
	for _, chunk := range multivalueSplit.Split(candidate, -1) {
		if text := strings.Trim(chunk, " -\t"); text != "" {
			tokens = append(tokens, text)
		}
	}
	return tokens
}

// ParseJSONList decodes a JSON array of strings, the shape some form exports
// use for multi-select answers. Returns nil when value is not such an array.
func ParseJSONList(value string) []string {
	var data []any
	if err := json.Unmarshal([]byte(value), &data); err != nil {
		return nil
	}
	var items []string
	for _, item := range data {
		s, ok := item.(string)
		if !ok {
			return nil
		}
		if t := strings.TrimSpace(s); t != "" {
			items = append(items, t)
		}
	}
	return items
}

// ParseBulletList splits a narrative value into bullet items. Lines starting
// with "-" lose the marker; other non-empty lines are kept verbatim so a
// mixed narrative still round-trips. Returns nil for empty input.
func ParseBulletList(value string) []string {
	var items []string
	for _, line := range strings.Split(strings.ReplaceAll(value, "\r", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "-") {
			line = strings.TrimSpace(strings.TrimLeft(line, "- "))
			if line == "" {
				continue
			}
		}
		items = append(items, line)
	}
	return items
}

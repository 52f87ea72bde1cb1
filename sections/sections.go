// Package sections extracts labelled fields from plain-text email bodies.
//
// A line shaped like "<label><delimiter><value>" (delimiter ":" or ";")
// starts a new field; lines that match nothing are appended to the current
// field, which is how multi-line narratives survive. Content that precedes
// the first recognized label, or a body with no labels at all, is never
// dropped: it comes back as one pair under UnlabeledKey.
package sections

import (
	"sort"
	"strings"
)

// UnlabeledKey is the synthetic label for body text no field claimed.
const UnlabeledKey = "unlabeled_trailing_text"

// Pair is one raw label with its raw value, in document order.
type Pair struct {
	Label string
	Value string
}

// maxGenericLabelWords bounds the generic "<label>: <value>" heuristic so a
// narrative sentence containing a colon does not start a bogus field.
const maxGenericLabelWords = 8

// Parse scans body line by line. knownLabels are normalized label keys from
// the template definition; they match with or without a delimiter ("Written
// by; Jane" and "Written by Jane" both hit "written by"). Longer labels are
// tried first so "description of activities" wins over "description".
func Parse(body string, knownLabels []string) []Pair {
	labels := make([]string, len(knownLabels))
	copy(labels, knownLabels)
	sort.Slice(labels, func(i, j int) bool { return len(labels[i]) > len(labels[j]) })

	var (
		pairs    []Pair
		current  *Pair
		lines    []string
		preamble []string
	)

	flush := func() {
		if current == nil {
			return
		}
		current.Value = joinLines(lines)
		pairs = append(pairs, *current)
		current = nil
		lines = nil
	}

	for _, rawLine := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}

		if label, value, ok := matchKnownLabel(line, labels); ok {
			flush()
			current = &Pair{Label: label}
			if value != "" {
				lines = append(lines, value)
			}
			continue
		}

		if label, value, ok := matchGenericLabel(line); ok {
			flush()
			current = &Pair{Label: label}
			if value != "" {
				lines = append(lines, value)
			}
			continue
		}

		if current != nil {
			lines = append(lines, line)
		} else {
			preamble = append(preamble, line)
		}
	}
	flush()

	if len(preamble) > 0 {
		pairs = append(pairs, Pair{Label: UnlabeledKey, Value: joinLines(preamble)})
	}
	return pairs
}

// matchKnownLabel reports whether line starts with one of the template's
// label keys, comparing in normalized space so punctuation drift ("Written
// by;" vs "Written by:") is irrelevant.
func matchKnownLabel(line string, labels []string) (label, value string, ok bool) {
	lowered := strings.ToLower(strings.Join(strings.Fields(line), " "))
	for _, known := range labels {
		if !strings.HasPrefix(lowered, known) {
			continue
		}
		rest := lowered[len(known):]
		if rest != "" && !strings.ContainsRune(" :;-?.", rune(rest[0])) {
			continue // label is a prefix of a longer word, not a match
		}
		// Recover the original-case remainder by byte position in the
		// collapsed line; label keys are already whitespace-collapsed.
		collapsed := strings.Join(strings.Fields(line), " ")
		value = strings.TrimLeft(collapsed[len(known):], " :;-?.")
		return known, strings.TrimSpace(value), true
	}
	return "", "", false
}

// matchGenericLabel applies the delimiter heuristic for labels the template
// does not declare: a short leading phrase followed by ":" or ";".
func matchGenericLabel(line string) (label, value string, ok bool) {
	idx := strings.IndexAny(line, ":;")
	if idx <= 0 {
		return "", "", false
	}
	labelPart := strings.TrimSpace(line[:idx])
	rest := strings.TrimSpace(line[idx+1:])
	if labelPart == "" || len(strings.Fields(labelPart)) > maxGenericLabelWords {
		return "", "", false
	}
	if strings.HasPrefix(rest, "//") {
		return "", "", false // URL scheme, not a field delimiter
	}
	return labelPart, rest, true
}

func joinLines(lines []string) string {
	var kept []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

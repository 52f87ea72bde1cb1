package fieldval

import (
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Accepted layouts, tried in order. First match wins.
var (
	dateLayouts = []string{"2006-01-02", "2006/01/02", "02/01/2006"}

	datetimeLayouts = []string{
		"2006-01-02 3:04 PM",
		"2006-01-02 15:04",
		"02/01/2006 15:04",
		"2006-01-02T15:04:05",
	}

	timeLayouts = []string{"15:04", "3:04 PM", "3:04PM"}
)

var (
	affirmative = map[string]bool{"yes": true, "y": true, "true": true, "1": true}
	negative    = map[string]bool{"no": true, "n": true, "false": true, "0": true}
)

var (
	intPattern   = regexp.MustCompile(`-?\d+`)
	floatPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	rangeSplit   = regexp.MustCompile(`\s*(?:-|–|—|\bto\b)\s*`)
)

// Coerce converts raw text to a typed Value of the given kind. It is total:
// input that does not match the kind's shape yields an unparsed sentinel
// carrying the raw text, never an error. enumSet is consulted only for
// KindEnum and may be nil (open enum with no declared values).
func Coerce(kind Kind, raw string, enumSet []string) Value {
	trimmed := strings.TrimSpace(raw)

	switch kind {
	case KindString, KindText:
		return Value{Kind: kind, Raw: raw, Text: cleanText(kind, trimmed)}

	case KindBool:
		b, ok := parseBool(trimmed)
		if !ok {
			return unparsed(kind, raw)
		}
		return Value{Kind: kind, Raw: raw, Bool: &b}

	case KindDate:
		if t, ok := parseLayouts(trimmed, dateLayouts); ok {
			return Value{Kind: kind, Raw: raw, Text: t.Format("2006-01-02")}
		}
		return unparsed(kind, raw)

	case KindDateTime:
		if t, ok := parseLayouts(trimmed, datetimeLayouts); ok {
			return Value{Kind: kind, Raw: raw, Text: t.Format("2006-01-02T15:04:05")}
		}
		return unparsed(kind, raw)

	case KindTime:
		if t, ok := parseLayouts(trimmed, timeLayouts); ok {
			return Value{Kind: kind, Raw: raw, Text: t.Format("15:04")}
		}
		return unparsed(kind, raw)

	case KindTimeRange:
		return coerceTimeRange(raw, trimmed)

	case KindInteger:
		m := intPattern.FindString(strings.ReplaceAll(trimmed, ",", ""))
		if m == "" {
			return unparsed(kind, raw)
		}
		n, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return unparsed(kind, raw)
		}
		return Value{Kind: kind, Raw: raw, Int: &n}

	case KindFloat:
		m := floatPattern.FindString(strings.ReplaceAll(trimmed, ",", ""))
		if m == "" {
			return unparsed(kind, raw)
		}
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			return unparsed(kind, raw)
		}
		return Value{Kind: kind, Raw: raw, Float: &f}

	case KindEnum:
		return coerceEnum(raw, trimmed, enumSet)

	case KindEmail:
		addr, err := mail.ParseAddress(trimmed)
		if err != nil {
			return unparsed(kind, raw)
		}
		return Value{Kind: kind, Raw: raw, Text: addr.Address}

	case KindJSON:
		// Free-form nested mapping: kept verbatim, validity is the
		// consumer's concern.
		return Value{Kind: kind, Raw: raw, Text: trimmed}

	case KindStringList:
		items := SplitMultivalue(trimmed)
		if items == nil {
			return unparsed(kind, raw)
		}
		return Value{Kind: kind, Raw: raw, List: items}
	}

	return unparsed(kind, raw)
}

// CoerceList wraps an already-split list (from the HTML pill parser) into a
// string[] Value, trimming elements and dropping empties.
func CoerceList(raw string, items []string) Value {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if t := strings.TrimSpace(it); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return unparsed(KindStringList, raw)
	}
	return Value{Kind: KindStringList, Raw: raw, List: out}
}

func cleanText(kind Kind, s string) string {
	if kind == KindString {
		// Single-line values: collapse internal whitespace.
		return strings.Join(strings.Fields(s), " ")
	}
	// Multi-line narratives keep their line structure intact.
	return s
}

func parseBool(s string) (bool, bool) {
	lowered := strings.ToLower(s)
	if affirmative[lowered] || strings.HasPrefix(lowered, "yes") {
		return true, true
	}
	if negative[lowered] || strings.HasPrefix(lowered, "no") {
		return false, true
	}
	return false, false
}

func parseLayouts(s string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func coerceTimeRange(raw, trimmed string) Value {
	parts := rangeSplit.Split(trimmed, 2)
	if len(parts) != 2 {
		return unparsed(KindTimeRange, raw)
	}
	start, okStart := parseLayouts(strings.TrimSpace(parts[0]), timeLayouts)
	end, okEnd := parseLayouts(strings.TrimSpace(parts[1]), timeLayouts)
	if !okStart || !okEnd {
		return unparsed(KindTimeRange, raw)
	}
	return Value{
		Kind: KindTimeRange,
		Raw:  raw,
		Text: start.Format("15:04") + "-" + end.Format("15:04"),
	}
}

func coerceEnum(raw, trimmed string, enumSet []string) Value {
	if trimmed == "" {
		return unparsed(KindEnum, raw)
	}
	normalized := NormalizeLabel(trimmed)
	for _, candidate := range enumSet {
		if NormalizeLabel(candidate) == normalized {
			return Value{Kind: KindEnum, Raw: raw, Text: candidate}
		}
	}
	// Open enum: keep the literal and flag it for catalogue review.
	return Value{Kind: KindEnum, Raw: raw, Text: trimmed, EnumMiss: true}
}

// Package fieldval provides label normalization and typed value coercion for
// the extraction engine.
//
// Labels drift across senders and form revisions ("Written by;" vs
// "Written by:"), so every label is reduced to a stable lookup key before it
// touches a template mapping. Coercions are total: malformed input never
// produces an error, it produces an unparsed value that keeps the raw text.
package fieldval

import "strings"

// NormalizeLabel canonicalizes a raw field label into a lookup key:
// lower-case, internal whitespace collapsed to single spaces, leading and
// trailing whitespace removed, trailing punctuation in {:;.?} stripped.
// Idempotent: NormalizeLabel(NormalizeLabel(s)) == NormalizeLabel(s).
func NormalizeLabel(raw string) string {
	key := strings.ToLower(strings.Join(strings.Fields(raw), " "))
	key = strings.TrimRight(key, ":;.?")
	return strings.TrimSpace(key)
}

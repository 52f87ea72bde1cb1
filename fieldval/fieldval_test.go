package fieldval

import (
	"reflect"
	"testing"
)

func TestNormalizeLabel_PunctuationVariants(t *testing.T) {
	// WHAT: Trailing :;.? punctuation and case differences collapse to one key.
	// WHY: The same question arrives as "Written by;" or "Written by:" depending on the sender.
	cases := []struct {
		input string
		want  string
	}{
		{"Written by;", "written by"},
		{"Written by:", "written by"},
		{"  Written   By ", "written by"},
		{"Did Will have a Bowel Movement today?", "did will have a bowel movement today"},
		{"Role.", "role"},
	}
	for _, tc := range cases {
		if got := NormalizeLabel(tc.input); got != tc.want {
			t.Errorf("NormalizeLabel(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestNormalizeLabel_Idempotent(t *testing.T) {
	// WHAT: Normalizing an already-normalized key returns it unchanged.
	// WHY: Keys are re-normalized at lookup time; drift there would break mapping.
	inputs := []string{"Written by;", "Shift date (date your shift ended)", "email", "", "a?b:c"}
	for _, input := range inputs {
		once := NormalizeLabel(input)
		if twice := NormalizeLabel(once); twice != once {
			t.Errorf("NormalizeLabel not idempotent for %q: %q -> %q", input, once, twice)
		}
	}
}

func TestCoerce_BoolLexicon(t *testing.T) {
	// WHAT: Affirmative/negative lexicon matching, case-insensitive, prefix-tolerant.
	// WHY: Forms answer "Yes", "yes - before dinner", "N"; all must land on a typed bool.
	cases := []struct {
		raw  string
		want bool
	}{
		{"Yes", true},
		{"yes - around 3pm", true},
		{"y", true},
		{"TRUE", true},
		{"No", false},
		{"no issues", false},
		{"n", false},
		{"false", false},
	}
	for _, tc := range cases {
		v := Coerce(KindBool, tc.raw, nil)
		if v.Unparsed || v.Bool == nil {
			t.Fatalf("Coerce(bool, %q) unparsed, want %v", tc.raw, tc.want)
		}
		if *v.Bool != tc.want {
			t.Errorf("Coerce(bool, %q) = %v, want %v", tc.raw, *v.Bool, tc.want)
		}
	}
}

func TestCoerce_BoolUnparsed(t *testing.T) {
	// WHAT: Values outside the lexicon produce an unparsed sentinel, not an error.
	// WHY: Coercion is total; the raw text must survive for the overflow shadow key.
	v := Coerce(KindBool, "maybe", nil)
	if !v.Unparsed {
		t.Fatalf("Coerce(bool, maybe) parsed unexpectedly: %+v", v)
	}
	if v.Raw != "maybe" {
		t.Errorf("raw text lost: %q", v.Raw)
	}
}

func TestCoerce_DateFormats(t *testing.T) {
	// WHAT: The fixed, ordered format list is tried; first match wins.
	// WHY: Senders mix ISO and day-first dates; output is always ISO.
	cases := []struct {
		raw  string
		want string
	}{
		{"2024-03-26", "2024-03-26"},
		{"2024/03/26", "2024-03-26"},
		{"26/03/2024", "2024-03-26"},
	}
	for _, tc := range cases {
		v := Coerce(KindDate, tc.raw, nil)
		if v.Unparsed {
			t.Fatalf("Coerce(date, %q) unparsed", tc.raw)
		}
		if v.Text != tc.want {
			t.Errorf("Coerce(date, %q) = %q, want %q", tc.raw, v.Text, tc.want)
		}
	}
	if v := Coerce(KindDate, "March twenty-sixth", nil); !v.Unparsed {
		t.Errorf("prose date should be unparsed, got %+v", v)
	}
}

func TestCoerce_DateTimeAndTime(t *testing.T) {
	// WHAT: Datetime and time values parse against their own layout lists.
	// WHY: Incident awareness timestamps arrive as "2024-08-24 3:00 PM".
	v := Coerce(KindDateTime, "2024-08-24 3:00 PM", nil)
	if v.Unparsed || v.Text != "2024-08-24T15:00:00" {
		t.Errorf("datetime = %+v, want 2024-08-24T15:00:00", v)
	}
	v = Coerce(KindTime, "9:30 PM", nil)
	if v.Unparsed || v.Text != "21:30" {
		t.Errorf("time = %+v, want 21:30", v)
	}
}

func TestCoerce_TimeRange(t *testing.T) {
	// WHAT: "HH:MM - HH:MM" parses to a canonical start-end pair.
	// WHY: Sleep windows are reported as ranges.
	v := Coerce(KindTimeRange, "9:30 PM - 6:00 AM", nil)
	if v.Unparsed || v.Text != "21:30-06:00" {
		t.Errorf("time_range = %+v, want 21:30-06:00", v)
	}
	if v := Coerce(KindTimeRange, "overnight", nil); !v.Unparsed {
		t.Errorf("prose range should be unparsed")
	}
}

func TestCoerce_NumbersStripUnits(t *testing.T) {
	// WHAT: Units and separators are stripped before numeric parsing.
	// WHY: "4 staff", "3.5 km" and "1,200" all carry usable numbers.
	v := Coerce(KindInteger, "4 staff", nil)
	if v.Unparsed || *v.Int != 4 {
		t.Errorf("integer = %+v, want 4", v)
	}
	v = Coerce(KindInteger, "1,200", nil)
	if v.Unparsed || *v.Int != 1200 {
		t.Errorf("integer = %+v, want 1200", v)
	}
	v = Coerce(KindFloat, "3.5 km", nil)
	if v.Unparsed || *v.Float != 3.5 {
		t.Errorf("float = %+v, want 3.5", v)
	}
	if v := Coerce(KindInteger, "several", nil); !v.Unparsed {
		t.Errorf("prose count should be unparsed")
	}
}

func TestCoerce_OpenEnum(t *testing.T) {
	// WHAT: Declared values match after normalization; unknown values are
	// retained as literals with EnumMiss set.
	// WHY: Enum catalogues are open. Novel values are review items, not errors.
	set := []string{"Morning", "Afternoon", "Overnight"}
	v := Coerce(KindEnum, "morning", set)
	if v.EnumMiss || v.Text != "Morning" {
		t.Errorf("enum match = %+v, want canonical Morning", v)
	}
	v = Coerce(KindEnum, "Split shift", set)
	if !v.EnumMiss || v.Text != "Split shift" {
		t.Errorf("enum miss = %+v, want literal with EnumMiss", v)
	}
}

func TestCoerce_Email(t *testing.T) {
	// WHAT: Addresses validate via RFC 5322 parsing.
	// WHY: Reporter emails feed notifications downstream; garbage must be flagged.
	v := Coerce(KindEmail, "jane@example.org", nil)
	if v.Unparsed || v.Text != "jane@example.org" {
		t.Errorf("email = %+v", v)
	}
	if v := Coerce(KindEmail, "not-an-address", nil); !v.Unparsed {
		t.Errorf("invalid email should be unparsed")
	}
}

func TestCoerce_StringCollapsesText(t *testing.T) {
	// WHAT: string collapses internal whitespace, text keeps line structure.
	// WHY: Narrative cells depend on embedded newlines for bullet extraction.
	v := Coerce(KindString, "  Jane   Doe ", nil)
	if v.Text != "Jane Doe" {
		t.Errorf("string = %q", v.Text)
	}
	v = Coerce(KindText, "line one\nline two", nil)
	if v.Text != "line one\nline two" {
		t.Errorf("text = %q, newlines must survive", v.Text)
	}
}

func TestCoerceList_TrimsAndDropsEmpty(t *testing.T) {
	// WHAT: Pre-split lists are trimmed per element; empties vanish, order and
	// duplicates are preserved.
	// WHY: Repeated pill selection may be meaningful; order is document order.
	v := CoerceList("raw", []string{" Frustrated ", "", "Tired", "Tired", "  "})
	want := []string{"Frustrated", "Tired", "Tired"}
	if !reflect.DeepEqual(v.List, want) {
		t.Errorf("CoerceList = %v, want %v", v.List, want)
	}
}

func TestSplitMultivalue(t *testing.T) {
	// WHAT: Commas, semicolons, and newlines all act as separators.
	// WHY: Meals arrive as "toast, eggs; fruit" or one-per-line.
	got := SplitMultivalue("toast, eggs; fruit\n- yoghurt")
	want := []string{"toast", "eggs", "fruit", "yoghurt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitMultivalue = %v, want %v", got, want)
	}
	if SplitMultivalue("") != nil {
		t.Errorf("empty input should return nil")
	}
}

func TestParseJSONList(t *testing.T) {
	// WHAT: JSON array answers decode to ordered elements; anything else is nil.
	// WHY: Some form exports serialize multi-select answers as JSON.
	got := ParseJSONList(`["Cereal", "Sandwich", "Roast"]`)
	want := []string{"Cereal", "Sandwich", "Roast"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseJSONList = %v, want %v", got, want)
	}
	if ParseJSONList("just text") != nil {
		t.Errorf("non-JSON input should return nil")
	}
	if ParseJSONList(`{"a":1}`) != nil {
		t.Errorf("JSON object should return nil")
	}
}

func TestParseBulletList(t *testing.T) {
	// WHAT: Dash bullets lose their marker; plain lines are kept.
	// WHY: Immediate-action narratives mix bullets and prose.
	got := ParseBulletList("- Called supervisor\n- Removed hazard\nStayed with resident")
	want := []string{"Called supervisor", "Removed hazard", "Stayed with resident"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseBulletList = %v, want %v", got, want)
	}
}

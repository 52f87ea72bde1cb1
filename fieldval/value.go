package fieldval

// Kind is the semantic type of a canonical field, declared in the catalogue.
type Kind string

const (
	KindDate        Kind = "date"
	KindDateTime    Kind = "datetime"
	KindTime        Kind = "time"
	KindTimeRange   Kind = "time_range"
	KindBool        Kind = "bool"
	KindInteger     Kind = "integer"
	KindFloat       Kind = "float"
	KindString      Kind = "string"
	KindText        Kind = "text"
	KindEnum        Kind = "enum"
	KindStringList  Kind = "string[]"
	KindEmail       Kind = "email"
	KindJSON        Kind = "json"
	KindAttachments Kind = "attachment[]"
)

// Valid reports whether k is a declared semantic type.
func (k Kind) Valid() bool {
	switch k {
	case KindDate, KindDateTime, KindTime, KindTimeRange, KindBool,
		KindInteger, KindFloat, KindString, KindText, KindEnum,
		KindStringList, KindEmail, KindJSON, KindAttachments:
		return true
	}
	return false
}

// Value is a coerced field value. Raw always holds the source text; the
// typed representation matching Kind is populated when Unparsed is false.
// Enum values that fall outside the declared set stay as Text with
// EnumMiss set. Enums are open, unrecognized values are retained, not
// rejected.
type Value struct {
	Kind     Kind     `json:"kind"`
	Raw      string   `json:"raw"`
	Unparsed bool     `json:"unparsed,omitempty"`
	EnumMiss bool     `json:"enum_miss,omitempty"`
	Text     string   `json:"text,omitempty"`
	Bool     *bool    `json:"bool,omitempty"`
	Int      *int64   `json:"int,omitempty"`
	Float    *float64 `json:"float,omitempty"`
	List     []string `json:"list,omitempty"`
}

// unparsed builds the sentinel for input that did not match the kind's shape.
func unparsed(kind Kind, raw string) Value {
	return Value{Kind: kind, Raw: raw, Unparsed: true}
}

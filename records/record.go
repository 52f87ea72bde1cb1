// Package records turns raw label/value pairs into structured entity
// records: the mapper resolves labels against the template's dictionary and
// coerces values, the assembler applies entity defaults, derivations, and
// the mandatory-field policy. Nothing in this package fails a record:
// unmapped labels overflow, unparseable values carry a sentinel, and missing
// mandatory fields mark the record incomplete rather than rejecting it.
package records

import (
	"github.com/hivecare/carelog/fieldval"
)

// AttachmentRef is the opaque handle to a stored attachment that travels on
// a record. The payload lives in the ingestion store; records only carry
// identity and shape.
type AttachmentRef struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	SHA256      string `json:"sha256"`
	Pages       int    `json:"pages,omitempty"` // PDF page count, 0 when unknown
}

// EnumReview flags a field whose value fell outside the catalogue's declared
// enum set. The value is retained on the record; this is the review queue
// entry that prompts a catalogue update.
type EnumReview struct {
	Field   string `json:"field"`
	Literal string `json:"literal"`
}

// Record is one assembled entity record.
type Record struct {
	EntityType string `json:"entity_type"` // "" for unclassified records
	TemplateID string `json:"template_id"` // catalog.TemplateUnknown when unclassified

	// Fields holds the canonical typed fields, FieldOrder their
	// first-appearance document order.
	Fields     map[string]fieldval.Value `json:"fields"`
	FieldOrder []string                  `json:"field_order"`

	// Additional carries every label the dictionary did not claim, plus the
	// shadow raw entries for unparseable canonical values.
	Additional *Overflow `json:"additional_fields"`

	EnumReview  []EnumReview    `json:"enum_review,omitempty"`
	Attachments []AttachmentRef `json:"attachments,omitempty"`

	// Incomplete is set when mandatory fields for the entity are absent;
	// Missing names them. An incomplete record is still persisted.
	Incomplete bool     `json:"incomplete,omitempty"`
	Missing    []string `json:"missing,omitempty"`
}

// Field returns the typed value for a canonical field name.
func (r *Record) Field(name string) (fieldval.Value, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Text returns the textual form of a field, "" when absent or untextual.
func (r *Record) Text(name string) string {
	if v, ok := r.Fields[name]; ok {
		return v.Text
	}
	return ""
}

// Has reports whether a canonical field is present and parsed.
func (r *Record) Has(name string) bool {
	v, ok := r.Fields[name]
	return ok && !v.Unparsed
}

func (r *Record) setField(name string, v fieldval.Value) {
	if _, exists := r.Fields[name]; !exists {
		r.FieldOrder = append(r.FieldOrder, name)
	}
	r.Fields[name] = v
}

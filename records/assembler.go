package records

import (
	"time"

	"github.com/hivecare/carelog/catalog"
	"github.com/hivecare/carelog/fieldval"
)

// Assembler builds complete records from mapped pairs: entity defaults,
// derived fields, and the mandatory-field policy.
type Assembler struct {
	cat    *catalog.Catalog
	mapper *Mapper
}

// NewAssembler returns an assembler over the given catalogue.
func NewAssembler(cat *catalog.Catalog) *Assembler {
	return &Assembler{cat: cat, mapper: NewMapper(cat)}
}

// Assemble produces a record for a classified template. An unrecognized
// templateID yields an unclassified record: everything lands in overflow and
// attachments are preserved, so nothing is lost while the catalogue catches
// up.
func (a *Assembler) Assemble(templateID string, pairs []Pair, atts []AttachmentRef, sentAt time.Time) *Record {
	tmpl, ok := a.cat.Template(templateID)
	if !ok {
		return a.AssembleUnknown(pairs, atts)
	}

	rec := newRecord(templateID, tmpl.Entity)
	a.mapper.Map(rec, tmpl, pairs)
	a.applyDefaults(rec, tmpl, sentAt)
	a.checkMandatory(rec, tmpl.Entity)
	rec.Attachments = atts
	return rec
}

// AssembleUnknown produces the unclassified record: no entity, no typed
// fields, every pair in overflow under its normalized label key.
func (a *Assembler) AssembleUnknown(pairs []Pair, atts []AttachmentRef) *Record {
	rec := newRecord(catalog.TemplateUnknown, "")
	for _, p := range pairs {
		key := fieldval.NormalizeLabel(p.Label)
		if key == "" {
			continue
		}
		rec.Additional.Set(key, overflowValue(p))
	}
	rec.Attachments = atts
	return rec
}

func newRecord(templateID, entity string) *Record {
	return &Record{
		EntityType: entity,
		TemplateID: templateID,
		Fields:     map[string]fieldval.Value{},
		Additional: NewOverflow(),
	}
}

// applyDefaults fills entity-level gaps the source layout cannot provide.
// The plain-text shift note has no shift selector, so its window defaults to
// the catalogue's "unknown" member; a missing note date falls back to the
// message's sent time; day_of_week derives from the note date when absent.
func (a *Assembler) applyDefaults(rec *Record, tmpl *catalog.TemplateDef, sentAt time.Time) {
	if tmpl.Entity != "shift_note" {
		return
	}

	if !rec.Has("note_date") && !sentAt.IsZero() {
		rec.setField("note_date", fieldval.Coerce(fieldval.KindDate, sentAt.Format("2006-01-02"), nil))
	}

	if !rec.Has("shift_window") && tmpl.ContentType == "text" {
		def, _ := a.cat.Field("shift_window")
		rec.setField("shift_window", fieldval.Coerce(fieldval.KindEnum, "unknown", def.Enum))
	}

	if !rec.Has("day_of_week") {
		if day, ok := weekdayOf(rec.Text("note_date")); ok {
			rec.setField("day_of_week", fieldval.Coerce(fieldval.KindString, day, nil))
		}
	}
}

func weekdayOf(noteDate string) (string, bool) {
	if noteDate == "" {
		return "", false
	}
	t, err := time.Parse("2006-01-02", noteDate)
	if err != nil {
		return "", false
	}
	return t.Weekday().String(), true
}

// checkMandatory marks the record incomplete when the entity's mandatory
// fields are absent or unparsed. Incomplete records persist like any other.
func (a *Assembler) checkMandatory(rec *Record, entity string) {
	def, ok := a.cat.Entity(entity)
	if !ok {
		return
	}
	for _, name := range def.Mandatory {
		if !rec.Has(name) {
			rec.Missing = append(rec.Missing, name)
		}
	}
	rec.Incomplete = len(rec.Missing) > 0
}

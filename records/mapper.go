package records

import (
	"strings"

	"github.com/hivecare/carelog/catalog"
	"github.com/hivecare/carelog/fieldval"
)

// rawSuffix marks the shadow overflow entry written alongside an unparsed
// canonical field, so the original text survives next to the sentinel.
const rawSuffix = "__raw"

// Pair is one raw label/value extracted from a body, in document order.
// Items is non-nil when the source already split the value into an ordered
// list (HTML pill chips).
type Pair struct {
	Label string
	Value string
	Items []string
}

// Mapper resolves raw pairs against a template's label dictionary.
type Mapper struct {
	cat *catalog.Catalog
}

// NewMapper returns a mapper over the given catalogue.
func NewMapper(cat *catalog.Catalog) *Mapper {
	return &Mapper{cat: cat}
}

// Map folds pairs into rec, which must have Fields and Additional
// initialized. Labels are normalized before lookup; a label the template
// does not declare lands in the overflow map under its normalized key.
// Canonical fields are first-occurrence-wins, overflow is last-write-wins.
// A value that fails coercion keeps an unparsed sentinel in Fields and its
// raw text under "<field>__raw" in the overflow.
func (m *Mapper) Map(rec *Record, tmpl *catalog.TemplateDef, pairs []Pair) {
	for _, p := range pairs {
		key := fieldval.NormalizeLabel(p.Label)
		if key == "" {
			continue
		}

		name, known := tmpl.Field(key)
		if !known {
			rec.Additional.Set(key, overflowValue(p))
			continue
		}
		if _, taken := rec.Fields[name]; taken {
			// Duplicate labels for the same field: first occurrence wins.
			continue
		}

		def, ok := m.cat.Field(name)
		if !ok {
			rec.Additional.Set(key, overflowValue(p))
			continue
		}

		v := coercePair(def, p)
		rec.setField(name, v)
		if v.Unparsed {
			rec.Additional.Set(name+rawSuffix, p.Value)
		}
		if v.EnumMiss {
			rec.EnumReview = append(rec.EnumReview, EnumReview{Field: name, Literal: v.Text})
		}
	}
}

// coercePair picks the coercion path for a pair. List-typed fields prefer
// pre-split items, then a JSON array, then bullet lines, then loose
// delimiter splitting.
func coercePair(def catalog.FieldDef, p Pair) fieldval.Value {
	if def.Type == fieldval.KindStringList {
		if p.Items != nil {
			return fieldval.CoerceList(p.Value, p.Items)
		}
		if items := fieldval.ParseJSONList(strings.TrimSpace(p.Value)); items != nil {
			return fieldval.CoerceList(p.Value, items)
		}
		if strings.Contains(p.Value, "\n") {
			return fieldval.CoerceList(p.Value, fieldval.ParseBulletList(p.Value))
		}
		return fieldval.Coerce(def.Type, p.Value, nil)
	}
	return fieldval.Coerce(def.Type, p.Value, def.Enum)
}

// overflowValue flattens a pair for the overflow map. Pre-split items
// rejoin on newlines so chip order survives in the stored text.
func overflowValue(p Pair) string {
	if p.Items != nil {
		return strings.Join(p.Items, "\n")
	}
	return p.Value
}

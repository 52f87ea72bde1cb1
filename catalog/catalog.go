// Package catalog loads the data dictionary and template definitions that
// drive extraction.
//
// The catalogue is external, versionable data: canonical field definitions
// (semantic type, enum values), per-entity mandatory-field policy, and
// per-template label mappings with their classification hints. New templates
// and fields are added by editing the catalogue, not the parsing code.
//
// A Catalog is loaded once at process start and is immutable afterwards. A
// missing or invalid catalogue is a configuration error and aborts the run;
// it is the only fatal condition in the engine.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hivecare/carelog/fieldval"
)

// ErrInvalidCatalog is returned when the catalogue fails validation.
var ErrInvalidCatalog = errors.New("catalog: invalid catalogue")

// TemplateUnknown is the classification result when no template rule matches.
const TemplateUnknown = "unknown"

//go:embed catalog.yaml
var defaultCatalog []byte

// FieldDef declares a canonical field's semantic type and, for enums, the
// declared value set. Enums are open: values outside the set are retained
// and flagged, never rejected.
type FieldDef struct {
	Type fieldval.Kind `yaml:"type"`
	Enum []string      `yaml:"enum,omitempty"`
}

// EntityDef holds the per-entity mandatory-field policy.
type EntityDef struct {
	Mandatory []string `yaml:"mandatory"`
}

// TemplateDef identifies one recognized email layout: the entity it
// populates, the body form it expects, its classification hints, and the
// mapping from normalized label key to canonical field name.
type TemplateDef struct {
	ID              string            `yaml:"id"`
	Extends         string            `yaml:"extends,omitempty"`
	Entity          string            `yaml:"entity"`
	ContentType     string            `yaml:"content_type"` // "text" or "html"
	SubjectKeywords []string          `yaml:"subject_keywords,omitempty"`
	BodyMarkers     []string          `yaml:"body_markers,omitempty"`
	Labels          map[string]string `yaml:"labels"`

	// resolved holds the merged, normalized label→field mapping after Load.
	resolved map[string]string
}

// Field resolves a normalized label key to a canonical field name.
func (t *TemplateDef) Field(normalizedLabel string) (string, bool) {
	name, ok := t.resolved[normalizedLabel]
	return name, ok
}

// LabelCount returns the number of labels the template recognizes.
func (t *TemplateDef) LabelCount() int { return len(t.resolved) }

// LabelKeys returns the normalized label keys the template recognizes, in no
// particular order.
func (t *TemplateDef) LabelKeys() []string {
	keys := make([]string, 0, len(t.resolved))
	for k := range t.resolved {
		keys = append(keys, k)
	}
	return keys
}

// Catalog is the loaded, validated data dictionary.
type Catalog struct {
	Version   int                  `yaml:"version"`
	Fields    map[string]FieldDef  `yaml:"fields"`
	Entities  map[string]EntityDef `yaml:"entities"`
	Templates []TemplateDef        `yaml:"templates"`

	byID map[string]*TemplateDef
}

// Default loads the embedded catalogue. It panics on failure because the
// embedded data is part of the binary, so failure is a broken build, not a
// runtime state.
func Default() *Catalog {
	cat, err := Parse(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return cat
}

// Load reads a catalogue from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	cat, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return cat, nil
}

// Parse decodes and validates catalogue YAML.
func Parse(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := cat.resolve(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Template returns the definition for a template ID.
func (c *Catalog) Template(id string) (*TemplateDef, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// Field returns the definition for a canonical field name.
func (c *Catalog) Field(name string) (FieldDef, bool) {
	f, ok := c.Fields[name]
	return f, ok
}

// Entity returns the definition for an entity type.
func (c *Catalog) Entity(name string) (EntityDef, bool) {
	e, ok := c.Entities[name]
	return e, ok
}

// TemplateIDs returns the declared template IDs in catalogue order. Rule
// evaluation in the classifier follows this order.
func (c *Catalog) TemplateIDs() []string {
	ids := make([]string, 0, len(c.Templates))
	for i := range c.Templates {
		ids = append(ids, c.Templates[i].ID)
	}
	return ids
}

func (c *Catalog) resolve() error {
	if len(c.Fields) == 0 {
		return fmt.Errorf("%w: no fields declared", ErrInvalidCatalog)
	}
	if len(c.Templates) == 0 {
		return fmt.Errorf("%w: no templates declared", ErrInvalidCatalog)
	}

	for name, def := range c.Fields {
		if !def.Type.Valid() {
			return fmt.Errorf("%w: field %s has unknown type %q", ErrInvalidCatalog, name, def.Type)
		}
	}

	for entity, def := range c.Entities {
		for _, field := range def.Mandatory {
			if _, ok := c.Fields[field]; !ok {
				return fmt.Errorf("%w: entity %s mandatory field %s not in dictionary", ErrInvalidCatalog, entity, field)
			}
		}
	}

	c.byID = make(map[string]*TemplateDef, len(c.Templates))
	for i := range c.Templates {
		t := &c.Templates[i]
		if t.ID == "" || t.ID == TemplateUnknown {
			return fmt.Errorf("%w: template %d has reserved or empty ID", ErrInvalidCatalog, i)
		}
		if _, dup := c.byID[t.ID]; dup {
			return fmt.Errorf("%w: duplicate template ID %s", ErrInvalidCatalog, t.ID)
		}
		if t.ContentType != "text" && t.ContentType != "html" {
			return fmt.Errorf("%w: template %s content_type %q (want text or html)", ErrInvalidCatalog, t.ID, t.ContentType)
		}
		if _, ok := c.Entities[t.Entity]; !ok {
			return fmt.Errorf("%w: template %s entity %q not declared", ErrInvalidCatalog, t.ID, t.Entity)
		}
		c.byID[t.ID] = t
	}

	// Resolve label maps, merging extends chains. Templates may only extend
	// templates declared before them, which keeps the chain acyclic.
	for i := range c.Templates {
		t := &c.Templates[i]
		t.resolved = make(map[string]string, len(t.Labels))
		if t.Extends != "" {
			parent, ok := c.byID[t.Extends]
			if !ok || parent.resolved == nil {
				return fmt.Errorf("%w: template %s extends unknown or later template %q", ErrInvalidCatalog, t.ID, t.Extends)
			}
			for key, field := range parent.resolved {
				t.resolved[key] = field
			}
		}
		own := make(map[string]string, len(t.Labels))
		for label, field := range t.Labels {
			if _, ok := c.Fields[field]; !ok {
				return fmt.Errorf("%w: template %s label %q maps to unknown field %q", ErrInvalidCatalog, t.ID, label, field)
			}
			key := fieldval.NormalizeLabel(label)
			if key == "" {
				return fmt.Errorf("%w: template %s has a label that normalizes to empty", ErrInvalidCatalog, t.ID)
			}
			if existing, dup := own[key]; dup && existing != field {
				return fmt.Errorf("%w: template %s label key %q maps to both %s and %s", ErrInvalidCatalog, t.ID, key, existing, field)
			}
			own[key] = field
			t.resolved[key] = field // child aliases override inherited ones
		}
	}

	return nil
}

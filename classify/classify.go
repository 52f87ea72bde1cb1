// Package classify assigns an email to one of the catalogue's layout
// templates, or to catalog.TemplateUnknown.
//
// Classification is a pure function of three inputs: the subject line, the
// declared content type of the primary body part, and a structural probe of
// the body. It never fails: malformed input classifies as unknown, and
// unknown records still flow through assembly with their overflow and
// attachments intact.
package classify

import (
	"strings"

	"github.com/hivecare/carelog/catalog"
)

// questionRowMarker is the table-row class emitted by the form exports that
// produce the HTML-table templates. Its presence is the structural signal
// that a body is a question/answer table.
const questionRowMarker = "questionrow"

// Input is the observable surface the classifier may consult.
type Input struct {
	Subject     string
	ContentType string // "text", "html", or "" when the body is absent
	BodyProbe   string // raw body text; only substring checks are applied
}

// Result is a template assignment with a confidence score in (0, 1], or
// catalog.TemplateUnknown with confidence 0.
type Result struct {
	TemplateID string
	Confidence float64
}

type rule struct {
	templateID      string
	contentType     string
	subjectKeywords []string
	bodyMarkers     []string
}

// Classifier evaluates the catalogue's template rules in declaration order.
type Classifier struct {
	rules []rule
}

// New compiles classification rules from the catalogue. Keywords and markers
// are lowercased once here so Classify stays allocation-light.
func New(cat *catalog.Catalog) *Classifier {
	var rules []rule
	for _, id := range cat.TemplateIDs() {
		t, _ := cat.Template(id)
		r := rule{templateID: t.ID, contentType: t.ContentType}
		for _, kw := range t.SubjectKeywords {
			r.subjectKeywords = append(r.subjectKeywords, strings.ToLower(kw))
		}
		for _, m := range t.BodyMarkers {
			r.bodyMarkers = append(r.bodyMarkers, strings.ToLower(m))
		}
		rules = append(rules, r)
	}
	return &Classifier{rules: rules}
}

// Classify runs ordered rule evaluation: subject-keyword rules first (the
// subject is the most stable signal across form revisions), then structural
// body probes. First match wins.
func (c *Classifier) Classify(in Input) Result {
	subject := strings.ToLower(in.Subject)
	probe := strings.ToLower(in.BodyProbe)

	// Pass 1: subject keywords.
	best := Result{TemplateID: catalog.TemplateUnknown}
	for _, r := range c.rules {
		if len(r.subjectKeywords) == 0 {
			continue
		}
		matched := 0
		for _, kw := range r.subjectKeywords {
			if strings.Contains(subject, kw) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		confidence := float64(matched) / float64(len(r.subjectKeywords))
		if confidence > best.Confidence {
			best = Result{TemplateID: r.templateID, Confidence: confidence}
		}
	}
	if best.Confidence > 0 {
		return best
	}

	// Pass 2: structural probe. HTML templates additionally require the
	// question-row marker so an unrelated HTML email with a stray phrase
	// does not misclassify.
	for _, r := range c.rules {
		if len(r.bodyMarkers) == 0 || r.contentType != in.ContentType {
			continue
		}
		if r.contentType == "html" && !strings.Contains(probe, questionRowMarker) {
			continue
		}
		matched := 0
		for _, m := range r.bodyMarkers {
			if strings.Contains(probe, m) {
				matched++
			}
		}
		if matched == len(r.bodyMarkers) {
			return Result{TemplateID: r.templateID, Confidence: 0.5}
		}
	}

	return Result{TemplateID: catalog.TemplateUnknown}
}

// Package pipeline drives extraction: it drains pending messages from the
// store, runs classify → parse → map → assemble → persist for each, and
// records the outcome. Per-message failures never abort a batch.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hivecare/carelog/catalog"
	"github.com/hivecare/carelog/classify"
	"github.com/hivecare/carelog/records"
	"github.com/hivecare/carelog/sections"
	"github.com/hivecare/carelog/store"
	"github.com/hivecare/carelog/tablerows"
)

// Result summarizes one extraction run.
type Result struct {
	Processed    int `json:"processed"`
	Complete     int `json:"complete"`
	Incomplete   int `json:"incomplete"`
	Unclassified int `json:"unclassified"`
	Failed       int `json:"failed"`
}

// Pipeline extracts structured records from pending messages.
type Pipeline struct {
	store      *store.Store
	cat        *catalog.Catalog
	classifier *classify.Classifier
	assembler  *records.Assembler
	fallback   *fallbackParser
	log        *slog.Logger
	workers    int
	batchSize  int
}

// New creates a Pipeline.
func New(st *store.Store, cat *catalog.Catalog, log *slog.Logger, workers, batchSize int) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if workers <= 0 {
		workers = 4
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Pipeline{
		store:      st,
		cat:        cat,
		classifier: classify.New(cat),
		assembler:  records.NewAssembler(cat),
		fallback:   newFallbackParser(),
		log:        log,
		workers:    workers,
		batchSize:  batchSize,
	}
}

// Run drains the pending queue until it is empty or ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	var processed, complete, incomplete, unclassified, failed atomic.Int64

	for {
		batch, err := p.store.ListPending(ctx, p.batchSize)
		if err != nil {
			return nil, fmt.Errorf("pipeline: list pending: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.workers)
		for _, msg := range batch {
			g.Go(func() error {
				rec, err := p.Process(gctx, msg)
				switch {
				case err != nil:
					failed.Add(1)
					p.log.Warn("extraction failed", "message_id", msg.ID, "error", err)
					if serr := p.store.SetMessageResult(gctx, msg.ID, store.StatusFailed, msg.TemplateID, msg.Confidence, err.Error()); serr != nil {
						return serr
					}
				case rec.EntityType == "":
					unclassified.Add(1)
				case rec.Incomplete:
					incomplete.Add(1)
				default:
					complete.Add(1)
				}
				processed.Add(1)
				return gctx.Err()
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	res := &Result{
		Processed:    int(processed.Load()),
		Complete:     int(complete.Load()),
		Incomplete:   int(incomplete.Load()),
		Unclassified: int(unclassified.Load()),
		Failed:       int(failed.Load()),
	}
	p.log.Info("extraction complete",
		"processed", res.Processed, "complete", res.Complete,
		"incomplete", res.Incomplete, "unclassified", res.Unclassified,
		"failed", res.Failed)
	return res, nil
}

// Process extracts one message and persists the outcome. The returned record
// reflects what was saved.
func (p *Pipeline) Process(ctx context.Context, msg *store.Message) (*records.Record, error) {
	verdict := p.classifier.Classify(classify.Input{
		Subject:     msg.Subject,
		ContentType: msg.ContentKind,
		BodyProbe:   body(msg),
	})

	atts, err := p.attachmentRefs(ctx, msg.ID)
	if err != nil {
		return nil, err
	}

	var sentAt time.Time
	if msg.SentAt != 0 {
		sentAt = time.UnixMilli(msg.SentAt)
	}

	rec := p.extract(msg, verdict.TemplateID, atts, sentAt)

	if _, err := p.store.SaveRecord(ctx, msg.ID, rec); err != nil {
		return nil, fmt.Errorf("save record: %w", err)
	}
	if err := p.store.SetMessageResult(ctx, msg.ID, store.StatusProcessed, rec.TemplateID, verdict.Confidence, ""); err != nil {
		return nil, fmt.Errorf("set result: %w", err)
	}

	p.log.Debug("extracted message", "message_id", msg.ID,
		"template", rec.TemplateID, "entity", rec.EntityType,
		"fields", len(rec.Fields), "overflow", rec.Additional.Len())
	return rec, nil
}

// extract parses the body per the template's layout and assembles the
// record. Structural malformation (an HTML template whose body yields no
// question rows) routes to the unknown fallback rather than failing.
func (p *Pipeline) extract(msg *store.Message, templateID string, atts []records.AttachmentRef, sentAt time.Time) *records.Record {
	tmpl, ok := p.cat.Template(templateID)
	if !ok {
		return p.assembler.AssembleUnknown(p.fallback.pairs(msg), atts)
	}

	var pairs []records.Pair
	switch tmpl.ContentType {
	case "html":
		rows, err := tablerows.Parse(msg.BodyHTML)
		if err != nil || len(rows) == 0 {
			p.log.Warn("no question rows in classified message",
				"message_id", msg.ID, "template", templateID)
			return p.assembler.AssembleUnknown(p.fallback.pairs(msg), atts)
		}
		for _, r := range rows {
			pairs = append(pairs, records.Pair{Label: r.Label, Value: r.Value, Items: r.Items})
		}
	default:
		for _, s := range sections.Parse(msg.BodyText, tmpl.LabelKeys()) {
			pairs = append(pairs, records.Pair{Label: s.Label, Value: s.Value})
		}
	}

	return p.assembler.Assemble(templateID, pairs, atts, sentAt)
}

func (p *Pipeline) attachmentRefs(ctx context.Context, messageID string) ([]records.AttachmentRef, error) {
	rows, err := p.store.ListAttachments(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	var refs []records.AttachmentRef
	for _, a := range rows {
		refs = append(refs, records.AttachmentRef{
			Filename:    a.Filename,
			ContentType: a.ContentType,
			SizeBytes:   a.SizeBytes,
			SHA256:      a.SHA256,
			Pages:       a.Pages,
		})
	}
	return refs, nil
}

func body(msg *store.Message) string {
	if msg.BodyHTML != "" {
		return msg.BodyHTML
	}
	return msg.BodyText
}

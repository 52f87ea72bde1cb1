// Package ingest scans mailbox export directories for .eml files and loads
// them into the store: parse, dedupe by content digest, classify, and stash
// attachment payloads content-addressed on disk. Extraction happens later;
// ingestion only decides what is new and worth processing.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/hivecare/carelog/classify"
	"github.com/hivecare/carelog/envelope"
	"github.com/hivecare/carelog/store"
)

// Result summarizes one ingestion run.
type Result struct {
	Scanned    int `json:"scanned"`
	Ingested   int `json:"ingested"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}

// Ingestor loads .eml files into the store.
type Ingestor struct {
	store      *store.Store
	classifier *classify.Classifier
	blobs      *BlobDir
	log        *slog.Logger
}

// New creates an Ingestor. blobDir is where attachment payloads are written,
// content-addressed by digest.
func New(st *store.Store, cl *classify.Classifier, blobDir string, log *slog.Logger) *Ingestor {
	return &Ingestor{store: st, classifier: cl, blobs: NewBlobDir(blobDir), log: log}
}

// IngestDir walks dir recursively and ingests every .eml file. Individual
// file failures are logged and counted; only store-level errors abort.
func (in *Ingestor) IngestDir(ctx context.Context, dir string) (*Result, error) {
	res := &Result{}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".eml") {
			return nil
		}
		res.Scanned++
		switch ingested, err := in.IngestFile(ctx, path); {
		case err != nil:
			res.Failed++
			in.log.Warn("ingest failed", "path", path, "error", err)
		case ingested:
			res.Ingested++
		default:
			res.Duplicates++
		}
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("ingest: walk %s: %w", dir, err)
	}
	in.log.Info("ingest complete", "dir", dir,
		"scanned", res.Scanned, "ingested", res.Ingested,
		"duplicates", res.Duplicates, "failed", res.Failed)
	return res, nil
}

// IngestFile loads one .eml file. It returns false with a nil error when the
// message digest is already in the store.
func (in *Ingestor) IngestFile(ctx context.Context, path string) (bool, error) {
	env, err := envelope.Load(path)
	if err != nil {
		return false, err
	}

	digest := env.SHA256()
	if existing, err := in.store.MessageBySHA(ctx, digest); err != nil {
		return false, err
	} else if existing != nil {
		in.log.Debug("duplicate message", "path", path, "sha256", digest)
		return false, nil
	}

	verdict := in.classifier.Classify(classify.Input{
		Subject:     env.Subject,
		ContentType: env.ContentKind(),
		BodyProbe:   env.Body(),
	})

	msg := &store.Message{
		SHA256:      digest,
		SourcePath:  path,
		MessageID:   env.MessageID,
		Subject:     env.Subject,
		Sender:      env.Sender,
		ContentKind: env.ContentKind(),
		BodyText:    env.TextBody,
		BodyHTML:    env.HTMLBody,
		TemplateID:  verdict.TemplateID,
		Confidence:  verdict.Confidence,
		IngestedAt:  time.Now().UnixMilli(),
	}
	if !env.SentAt.IsZero() {
		msg.SentAt = env.SentAt.UnixMilli()
	}
	if err := in.store.InsertMessage(ctx, msg); err != nil {
		return false, fmt.Errorf("insert message: %w", err)
	}

	for _, att := range env.Attachments {
		storedPath, err := in.blobs.Put(att.SHA256, att.Payload)
		if err != nil {
			return false, fmt.Errorf("store attachment %s: %w", att.Filename, err)
		}
		row := &store.Attachment{
			MessageID:   msg.ID,
			Filename:    att.Filename,
			ContentType: att.ContentType,
			SizeBytes:   int64(len(att.Payload)),
			SHA256:      att.SHA256,
			StoredPath:  storedPath,
		}
		if isPDF(att.ContentType, att.Filename) {
			if pages, err := pdfPageCount(att.Payload); err == nil {
				row.Pages = pages
			} else {
				in.log.Warn("pdf probe failed", "filename", att.Filename, "error", err)
			}
		}
		if err := in.store.InsertAttachment(ctx, row); err != nil {
			return false, fmt.Errorf("insert attachment: %w", err)
		}
	}

	in.log.Info("ingested message", "path", path,
		"template", verdict.TemplateID, "confidence", verdict.Confidence,
		"attachments", len(env.Attachments))
	return true, nil
}

func isPDF(contentType, filename string) bool {
	return contentType == "application/pdf" ||
		strings.EqualFold(filepath.Ext(filename), ".pdf")
}

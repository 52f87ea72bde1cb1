package ingest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/hivecare/carelog/catalog"
	"github.com/hivecare/carelog/classify"
	"github.com/hivecare/carelog/dbopen"
	"github.com/hivecare/carelog/store"
)

func testIngestor(t *testing.T) (*Ingestor, *store.Store) {
	t.Helper()
	st := store.New(dbopen.OpenMemory(t, dbopen.WithSchema(store.Schema)))
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	in := New(st, classify.New(catalog.Default()), filepath.Join(t.TempDir(), "blobs"), log)
	return in, st
}

func writeEML(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\r\n")), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// WHAT: a directory scan ingests new messages and classifies them at ingest.
// WHY: the template verdict stored here routes extraction later.
func TestIngestDir(t *testing.T) {
	in, st := testIngestor(t)
	ctx := context.Background()
	dir := t.TempDir()

	writeEML(t, dir, "note.eml",
		"From: roster@example.org",
		"Subject: Automated Daily Shift Note",
		"Date: Sat, 24 Aug 2024 21:15:00 +1000",
		"Content-Type: text/plain",
		"",
		"Date: 2024-08-24",
		"Written by: Jane Doe",
	)
	writeEML(t, dir, "junk.eml",
		"From: other@example.org",
		"Subject: lunch plans",
		"Content-Type: text/plain",
		"",
		"friday?",
	)
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("not mail"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := in.IngestDir(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	if res.Scanned != 2 || res.Ingested != 2 || res.Failed != 0 {
		t.Fatalf("result = %+v", res)
	}

	pending, err := st.ListPending(ctx, 10)
	if err != nil || len(pending) != 2 {
		t.Fatalf("pending = %v, %v", pending, err)
	}
	byTemplate := map[string]string{}
	for _, m := range pending {
		byTemplate[m.TemplateID] = m.Subject
	}
	if _, ok := byTemplate["automated_daily_shift_note"]; !ok {
		t.Fatalf("templates = %v", byTemplate)
	}
	if _, ok := byTemplate[catalog.TemplateUnknown]; !ok {
		t.Fatalf("templates = %v", byTemplate)
	}
}

// WHAT: re-ingesting the same directory counts duplicates, not new rows.
// WHY: batch runs are resumable; the digest makes them idempotent.
func TestIngestIdempotent(t *testing.T) {
	in, st := testIngestor(t)
	ctx := context.Background()
	dir := t.TempDir()

	writeEML(t, dir, "note.eml",
		"From: roster@example.org",
		"Subject: Automated Daily Shift Note",
		"Content-Type: text/plain",
		"",
		"Date: 2024-08-24",
	)

	if _, err := in.IngestDir(ctx, dir); err != nil {
		t.Fatal(err)
	}
	res, err := in.IngestDir(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	if res.Ingested != 0 || res.Duplicates != 1 {
		t.Fatalf("result = %+v", res)
	}

	stats, _ := st.Stats(ctx)
	if stats.MessagesTotal != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

// WHAT: unreadable files count as failures without aborting the run.
// WHY: one corrupt export must not block the batch.
func TestIngestBadFile(t *testing.T) {
	in, _ := testIngestor(t)
	ctx := context.Background()
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "broken.eml"), []byte("no headers here"), 0o644); err != nil {
		t.Fatal(err)
	}
	writeEML(t, dir, "ok.eml",
		"From: roster@example.org",
		"Subject: s",
		"",
		"body",
	)

	res, err := in.IngestDir(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	if res.Failed != 1 || res.Ingested != 1 {
		t.Fatalf("result = %+v", res)
	}
}

// WHAT: blob writes are content-addressed and idempotent.
// WHY: the same photo attached to two emails stores once.
func TestBlobDir(t *testing.T) {
	b := NewBlobDir(filepath.Join(t.TempDir(), "blobs"))

	path1, err := b.Put("deadbeef", []byte("payload"))
	if err != nil {
		t.Fatal(err)
	}
	path2, err := b.Put("deadbeef", []byte("payload"))
	if err != nil || path2 != path1 {
		t.Fatalf("second put = %q, %v (first %q)", path2, err, path1)
	}

	data, err := b.Open("deadbeef")
	if err != nil || string(data) != "payload" {
		t.Fatalf("open = %q, %v", data, err)
	}

	if !strings.Contains(path1, filepath.Join("de", "deadbeef")) {
		t.Fatalf("layout = %q", path1)
	}

	if _, err := b.Put("x", nil); err == nil {
		t.Fatal("short digest accepted")
	}
}

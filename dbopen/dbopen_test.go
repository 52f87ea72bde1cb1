package dbopen_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/hivecare/carelog/dbopen"
)

// notesSchema is a cut-down shift_notes shape; enough to exercise schema
// application and transactional writes without dragging in the store.
const notesSchema = `CREATE TABLE notes (
	id TEXT PRIMARY KEY,
	note_date TEXT NOT NULL,
	author_name TEXT NOT NULL DEFAULT ''
);`

func insertNote(tx *sql.Tx, id, date string) error {
	_, err := tx.Exec(`INSERT INTO notes (id, note_date) VALUES (?, ?)`, id, date)
	return err
}

func countNotes(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n
}

// WHAT: Open applies the WAL/foreign-keys/synchronous/busy-timeout pragmas.
// WHY: every store in the engine assumes these; a silently missing pragma
// shows up later as corruption or lock storms.
func TestOpenPragmas(t *testing.T) {
	db := dbopen.OpenMemory(t)

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatal(err)
	}
	// :memory: databases report "memory" instead of "wal".
	if journalMode != "wal" && journalMode != "memory" {
		t.Fatalf("journal_mode = %q, want wal or memory", journalMode)
	}

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatal(err)
	}
	if fk != 1 {
		t.Fatalf("foreign_keys = %d, want 1", fk)
	}

	var sync int
	if err := db.QueryRow("PRAGMA synchronous").Scan(&sync); err != nil {
		t.Fatal(err)
	}
	if sync != 1 {
		t.Fatalf("synchronous = %d, want 1 (NORMAL)", sync)
	}

	var busyTimeout int
	if err := db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout); err != nil {
		t.Fatal(err)
	}
	if busyTimeout != 10_000 {
		t.Fatalf("busy_timeout = %d, want 10000", busyTimeout)
	}
}

// WHAT: options override the pragma defaults.
func TestOptions(t *testing.T) {
	db := dbopen.OpenMemory(t,
		dbopen.WithBusyTimeout(5000),
		dbopen.WithCacheSize(-64000),
		dbopen.WithSynchronous("FULL"),
		dbopen.WithoutForeignKeys(),
	)

	checks := []struct {
		pragma string
		want   int
	}{
		{"busy_timeout", 5000},
		{"cache_size", -64000},
		{"synchronous", 2}, // FULL
		{"foreign_keys", 0},
	}
	for _, c := range checks {
		var got int
		if err := db.QueryRow("PRAGMA " + c.pragma).Scan(&got); err != nil {
			t.Fatal(err)
		}
		if got != c.want {
			t.Errorf("%s = %d, want %d", c.pragma, got, c.want)
		}
	}
}

// WHAT: WithSchema applies DDL before the handle is returned.
// WHY: store.Open relies on this to bootstrap a fresh database file.
func TestWithSchema(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(notesSchema))

	if _, err := db.Exec(`INSERT INTO notes (id, note_date) VALUES ('rec_1', '2024-03-26')`); err != nil {
		t.Fatalf("insert into schema-created table: %v", err)
	}
	if n := countNotes(t, db); n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}

// WHAT: WithMkdirAll creates missing parent directories for the db file.
// WHY: first run on a fresh host points at a data dir that does not exist.
func TestWithMkdirAll(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "db", "carelog.db")

	db, err := dbopen.Open(dbPath, dbopen.WithMkdirAll())
	if err != nil {
		t.Fatalf("open with mkdirall: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Dir(dbPath)); err != nil {
		t.Fatalf("directory not created: %v", err)
	}
}

// WHAT: IsBusy recognizes the driver's lock-contention strings and nothing
// else.
// WHY: retrying a non-busy error would re-run a failed write.
func TestIsBusy(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("UNIQUE constraint failed: raw_messages.sha256"), false},
		{errors.New("SQLITE_BUSY"), true},
		{errors.New("database is locked"), true},
		{errors.New("database table is locked"), true},
		{errors.New("insert note: SQLITE_BUSY (5)"), true},
	}
	for _, tt := range tests {
		if got := dbopen.IsBusy(tt.err); got != tt.want {
			t.Errorf("IsBusy(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

// WHAT: RunTx commits when fn succeeds.
func TestRunTxCommit(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(notesSchema))

	err := dbopen.RunTx(context.Background(), db, func(tx *sql.Tx) error {
		return insertNote(tx, "rec_1", "2024-03-26")
	})
	if err != nil {
		t.Fatalf("RunTx: %v", err)
	}
	if n := countNotes(t, db); n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}

// WHAT: an error from fn rolls the whole transaction back and passes
// through unwrapped.
// WHY: SaveRecord writes an entity row and its ledger row in one RunTx;
// a partial pair must never survive.
func TestRunTxRollback(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(notesSchema))

	sentinel := errors.New("ledger write failed")
	err := dbopen.RunTx(context.Background(), db, func(tx *sql.Tx) error {
		if err := insertNote(tx, "rec_1", "2024-03-26"); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("RunTx error = %v, want sentinel", err)
	}
	if n := countNotes(t, db); n != 0 {
		t.Fatalf("count = %d, want 0 after rollback", n)
	}
}

// WHAT: a non-busy error is not retried; fn runs exactly once.
func TestRunTxNoRetryOnPlainError(t *testing.T) {
	db := dbopen.OpenMemory(t, dbopen.WithSchema(notesSchema))

	calls := 0
	err := dbopen.RunTx(context.Background(), db, func(tx *sql.Tx) error {
		calls++
		return errors.New("bad record")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("fn ran %d times, want 1", calls)
	}
}

// WHAT: a cancelled context aborts RunTx.
func TestRunTxContextCancelled(t *testing.T) {
	db := dbopen.OpenMemory(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := dbopen.RunTx(ctx, db, func(tx *sql.Tx) error { return nil })
	if err == nil {
		t.Fatal("expected error on cancelled context")
	}
}

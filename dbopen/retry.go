package dbopen

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Writers share one database file between the ingest scan, the extraction
// workers and the reporting reads, so short lock collisions are expected.
// RunTx absorbs them here instead of surfacing SQLITE_BUSY to callers.
const (
	txAttempts = 3
	txBackoff  = 100 * time.Millisecond
)

// busyMarkers are the strings modernc.org/sqlite puts in lock-contention
// errors. The driver does not expose a typed error for them.
var busyMarkers = []string{
	"SQLITE_BUSY",
	"database is locked",
	"database table is locked",
}

// IsBusy reports whether err is a lock-contention error worth retrying.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, m := range busyMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// RunTx runs fn inside a transaction, committing on nil and rolling back on
// error. Busy errors retry with linear backoff; any other error, including
// one returned by fn, is passed through on the first attempt.
func RunTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = inTx(ctx, db, fn)
		if err == nil || !IsBusy(err) {
			return err
		}
		if attempt == txAttempts {
			return fmt.Errorf("dbopen: still busy after %d attempts: %w", txAttempts, err)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("dbopen: retry cancelled: %w", ctx.Err())
		case <-time.After(txBackoff * time.Duration(attempt)):
		}
	}
}

func inTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("dbopen: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("dbopen: commit: %w", err)
	}
	return nil
}

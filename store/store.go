// Package store is the data access layer for the extraction engine.
//
// One SQLite database holds the full pipeline state: raw ingested messages
// and their attachments, the entity tables the extractors populate, and the
// processed-entities ledger that records what happened to every message.
package store

import (
	"database/sql"

	"github.com/hivecare/carelog/dbopen"
	"github.com/hivecare/carelog/idgen"
)

// Store wraps the engine database.
type Store struct {
	DB    *sql.DB
	newID idgen.Generator
}

// New creates a Store from an already-opened database connection.
func New(db *sql.DB) *Store {
	return &Store{DB: db, newID: idgen.Default}
}

// Open opens (or creates) the engine database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(Schema))
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.DB.Close() }

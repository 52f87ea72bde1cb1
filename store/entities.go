package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hivecare/carelog/dbopen"
	"github.com/hivecare/carelog/records"
)

// SaveRecord persists an assembled record and its ledger row in one
// transaction, returning the entity row ID ("" for unclassified records).
func (s *Store) SaveRecord(ctx context.Context, messageID string, rec *records.Record) (string, error) {
	entityID := ""
	if rec.EntityType != "" {
		entityID = s.newID()
	}

	ledger := &ProcessedEntity{
		ID:            s.newID(),
		MessageID:     messageID,
		EntityType:    rec.EntityType,
		EntityID:      entityID,
		TemplateID:    rec.TemplateID,
		Status:        ledgerStatus(rec),
		MissingFields: jsonArray(rec.Missing),
		EnumReview:    "[]",
		Overflow:      "{}",
		ProcessedAt:   time.Now().UnixMilli(),
	}
	if len(rec.EnumReview) > 0 {
		ledger.EnumReview = jsonValue(rec.EnumReview, "[]")
	}
	if rec.EntityType == "" && rec.Additional.Len() > 0 {
		ledger.Overflow = jsonValue(rec.Additional, "{}")
	}

	err := dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		switch rec.EntityType {
		case "shift_note":
			if err := insertShiftNote(ctx, tx, entityID, messageID, rec); err != nil {
				return err
			}
		case "incident_report":
			if err := insertIncidentReport(ctx, tx, entityID, messageID, rec); err != nil {
				return err
			}
		case "incident_investigation":
			if err := insertInvestigation(ctx, tx, entityID, messageID, rec); err != nil {
				return err
			}
		case "":
			// Unclassified: ledger row only, overflow preserved there.
		default:
			return fmt.Errorf("store: unknown entity type %q", rec.EntityType)
		}
		return insertLedger(ctx, tx, ledger)
	})
	if err != nil {
		return "", err
	}
	return entityID, nil
}

func ledgerStatus(rec *records.Record) string {
	switch {
	case rec.EntityType == "":
		return EntityUnclassified
	case rec.Incomplete:
		return EntityIncomplete
	}
	return EntityComplete
}

func insertLedger(ctx context.Context, tx *sql.Tx, p *ProcessedEntity) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO processed_entities (id, message_id, entity_type, entity_id,
		template_id, status, missing_fields, enum_review, overflow, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.MessageID, p.EntityType, p.EntityID, p.TemplateID, p.Status,
		p.MissingFields, p.EnumReview, p.Overflow, p.ProcessedAt,
	)
	return err
}

// ListLedger returns ledger rows filtered by status; empty status means all.
func (s *Store) ListLedger(ctx context.Context, status string, limit int) ([]*ProcessedEntity, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, message_id, entity_type, entity_id, template_id, status,
		missing_fields, enum_review, overflow, processed_at
		FROM processed_entities`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY processed_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*ProcessedEntity
	for rows.Next() {
		var p ProcessedEntity
		if err := rows.Scan(&p.ID, &p.MessageID, &p.EntityType, &p.EntityID,
			&p.TemplateID, &p.Status, &p.MissingFields, &p.EnumReview,
			&p.Overflow, &p.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan ledger: %w", err)
		}
		result = append(result, &p)
	}
	return result, rows.Err()
}

// Field extraction helpers. Unparsed values store as NULL/empty in the typed
// columns; their raw text already rides in additional_fields via the shadow
// entry the mapper wrote.

func textOf(rec *records.Record, name string) string {
	v, ok := rec.Fields[name]
	if !ok || v.Unparsed {
		return ""
	}
	return v.Text
}

func boolOf(rec *records.Record, name string) *bool {
	if v, ok := rec.Fields[name]; ok {
		return v.Bool
	}
	return nil
}

func intOf(rec *records.Record, name string) *int64 {
	if v, ok := rec.Fields[name]; ok {
		return v.Int
	}
	return nil
}

func floatOf(rec *records.Record, name string) *float64 {
	if v, ok := rec.Fields[name]; ok {
		return v.Float
	}
	return nil
}

func listOf(rec *records.Record, name string) string {
	if v, ok := rec.Fields[name]; ok && v.List != nil {
		return jsonArray(v.List)
	}
	return "[]"
}

func additionalOf(rec *records.Record) string {
	return jsonValue(rec.Additional, "{}")
}

func jsonArray(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	return jsonValue(items, "[]")
}

func jsonValue(v any, fallback string) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fallback
	}
	return string(data)
}

package store

import (
	"context"
	"database/sql"
	"fmt"
)

// InsertMessage stores a new raw message. The caller sets everything except
// ID, which is generated here and written back.
func (s *Store) InsertMessage(ctx context.Context, m *Message) error {
	if m.ID == "" {
		m.ID = s.newID()
	}
	if m.Status == "" {
		m.Status = StatusPending
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO raw_messages (id, sha256, source_path, message_id, subject, sender,
		sent_at, content_kind, body_text, body_html, template_id, confidence, status,
		error, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.SHA256, m.SourcePath, m.MessageID, m.Subject, m.Sender,
		m.SentAt, m.ContentKind, m.BodyText, m.BodyHTML, m.TemplateID, m.Confidence,
		m.Status, m.Error, m.IngestedAt,
	)
	return err
}

// MessageBySHA retrieves a message by content digest, nil when absent. This
// is the ingestion dedup check.
func (s *Store) MessageBySHA(ctx context.Context, sha256 string) (*Message, error) {
	return s.scanMessage(s.DB.QueryRowContext(ctx,
		`SELECT `+messageCols+` FROM raw_messages WHERE sha256 = ?`, sha256))
}

// Message retrieves a message by ID, nil when absent.
func (s *Store) Message(ctx context.Context, id string) (*Message, error) {
	return s.scanMessage(s.DB.QueryRowContext(ctx,
		`SELECT `+messageCols+` FROM raw_messages WHERE id = ?`, id))
}

// ListPending returns messages awaiting extraction, oldest first.
func (s *Store) ListPending(ctx context.Context, limit int) ([]*Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+messageCols+` FROM raw_messages WHERE status = ?
		ORDER BY ingested_at ASC LIMIT ?`, StatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Message
	for rows.Next() {
		m, err := scanMessageRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// SetMessageResult records the extraction outcome for a message.
func (s *Store) SetMessageResult(ctx context.Context, id, status, templateID string, confidence float64, errMsg string) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE raw_messages SET status = ?, template_id = ?, confidence = ?, error = ?
		WHERE id = ?`,
		status, templateID, confidence, errMsg, id)
	return err
}

// InsertAttachment stores an attachment row.
func (s *Store) InsertAttachment(ctx context.Context, a *Attachment) error {
	if a.ID == "" {
		a.ID = s.newID()
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO attachments (id, message_id, filename, content_type, size_bytes,
		sha256, stored_path, pages)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.MessageID, a.Filename, a.ContentType, a.SizeBytes,
		a.SHA256, a.StoredPath, a.Pages,
	)
	return err
}

// ListAttachments returns a message's attachments in insertion order.
func (s *Store) ListAttachments(ctx context.Context, messageID string) ([]*Attachment, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, message_id, filename, content_type, size_bytes, sha256, stored_path, pages
		FROM attachments WHERE message_id = ? ORDER BY id`, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Attachment
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.ID, &a.MessageID, &a.Filename, &a.ContentType,
			&a.SizeBytes, &a.SHA256, &a.StoredPath, &a.Pages); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		result = append(result, &a)
	}
	return result, rows.Err()
}

const messageCols = `id, sha256, source_path, message_id, subject, sender, sent_at,
	content_kind, body_text, body_html, template_id, confidence, status, error, ingested_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanMessage(row *sql.Row) (*Message, error) {
	m, err := scanMessageRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func scanMessageRow(row rowScanner) (*Message, error) {
	var (
		m      Message
		sentAt sql.NullInt64
	)
	err := row.Scan(&m.ID, &m.SHA256, &m.SourcePath, &m.MessageID, &m.Subject, &m.Sender,
		&sentAt, &m.ContentKind, &m.BodyText, &m.BodyHTML, &m.TemplateID, &m.Confidence,
		&m.Status, &m.Error, &m.IngestedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan message: %w", err)
	}
	m.SentAt = sentAt.Int64
	return &m, nil
}

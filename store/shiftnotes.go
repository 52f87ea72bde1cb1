package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hivecare/carelog/records"
)

// ShiftNote is one row of shift_notes, as read back for reporting. List
// columns stay JSON; reporting decodes what it needs.
type ShiftNote struct {
	ID               string
	MessageID        string
	NoteDate         string
	DayOfWeek        string
	ShiftWindow      string
	AuthorName       string
	ParticipantName  string
	HydrationIntake  string
	KilometresWalked sql.NullFloat64
	BMOccurred       sql.NullBool
	StaffEmotions    string
	Incomplete       bool
	CreatedAt        int64
}

func insertShiftNote(ctx context.Context, tx *sql.Tx, id, messageID string, rec *records.Record) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO shift_notes (id, message_id, note_date, day_of_week, shift_window,
		author_name, participant_name, activities_summary, mood_summary, hydration_intake,
		meals_consumed, kilometres_walked, bm_occurred, bm_rating, sleep_start_time,
		sleep_disturbance, personal_care_provided, resident_wellness,
		emotional_support_required, transition_difficulty, change_management_difficulty,
		shift_duties_completed, house_jobs_participation, incidents_occurred, near_misses,
		hazards_identified, visitors_present, issues_or_successes, follow_up_requests,
		staff_emotions, additional_fields, incomplete, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, messageID,
		textOf(rec, "note_date"),
		textOf(rec, "day_of_week"),
		textOf(rec, "shift_window"),
		textOf(rec, "author_name"),
		textOf(rec, "participant_name"),
		textOf(rec, "activities_summary"),
		textOf(rec, "mood_summary"),
		textOf(rec, "hydration_intake"),
		listOf(rec, "meals_consumed"),
		floatOf(rec, "kilometres_walked"),
		boolOf(rec, "bm_occurred"),
		intOf(rec, "bm_rating"),
		textOf(rec, "sleep_start_time"),
		boolOf(rec, "sleep_disturbance"),
		boolOf(rec, "personal_care_provided"),
		textOf(rec, "resident_wellness"),
		textOf(rec, "emotional_support_required"),
		textOf(rec, "transition_difficulty"),
		textOf(rec, "change_management_difficulty"),
		listOf(rec, "shift_duties_completed"),
		textOf(rec, "house_jobs_participation"),
		boolOf(rec, "incidents_occurred"),
		textOf(rec, "near_misses"),
		textOf(rec, "hazards_identified"),
		textOf(rec, "visitors_present"),
		textOf(rec, "issues_or_successes"),
		textOf(rec, "follow_up_requests"),
		listOf(rec, "staff_emotions"),
		additionalOf(rec),
		rec.Incomplete,
		time.Now().UnixMilli(),
	)
	return err
}

// ListShiftNotes returns shift notes in a closed date range, oldest first.
// Empty bounds are open on that side.
func (s *Store) ListShiftNotes(ctx context.Context, from, to string, limit int) ([]*ShiftNote, error) {
	if limit <= 0 {
		limit = 200
	}
	query := `SELECT id, message_id, note_date, day_of_week, shift_window, author_name,
		participant_name, hydration_intake, kilometres_walked, bm_occurred, staff_emotions,
		incomplete, created_at
		FROM shift_notes WHERE 1=1`
	args := []any{}
	if from != "" {
		query += ` AND note_date >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND note_date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY note_date ASC LIMIT ?`
	args = append(args, limit)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*ShiftNote
	for rows.Next() {
		var n ShiftNote
		if err := rows.Scan(&n.ID, &n.MessageID, &n.NoteDate, &n.DayOfWeek, &n.ShiftWindow,
			&n.AuthorName, &n.ParticipantName, &n.HydrationIntake, &n.KilometresWalked,
			&n.BMOccurred, &n.StaffEmotions, &n.Incomplete, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan shift note: %w", err)
		}
		result = append(result, &n)
	}
	return result, rows.Err()
}

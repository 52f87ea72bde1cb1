package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hivecare/carelog/records"
)

// IncidentReport is one row of incident_reports as read back for reporting.
type IncidentReport struct {
	ID                  string
	MessageID           string
	ParticipantName     string
	IncidentStage       string
	AwarenessTimestamp  string
	IncidentDescription string
	IncidentTypes       string // JSON array
	RestraintUsed       sql.NullBool
	ReporterName        string
	Incomplete          bool
	CreatedAt           int64
}

// Investigation is one row of incident_investigations as read back.
type Investigation struct {
	ID                  string
	MessageID           string
	ParticipantName     string
	NDISReportingStatus string
	InvestigationStatus string
	BriefDescription    string
	LeadName            string
	Incomplete          bool
	CreatedAt           int64
}

func insertIncidentReport(ctx context.Context, tx *sql.Tx, id, messageID string, rec *records.Record) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO incident_reports (id, message_id, participant_name, incident_stage,
		awareness_timestamp, staff_present_count, impacted_role, impacted_person_name,
		pre_incident_context, incident_description, immediate_actions, bsp_guidance,
		strategy_effectiveness, training_request, training_rationale, preventative_actions,
		incident_types, restraint_used, prn_name, prn_dosage, prn_admin_person,
		prn_admin_time, prn_authorised, prn_recurrence, subject_of_allegation,
		witnesses_present, reporter_name, reporter_role, reporter_email,
		additional_fields, incomplete, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, messageID,
		textOf(rec, "participant_name"),
		textOf(rec, "incident_stage"),
		textOf(rec, "awareness_timestamp"),
		intOf(rec, "staff_present_count"),
		textOf(rec, "impacted_role"),
		textOf(rec, "impacted_person_name"),
		textOf(rec, "pre_incident_context"),
		textOf(rec, "incident_description"),
		listOf(rec, "immediate_actions"),
		textOf(rec, "bsp_guidance"),
		textOf(rec, "strategy_effectiveness"),
		boolOf(rec, "training_request"),
		textOf(rec, "training_rationale"),
		textOf(rec, "preventative_actions"),
		listOf(rec, "incident_types"),
		boolOf(rec, "restraint_used"),
		textOf(rec, "prn_name"),
		textOf(rec, "prn_dosage"),
		textOf(rec, "prn_admin_person"),
		textOf(rec, "prn_admin_time"),
		boolOf(rec, "prn_authorised"),
		textOf(rec, "prn_recurrence"),
		boolOf(rec, "subject_of_allegation"),
		textOf(rec, "witnesses_present"),
		textOf(rec, "reporter_name"),
		textOf(rec, "reporter_role"),
		textOf(rec, "reporter_email"),
		additionalOf(rec),
		rec.Incomplete,
		time.Now().UnixMilli(),
	)
	return err
}

func insertInvestigation(ctx context.Context, tx *sql.Tx, id, messageID string, rec *records.Record) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO incident_investigations (id, message_id, participant_name,
		ndis_reporting_status, incident_classification, brief_description,
		additional_context, prn_location, prn_primary_behaviour, prn_time_period,
		prn_time_window, prn_baseline_duration, investigation_status, system_factor_list,
		investigator_confirmation, investigation_lead_name, additional_fields,
		incomplete, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, messageID,
		textOf(rec, "participant_name"),
		textOf(rec, "ndis_reporting_status"),
		textOf(rec, "incident_classification"),
		textOf(rec, "brief_description"),
		textOf(rec, "additional_context"),
		textOf(rec, "prn_location"),
		textOf(rec, "prn_primary_behaviour"),
		textOf(rec, "prn_time_period"),
		textOf(rec, "prn_time_window"),
		textOf(rec, "prn_baseline_duration"),
		textOf(rec, "investigation_status"),
		listOf(rec, "system_factor_list"),
		textOf(rec, "investigator_confirmation"),
		textOf(rec, "investigation_lead_name"),
		additionalOf(rec),
		rec.Incomplete,
		time.Now().UnixMilli(),
	)
	return err
}

// ListIncidents returns incident reports, newest first.
func (s *Store) ListIncidents(ctx context.Context, limit int) ([]*IncidentReport, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, message_id, participant_name, incident_stage, awareness_timestamp,
		incident_description, incident_types, restraint_used, reporter_name, incomplete, created_at
		FROM incident_reports ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*IncidentReport
	for rows.Next() {
		var r IncidentReport
		if err := rows.Scan(&r.ID, &r.MessageID, &r.ParticipantName, &r.IncidentStage,
			&r.AwarenessTimestamp, &r.IncidentDescription, &r.IncidentTypes,
			&r.RestraintUsed, &r.ReporterName, &r.Incomplete, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		result = append(result, &r)
	}
	return result, rows.Err()
}

// ListInvestigations returns investigations, newest first.
func (s *Store) ListInvestigations(ctx context.Context, limit int) ([]*Investigation, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, message_id, participant_name, ndis_reporting_status, investigation_status,
		brief_description, investigation_lead_name, incomplete, created_at
		FROM incident_investigations ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Investigation
	for rows.Next() {
		var v Investigation
		if err := rows.Scan(&v.ID, &v.MessageID, &v.ParticipantName, &v.NDISReportingStatus,
			&v.InvestigationStatus, &v.BriefDescription, &v.LeadName, &v.Incomplete,
			&v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan investigation: %w", err)
		}
		result = append(result, &v)
	}
	return result, rows.Err()
}

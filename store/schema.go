package store

// Schema is the complete engine schema. List-typed columns hold JSON arrays,
// additional_fields columns hold JSON objects; timestamps are epoch millis.
const Schema = `
-- Raw ingested emails, deduplicated by content digest
CREATE TABLE IF NOT EXISTS raw_messages (
    id            TEXT PRIMARY KEY,
    sha256        TEXT NOT NULL UNIQUE,
    source_path   TEXT NOT NULL DEFAULT '',
    message_id    TEXT NOT NULL DEFAULT '',
    subject       TEXT NOT NULL DEFAULT '',
    sender        TEXT NOT NULL DEFAULT '',
    sent_at       INTEGER,
    content_kind  TEXT NOT NULL DEFAULT '',
    body_text     TEXT NOT NULL DEFAULT '',
    body_html     TEXT NOT NULL DEFAULT '',
    template_id   TEXT NOT NULL DEFAULT '',
    confidence    REAL NOT NULL DEFAULT 0,
    status        TEXT NOT NULL DEFAULT 'pending',
    error         TEXT NOT NULL DEFAULT '',
    ingested_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_raw_messages_status ON raw_messages(status, ingested_at);

-- Attachment payloads live on disk content-addressed; rows carry identity
CREATE TABLE IF NOT EXISTS attachments (
    id           TEXT PRIMARY KEY,
    message_id   TEXT NOT NULL REFERENCES raw_messages(id) ON DELETE CASCADE,
    filename     TEXT NOT NULL DEFAULT '',
    content_type TEXT NOT NULL DEFAULT '',
    size_bytes   INTEGER NOT NULL DEFAULT 0,
    sha256       TEXT NOT NULL,
    stored_path  TEXT NOT NULL DEFAULT '',
    pages        INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_attachments_message ON attachments(message_id);

-- Ledger: one row per processing outcome per message
CREATE TABLE IF NOT EXISTS processed_entities (
    id             TEXT PRIMARY KEY,
    message_id     TEXT NOT NULL REFERENCES raw_messages(id) ON DELETE CASCADE,
    entity_type    TEXT NOT NULL DEFAULT '',
    entity_id      TEXT NOT NULL DEFAULT '',
    template_id    TEXT NOT NULL DEFAULT '',
    status         TEXT NOT NULL,
    missing_fields TEXT NOT NULL DEFAULT '[]',
    enum_review    TEXT NOT NULL DEFAULT '[]',
    overflow       TEXT NOT NULL DEFAULT '{}',
    processed_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_processed_entities_message ON processed_entities(message_id);
CREATE INDEX IF NOT EXISTS idx_processed_entities_status ON processed_entities(status);

CREATE TABLE IF NOT EXISTS shift_notes (
    id                           TEXT PRIMARY KEY,
    message_id                   TEXT NOT NULL REFERENCES raw_messages(id) ON DELETE CASCADE,
    note_date                    TEXT NOT NULL DEFAULT '',
    day_of_week                  TEXT NOT NULL DEFAULT '',
    shift_window                 TEXT NOT NULL DEFAULT '',
    author_name                  TEXT NOT NULL DEFAULT '',
    participant_name             TEXT NOT NULL DEFAULT '',
    activities_summary           TEXT NOT NULL DEFAULT '',
    mood_summary                 TEXT NOT NULL DEFAULT '',
    hydration_intake             TEXT NOT NULL DEFAULT '',
    meals_consumed               TEXT NOT NULL DEFAULT '[]',
    kilometres_walked            REAL,
    bm_occurred                  INTEGER,
    bm_rating                    INTEGER,
    sleep_start_time             TEXT NOT NULL DEFAULT '',
    sleep_disturbance            INTEGER,
    personal_care_provided       INTEGER,
    resident_wellness            TEXT NOT NULL DEFAULT '',
    emotional_support_required   TEXT NOT NULL DEFAULT '',
    transition_difficulty        TEXT NOT NULL DEFAULT '',
    change_management_difficulty TEXT NOT NULL DEFAULT '',
    shift_duties_completed       TEXT NOT NULL DEFAULT '[]',
    house_jobs_participation     TEXT NOT NULL DEFAULT '',
    incidents_occurred           INTEGER,
    near_misses                  TEXT NOT NULL DEFAULT '',
    hazards_identified           TEXT NOT NULL DEFAULT '',
    visitors_present             TEXT NOT NULL DEFAULT '',
    issues_or_successes          TEXT NOT NULL DEFAULT '',
    follow_up_requests           TEXT NOT NULL DEFAULT '',
    staff_emotions               TEXT NOT NULL DEFAULT '[]',
    additional_fields            TEXT NOT NULL DEFAULT '{}',
    incomplete                   INTEGER NOT NULL DEFAULT 0,
    created_at                   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_shift_notes_date ON shift_notes(note_date);

CREATE TABLE IF NOT EXISTS incident_reports (
    id                    TEXT PRIMARY KEY,
    message_id            TEXT NOT NULL REFERENCES raw_messages(id) ON DELETE CASCADE,
    participant_name      TEXT NOT NULL DEFAULT '',
    incident_stage        TEXT NOT NULL DEFAULT '',
    awareness_timestamp   TEXT NOT NULL DEFAULT '',
    staff_present_count   INTEGER,
    impacted_role         TEXT NOT NULL DEFAULT '',
    impacted_person_name  TEXT NOT NULL DEFAULT '',
    pre_incident_context  TEXT NOT NULL DEFAULT '',
    incident_description  TEXT NOT NULL DEFAULT '',
    immediate_actions     TEXT NOT NULL DEFAULT '[]',
    bsp_guidance          TEXT NOT NULL DEFAULT '',
    strategy_effectiveness TEXT NOT NULL DEFAULT '',
    training_request      INTEGER,
    training_rationale    TEXT NOT NULL DEFAULT '',
    preventative_actions  TEXT NOT NULL DEFAULT '',
    incident_types        TEXT NOT NULL DEFAULT '[]',
    restraint_used        INTEGER,
    prn_name              TEXT NOT NULL DEFAULT '',
    prn_dosage            TEXT NOT NULL DEFAULT '',
    prn_admin_person      TEXT NOT NULL DEFAULT '',
    prn_admin_time        TEXT NOT NULL DEFAULT '',
    prn_authorised        INTEGER,
    prn_recurrence        TEXT NOT NULL DEFAULT '',
    subject_of_allegation INTEGER,
    witnesses_present     TEXT NOT NULL DEFAULT '',
    reporter_name         TEXT NOT NULL DEFAULT '',
    reporter_role         TEXT NOT NULL DEFAULT '',
    reporter_email        TEXT NOT NULL DEFAULT '',
    additional_fields     TEXT NOT NULL DEFAULT '{}',
    incomplete            INTEGER NOT NULL DEFAULT 0,
    created_at            INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_incident_reports_stage ON incident_reports(incident_stage);

CREATE TABLE IF NOT EXISTS incident_investigations (
    id                       TEXT PRIMARY KEY,
    message_id               TEXT NOT NULL REFERENCES raw_messages(id) ON DELETE CASCADE,
    participant_name         TEXT NOT NULL DEFAULT '',
    ndis_reporting_status    TEXT NOT NULL DEFAULT '',
    incident_classification  TEXT NOT NULL DEFAULT '',
    brief_description        TEXT NOT NULL DEFAULT '',
    additional_context       TEXT NOT NULL DEFAULT '',
    prn_location             TEXT NOT NULL DEFAULT '',
    prn_primary_behaviour    TEXT NOT NULL DEFAULT '',
    prn_time_period          TEXT NOT NULL DEFAULT '',
    prn_time_window          TEXT NOT NULL DEFAULT '',
    prn_baseline_duration    TEXT NOT NULL DEFAULT '',
    investigation_status     TEXT NOT NULL DEFAULT '',
    system_factor_list       TEXT NOT NULL DEFAULT '[]',
    investigator_confirmation TEXT NOT NULL DEFAULT '',
    investigation_lead_name  TEXT NOT NULL DEFAULT '',
    additional_fields        TEXT NOT NULL DEFAULT '{}',
    incomplete               INTEGER NOT NULL DEFAULT 0,
    created_at               INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_incident_investigations_status ON incident_investigations(investigation_status);
`

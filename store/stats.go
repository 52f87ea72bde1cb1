package store

import "context"

// PipelineStats summarizes the state of the message and entity tables.
type PipelineStats struct {
	MessagesTotal        int `json:"messages_total"`
	MessagesPending      int `json:"messages_pending"`
	MessagesProcessed    int `json:"messages_processed"`
	MessagesFailed       int `json:"messages_failed"`
	EntitiesComplete     int `json:"entities_complete"`
	EntitiesIncomplete   int `json:"entities_incomplete"`
	EntitiesUnclassified int `json:"entities_unclassified"`
}

// Stats returns pipeline-wide counters.
func (s *Store) Stats(ctx context.Context) (*PipelineStats, error) {
	var st PipelineStats

	rows, err := s.DB.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM raw_messages GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		st.MessagesTotal += n
		switch status {
		case StatusPending:
			st.MessagesPending = n
		case StatusProcessed:
			st.MessagesProcessed = n
		case StatusFailed:
			st.MessagesFailed = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	erows, err := s.DB.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM processed_entities GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer erows.Close()
	for erows.Next() {
		var status string
		var n int
		if err := erows.Scan(&status, &n); err != nil {
			return nil, err
		}
		switch status {
		case EntityComplete:
			st.EntitiesComplete = n
		case EntityIncomplete:
			st.EntitiesIncomplete = n
		case EntityUnclassified:
			st.EntitiesUnclassified = n
		}
	}
	return &st, erows.Err()
}

// TemplateCounts returns processed-message counts keyed by template ID.
func (s *Store) TemplateCounts(ctx context.Context) (map[string]int, error) {
	return s.countBy(ctx,
		`SELECT template_id, COUNT(*) FROM raw_messages WHERE template_id != '' GROUP BY template_id`)
}

// IncidentStageCounts returns incident counts keyed by management stage.
func (s *Store) IncidentStageCounts(ctx context.Context) (map[string]int, error) {
	return s.countBy(ctx,
		`SELECT incident_stage, COUNT(*) FROM incident_reports GROUP BY incident_stage`)
}

// InvestigationStatusCounts returns investigation counts keyed by status.
func (s *Store) InvestigationStatusCounts(ctx context.Context) (map[string]int, error) {
	return s.countBy(ctx,
		`SELECT investigation_status, COUNT(*) FROM incident_investigations GROUP BY investigation_status`)
}

func (s *Store) countBy(ctx context.Context, query string) (map[string]int, error) {
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

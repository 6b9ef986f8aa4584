package database

import "database/sql"

// InsertSummary stores (or replaces) the executive summary for a period.
func (db *DB) InsertSummary(periodID, overviewMarkdown string, feedbackCount, negativeCount, criticalCount int) error {
	_, err := db.conn.Exec(
		`INSERT OR REPLACE INTO summaries (period_id, overview_markdown, feedback_count, negative_count, critical_count)
		VALUES (?, ?, ?, ?, ?)`,
		periodID, overviewMarkdown, feedbackCount, negativeCount, criticalCount,
	)
	return err
}

// GetSummary returns the summary for a period, or nil if none exists.
func (db *DB) GetSummary(periodID string) (*Summary, error) {
	row := db.conn.QueryRow(
		`SELECT id, period_id, overview_markdown, feedback_count, negative_count, critical_count, generated_at
		FROM summaries WHERE period_id = ?`, periodID,
	)
	var s Summary
	if err := row.Scan(&s.ID, &s.PeriodID, &s.OverviewMarkdown, &s.FeedbackCount,
		&s.NegativeCount, &s.CriticalCount, &s.GeneratedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// GetAllSummaries returns all summaries, newest period first.
func (db *DB) GetAllSummaries() ([]Summary, error) {
	rows, err := db.conn.Query(
		`SELECT id, period_id, overview_markdown, feedback_count, negative_count, critical_count, generated_at
		FROM summaries ORDER BY period_id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.PeriodID, &s.OverviewMarkdown, &s.FeedbackCount,
			&s.NegativeCount, &s.CriticalCount, &s.GeneratedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

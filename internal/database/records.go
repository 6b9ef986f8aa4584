package database

import (
	"database/sql"
	"strings"
	"time"
)

const feedbackColumns = `id, source, source_id, title, content, category, url, content_fetched,
	customer_id, customer_email, customer_name, customer_tier,
	sentiment, sentiment_score, impact_score, severity, status, created_at, updated_at`

// InsertFeedback inserts a feedback record. Returns the ID on success,
// 0 if the (source, source_id) pair already exists.
func (db *DB) InsertFeedback(f *Feedback) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO feedback (source, source_id, title, content, category, url, content_fetched,
			customer_id, customer_email, customer_name, customer_tier, severity, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Source, f.SourceID, f.Title, f.Content, f.Category, f.URL, f.ContentFetched,
		f.CustomerID, f.CustomerEmail, f.CustomerName, f.CustomerTier, f.Severity,
		statusOrOpen(f.Status), f.CreatedAt,
	)
	if err != nil {
		// Duplicate (source, source_id) constraint
		return 0, nil //nolint: nilerr
	}
	return result.LastInsertId()
}

func statusOrOpen(status string) string {
	if status == "" {
		return "open"
	}
	return status
}

// SearchFilter holds the optional filters for SearchFeedback.
type SearchFilter struct {
	Query        string // substring match on title or content
	Start        *time.Time
	End          *time.Time
	Sentiment    string
	CustomerTier string
	Category     string
	Limit        int
}

// SearchFeedback returns records matching the filter, newest first.
func (db *DB) SearchFeedback(filter SearchFilter) ([]Feedback, error) {
	query := "SELECT " + feedbackColumns + " FROM feedback"
	var conds []string
	var args []any

	if filter.Start != nil && filter.End != nil {
		conds = append(conds, "created_at BETWEEN ? AND ?")
		args = append(args, filter.Start.UTC().Format(time.RFC3339), filter.End.UTC().Format(time.RFC3339))
	}
	if filter.Sentiment != "" {
		conds = append(conds, "sentiment = ?")
		args = append(args, filter.Sentiment)
	}
	if filter.CustomerTier != "" {
		conds = append(conds, "customer_tier = ?")
		args = append(args, filter.CustomerTier)
	}
	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Query != "" {
		conds = append(conds, "(title LIKE ? OR content LIKE ?)")
		pattern := "%" + filter.Query + "%"
		args = append(args, pattern, pattern)
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFeedbackRows(rows)
}

// GetFeedbackByIDs returns the records for the given IDs, newest first.
// IDs with no matching record are silently dropped.
func (db *DB) GetFeedbackByIDs(ids []int64) ([]Feedback, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := "SELECT " + feedbackColumns + " FROM feedback WHERE id IN (" + placeholders + ") ORDER BY created_at DESC"

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFeedbackRows(rows)
}

// GetFeedbackInRange returns records created within [start, end], oldest first.
// Chronological order matters to the trend helpers downstream.
func (db *DB) GetFeedbackInRange(start, end time.Time) ([]Feedback, error) {
	rows, err := db.conn.Query(
		"SELECT "+feedbackColumns+" FROM feedback WHERE created_at BETWEEN ? AND ? ORDER BY created_at ASC",
		start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFeedbackRows(rows)
}

// GetUnanalyzedFeedback returns records that have no sentiment yet.
func (db *DB) GetUnanalyzedFeedback() ([]Feedback, error) {
	rows, err := db.conn.Query(
		"SELECT " + feedbackColumns + " FROM feedback WHERE sentiment IS NULL ORDER BY created_at ASC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFeedbackRows(rows)
}

// GetFeedbackNeedingFetch returns feed-sourced records whose content is an
// excerpt (or empty) and that haven't had a fetch attempt yet.
func (db *DB) GetFeedbackNeedingFetch() ([]Feedback, error) {
	rows, err := db.conn.Query(
		"SELECT " + feedbackColumns + ` FROM feedback
		WHERE url IS NOT NULL AND content_fetched = 0 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFeedbackRows(rows)
}

// UpdateSentiment stores the sentiment analysis result for a record.
func (db *DB) UpdateSentiment(id int64, sentiment string, score float64) error {
	_, err := db.conn.Exec(
		"UPDATE feedback SET sentiment = ?, sentiment_score = ?, updated_at = datetime('now') WHERE id = ?",
		sentiment, score, id,
	)
	return err
}

// UpdateImpactScore stores the impact score for a record.
func (db *DB) UpdateImpactScore(id int64, score float64) error {
	_, err := db.conn.Exec(
		"UPDATE feedback SET impact_score = ?, updated_at = datetime('now') WHERE id = ?",
		score, id,
	)
	return err
}

// UpdateFeedbackContent replaces a record's content after a successful fetch.
func (db *DB) UpdateFeedbackContent(id int64, content string) error {
	_, err := db.conn.Exec(
		"UPDATE feedback SET content = ?, content_fetched = 1, updated_at = datetime('now') WHERE id = ?",
		content, id,
	)
	return err
}

// MarkFetchAttempted marks that we tried to fetch full content.
func (db *DB) MarkFetchAttempted(id int64) error {
	_, err := db.conn.Exec("UPDATE feedback SET content_fetched = 1 WHERE id = ?", id)
	return err
}

// GetFeedbackByID returns a single record by ID, or nil if not found.
func (db *DB) GetFeedbackByID(id int64) (*Feedback, error) {
	row := db.conn.QueryRow("SELECT "+feedbackColumns+" FROM feedback WHERE id = ?", id)
	f, err := scanFeedback(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM feedback", &s.TotalFeedback},
		{"SELECT COUNT(*) FROM feedback WHERE sentiment IS NOT NULL", &s.AnalyzedFeedback},
		{"SELECT COUNT(*) FROM feedback WHERE sentiment = 'negative'", &s.NegativeFeedback},
		{"SELECT COUNT(*) FROM feedback WHERE status = 'open'", &s.OpenFeedback},
		{"SELECT COUNT(*) FROM summaries", &s.Summaries},
		{"SELECT COUNT(DISTINCT period_id) FROM theme_snapshots", &s.ThemePeriods},
	}
	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeedbackInto(s rowScanner) (*Feedback, error) {
	var f Feedback
	var fetched int
	if err := s.Scan(&f.ID, &f.Source, &f.SourceID, &f.Title, &f.Content, &f.Category, &f.URL,
		&fetched, &f.CustomerID, &f.CustomerEmail, &f.CustomerName, &f.CustomerTier,
		&f.Sentiment, &f.SentimentScore, &f.ImpactScore, &f.Severity, &f.Status,
		&f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	f.ContentFetched = fetched != 0
	return &f, nil
}

func scanFeedbackRows(rows *sql.Rows) ([]Feedback, error) {
	var records []Feedback
	for rows.Next() {
		f, err := scanFeedbackInto(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *f)
	}
	return records, rows.Err()
}

func scanFeedback(row *sql.Row) (*Feedback, error) {
	return scanFeedbackInto(row)
}

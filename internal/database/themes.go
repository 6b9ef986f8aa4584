package database

import "encoding/json"

// ReplaceThemeSnapshots replaces the stored theme extraction for a period.
func (db *DB) ReplaceThemeSnapshots(periodID string, snapshots []ThemeSnapshot) error {
	if _, err := db.conn.Exec("DELETE FROM theme_snapshots WHERE period_id = ?", periodID); err != nil {
		return err
	}
	for _, s := range snapshots {
		keywords, err := json.Marshal(s.Keywords)
		if err != nil {
			return err
		}
		_, err = db.conn.Exec(
			`INSERT INTO theme_snapshots (period_id, name, keywords, frequency, confidence)
			VALUES (?, ?, ?, ?, ?)`,
			periodID, s.Name, string(keywords), s.Frequency, s.Confidence,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetThemeSnapshots returns the stored themes for a period, by frequency descending.
func (db *DB) GetThemeSnapshots(periodID string) ([]ThemeSnapshot, error) {
	rows, err := db.conn.Query(
		`SELECT id, period_id, name, keywords, frequency, confidence, created_at
		FROM theme_snapshots WHERE period_id = ? ORDER BY frequency DESC`, periodID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []ThemeSnapshot
	for rows.Next() {
		var s ThemeSnapshot
		var keywords *string
		if err := rows.Scan(&s.ID, &s.PeriodID, &s.Name, &keywords, &s.Frequency, &s.Confidence, &s.CreatedAt); err != nil {
			return nil, err
		}
		if keywords != nil && *keywords != "" {
			json.Unmarshal([]byte(*keywords), &s.Keywords) //nolint: errcheck
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

// GetThemePeriods returns the period IDs with stored themes, newest first.
func (db *DB) GetThemePeriods() ([]string, error) {
	rows, err := db.conn.Query(
		"SELECT DISTINCT period_id FROM theme_snapshots ORDER BY period_id DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

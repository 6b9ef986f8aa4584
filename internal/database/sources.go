package database

import "database/sql"

// UpsertSyncState records a successful sync for a source.
func (db *DB) UpsertSyncState(source, lastSync, status string) error {
	_, err := db.conn.Exec(
		`INSERT INTO sync_state (source, last_sync, status) VALUES (?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET last_sync = excluded.last_sync, status = excluded.status`,
		source, lastSync, status,
	)
	return err
}

// GetSyncState returns the sync state for a source, or nil if never synced.
func (db *DB) GetSyncState(source string) (*SyncState, error) {
	row := db.conn.QueryRow(
		"SELECT source, last_sync, status FROM sync_state WHERE source = ?", source,
	)
	var s SyncState
	if err := row.Scan(&s.Source, &s.LastSync, &s.Status); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// GetAllSyncStates returns the sync state of every known source.
func (db *DB) GetAllSyncStates() ([]SyncState, error) {
	rows, err := db.conn.Query("SELECT source, last_sync, status FROM sync_state ORDER BY source")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var states []SyncState
	for rows.Next() {
		var s SyncState
		if err := rows.Scan(&s.Source, &s.LastSync, &s.Status); err != nil {
			return nil, err
		}
		states = append(states, s)
	}
	return states, rows.Err()
}

package store

import (
	"database/sql"
	"fmt"
	"time"
)

// AppendSyncLog records one sync attempt. The log is an audit trail
// only; nothing reads it to make control-flow decisions.
func (s *Store) AppendSyncLog(entry *SyncLogEntry) error {
	_, err := s.db.Exec(`
		INSERT INTO sync_log (sync_type, status, items_synced, error_message)
		VALUES (?, ?, ?, ?)
	`, entry.SyncType, entry.Status, entry.ItemsSynced, entry.ErrorMessage)
	return err
}

// ListSyncLog returns the most recent sync log entries, newest first.
func (s *Store) ListSyncLog(limit int) ([]SyncLogEntry, error) {
	rows, err := s.db.Query(`
		SELECT id, sync_type, status, items_synced, error_message, created_at
		FROM sync_log
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []SyncLogEntry
	for rows.Next() {
		var e SyncLogEntry
		var errMsg sql.NullString
		var createdAt string
		if err := rows.Scan(&e.ID, &e.SyncType, &e.Status, &e.ItemsSynced, &errMsg, &createdAt); err != nil {
			return nil, err
		}
		if errMsg.Valid {
			msg := errMsg.String
			e.ErrorMessage = &msg
		}
		// CURRENT_TIMESTAMP stores "2006-01-02 15:04:05"
		t, err := time.Parse(time.DateTime, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing sync_log created_at %q: %w", createdAt, err)
		}
		e.CreatedAt = t
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

package store

import (
	"fmt"
)

// UpdateRecord is one entry in an event's append-only audit history. Only the
// audit trimmer ever deletes or rewrites records after the fact.
type UpdateRecord struct {
	ID          int64
	EventID     int64
	CreatedAt   int64
	Description string
}

// AppendUpdateRecord adds an audit entry for an event, stamped with the
// caller's clock so every record written by one cycle shares its timestamp.
func (tx *Tx) AppendUpdateRecord(eventID int64, description string, now int64) error {
	_, err := tx.Exec(`
		INSERT INTO update_records (event_id, created_at, description)
		VALUES (?, ?, ?)
	`, eventID, now, description)
	if err != nil {
		return fmt.Errorf("append update record for event %d: %w", eventID, err)
	}
	return nil
}

// ListUpdateRecords returns an event's history ordered oldest first.
func (db *DB) ListUpdateRecords(eventID int64) ([]UpdateRecord, error) {
	return listUpdateRecords(db.DB, eventID)
}

func (tx *Tx) ListUpdateRecords(eventID int64) ([]UpdateRecord, error) {
	return listUpdateRecords(tx.Tx, eventID)
}

func listUpdateRecords(q querier, eventID int64) ([]UpdateRecord, error) {
	rows, err := q.Query(`
		SELECT id, event_id, created_at, description FROM update_records
		WHERE event_id = ?
		ORDER BY created_at ASC, id ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list update records for event %d: %w", eventID, err)
	}
	defer rows.Close()

	var records []UpdateRecord
	for rows.Next() {
		var r UpdateRecord
		if err := rows.Scan(&r.ID, &r.EventID, &r.CreatedAt, &r.Description); err != nil {
			return nil, fmt.Errorf("scan update record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// DeleteUpdateRecord removes one audit entry by ID. Trimmer use only.
func (tx *Tx) DeleteUpdateRecord(id int64) error {
	_, err := tx.Exec(`DELETE FROM update_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete update record %d: %w", id, err)
	}
	return nil
}

// RewriteUpdateRecord replaces a record's description in place. Trimmer use only.
func (tx *Tx) RewriteUpdateRecord(id int64, description string) error {
	_, err := tx.Exec(`UPDATE update_records SET description = ? WHERE id = ?`, description, id)
	if err != nil {
		return fmt.Errorf("rewrite update record %d: %w", id, err)
	}
	return nil
}

// EventIDsWithMultipleRecords returns the internal IDs of events that have more
// than one audit record, the trimmer's candidate set.
func (tx *Tx) EventIDsWithMultipleRecords() ([]int64, error) {
	rows, err := tx.Query(`
		SELECT event_id FROM update_records
		GROUP BY event_id HAVING COUNT(*) > 1
	`)
	if err != nil {
		return nil, fmt.Errorf("events with multiple records: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan event id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// EventTitle returns the title for an internal event ID, or "" if unknown.
func (tx *Tx) EventTitle(eventID int64) (string, error) {
	var title string
	err := tx.QueryRow(`SELECT title FROM events WHERE id = ?`, eventID).Scan(&title)
	if err != nil {
		return "", fmt.Errorf("event title %d: %w", eventID, err)
	}
	return title, nil
}

// CountUpdateRecords returns the total number of audit records in the store.
func (db *DB) CountUpdateRecords() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM update_records`).Scan(&n)
	return n, err
}

// RecentUpdateRecords returns the newest audit records across all events.
func (db *DB) RecentUpdateRecords(limit int) ([]UpdateRecord, error) {
	rows, err := db.Query(`
		SELECT id, event_id, created_at, description FROM update_records
		ORDER BY created_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent update records: %w", err)
	}
	defer rows.Close()

	var records []UpdateRecord
	for rows.Next() {
		var r UpdateRecord
		if err := rows.Scan(&r.ID, &r.EventID, &r.CreatedAt, &r.Description); err != nil {
			return nil, fmt.Errorf("scan update record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

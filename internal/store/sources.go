package store

import "fmt"

// Source is one attribution for an event. Sources have no lifecycle of their
// own; they are deleted with their event (FK cascade).
type Source struct {
	ID       int64
	EventID  int64
	Name     string
	URL      string
	Citation string
}

// AddSource attaches an attribution to an event.
func (tx *Tx) AddSource(eventID int64, name, url, citation string) error {
	_, err := tx.Exec(`
		INSERT INTO sources (event_id, name, url, citation) VALUES (?, ?, ?, ?)
	`, eventID, name, url, citation)
	if err != nil {
		return fmt.Errorf("add source %q to event %d: %w", name, eventID, err)
	}
	return nil
}

// SourcesForEvent returns an event's attributions in insertion order.
func (db *DB) SourcesForEvent(eventID int64) ([]Source, error) {
	rows, err := db.Query(`
		SELECT id, event_id, name, url, citation FROM sources
		WHERE event_id = ? ORDER BY id
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("sources for event %d: %w", eventID, err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.EventID, &s.Name, &s.URL, &s.Citation); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// CountSources returns the total number of source attributions.
func (db *DB) CountSources() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sources`).Scan(&n)
	return n, err
}

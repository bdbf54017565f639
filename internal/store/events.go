package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Event is a tracked news story with a stable, content-derived identity.
// The aggregation cycle is the only writer; the API layer only reads.
type Event struct {
	ID                int64
	EventID           string
	Title             string
	Description       string
	URL               string
	SignificanceScore float64
	AgePenalty        float64
	IsActive          bool
	CreatedAt         int64
	UpdatedAt         int64
	LastRankedAt      int64
}

const eventColumns = `id, event_id, title, description, url,
	significance_score, age_penalty, is_active, created_at, updated_at, last_ranked_at`

// CreateEvent inserts a new event. Timestamps left at zero are set to now;
// pre-set values are honored so imports and tests can control event age.
func (tx *Tx) CreateEvent(ev *Event) error {
	now := time.Now().UnixMilli()
	if ev.CreatedAt == 0 {
		ev.CreatedAt = now
	}
	if ev.UpdatedAt == 0 {
		ev.UpdatedAt = ev.CreatedAt
	}
	if ev.LastRankedAt == 0 {
		ev.LastRankedAt = ev.CreatedAt
	}

	active := 0
	if ev.IsActive {
		active = 1
	}

	result, err := tx.Exec(`
		INSERT INTO events (event_id, title, description, url,
			significance_score, age_penalty, is_active, created_at, updated_at, last_ranked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.EventID, ev.Title, ev.Description, ev.URL,
		ev.SignificanceScore, ev.AgePenalty, active,
		ev.CreatedAt, ev.UpdatedAt, ev.LastRankedAt)
	if err != nil {
		return fmt.Errorf("create event %s: %w", ev.EventID, err)
	}

	id, _ := result.LastInsertId()
	ev.ID = id
	return nil
}

// GetEventByEventID returns an event by its stable event ID, or nil if not found.
func (db *DB) GetEventByEventID(eventID string) (*Event, error) {
	return getEventByEventID(db.DB, eventID)
}

func (tx *Tx) GetEventByEventID(eventID string) (*Event, error) {
	return getEventByEventID(tx.Tx, eventID)
}

func getEventByEventID(q querier, eventID string) (*Event, error) {
	row := q.QueryRow(`SELECT `+eventColumns+` FROM events WHERE event_id = ?`, eventID)
	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", eventID, err)
	}
	return ev, nil
}

// ActiveEvents returns all active events ordered by significance score
// descending — the display contract for the API layer.
func (db *DB) ActiveEvents() ([]Event, error) {
	return activeEvents(db.DB)
}

func (tx *Tx) ActiveEvents() ([]Event, error) {
	return activeEvents(tx.Tx)
}

func activeEvents(q querier) ([]Event, error) {
	rows, err := q.Query(`
		SELECT ` + eventColumns + ` FROM events
		WHERE is_active = 1
		ORDER BY significance_score DESC, created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("active events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// UpdateEventContent overwrites an event's title, description, and score, and
// refreshes updated_at and last_ranked_at. The incoming score is a fresh
// undecayed assessment, so the stored age penalty resets; the next decay pass
// recomputes it from the event's age. Used by the merge path only.
func (tx *Tx) UpdateEventContent(id int64, title, description string, score float64, now int64) error {
	if score < 0 {
		score = 0
	}
	_, err := tx.Exec(`
		UPDATE events SET title = ?, description = ?, significance_score = ?,
			age_penalty = 0, updated_at = ?, last_ranked_at = ?
		WHERE id = ?
	`, title, description, score, now, now, id)
	if err != nil {
		return fmt.Errorf("update event %d: %w", id, err)
	}
	return nil
}

// SetEventRank writes a freshly computed score and age penalty.
func (tx *Tx) SetEventRank(id int64, score, penalty float64, now int64) error {
	if score < 0 {
		score = 0
	}
	_, err := tx.Exec(`
		UPDATE events SET significance_score = ?, age_penalty = ?, last_ranked_at = ?
		WHERE id = ?
	`, score, penalty, now, id)
	if err != nil {
		return fmt.Errorf("set rank for event %d: %w", id, err)
	}
	return nil
}

// DeactivateEvent flips is_active off. Events are never hard-deleted; this is
// the only removal form the aggregation cycle knows.
func (tx *Tx) DeactivateEvent(id int64) error {
	_, err := tx.Exec(`UPDATE events SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate event %d: %w", id, err)
	}
	return nil
}

// CountEvents returns the total number of events, active and inactive.
func (db *DB) CountEvents() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

// CountActiveEvents returns the size of the active set.
func (db *DB) CountActiveEvents() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM events WHERE is_active = 1`).Scan(&n)
	return n, err
}

// CountActiveScoreBetween counts active events with lo <= score < hi.
// A negative hi means no upper bound.
func (db *DB) CountActiveScoreBetween(lo, hi float64) (int, error) {
	var n int
	var err error
	if hi < 0 {
		err = db.QueryRow(`
			SELECT COUNT(*) FROM events WHERE is_active = 1 AND significance_score >= ?
		`, lo).Scan(&n)
	} else {
		err = db.QueryRow(`
			SELECT COUNT(*) FROM events
			WHERE is_active = 1 AND significance_score >= ? AND significance_score < ?
		`, lo, hi).Scan(&n)
	}
	return n, err
}

func scanEvent(row *sql.Row) (*Event, error) {
	var ev Event
	var description, url sql.NullString
	var active int
	err := row.Scan(&ev.ID, &ev.EventID, &ev.Title, &description, &url,
		&ev.SignificanceScore, &ev.AgePenalty, &active,
		&ev.CreatedAt, &ev.UpdatedAt, &ev.LastRankedAt)
	if err != nil {
		return nil, err
	}
	ev.Description = description.String
	ev.URL = url.String
	ev.IsActive = active != 0
	return &ev, nil
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var ev Event
		var description, url sql.NullString
		var active int
		if err := rows.Scan(&ev.ID, &ev.EventID, &ev.Title, &description, &url,
			&ev.SignificanceScore, &ev.AgePenalty, &active,
			&ev.CreatedAt, &ev.UpdatedAt, &ev.LastRankedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Description = description.String
		ev.URL = url.String
		ev.IsActive = active != 0
		events = append(events, ev)
	}
	return events, rows.Err()
}

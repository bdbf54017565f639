package store

import (
	"database/sql"
	"fmt"
)

// ensureTag returns the ID for a tag name, creating the tag if needed.
func ensureTag(q querier, name string) (int64, error) {
	var id int64
	err := q.QueryRow(`SELECT id FROM tags WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("lookup tag %q: %w", name, err)
	}

	result, err := q.Exec(`INSERT INTO tags (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("create tag %q: %w", name, err)
	}
	id, _ = result.LastInsertId()
	return id, nil
}

// ReplaceTags swaps an event's tag associations for the given set.
// Tag vocabulary entries are shared and never deleted here.
func (tx *Tx) ReplaceTags(eventID int64, names []string) error {
	if _, err := tx.Exec(`DELETE FROM event_tags WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("clear tags for event %d: %w", eventID, err)
	}
	return tx.AttachTags(eventID, names)
}

// AttachTags links the named tags to an event, creating vocabulary entries
// as needed. Duplicate names in the input are collapsed.
func (tx *Tx) AttachTags(eventID int64, names []string) error {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		tagID, err := ensureTag(tx.Tx, name)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT OR IGNORE INTO event_tags (event_id, tag_id) VALUES (?, ?)
		`, eventID, tagID); err != nil {
			return fmt.Errorf("attach tag %q to event %d: %w", name, eventID, err)
		}
	}
	return nil
}

// TagsForEvent returns the tag names attached to an event, sorted by name.
func (db *DB) TagsForEvent(eventID int64) ([]string, error) {
	return tagsForEvent(db.DB, eventID)
}

func (tx *Tx) TagsForEvent(eventID int64) ([]string, error) {
	return tagsForEvent(tx.Tx, eventID)
}

func tagsForEvent(q querier, eventID int64) ([]string, error) {
	rows, err := q.Query(`
		SELECT t.name FROM tags t
		JOIN event_tags et ON et.tag_id = t.id
		WHERE et.event_id = ?
		ORDER BY t.name
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("tags for event %d: %w", eventID, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// CountTags returns the size of the tag vocabulary.
func (db *DB) CountTags() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM tags`).Scan(&n)
	return n, err
}

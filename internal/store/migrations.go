package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "events: tracked news events with significance ranking",
		SQL: `
CREATE TABLE events (
    id                 INTEGER PRIMARY KEY,
    event_id           TEXT NOT NULL UNIQUE,
    title              TEXT NOT NULL,
    description        TEXT,
    url                TEXT,

    -- Ranking
    significance_score REAL NOT NULL DEFAULT 0 CHECK (significance_score >= 0),
    age_penalty        REAL NOT NULL DEFAULT 0,
    is_active          INTEGER NOT NULL DEFAULT 1,

    -- Metadata
    created_at         INTEGER NOT NULL,
    updated_at         INTEGER NOT NULL,
    last_ranked_at     INTEGER NOT NULL
);

CREATE INDEX idx_events_active ON events(is_active, significance_score DESC);
CREATE INDEX idx_events_created ON events(created_at);
`,
	},
	{
		Version:     2,
		Description: "sources: attribution per event",
		SQL: `
CREATE TABLE sources (
    id        INTEGER PRIMARY KEY,
    event_id  INTEGER NOT NULL,
    name      TEXT NOT NULL,
    url       TEXT,
    citation  TEXT,

    FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE
);

CREATE INDEX idx_sources_event ON sources(event_id);
`,
	},
	{
		Version:     3,
		Description: "tags: shared vocabulary, many-to-many with events",
		SQL: `
CREATE TABLE tags (
    id    INTEGER PRIMARY KEY,
    name  TEXT NOT NULL UNIQUE
);

CREATE TABLE event_tags (
    id        INTEGER PRIMARY KEY,
    event_id  INTEGER NOT NULL,
    tag_id    INTEGER NOT NULL,

    FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE,
    FOREIGN KEY (tag_id)   REFERENCES tags(id)   ON DELETE CASCADE,
    UNIQUE (event_id, tag_id)
);

CREATE INDEX idx_event_tags_event ON event_tags(event_id);
`,
	},
	{
		Version:     4,
		Description: "update_records: append-only audit history per event",
		SQL: `
CREATE TABLE update_records (
    id          INTEGER PRIMARY KEY,
    event_id    INTEGER NOT NULL,
    created_at  INTEGER NOT NULL,
    description TEXT NOT NULL,

    FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE
);

CREATE INDEX idx_updates_event ON update_records(event_id, created_at);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}

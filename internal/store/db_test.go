package store

import (
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrations(t *testing.T) {
	db := testDB(t)

	version, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("schema version = %d, want %d", version, len(migrations))
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db := testDB(t)

	// Running migrate again must be a no-op
	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	version, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if version != len(migrations) {
		t.Errorf("schema version = %d, want %d", version, len(migrations))
	}
}

func TestCycleRollbackLeavesStoreUntouched(t *testing.T) {
	db := testDB(t)

	tx, err := db.BeginCycle()
	if err != nil {
		t.Fatalf("BeginCycle: %v", err)
	}

	ev := &Event{EventID: "abc123", Title: "Something happened", SignificanceScore: 40, IsActive: true}
	if err := tx.CreateEvent(ev); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if err := tx.AppendUpdateRecord(ev.ID, "Event created: Something happened...", testClockMs); err != nil {
		t.Fatalf("AppendUpdateRecord: %v", err)
	}

	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	got, err := db.GetEventByEventID("abc123")
	if err != nil {
		t.Fatalf("GetEventByEventID: %v", err)
	}
	if got != nil {
		t.Error("rolled-back event still visible")
	}
	n, err := db.CountUpdateRecords()
	if err != nil {
		t.Fatalf("CountUpdateRecords: %v", err)
	}
	if n != 0 {
		t.Errorf("update records after rollback = %d, want 0", n)
	}
}

func TestCycleCommitPersists(t *testing.T) {
	db := testDB(t)

	tx, err := db.BeginCycle()
	if err != nil {
		t.Fatalf("BeginCycle: %v", err)
	}
	ev := &Event{EventID: "abc123", Title: "Something happened", SignificanceScore: 40, IsActive: true}
	if err := tx.CreateEvent(ev); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, err := db.GetEventByEventID("abc123")
	if err != nil {
		t.Fatalf("GetEventByEventID: %v", err)
	}
	if got == nil || got.Title != "Something happened" {
		t.Errorf("committed event not readable: %+v", got)
	}
}

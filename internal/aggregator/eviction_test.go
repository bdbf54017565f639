package aggregator

import (
	"testing"
	"time"

	"newsdesk/internal/config"
	"newsdesk/internal/store"
)

func TestEvictExcessDropsLowestScores(t *testing.T) {
	db := testStore(t)
	cfg := config.Default().Aggregator
	cfg.MaxActiveEvents = 3
	now := time.Now()

	scores := map[string]float64{"a": 10, "b": 20, "c": 30, "d": 40}
	for id, score := range scores {
		makeAgedEvent(t, db, id, score, time.Hour, now)
	}

	inTx(t, db, func(tx *store.Tx) {
		n, err := evictExcess(tx, cfg)
		if err != nil {
			t.Fatalf("evictExcess: %v", err)
		}
		if n != 1 {
			t.Fatalf("evicted = %d, want 1", n)
		}
	})

	ev, _ := db.GetEventByEventID("a")
	if ev.IsActive {
		t.Error("lowest-scored event should have been evicted")
	}
	for _, id := range []string{"b", "c", "d"} {
		ev, _ := db.GetEventByEventID(id)
		if !ev.IsActive {
			t.Errorf("event %s should survive eviction", id)
		}
	}
}

func TestEvictExcessTieBreaksOnAge(t *testing.T) {
	db := testStore(t)
	cfg := config.Default().Aggregator
	cfg.MaxActiveEvents = 2

	now := time.Now()
	makeAgedEvent(t, db, "older", 50, 10*time.Hour, now)
	makeAgedEvent(t, db, "newer", 50, 1*time.Hour, now)
	makeAgedEvent(t, db, "top", 90, 1*time.Hour, now)

	inTx(t, db, func(tx *store.Tx) {
		if _, err := evictExcess(tx, cfg); err != nil {
			t.Fatalf("evictExcess: %v", err)
		}
	})

	older, _ := db.GetEventByEventID("older")
	newer, _ := db.GetEventByEventID("newer")
	if older.IsActive || !newer.IsActive {
		t.Errorf("tie on score must evict the older event: older active=%v newer active=%v",
			older.IsActive, newer.IsActive)
	}
}

func TestEvictExcessNoOpUnderCap(t *testing.T) {
	db := testStore(t)
	cfg := config.Default().Aggregator

	makeAgedEvent(t, db, "solo", 5, time.Hour, time.Now())

	inTx(t, db, func(tx *store.Tx) {
		n, err := evictExcess(tx, cfg)
		if err != nil {
			t.Fatalf("evictExcess: %v", err)
		}
		if n != 0 {
			t.Errorf("evicted = %d, want 0 under the cap", n)
		}
	})

	ev, _ := db.GetEventByEventID("solo")
	if !ev.IsActive {
		t.Error("under-cap event must stay active regardless of score")
	}
}

func TestDeactivateAgedIgnoresCap(t *testing.T) {
	db := testStore(t)
	cfg := config.Default().Aggregator
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	makeAgedEvent(t, db, "ancient", 95, 3*24*time.Hour, now)
	makeAgedEvent(t, db, "recent", 10, 2*time.Hour, now)

	inTx(t, db, func(tx *store.Tx) {
		n, err := deactivateAged(tx, now, cfg)
		if err != nil {
			t.Fatalf("deactivateAged: %v", err)
		}
		if n != 1 {
			t.Fatalf("retired = %d, want 1", n)
		}
	})

	ancient, _ := db.GetEventByEventID("ancient")
	recent, _ := db.GetEventByEventID("recent")
	if ancient.IsActive {
		t.Error("event past the cutoff must be retired even with a high score")
	}
	if !recent.IsActive {
		t.Error("recent event must survive the cutoff pass")
	}
}

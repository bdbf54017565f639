package aggregator

import (
	"testing"
	"time"

	"newsdesk/internal/config"
	"newsdesk/internal/store"
)

func makeAgedEvent(t *testing.T, db *store.DB, eventID string, score float64, age time.Duration, now time.Time) {
	t.Helper()
	created := now.Add(-age).UnixMilli()
	inTx(t, db, func(tx *store.Tx) {
		if err := tx.CreateEvent(&store.Event{
			EventID:           eventID,
			Title:             eventID,
			SignificanceScore: score,
			IsActive:          true,
			CreatedAt:         created,
			UpdatedAt:         created,
		}); err != nil {
			t.Fatalf("CreateEvent %s: %v", eventID, err)
		}
	})
}

func TestAgeDecayPenalizesByDay(t *testing.T) {
	db := testStore(t)
	cfg := config.Default().Aggregator
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	makeAgedEvent(t, db, "fresh", 80, 6*time.Hour, now)
	makeAgedEvent(t, db, "three-days", 80, 3*24*time.Hour, now)
	makeAgedEvent(t, db, "ten-days", 80, 10*24*time.Hour, now)

	inTx(t, db, func(tx *store.Tx) {
		if _, err := applyAgeDecay(tx, now, cfg); err != nil {
			t.Fatalf("applyAgeDecay: %v", err)
		}
	})

	cases := map[string]struct {
		score   float64
		penalty float64
	}{
		"fresh":      {80, 0},  // under the threshold, untouched
		"three-days": {50, 30}, // 3 days * 10
		"ten-days":   {30, 50}, // capped at max penalty
	}
	for id, want := range cases {
		ev, err := db.GetEventByEventID(id)
		if err != nil || ev == nil {
			t.Fatalf("GetEventByEventID %s: ev=%v err=%v", id, ev, err)
		}
		if ev.SignificanceScore != want.score || ev.AgePenalty != want.penalty {
			t.Errorf("%s: score=%v penalty=%v, want score=%v penalty=%v",
				id, ev.SignificanceScore, ev.AgePenalty, want.score, want.penalty)
		}
	}
}

func TestAgeDecayIsIdempotent(t *testing.T) {
	db := testStore(t)
	cfg := config.Default().Aggregator
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	makeAgedEvent(t, db, "steady", 70, 2*24*time.Hour, now)

	for i := 0; i < 3; i++ {
		inTx(t, db, func(tx *store.Tx) {
			if _, err := applyAgeDecay(tx, now, cfg); err != nil {
				t.Fatalf("applyAgeDecay pass %d: %v", i, err)
			}
		})
	}

	ev, _ := db.GetEventByEventID("steady")
	if ev.SignificanceScore != 50 || ev.AgePenalty != 20 {
		t.Errorf("score=%v penalty=%v after repeated decay, want 50/20", ev.SignificanceScore, ev.AgePenalty)
	}
}

func TestAgeDecayClampsAtZero(t *testing.T) {
	db := testStore(t)
	cfg := config.Default().Aggregator
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	makeAgedEvent(t, db, "minor", 15, 4*24*time.Hour, now)

	inTx(t, db, func(tx *store.Tx) {
		if _, err := applyAgeDecay(tx, now, cfg); err != nil {
			t.Fatalf("applyAgeDecay: %v", err)
		}
	})

	ev, _ := db.GetEventByEventID("minor")
	if ev.SignificanceScore != 0 {
		t.Errorf("score = %v, want clamp at 0", ev.SignificanceScore)
	}
	if ev.AgePenalty != 40 {
		t.Errorf("penalty = %v, want 40 recorded even when clamped", ev.AgePenalty)
	}
}

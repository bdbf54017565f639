package aggregator

import (
	"log"
	"sort"
	"time"

	"newsdesk/internal/config"
	"newsdesk/internal/store"
)

// deactivateAged retires every active event older than the hard cutoff,
// regardless of how many active events remain afterwards.
func deactivateAged(tx *store.Tx, now time.Time, cfg config.AggregatorConfig) (int, error) {
	events, err := tx.ActiveEvents()
	if err != nil {
		return 0, err
	}

	cutoff := now.Add(-time.Duration(cfg.DeactivationCutoffDays) * 24 * time.Hour)
	retired := 0
	for _, ev := range events {
		if !time.UnixMilli(ev.CreatedAt).Before(cutoff) {
			continue
		}
		if err := tx.DeactivateEvent(ev.ID); err != nil {
			return retired, err
		}
		log.Printf("evict: event %s aged out (%s old)", ev.EventID,
			now.Sub(time.UnixMilli(ev.CreatedAt)).Round(time.Hour))
		retired++
	}
	return retired, nil
}

// evictExcess enforces the active-set cap by deactivating the lowest-ranked
// events. Ties on score break toward the older event, so fresher coverage
// survives.
func evictExcess(tx *store.Tx, cfg config.AggregatorConfig) (int, error) {
	events, err := tx.ActiveEvents()
	if err != nil {
		return 0, err
	}
	if len(events) <= cfg.MaxActiveEvents {
		return 0, nil
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].SignificanceScore != events[j].SignificanceScore {
			return events[i].SignificanceScore < events[j].SignificanceScore
		}
		return events[i].CreatedAt < events[j].CreatedAt
	})

	excess := len(events) - cfg.MaxActiveEvents
	for _, ev := range events[:excess] {
		if err := tx.DeactivateEvent(ev.ID); err != nil {
			return 0, err
		}
		log.Printf("evict: event %s %q evicted (score %.0f)", ev.EventID, ev.Title, ev.SignificanceScore)
	}
	return excess, nil
}

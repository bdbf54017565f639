package aggregator

import (
	"log"
	"time"

	"newsdesk/internal/config"
	"newsdesk/internal/store"
)

// agePenaltyPerDay is the decay rate applied once an event crosses the
// penalty threshold.
const agePenaltyPerDay = 10.0

// applyAgeDecay recomputes the decayed score of every active event old enough
// to attract an age penalty. The stored age_penalty makes the operation
// idempotent: the undecayed score is recovered as score + penalty before the
// freshly computed penalty is subtracted, so running decay twice with the
// same clock changes nothing.
func applyAgeDecay(tx *store.Tx, now time.Time, cfg config.AggregatorConfig) (int, error) {
	events, err := tx.ActiveEvents()
	if err != nil {
		return 0, err
	}

	threshold := time.Duration(cfg.AgePenaltyThresholdDays) * 24 * time.Hour
	decayed := 0
	for _, ev := range events {
		age := now.Sub(time.UnixMilli(ev.CreatedAt))
		if age < threshold {
			continue
		}

		days := int(age.Hours() / 24)
		penalty := float64(days) * agePenaltyPerDay
		if penalty > cfg.MaxAgePenalty {
			penalty = cfg.MaxAgePenalty
		}

		score := ev.SignificanceScore + ev.AgePenalty - penalty
		if score < 0 {
			score = 0
		}
		if score == ev.SignificanceScore && penalty == ev.AgePenalty {
			continue
		}

		if err := tx.SetEventRank(ev.ID, score, penalty, now.UnixMilli()); err != nil {
			return decayed, err
		}
		log.Printf("decay: event %s aged %dd, score %.0f -> %.0f", ev.EventID, days, ev.SignificanceScore, score)
		decayed++
	}
	return decayed, nil
}

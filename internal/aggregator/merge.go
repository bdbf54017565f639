package aggregator

import (
	"fmt"
	"log"
	"time"

	"newsdesk/internal/config"
	"newsdesk/internal/oracle"
	"newsdesk/internal/store"
)

// fallbackUpdateDescription is recorded when the oracle marks an update
// significant but supplies no description of its own.
const fallbackUpdateDescription = "Updated with new information"

type mergeStats struct {
	created  int
	updated  int
	skipped  int
	rejected int
}

// applyDecisions merges a batch of oracle decisions into the event set.
// Updates run before creates so a decision referencing an event created in
// the same batch behaves the same as one referencing it a cycle later.
// Individually invalid decisions are dropped with a log line; they never
// abort the batch.
func applyDecisions(tx *store.Tx, decisions []oracle.Decision, now time.Time, cfg config.AggregatorConfig) (mergeStats, error) {
	var stats mergeStats
	var creates []oracle.Decision

	for _, raw := range decisions {
		d, err := oracle.ValidateDecision(raw)
		if err != nil {
			log.Printf("merge: dropping decision: %v", err)
			stats.rejected++
			continue
		}
		if !d.IsUpdate {
			creates = append(creates, d)
			continue
		}
		if err := applyUpdate(tx, d, now, &stats); err != nil {
			return stats, err
		}
	}

	for _, d := range creates {
		if err := applyCreate(tx, d, now, cfg, &stats); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func applyUpdate(tx *store.Tx, d oracle.Decision, now time.Time, stats *mergeStats) error {
	ev, err := tx.GetEventByEventID(d.EventID)
	if err != nil {
		return err
	}
	if ev == nil {
		// The referenced event was evicted or aged out since the oracle saw
		// it. The decision is stale, not an error.
		log.Printf("merge: update for unknown event %s, skipping", d.EventID)
		stats.skipped++
		return nil
	}
	if !d.SignificantChanges() {
		log.Printf("merge: no significant changes for %s, skipping", d.EventID)
		stats.skipped++
		return nil
	}

	// Empty fields keep the stored values; the oracle only has to send what
	// changed.
	title := d.Title
	if title == "" {
		title = ev.Title
	}
	description := d.Description
	if description == "" {
		description = ev.Description
	}
	score := d.SignificanceScore
	if score == 0 {
		score = ev.SignificanceScore
	}

	if err := tx.UpdateEventContent(ev.ID, title, description, score, now.UnixMilli()); err != nil {
		return fmt.Errorf("update event %s: %w", d.EventID, err)
	}
	if len(d.Tags) > 0 {
		if err := tx.ReplaceTags(ev.ID, d.Tags); err != nil {
			return fmt.Errorf("replace tags for %s: %w", d.EventID, err)
		}
	}

	recordDesc := d.UpdateDescription
	if recordDesc == "" {
		recordDesc = fallbackUpdateDescription
	}
	if err := tx.AppendUpdateRecord(ev.ID, recordDesc, now.UnixMilli()); err != nil {
		return fmt.Errorf("record update for %s: %w", d.EventID, err)
	}

	log.Printf("merge: updated event %s (score %.0f)", d.EventID, score)
	stats.updated++
	return nil
}

func applyCreate(tx *store.Tx, d oracle.Decision, now time.Time, cfg config.AggregatorConfig, stats *mergeStats) error {
	existing, err := tx.GetEventByEventID(d.EventID)
	if err != nil {
		return err
	}
	if existing != nil {
		// Replayed create, most likely the oracle reusing an identifier.
		log.Printf("merge: event %s already exists, skipping create", d.EventID)
		stats.skipped++
		return nil
	}

	var url string
	if len(d.URLs) > 0 {
		url = d.URLs[0]
	}

	ev := &store.Event{
		EventID:           d.EventID,
		Title:             d.Title,
		Description:       d.Description,
		URL:               url,
		SignificanceScore: d.SignificanceScore + cfg.NewEventBonus,
		IsActive:          true,
	}
	if err := tx.CreateEvent(ev); err != nil {
		return fmt.Errorf("create event %s: %w", d.EventID, err)
	}

	for _, name := range d.Sources {
		citation := fmt.Sprintf("%s, %d", name, now.Year())
		if err := tx.AddSource(ev.ID, name, "", citation); err != nil {
			return fmt.Errorf("add source for %s: %w", d.EventID, err)
		}
	}
	if err := tx.AttachTags(ev.ID, d.Tags); err != nil {
		return fmt.Errorf("attach tags for %s: %w", d.EventID, err)
	}
	if err := tx.AppendUpdateRecord(ev.ID, creationRecord(d.Title), now.UnixMilli()); err != nil {
		return fmt.Errorf("record creation for %s: %w", d.EventID, err)
	}

	log.Printf("merge: created event %s %q (score %.0f)", d.EventID, d.Title, ev.SignificanceScore)
	stats.created++
	return nil
}

// creationRecord is the audit line written when an event is first created.
func creationRecord(title string) string {
	return fmt.Sprintf("Event created: %.50s...", title)
}

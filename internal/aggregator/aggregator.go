// Package aggregator owns the aggregation cycle: merging classified articles
// into the event set, recomputing significance under time decay, capping the
// active set, and trimming redundant audit history. All of one cycle's
// mutations ride a single store transaction.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"newsdesk/internal/config"
	"newsdesk/internal/feed"
	"newsdesk/internal/metrics"
	"newsdesk/internal/oracle"
	"newsdesk/internal/store"
)

// oracleTimeout bounds one classification call.
const oracleTimeout = 120 * time.Second

// ErrOracleUnconfigured is returned by RunCycle when the engine has no
// classification client. The serve path runs in this degraded mode when no
// provider key is configured; reads still work, cycles do not.
var ErrOracleUnconfigured = errors.New("classification oracle not configured")

// Engine runs the aggregation pipeline against the event store.
type Engine struct {
	DB     *store.DB
	Oracle oracle.Client
	Feeds  feed.Provider
	Config config.AggregatorConfig

	batchLimit int
	clock      func() time.Time
}

// New creates an Engine wired to the given store, oracle, and feed provider.
func New(db *store.DB, client oracle.Client, feeds feed.Provider, cfg config.Config) *Engine {
	return &Engine{
		DB:         db,
		Oracle:     client,
		Feeds:      feeds,
		Config:     cfg.Aggregator,
		batchLimit: cfg.Feeds.ArticleBatchLimit,
		clock:      time.Now,
	}
}

// RunCycle executes one full aggregation cycle: fetch, classify, then
// merge → decay → cutoff → evict → trim inside one transaction. Any failure
// after the transaction opens rolls everything back, leaving the store in its
// pre-cycle state. RunCycle itself does no locking; the Scheduler provides
// the single-flight guard.
func (e *Engine) RunCycle(ctx context.Context) error {
	if e.Oracle == nil {
		return ErrOracleUnconfigured
	}

	log.Printf("aggregation: starting cycle")
	start := time.Now()

	articles, err := e.Feeds.Fetch(ctx)
	if err != nil {
		metrics.CyclesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("fetch feeds: %w", err)
	}
	if len(articles) == 0 {
		log.Printf("aggregation: no articles fetched, skipping cycle")
		metrics.CyclesTotal.WithLabelValues("empty").Inc()
		return nil
	}
	if len(articles) > e.batchLimit {
		articles = articles[:e.batchLimit]
	}

	existing, err := e.activeEventSummaries()
	if err != nil {
		metrics.CyclesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("load active events: %w", err)
	}
	log.Printf("aggregation: classifying %d articles against %d active events",
		len(articles), len(existing))

	oracleCtx, cancel := context.WithTimeout(ctx, oracleTimeout)
	defer cancel()

	resp, err := e.Oracle.Complete(oracleCtx, oracle.ClassificationPrompt(existing, articles))
	if err != nil {
		metrics.CyclesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("classify: %w", err)
	}

	decisions, err := oracle.ParseDecisions(resp.Content)
	if err != nil {
		// A malformed envelope means no trustworthy decisions; the cycle
		// ends mutation-free and retries on the next interval.
		log.Printf("aggregation: unparseable oracle response, treating as empty: %v", err)
		metrics.CyclesTotal.WithLabelValues("empty").Inc()
		return nil
	}
	if len(decisions) == 0 {
		log.Printf("aggregation: oracle returned no decisions")
		metrics.CyclesTotal.WithLabelValues("empty").Inc()
		return nil
	}

	now := e.clock()
	tx, err := e.DB.BeginCycle()
	if err != nil {
		metrics.CyclesTotal.WithLabelValues("error").Inc()
		return err
	}

	if err := e.runPipeline(tx, decisions, now); err != nil {
		tx.Rollback()
		metrics.CyclesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("cycle aborted: %w", err)
	}

	if err := tx.Commit(); err != nil {
		metrics.CyclesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("commit cycle: %w", err)
	}

	if n, err := e.DB.CountActiveEvents(); err == nil {
		metrics.ActiveEvents.Set(float64(n))
	}
	metrics.CyclesTotal.WithLabelValues("ok").Inc()
	log.Printf("aggregation: cycle completed in %s", time.Since(start).Round(time.Millisecond))
	return nil
}

// runPipeline applies the mutation stages of one cycle inside tx.
func (e *Engine) runPipeline(tx *store.Tx, decisions []oracle.Decision, now time.Time) error {
	stats, err := applyDecisions(tx, decisions, now, e.Config)
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	metrics.EventsCreated.Add(float64(stats.created))
	metrics.EventsUpdated.Add(float64(stats.updated))

	decayed, err := applyAgeDecay(tx, now, e.Config)
	if err != nil {
		return fmt.Errorf("decay: %w", err)
	}

	aged, err := deactivateAged(tx, now, e.Config)
	if err != nil {
		return fmt.Errorf("age cutoff: %w", err)
	}
	metrics.EventsDeactivated.WithLabelValues("aged_out").Add(float64(aged))

	evicted, err := evictExcess(tx, e.Config)
	if err != nil {
		return fmt.Errorf("evict: %w", err)
	}
	metrics.EventsDeactivated.WithLabelValues("evicted").Add(float64(evicted))

	trimmed, err := trimUpdateRecords(tx)
	if err != nil {
		return fmt.Errorf("trim: %w", err)
	}
	metrics.RecordsTrimmed.Add(float64(trimmed))

	log.Printf("aggregation: %d created, %d updated, %d rejected, %d decayed, %d aged out, %d evicted, %d records trimmed",
		stats.created, stats.updated, stats.rejected, decayed, aged, evicted, trimmed)
	return nil
}

// RunCleanup trims redundant audit records outside a full cycle, in its own
// transaction. Exposed for the manual cleanup operation.
func (e *Engine) RunCleanup() (int, error) {
	tx, err := e.DB.BeginCycle()
	if err != nil {
		return 0, err
	}

	removed, err := trimUpdateRecords(tx)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("trim: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit cleanup: %w", err)
	}

	metrics.RecordsTrimmed.Add(float64(removed))
	if removed > 0 {
		log.Printf("trim: removed %d redundant update records", removed)
	}
	return removed, nil
}

// activeEventSummaries loads the oracle's view of the current active set.
func (e *Engine) activeEventSummaries() ([]oracle.ActiveEvent, error) {
	events, err := e.DB.ActiveEvents()
	if err != nil {
		return nil, err
	}

	summaries := make([]oracle.ActiveEvent, 0, len(events))
	for _, ev := range events {
		tags, err := e.DB.TagsForEvent(ev.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, oracle.ActiveEvent{
			EventID:     ev.EventID,
			Title:       ev.Title,
			Description: ev.Description,
			Tags:        tags,
			Score:       ev.SignificanceScore,
		})
	}
	return summaries, nil
}

// Package metrics registers the newsdesk Prometheus collectors. Everything is
// on the default registry and served by promhttp at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesTotal counts completed aggregation cycles by result
	// ("ok", "error", "empty").
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsdesk_aggregation_cycles_total",
		Help: "Aggregation cycles run, labelled by result.",
	}, []string{"result"})

	// EventsCreated counts events created by the merge engine.
	EventsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsdesk_events_created_total",
		Help: "New events created from classification decisions.",
	})

	// EventsUpdated counts significant updates applied to existing events.
	EventsUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsdesk_events_updated_total",
		Help: "Existing events updated with significant changes.",
	})

	// EventsDeactivated counts events removed from the active set, by reason
	// ("evicted", "aged_out").
	EventsDeactivated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newsdesk_events_deactivated_total",
		Help: "Events deactivated, labelled by reason.",
	}, []string{"reason"})

	// RecordsTrimmed counts audit records removed by the trimmer.
	RecordsTrimmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsdesk_update_records_trimmed_total",
		Help: "Generic audit records removed by the trimmer.",
	})

	// FeedFetchErrors counts per-source feed fetch failures.
	FeedFetchErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newsdesk_feed_fetch_errors_total",
		Help: "Feed fetches that failed and were skipped.",
	})

	// ActiveEvents tracks the current active-set size after each cycle.
	ActiveEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "newsdesk_active_events",
		Help: "Number of currently active events.",
	})
)

package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"newsdesk/internal/aggregator"
	"newsdesk/internal/store"
)

// recentRecordLimit caps the records echoed back from a manual aggregation.
const recentRecordLimit = 5

type newsSource struct {
	Name     string `json:"name"`
	URL      string `json:"url,omitempty"`
	Citation string `json:"citation"`
}

type newsUpdate struct {
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}

type newsEvent struct {
	EventID           string       `json:"event_id"`
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	URL               string       `json:"url,omitempty"`
	SignificanceScore float64      `json:"significance_score"`
	Tags              []string     `json:"tags"`
	Sources           []newsSource `json:"sources"`
	Updates           []newsUpdate `json:"updates"`
	CreatedAt         string       `json:"created_at"`
	UpdatedAt         string       `json:"updated_at"`
}

// handleNews returns the full active event set, highest significance first.
func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	events, err := s.db.ActiveEvents()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]newsEvent, 0, len(events))
	for _, ev := range events {
		item, err := s.buildNewsEvent(ev)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		out = append(out, item)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events":       out,
		"total_events": len(out),
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) buildNewsEvent(ev store.Event) (newsEvent, error) {
	tags, err := s.db.TagsForEvent(ev.ID)
	if err != nil {
		return newsEvent{}, err
	}

	sources, err := s.db.SourcesForEvent(ev.ID)
	if err != nil {
		return newsEvent{}, err
	}
	outSources := make([]newsSource, 0, len(sources))
	for _, src := range sources {
		outSources = append(outSources, newsSource{
			Name:     src.Name,
			URL:      src.URL,
			Citation: src.Citation,
		})
	}

	records, err := s.db.ListUpdateRecords(ev.ID)
	if err != nil {
		return newsEvent{}, err
	}
	outUpdates := make([]newsUpdate, 0, len(records))
	// newest first for readers
	for i := len(records) - 1; i >= 0; i-- {
		outUpdates = append(outUpdates, newsUpdate{
			Description: records[i].Description,
			Timestamp:   msToRFC3339(records[i].CreatedAt),
		})
	}

	return newsEvent{
		EventID:           ev.EventID,
		Title:             ev.Title,
		Description:       ev.Description,
		URL:               ev.URL,
		SignificanceScore: ev.SignificanceScore,
		Tags:              tags,
		Sources:           outSources,
		Updates:           outUpdates,
		CreatedAt:         msToRFC3339(ev.CreatedAt),
		UpdatedAt:         msToRFC3339(ev.UpdatedAt),
	}, nil
}

// handleStats reports store-wide counts and the active significance
// distribution.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	total, err := s.db.CountEvents()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	active, _ := s.db.CountActiveEvents()
	updates, _ := s.db.CountUpdateRecords()
	sources, _ := s.db.CountSources()
	tags, _ := s.db.CountTags()

	high, _ := s.db.CountActiveScoreBetween(80, -1)
	medium, _ := s.db.CountActiveScoreBetween(50, 80)
	low, _ := s.db.CountActiveScoreBetween(0, 50)

	writeJSON(w, http.StatusOK, map[string]any{
		"total_events":   total,
		"active_events":  active,
		"total_updates":  updates,
		"total_sources":  sources,
		"total_tags":     tags,
		"scheduler":      s.sched.State().String(),
		"significance_distribution": map[string]int{
			"high":   high,
			"medium": medium,
			"low":    low,
		},
	})
}

// handleEventUpdates lists one event's audit records, newest first.
func (s *Server) handleEventUpdates(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	ev, err := s.db.GetEventByEventID(eventID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if ev == nil {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	records, err := s.db.ListUpdateRecords(ev.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]newsUpdate, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		out = append(out, newsUpdate{
			Description: records[i].Description,
			Timestamp:   msToRFC3339(records[i].CreatedAt),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"event_id": ev.EventID,
		"title":    ev.Title,
		"updates":  out,
	})
}

// handleAggregate runs one cycle synchronously. A cycle already in flight is
// reported as a conflict, not queued.
func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	activeBefore, _ := s.db.CountActiveEvents()
	totalBefore, _ := s.db.CountEvents()

	if err := s.sched.TriggerNow(r.Context()); err != nil {
		if errors.Is(err, aggregator.ErrCycleRunning) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		if errors.Is(err, aggregator.ErrOracleUnconfigured) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	activeAfter, _ := s.db.CountActiveEvents()
	totalAfter, _ := s.db.CountEvents()

	recent, err := s.db.RecentUpdateRecords(recentRecordLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	recentOut := make([]newsUpdate, 0, len(recent))
	for _, rec := range recent {
		recentOut = append(recentOut, newsUpdate{
			Description: rec.Description,
			Timestamp:   msToRFC3339(rec.CreatedAt),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "completed",
		"before": map[string]int{"total_events": totalBefore, "active_events": activeBefore},
		"after":  map[string]int{"total_events": totalAfter, "active_events": activeAfter},
		"recent_updates": recentOut,
	})
}

// handleCleanupUpdates trims redundant audit records on demand.
func (s *Server) handleCleanupUpdates(w http.ResponseWriter, r *http.Request) {
	removed, err := s.sched.TriggerCleanup()
	if err != nil {
		if errors.Is(err, aggregator.ErrCycleRunning) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "completed",
		"removed": removed,
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func msToRFC3339(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

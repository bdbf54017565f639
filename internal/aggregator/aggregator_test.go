package aggregator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"newsdesk/internal/config"
	"newsdesk/internal/feed"
	"newsdesk/internal/oracle"
	"newsdesk/internal/store"
)

type fixedFeed []feed.RawArticle

func (f fixedFeed) Fetch(ctx context.Context) ([]feed.RawArticle, error) {
	return []feed.RawArticle(f), nil
}

type failingFeed struct{}

func (failingFeed) Fetch(ctx context.Context) ([]feed.RawArticle, error) {
	return nil, errors.New("network down")
}

// blockingOracle holds every Complete call until released, so tests can pin a
// cycle in flight.
type blockingOracle struct {
	entered  chan struct{} // buffered; receives one token per call
	release  chan struct{}
	response *oracle.Response
}

func newBlockingOracle() *blockingOracle {
	return &blockingOracle{
		entered:  make(chan struct{}, 8),
		release:  make(chan struct{}),
		response: &oracle.Response{Content: "[]"},
	}
}

func (b *blockingOracle) Complete(ctx context.Context, prompt string) (*oracle.Response, error) {
	b.entered <- struct{}{}
	<-b.release
	return b.response, nil
}

func sampleArticles() []feed.RawArticle {
	return []feed.RawArticle{{
		Title:       "Central bank raises rates by 50 basis points",
		Description: "The bank cited persistent inflation.",
		URL:         "https://example.com/rates",
		SourceName:  "Reuters",
		SourceType:  "rss",
	}}
}

func testEngine(t *testing.T, client oracle.Client, feeds feed.Provider) *Engine {
	t.Helper()
	db := testStore(t)
	return New(db, client, feeds, config.Default())
}

func TestRunCycleCreatesEventsEndToEnd(t *testing.T) {
	mock := &oracle.MockClient{Response: &oracle.Response{Content: `[
		{"event_id": "rate-hike", "title": "Central bank raises rates",
		 "description": "Half-point increase announced.",
		 "significance_score": 55, "tags": ["economy"],
		 "sources": ["Reuters"], "urls": ["https://example.com/rates"],
		 "is_update": false}
	]`}}
	e := testEngine(t, mock, fixedFeed(sampleArticles()))

	if err := e.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	ev, err := e.DB.GetEventByEventID("rate-hike")
	if err != nil || ev == nil {
		t.Fatalf("event not created: ev=%v err=%v", ev, err)
	}
	if ev.SignificanceScore != 80 {
		t.Errorf("score = %v, want 55 + new-event bonus", ev.SignificanceScore)
	}
	if len(mock.Calls) != 1 {
		t.Fatalf("oracle calls = %d, want 1", len(mock.Calls))
	}
}

func TestRunCyclePromptCarriesActiveEvents(t *testing.T) {
	mock := &oracle.MockClient{Response: &oracle.Response{Content: "[]"}}
	e := testEngine(t, mock, fixedFeed(sampleArticles()))

	inTx(t, e.DB, func(tx *store.Tx) {
		if err := tx.CreateEvent(&store.Event{
			EventID:           "existing-story",
			Title:             "Ongoing coverage example",
			SignificanceScore: 70,
			IsActive:          true,
		}); err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
	})

	if err := e.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if len(mock.Calls) != 1 {
		t.Fatalf("oracle calls = %d, want 1", len(mock.Calls))
	}
	prompt := mock.Calls[0]
	for _, want := range []string{"existing-story", "Central bank raises rates by 50 basis points"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestRunCycleSkipsOnEmptyFeed(t *testing.T) {
	mock := &oracle.MockClient{Response: &oracle.Response{Content: "[]"}}
	e := testEngine(t, mock, fixedFeed(nil))

	if err := e.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(mock.Calls) != 0 {
		t.Errorf("oracle called %d times on an empty feed, want 0", len(mock.Calls))
	}
}

func TestRunCycleOracleFailureLeavesStoreUntouched(t *testing.T) {
	mock := &oracle.MockClient{Err: errors.New("provider unavailable")}
	e := testEngine(t, mock, fixedFeed(sampleArticles()))

	if err := e.RunCycle(context.Background()); err == nil {
		t.Fatal("RunCycle should surface oracle failure")
	}

	n, _ := e.DB.CountEvents()
	if n != 0 {
		t.Errorf("events = %d, oracle failure must leave the store untouched", n)
	}
}

func TestRunCycleMalformedResponseIsMutationFree(t *testing.T) {
	mock := &oracle.MockClient{Response: &oracle.Response{Content: "I could not find any JSON to give you."}}
	e := testEngine(t, mock, fixedFeed(sampleArticles()))

	if err := e.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle should treat malformed output as empty, got %v", err)
	}

	n, _ := e.DB.CountEvents()
	if n != 0 {
		t.Errorf("events = %d, malformed response must not mutate the store", n)
	}
	records, _ := e.DB.CountUpdateRecords()
	if records != 0 {
		t.Errorf("update records = %d, want 0", records)
	}
}

func TestRunCycleWithoutOracle(t *testing.T) {
	e := testEngine(t, nil, fixedFeed(sampleArticles()))
	sched := NewScheduler(e)

	if err := sched.TriggerNow(context.Background()); !errors.Is(err, ErrOracleUnconfigured) {
		t.Fatalf("TriggerNow err = %v, want ErrOracleUnconfigured", err)
	}

	n, _ := e.DB.CountEvents()
	if n != 0 {
		t.Errorf("events = %d, unconfigured oracle must not mutate the store", n)
	}

	// cleanup needs no oracle and must still work in degraded mode
	if _, err := e.RunCleanup(); err != nil {
		t.Errorf("RunCleanup: %v", err)
	}
}

func TestRunCycleFeedErrorAborts(t *testing.T) {
	mock := &oracle.MockClient{Response: &oracle.Response{Content: "[]"}}
	e := testEngine(t, mock, failingFeed{})

	if err := e.RunCycle(context.Background()); err == nil {
		t.Fatal("RunCycle should surface feed failure")
	}
	if len(mock.Calls) != 0 {
		t.Errorf("oracle called despite feed failure")
	}
}

func TestRunCycleTruncatesArticleBatch(t *testing.T) {
	var many []feed.RawArticle
	for i := 0; i < 40; i++ {
		many = append(many, feed.RawArticle{Title: "Story", URL: "https://example.com"})
	}
	mock := &oracle.MockClient{Response: &oracle.Response{Content: "[]"}}
	e := testEngine(t, mock, fixedFeed(many))

	if err := e.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(mock.Calls) != 1 {
		t.Fatalf("oracle calls = %d", len(mock.Calls))
	}
	if n := strings.Count(mock.Calls[0], "Story"); n != config.Default().Feeds.ArticleBatchLimit {
		t.Errorf("prompt carries %d articles, want batch limit %d",
			n, config.Default().Feeds.ArticleBatchLimit)
	}
}

func TestTriggerNowRejectedWhileCycleInFlight(t *testing.T) {
	block := newBlockingOracle()
	e := testEngine(t, block, fixedFeed(sampleArticles()))
	sched := NewScheduler(e)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- sched.TriggerNow(context.Background())
	}()

	<-block.entered // first cycle is now inside the oracle call

	if err := sched.TriggerNow(context.Background()); !errors.Is(err, ErrCycleRunning) {
		t.Errorf("second trigger err = %v, want ErrCycleRunning", err)
	}
	if _, err := sched.TriggerCleanup(); !errors.Is(err, ErrCycleRunning) {
		t.Errorf("cleanup during cycle err = %v, want ErrCycleRunning", err)
	}

	close(block.release)
	if err := <-firstDone; err != nil {
		t.Fatalf("first cycle: %v", err)
	}

	// guard released, triggers work again
	if err := sched.TriggerNow(context.Background()); err != nil {
		t.Errorf("trigger after release: %v", err)
	}
}

func TestSchedulerLifecycle(t *testing.T) {
	mock := &oracle.MockClient{Response: &oracle.Response{Content: "[]"}}
	e := testEngine(t, mock, fixedFeed(nil))
	sched := NewScheduler(e)

	if sched.State() != Stopped {
		t.Fatalf("state = %s, want stopped", sched.State())
	}

	sched.Start()
	if sched.State() != Running {
		t.Fatalf("state = %s, want running", sched.State())
	}
	sched.Start() // second start is a no-op

	sched.Stop()
	if sched.State() != Stopped {
		t.Fatalf("state = %s, want stopped after Stop", sched.State())
	}
	sched.Stop() // second stop is a no-op

	// restart after a clean stop works
	sched.Start()
	if sched.State() != Running {
		t.Fatalf("state = %s, want running after restart", sched.State())
	}
	sched.Stop()
}

func TestStopWaitsForInFlightCycle(t *testing.T) {
	block := newBlockingOracle()
	e := testEngine(t, block, fixedFeed(sampleArticles()))
	e.Config.ShutdownTimeoutSeconds = 2
	sched := NewScheduler(e)

	sched.Start()
	<-block.entered // scheduled cycle pinned inside the oracle call

	go func() {
		time.Sleep(100 * time.Millisecond)
		close(block.release)
	}()

	start := time.Now()
	sched.Stop()
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Stop returned in %s without waiting for the in-flight cycle", elapsed)
	}
	if sched.State() != Stopped {
		t.Errorf("state = %s, want stopped", sched.State())
	}
}

func TestRunCleanupTrimsInOwnTransaction(t *testing.T) {
	mock := &oracle.MockClient{Response: &oracle.Response{Content: "[]"}}
	e := testEngine(t, mock, fixedFeed(nil))

	id := seedRecords(t, e.DB, "cleanup-target", []string{
		"Event created: Cleanup target story...",
		"Updated with new information from feeds",
		"Specific development worth keeping",
	})

	removed, err := e.RunCleanup()
	if err != nil {
		t.Fatalf("RunCleanup: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}

	records, _ := e.DB.ListUpdateRecords(id)
	if len(records) != 2 {
		t.Errorf("records = %d, want 2", len(records))
	}
}

package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/theirongolddev/aibudget/internal/alert"
	"github.com/theirongolddev/aibudget/internal/config"
	"github.com/theirongolddev/aibudget/internal/model"
	"github.com/theirongolddev/aibudget/internal/providers"
)

// scriptedResolver returns canned snapshots or errors and can block to
// simulate a slow fetch.
type scriptedResolver struct {
	id    string
	snap  model.Snapshot
	err   error
	block chan struct{} // when non-nil, Fetch waits for a close

	mu      sync.Mutex
	fetches int
}

func (r *scriptedResolver) ID() string   { return r.id }
func (r *scriptedResolver) Name() string { return model.ProviderName(r.id) }

func (r *scriptedResolver) Fetch(context.Context, string, float64) (model.Snapshot, error) {
	r.mu.Lock()
	r.fetches++
	r.mu.Unlock()
	if r.block != nil {
		<-r.block
	}
	if r.err != nil {
		return model.Snapshot{}, r.err
	}
	return r.snap, nil
}

func (r *scriptedResolver) fetchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetches
}

func snap(id string, spend, budget float64) model.Snapshot {
	return model.Snapshot{
		ProviderID:   id,
		ProviderName: model.ProviderName(id),
		CurrentSpend: spend,
		Budget:       budget,
		LastUpdated:  time.Now().UTC(),
	}
}

type recordingSink struct {
	mu       sync.Mutex
	messages []string
}

func (s *recordingSink) Notify(_, message string) error {
	s.mu.Lock()
	s.messages = append(s.messages, message)
	s.mu.Unlock()
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func TestRefreshAllPopulatesSnapshots(t *testing.T) {
	m := New(config.DefaultConfig(), []providers.Resolver{
		&scriptedResolver{id: "anthropic", snap: snap("anthropic", 20, 80)},
		&scriptedResolver{id: "openai", snap: snap("openai", 5, 60)},
	}, nil, nil)

	if !m.RefreshAll(context.Background()) {
		t.Fatal("RefreshAll reported suppressed")
	}

	snaps := m.Snapshots()
	if len(snaps) != 2 {
		t.Fatalf("snapshots = %d, want 2", len(snaps))
	}
	if snaps[0].ProviderID != "anthropic" || snaps[1].ProviderID != "openai" {
		t.Errorf("snapshot order = %s, %s", snaps[0].ProviderID, snaps[1].ProviderID)
	}

	spend, budget := m.Totals()
	if spend != 25 || budget != 140 {
		t.Errorf("totals = %v/%v, want 25/140", spend, budget)
	}
}

func TestFailedFetchKeepsLastGoodSnapshot(t *testing.T) {
	failing := &scriptedResolver{id: "openai", snap: snap("openai", 5, 60)}
	healthy := &scriptedResolver{id: "anthropic", snap: snap("anthropic", 20, 80)}
	m := New(config.DefaultConfig(), []providers.Resolver{failing, healthy}, nil, nil)

	m.RefreshAll(context.Background())
	before, ok := m.Snapshot("openai")
	if !ok {
		t.Fatal("openai snapshot missing after first refresh")
	}

	// Second refresh: openai fails, anthropic advances.
	failing.err = errors.New("costs API down")
	healthy.snap = snap("anthropic", 22, 80)
	m.RefreshAll(context.Background())

	after, ok := m.Snapshot("openai")
	if !ok {
		t.Fatal("openai snapshot gone after failed fetch")
	}
	if after != before {
		t.Errorf("failed fetch changed cached snapshot:\n before %+v\n after  %+v", before, after)
	}

	anthropic, _ := m.Snapshot("anthropic")
	if anthropic.CurrentSpend != 22 {
		t.Errorf("healthy provider not updated: spend = %v", anthropic.CurrentSpend)
	}
	if m.LastError() == "" {
		t.Error("LastError empty after a provider failure")
	}
}

func TestConcurrentRefreshSuppressed(t *testing.T) {
	block := make(chan struct{})
	slow := &scriptedResolver{id: "anthropic", snap: snap("anthropic", 1, 80), block: block}
	m := New(config.DefaultConfig(), []providers.Resolver{slow}, nil, nil)

	done := make(chan bool)
	go func() { done <- m.RefreshAll(context.Background()) }()

	// Wait for the slow fetch to start, then try a second refresh.
	for slow.fetchCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	if m.RefreshAll(context.Background()) {
		t.Error("second refresh ran while first was in flight")
	}

	close(block)
	if !<-done {
		t.Error("first refresh reported suppressed")
	}
	if slow.fetchCount() != 1 {
		t.Errorf("fetches = %d, want 1 (suppressed refresh must not queue)", slow.fetchCount())
	}
}

func TestMonthRolloverClearsStateAndRearmsAlerts(t *testing.T) {
	sink := &recordingSink{}
	alerts := alert.New(sink)
	resolver := &scriptedResolver{id: "anthropic", snap: snap("anthropic", 70, 80)}
	m := New(config.DefaultConfig(), []providers.Resolver{resolver}, nil, alerts)

	clock := time.Date(2025, time.August, 30, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }
	m.lastYear, m.lastMonth = 2025, time.August

	m.RefreshAll(context.Background())
	if sink.count() != 1 {
		t.Fatalf("alerts after first refresh = %d, want 1 (87%% crosses 80)", sink.count())
	}

	// Same month again: alert stays sent.
	m.RefreshAll(context.Background())
	if sink.count() != 1 {
		t.Fatalf("alert refired within the month: %d", sink.count())
	}

	// New month: snapshots cleared, alerts re-armed, then repopulated.
	clock = time.Date(2025, time.September, 1, 0, 0, 1, 0, time.UTC)
	m.RefreshAll(context.Background())
	if sink.count() != 2 {
		t.Errorf("alerts after rollover = %d, want re-fire", sink.count())
	}
	if len(m.Snapshots()) != 1 {
		t.Errorf("snapshots after rollover refresh = %d, want 1", len(m.Snapshots()))
	}
}

func TestSubscriptionSnapshotDoesNotAlert(t *testing.T) {
	sink := &recordingSink{}
	alerts := alert.New(sink)

	plan := snap("anthropic", 100, 80)
	plan.Subscription = true
	plan.PlanLabel = "Max 5x"
	m := New(config.DefaultConfig(), []providers.Resolver{
		&scriptedResolver{id: "anthropic", snap: plan},
		&scriptedResolver{id: "openai", snap: snap("openai", 55, 60)},
	}, nil, alerts)

	m.RefreshAll(context.Background())
	if sink.count() != 1 {
		t.Errorf("alerts = %d, want 1 from the metered provider only (92%% crosses 80)", sink.count())
	}
	for _, msg := range sink.messages {
		if strings.Contains(msg, "Anthropic") {
			t.Errorf("flat-plan provider triggered a budget alert: %q", msg)
		}
	}
}

func TestRefreshReturnsSnapshotMap(t *testing.T) {
	m := New(config.DefaultConfig(), []providers.Resolver{
		&scriptedResolver{id: "xai", snap: snap("xai", 4, 30)},
	}, nil, nil)

	snaps, ok := m.Refresh(context.Background())
	if !ok {
		t.Fatal("Refresh reported suppressed")
	}
	if got := snaps["xai"].CurrentSpend; got != 4 {
		t.Errorf("snapshot map spend = %v, want 4", got)
	}
}

func TestServiceEndpoints(t *testing.T) {
	m := New(config.DefaultConfig(), []providers.Resolver{
		&scriptedResolver{id: "google", snap: snap("google", 2, 30)},
	}, nil, nil)
	svc := NewService(ServiceConfig{}, m)
	svc.refreshOnce(context.Background())

	t.Run("status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		svc.handleStatus(rec, httptest.NewRequest("GET", "/v1/status", nil))
		var status Status
		if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
			t.Fatalf("decoding status: %v", err)
		}
		if status.RefreshCount != 1 {
			t.Errorf("refresh count = %d, want 1", status.RefreshCount)
		}
		if status.SpendUSD != 2 || status.BudgetUSD != 30 {
			t.Errorf("totals = %v/%v, want 2/30", status.SpendUSD, status.BudgetUSD)
		}
		if math.Abs(status.UsedPercent-100*2.0/30.0) > 0.01 {
			t.Errorf("used percent = %v, want ~6.67", status.UsedPercent)
		}
	})

	t.Run("snapshots", func(t *testing.T) {
		rec := httptest.NewRecorder()
		svc.handleSnapshots(rec, httptest.NewRequest("GET", "/v1/snapshots", nil))
		var snaps []model.Snapshot
		if err := json.Unmarshal(rec.Body.Bytes(), &snaps); err != nil {
			t.Fatalf("decoding snapshots: %v", err)
		}
		if len(snaps) != 1 || snaps[0].ProviderID != "google" {
			t.Errorf("snapshots = %+v", snaps)
		}
	})

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		svc.handleHealth(rec, httptest.NewRequest("GET", "/healthz", nil))
		if rec.Body.String() != "ok\n" {
			t.Errorf("healthz body = %q", rec.Body.String())
		}
	})

	t.Run("refresh wrong method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		svc.handleRefresh(rec, httptest.NewRequest("GET", "/v1/refresh", nil))
		if rec.Code != 405 {
			t.Errorf("GET refresh status = %d, want 405", rec.Code)
		}
	})
}

func TestServiceEventOnlyOnSpendChange(t *testing.T) {
	resolver := &scriptedResolver{id: "google", snap: snap("google", 2, 30)}
	m := New(config.DefaultConfig(), []providers.Resolver{resolver}, nil, nil)
	svc := NewService(ServiceConfig{EventsBuffer: 10}, m)

	svc.refreshOnce(context.Background()) // snapshot event
	svc.refreshOnce(context.Background()) // no change, no event
	resolver.snap = snap("google", 3.5, 30)
	svc.refreshOnce(context.Background()) // delta event

	svc.mu.RLock()
	defer svc.mu.RUnlock()
	if len(svc.events) != 2 {
		t.Fatalf("events = %d, want 2", len(svc.events))
	}
	if svc.events[0].Type != "snapshot" || svc.events[1].Type != "spend_delta" {
		t.Errorf("event types = %s, %s", svc.events[0].Type, svc.events[1].Type)
	}
	if svc.events[1].DeltaUSD != 1.5 {
		t.Errorf("delta = %v, want 1.5", svc.events[1].DeltaUSD)
	}
}

package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/theirongolddev/aibudget/internal/model"
	"github.com/theirongolddev/aibudget/internal/track"
)

// ServiceConfig controls the daemon runtime behavior.
type ServiceConfig struct {
	Addr         string
	Interval     time.Duration
	EventsBuffer int
}

// Event is emitted whenever a refresh changes total spend.
type Event struct {
	ID        int64            `json:"id"`
	Type      string           `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	Snapshots []model.Snapshot `json:"snapshots"`
	SpendUSD  float64          `json:"spend_usd"`
	DeltaUSD  float64          `json:"delta_usd"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt          time.Time `json:"started_at"`
	LastRefreshAt      time.Time `json:"last_refresh_at"`
	RefreshIntervalSec int       `json:"refresh_interval_sec"`
	RefreshCount       int64     `json:"refresh_count"`
	SpendUSD           float64   `json:"spend_usd"`
	BudgetUSD          float64   `json:"budget_usd"`
	UsedPercent        float64   `json:"used_percent"`
	LastError          string    `json:"last_error,omitempty"`
	EventCount         int       `json:"event_count"`
	SubscriberCount    int       `json:"subscriber_count"`
}

// Service exposes a Monitor over a local HTTP API and drives periodic
// refreshes.
type Service struct {
	cfg     ServiceConfig
	monitor *Monitor

	mu           sync.RWMutex
	startedAt    time.Time
	refreshCount int64
	lastSpend    float64
	hasSpend     bool
	nextEventID  int64
	events       []Event

	nextSubID int
	subs      map[int]chan Event
}

// NewService wraps a monitor in the HTTP daemon runtime.
func NewService(cfg ServiceConfig, m *Monitor) *Service {
	if cfg.Interval < time.Minute {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8799"
	}
	return &Service{
		cfg:       cfg,
		monitor:   m,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Run starts the HTTP endpoints and the refresh ticker until ctx is
// canceled.
func (s *Service) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/snapshots", s.handleSnapshots)
	mux.HandleFunc("/v1/refresh", s.handleRefresh)
	mux.HandleFunc("/v1/stream", s.handleStream)

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed snapshots so status is useful immediately.
	s.refreshOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.refreshOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) refreshOnce(ctx context.Context) {
	if !s.monitor.RefreshAll(ctx) {
		return
	}

	spend, _ := s.monitor.Totals()
	now := time.Now()

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	s.refreshCount++
	prev := s.lastSpend
	prevExists := s.hasSpend
	s.lastSpend = spend
	s.hasSpend = true

	if !prevExists || math.Abs(spend-prev) > 1e-9 {
		s.nextEventID++
		evType := "spend_delta"
		if !prevExists {
			evType = "snapshot"
		}
		ev = Event{
			ID:        s.nextEventID,
			Type:      evType,
			Timestamp: now,
			Snapshots: s.monitor.Snapshots(),
			SpendUSD:  spend,
			DeltaUSD:  spend - prev,
		}
		publish = true
	}
	s.mu.Unlock()

	if publish {
		s.publishEvent(ev)
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) status() Status {
	spend, budget := s.monitor.Totals()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		StartedAt:          s.startedAt,
		LastRefreshAt:      s.monitor.LastRefresh(),
		RefreshIntervalSec: int(s.cfg.Interval.Seconds()),
		RefreshCount:       s.refreshCount,
		SpendUSD:           spend,
		BudgetUSD:          budget,
		UsedPercent:        track.PercentOfLimit(budget-spend, budget),
		LastError:          s.monitor.LastError(),
		EventCount:         len(s.events),
		SubscriberCount:    len(s.subs),
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.status())
}

func (s *Service) handleSnapshots(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.monitor.Snapshots())
}

// handleRefresh triggers an immediate refresh. Returns 202 when the
// refresh ran and 409 when one was already in flight.
func (s *Service) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.monitor.RefreshAll(r.Context()) {
		http.Error(w, "refresh already in progress", http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte("refreshed\n"))
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current state immediately.
	spend, _ := s.monitor.Totals()
	writeSSE(w, Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Snapshots: s.monitor.Snapshots(),
		SpendUSD:  spend,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

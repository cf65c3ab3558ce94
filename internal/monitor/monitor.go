// Package monitor owns the refresh loop state: last-known-good snapshots
// per provider, month rollover handling, and budget alert evaluation.
package monitor

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/theirongolddev/aibudget/internal/alert"
	"github.com/theirongolddev/aibudget/internal/config"
	"github.com/theirongolddev/aibudget/internal/model"
	"github.com/theirongolddev/aibudget/internal/providers"
)

// KeySource resolves an API key for a provider. The keyring package's
// Chain satisfies it.
type KeySource interface {
	Get(providerID string) string
}

// Monitor refreshes provider snapshots and keeps the last good value for
// each provider when a fetch fails.
type Monitor struct {
	cfg       config.Config
	resolvers []providers.Resolver
	keys      KeySource
	alerts    *alert.Notifier

	// refreshing admits one refresh at a time; a refresh requested while
	// one runs is dropped, not queued.
	refreshing sync.Mutex

	mu          sync.RWMutex
	snapshots   map[string]model.Snapshot
	lastYear    int
	lastMonth   time.Month
	lastRefresh time.Time
	lastError   string

	now func() time.Time
}

// New builds a monitor. alerts may be nil to disable notifications.
func New(cfg config.Config, resolvers []providers.Resolver, keys KeySource, alerts *alert.Notifier) *Monitor {
	now := time.Now().UTC()
	return &Monitor{
		cfg:       cfg,
		resolvers: resolvers,
		keys:      keys,
		alerts:    alerts,
		snapshots: make(map[string]model.Snapshot),
		lastYear:  now.Year(),
		lastMonth: now.Month(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type fetchResult struct {
	id   string
	snap model.Snapshot
	err  error
}

// RefreshAll fetches every provider concurrently and applies the results.
// It returns false when another refresh is already in flight; the caller's
// request is dropped rather than queued. A provider whose fetch fails
// keeps its previous snapshot untouched.
func (m *Monitor) RefreshAll(ctx context.Context) bool {
	if !m.refreshing.TryLock() {
		return false
	}
	defer m.refreshing.Unlock()

	m.rolloverIfNeeded()

	results := make(chan fetchResult, len(m.resolvers))
	var wg sync.WaitGroup
	for _, r := range m.resolvers {
		wg.Add(1)
		go func(r providers.Resolver) {
			defer wg.Done()
			var key string
			if m.keys != nil {
				key = m.keys.Get(r.ID())
			}
			snap, err := r.Fetch(ctx, key, m.cfg.ProviderBudget(r.ID()))
			results <- fetchResult{id: r.ID(), snap: snap, err: err}
		}(r)
	}
	wg.Wait()
	close(results)

	now := m.now()
	var firstErr string
	var updated []model.Snapshot

	m.mu.Lock()
	for res := range results {
		if res.err != nil {
			log.Printf("monitor: %s fetch failed: %v", res.id, res.err)
			if firstErr == "" {
				firstErr = res.id + ": " + res.err.Error()
			}
			continue
		}
		m.snapshots[res.id] = res.snap
		updated = append(updated, res.snap)
	}
	m.lastRefresh = now
	m.lastError = firstErr
	m.mu.Unlock()

	if m.alerts != nil {
		thresholds := m.cfg.Alerts.Thresholds
		for _, snap := range updated {
			// Flat-plan snapshots show a label instead of metered spend;
			// budget thresholds do not apply to them.
			if snap.Subscription {
				continue
			}
			m.alerts.Check(snap.ProviderID, snap.ProviderName, snap.UsagePercent(), thresholds)
		}
	}
	return true
}

// Refresh runs RefreshAll and returns the resulting snapshots keyed by
// provider ID. ok is false when the refresh was suppressed by one already
// in flight; the map then holds the in-flight refresh's last state.
func (m *Monitor) Refresh(ctx context.Context) (map[string]model.Snapshot, bool) {
	ok := m.RefreshAll(ctx)

	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]model.Snapshot, len(m.snapshots))
	for id, snap := range m.snapshots {
		out[id] = snap
	}
	return out, ok
}

// rolloverIfNeeded clears all cached snapshots and re-arms alerts when
// the UTC calendar month has changed since the last refresh.
func (m *Monitor) rolloverIfNeeded() {
	now := m.now()
	m.mu.Lock()
	rolled := now.Year() != m.lastYear || now.Month() != m.lastMonth
	if rolled {
		m.lastYear = now.Year()
		m.lastMonth = now.Month()
		m.snapshots = make(map[string]model.Snapshot)
	}
	m.mu.Unlock()

	if rolled {
		log.Printf("monitor: month rollover, clearing snapshots and re-arming alerts")
		if m.alerts != nil {
			m.alerts.Reset()
		}
	}
}

// Snapshot returns the last good snapshot for one provider.
func (m *Monitor) Snapshot(providerID string) (model.Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snapshots[providerID]
	return snap, ok
}

// Snapshots returns all cached snapshots sorted by provider ID.
func (m *Monitor) Snapshots() []model.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.Snapshot, 0, len(m.snapshots))
	for _, snap := range m.snapshots {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProviderID < out[j].ProviderID })
	return out
}

// Totals sums spend and budget across cached snapshots.
func (m *Monitor) Totals() (spend, budget float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, snap := range m.snapshots {
		spend += snap.CurrentSpend
		budget += snap.Budget
	}
	return spend, budget
}

// LastRefresh returns when the last refresh completed, zero before the
// first one.
func (m *Monitor) LastRefresh() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRefresh
}

// LastError returns the first provider error from the latest refresh,
// "" when everything succeeded.
func (m *Monitor) LastError() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastError
}

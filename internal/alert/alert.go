// Package alert tracks budget threshold crossings per provider and fires
// each alert at most once per calendar month.
package alert

import (
	"fmt"
	"sort"
	"sync"
)

// Sink delivers a notification to the user. A non-nil error means
// delivery failed and the alert stays armed for the next evaluation.
type Sink interface {
	Notify(title, message string) error
}

// Notifier holds per-month alert state. An alert is keyed by
// (provider, threshold) and moves to sent only after its sink confirms
// delivery, so a failed delivery retries on the next refresh.
type Notifier struct {
	sink Sink

	mu   sync.Mutex
	sent map[string]bool
}

// New returns a notifier delivering through the given sink.
func New(sink Sink) *Notifier {
	return &Notifier{sink: sink, sent: make(map[string]bool)}
}

// Check evaluates usage against the thresholds in ascending order and
// delivers one notification per newly crossed threshold. Crossing several
// thresholds at once sends each of them.
func (n *Notifier) Check(providerID, providerName string, usagePercent float64, thresholds []int) {
	if n.sink == nil {
		return
	}

	ordered := make([]int, len(thresholds))
	copy(ordered, thresholds)
	sort.Ints(ordered)

	n.mu.Lock()
	defer n.mu.Unlock()

	for _, threshold := range ordered {
		key := alertKey(providerID, threshold)
		if usagePercent < float64(threshold) || n.sent[key] {
			continue
		}
		message := fmt.Sprintf("%s has reached %.0f%% of budget (%d%% threshold).",
			providerName, usagePercent, threshold)
		if err := n.sink.Notify("AI Budget Alert", message); err != nil {
			// Leave unsent so the next refresh retries.
			continue
		}
		n.sent[key] = true
	}
}

// Reset clears all sent state, called on month rollover so every
// threshold can fire again.
func (n *Notifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = make(map[string]bool)
}

// Pending reports whether the given alert is still armed.
func (n *Notifier) Pending(providerID string, threshold int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return !n.sent[alertKey(providerID, threshold)]
}

func alertKey(providerID string, threshold int) string {
	return fmt.Sprintf("%s_%d", providerID, threshold)
}

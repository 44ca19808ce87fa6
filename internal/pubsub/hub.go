package pubsub

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hcostelha/scribe/internal/events"
)

// Hub is the central container for all domain brokers.
type Hub struct {
	Agent   *Broker[events.AgentEvent]
	Tool    *Broker[events.ToolEvent]
	Session *Broker[events.SessionEvent]

	done chan struct{}
}

// NewHub creates a new Hub with all domain brokers initialized.
func NewHub() *Hub {
	return &Hub{
		Agent:   NewBroker[events.AgentEvent]("agent"),
		Tool:    NewBroker[events.ToolEvent]("tool"),
		Session: NewBroker[events.SessionEvent]("session"),
		done:    make(chan struct{}),
	}
}

// Shutdown gracefully shuts down all brokers.
func (h *Hub) Shutdown() {
	select {
	case <-h.done:
		return // Already shut down
	default:
		close(h.done)
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() { defer wg.Done(); h.Agent.Shutdown() }()
	go func() { defer wg.Done(); h.Tool.Shutdown() }()
	go func() { defer wg.Done(); h.Session.Shutdown() }()

	wg.Wait()
}

// IsShutdown returns true if the hub has been shut down.
func (h *Hub) IsShutdown() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that's closed when the hub is shut down.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// AllMetrics returns metrics for all brokers.
func (h *Hub) AllMetrics() []BrokerMetrics {
	return []BrokerMetrics{
		h.Agent.Metrics(),
		h.Tool.Metrics(),
		h.Session.Metrics(),
	}
}

// DebugString returns a formatted debug string for all brokers.
func (h *Hub) DebugString() string {
	metrics := h.AllMetrics()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("=== Broker Hub (%d brokers) ===\n", len(metrics)))
	for _, m := range metrics {
		sb.WriteString(fmt.Sprintf(
			"  %s: subs=%d, published=%d, dropped=%d\n",
			m.Name, m.SubscriberCount, m.PublishCount, m.DropCount,
		))
	}
	return sb.String()
}

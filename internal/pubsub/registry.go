package pubsub

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// BrokerInfo provides debug information about a registered broker.
type BrokerInfo interface {
	Name() string
	SubscriberCount() int
	IsShutdown() bool
	Metrics() BrokerMetrics
}

// Registry tracks brokers by name for introspection.
type Registry struct {
	brokers map[string]BrokerInfo
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		brokers: make(map[string]BrokerInfo),
	}
}

// Register adds or replaces a broker.
func (r *Registry) Register(name string, broker BrokerInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.brokers[name] = broker
}

// Unregister removes a broker.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.brokers, name)
}

// Get retrieves a broker by name.
func (r *Registry) Get(name string) (BrokerInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.brokers[name]
	return b, ok
}

// List returns the registered broker names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.brokers))
	for name := range r.brokers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns the metrics of every broker, sorted by name.
func (r *Registry) Snapshot() []BrokerMetrics {
	names := r.List()

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]BrokerMetrics, 0, len(names))
	for _, name := range names {
		if b, ok := r.brokers[name]; ok {
			m := b.Metrics()
			m.Name = name
			out = append(out, m)
		}
	}
	return out
}

// DebugString renders one line per broker.
func (r *Registry) DebugString() string {
	snap := r.Snapshot()

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Broker Registry (%d brokers) ===\n", len(snap))
	for _, m := range snap {
		fmt.Fprintf(&sb, "  %s: subs=%d (peak=%d), published=%d, dropped=%d\n",
			m.Name, m.SubscriberCount, m.SubscriberPeak, m.PublishCount, m.DropCount)
	}
	return sb.String()
}

// Package connectivity tracks reachability of the remote service. The
// actual detection lives outside the core; hosts feed transitions in via
// SetOnline and the core reacts.
package connectivity

import "sync"

// Listener receives reachability transitions.
type Listener func(online bool)

// Monitor holds the current reachability flag and notifies listeners on
// transitions. Notifications run synchronously on the caller's goroutine,
// matching the single-threaded cooperative model of the core.
type Monitor struct {
	mu        sync.Mutex
	online    bool
	listeners []Listener
}

// NewMonitor creates a monitor with the given initial state.
func NewMonitor(online bool) *Monitor {
	return &Monitor{online: online}
}

// Online returns current reachability.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records a reachability change. Listeners fire only on actual
// transitions, not on repeated reports of the same state.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	listeners := make([]Listener, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, listener := range listeners {
		listener(online)
	}
}

// Subscribe registers a transition listener.
func (m *Monitor) Subscribe(listener Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, listener)
}

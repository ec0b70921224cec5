package syncer

import "sync"

// Monitor tracks the process-wide online/offline flag. It is purely
// event-driven: the environment signal (the frontend relaying the browser's
// online/offline events) calls Set, and a transition to online fires the
// registered callbacks exactly once per transition. A transition to offline
// only flips the flag.
type Monitor struct {
	mu       sync.Mutex
	online   bool
	onOnline []func()
	notify   Notifier
}

func NewMonitor(online bool, notify Notifier) *Monitor {
	return &Monitor{online: online, notify: notify}
}

func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// OnOnline registers a callback fired on every offline-to-online transition.
func (m *Monitor) OnOnline(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onOnline = append(m.onOnline, fn)
}

// Set updates the flag and, on an offline-to-online transition, runs the
// callbacks after releasing the lock. Flapping fires one round per online
// transition; overlapping rounds are serialized by the engine's sweep lock.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	wasOnline := m.online
	m.online = online
	callbacks := m.onOnline
	m.mu.Unlock()

	if online == wasOnline {
		return
	}

	if online {
		m.notify.Notify("success", "Back online - Syncing data...")
		for _, fn := range callbacks {
			fn()
		}
	} else {
		m.notify.Notify("warning", "You are offline - Data will be saved locally")
	}
}

package sync

import (
	"context"
	"log"
	"sync"
	"time"
)

// HealthCheck probes the backend once. A nil error means reachable.
type HealthCheck func(ctx context.Context) error

// Monitor tracks backend reachability. It combines two signals: a periodic
// health probe and explicit hints pushed by the desktop shell (the OS-level
// online/offline events). Neither is authoritative; the state is only a hint
// and every network call still handles its own failures.
type Monitor struct {
	mu sync.RWMutex

	check    HealthCheck
	interval time.Duration
	timeout  time.Duration

	isOnline  bool
	onChange  func(online bool)
	onRestore func()

	running  bool
	stopChan chan struct{}
}

// NewMonitor creates a connectivity monitor. interval controls how often the
// probe fires; timeout bounds each probe.
func NewMonitor(check HealthCheck, interval, timeout time.Duration) *Monitor {
	return &Monitor{
		check:    check,
		interval: interval,
		timeout:  timeout,
		stopChan: make(chan struct{}),
	}
}

// OnChange registers a callback invoked on every online/offline transition.
// Must be called before Start.
func (m *Monitor) OnChange(fn func(online bool)) {
	m.onChange = fn
}

// OnRestore registers a callback invoked when connectivity comes back after
// being down. Must be called before Start.
func (m *Monitor) OnRestore(fn func()) {
	m.onRestore = fn
}

// Start probes once immediately, then keeps probing in the background.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	m.probe()
	go m.loop()
}

// Stop halts background probing.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.running = false
	close(m.stopChan)
}

// IsOnline returns the current reachability hint.
func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isOnline
}

// SetOnline pushes an external hint, e.g. the desktop shell's network event.
func (m *Monitor) SetOnline(online bool) {
	m.transition(online)
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.probe()
		case <-m.stopChan:
			return
		}
	}
}

func (m *Monitor) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	m.transition(m.check(ctx) == nil)
}

func (m *Monitor) transition(online bool) {
	m.mu.Lock()
	changed := online != m.isOnline
	m.isOnline = online
	m.mu.Unlock()

	if !changed {
		return
	}

	if online {
		log.Println("🌐 Backend reachable")
	} else {
		log.Println("⚠️  Backend unreachable, switching to offline mode")
	}

	// Callbacks run outside the lock so they may call back into the monitor.
	if m.onChange != nil {
		m.onChange(online)
	}
	if online && m.onRestore != nil {
		m.onRestore()
	}
}

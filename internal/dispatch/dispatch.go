// Package dispatch serializes access to a shellsense.Analyzer. The Analyzer
// has no locking of its own; every front end goes through a Dispatcher.
package dispatch

import (
	"sync"

	"github.com/jward/shellsense"
)

// Dispatcher runs functions against one Analyzer, one at a time.
type Dispatcher struct {
	mu       sync.Mutex
	analyzer *shellsense.Analyzer
	closed   bool
}

// New wraps a.
func New(a *shellsense.Analyzer) *Dispatcher {
	return &Dispatcher{analyzer: a}
}

// Do runs fn with exclusive access to the Analyzer. It reports false and
// skips fn once the Dispatcher is closed.
func (d *Dispatcher) Do(fn func(a *shellsense.Analyzer)) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	fn(d.analyzer)
	return true
}

// Replace swaps in a new Analyzer, closing the old one. Used when a client
// reinitializes with a different workspace root.
func (d *Dispatcher) Replace(a *shellsense.Analyzer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.analyzer != nil && d.analyzer != a {
		d.analyzer.Close()
	}
	d.analyzer = a
	d.closed = false
}

// Close closes the Analyzer. Later calls to Do are no-ops.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	if d.analyzer != nil {
		d.analyzer.Close()
	}
}

package lsp

import (
	"sync"
	"time"

	"go.lsp.dev/protocol"
)

// DefaultDebounceDelay is how long edits must settle before diagnostics run.
const DefaultDebounceDelay = 300 * time.Millisecond

// Debouncer keeps a single pending timer per document. Scheduling again for
// the same URI cancels the prior timer, so only the last-scheduled function
// runs once edits settle.
type Debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	timers map[protocol.DocumentURI]*time.Timer
}

// NewDebouncer creates a debouncer with the given settle delay.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:  delay,
		timers: make(map[protocol.DocumentURI]*time.Timer),
	}
}

// Schedule runs fn after the settle delay, replacing any pending run for uri.
func (d *Debouncer) Schedule(uri protocol.DocumentURI, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.timers[uri]; ok {
		t.Stop()
	}
	d.timers[uri] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.timers, uri)
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops any pending run for uri.
func (d *Debouncer) Cancel(uri protocol.DocumentURI) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.timers[uri]; ok {
		t.Stop()
		delete(d.timers, uri)
	}
}

// Stop cancels every pending run.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for uri, t := range d.timers {
		t.Stop()
		delete(d.timers, uri)
	}
}

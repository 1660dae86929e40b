package detection

import (
	"sync"
	"time"
)

const DefaultDebounceWindow = time.Second

// Debouncer suppresses repeated detections of the same label inside a
// cooldown window measured from the last accepted detection. It is shared by
// the timer-driven loop and manual scans.
type Debouncer struct {
	window time.Duration
	now    func() time.Time

	mu       sync.Mutex
	lastSeen map[string]time.Time
}

func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{
		window:   window,
		now:      time.Now,
		lastSeen: make(map[string]time.Time),
	}
}

// IsNew reports whether label may be emitted now. Suppressed calls do not
// extend the window.
func (d *Debouncer) IsNew(label string) bool {
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if last, ok := d.lastSeen[label]; ok && now.Sub(last) < d.window {
		return false
	}
	d.lastSeen[label] = now
	return true
}

// Clear forgets all history, used when the operator starts a new scan batch.
func (d *Debouncer) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastSeen = make(map[string]time.Time)
}

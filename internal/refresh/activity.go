package refresh

import (
	"sync"
	"time"
)

// Activity tracks when the dashboard was last viewed. It backs the
// scheduler's visibility predicate: with no viewer inside the window the
// dashboard counts as hidden and warm-up ticks are skipped.
type Activity struct {
	window time.Duration

	mu   sync.Mutex
	last time.Time

	// now is swapped out in tests
	now func() time.Time
}

// NewActivity creates a tracker that counts as visible for window after the
// last Touch.
func NewActivity(window time.Duration) *Activity {
	return &Activity{window: window, now: time.Now}
}

// Touch records a viewer right now.
func (a *Activity) Touch() {
	a.mu.Lock()
	a.last = a.now()
	a.mu.Unlock()
}

// Visible reports whether anyone viewed the dashboard within the window.
func (a *Activity) Visible() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.last.IsZero() {
		return false
	}
	return a.now().Sub(a.last) <= a.window
}

package otel

import "sync"

// DefaultRecentSize is the default capacity of a Recent buffer.
const DefaultRecentSize = 256

// Recent keeps the last N events in a circular buffer.
type Recent struct {
	mu     sync.Mutex
	events []Event
	next   int
	full   bool
}

// NewRecent returns a buffer holding up to size events.
func NewRecent(size int) *Recent {
	if size <= 0 {
		size = DefaultRecentSize
	}
	return &Recent{events: make([]Event, size)}
}

// Add stores e, evicting the oldest event when full.
func (r *Recent) Add(e Event) {
	if e.Extra != nil {
		cp := make(map[string]any, len(e.Extra))
		for k, v := range e.Extra {
			cp[k] = v
		}
		e.Extra = cp
	}
	r.mu.Lock()
	r.events[r.next] = e
	r.next++
	if r.next == len(r.events) {
		r.next = 0
		r.full = true
	}
	r.mu.Unlock()
}

// Len returns how many events are held.
func (r *Recent) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.events)
	}
	return r.next
}

// Cap returns the buffer capacity.
func (r *Recent) Cap() int {
	return len(r.events)
}

// Last returns up to n of the newest events, oldest first.
func (r *Recent) Last(n int) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	held := r.next
	if r.full {
		held = len(r.events)
	}
	if n <= 0 || held == 0 {
		return nil
	}
	if n > held {
		n = held
	}

	out := make([]Event, n)
	start := r.next - n
	if start < 0 {
		start += len(r.events)
	}
	for i := 0; i < n; i++ {
		out[i] = r.events[(start+i)%len(r.events)]
	}
	return out
}

// Counts returns how many held events there are per kind.
func (r *Recent) Counts() map[EventKind]int {
	counts := make(map[EventKind]int)
	for _, e := range r.Last(len(r.events)) {
		counts[e.Kind]++
	}
	return counts
}

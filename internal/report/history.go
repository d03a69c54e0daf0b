package report

import "sync"

// DefaultHistorySize is how many finished runs NewMetrics keeps.
const DefaultHistorySize = 20

// History keeps the last N finished runs in a ring buffer.
type History struct {
	runs    []Result
	maxSize int
	mu      sync.RWMutex
}

// NewHistory creates a history holding at most maxSize runs
func NewHistory(maxSize int) *History {
	if maxSize <= 0 {
		maxSize = DefaultHistorySize
	}
	return &History{
		runs:    make([]Result, 0, maxSize),
		maxSize: maxSize,
	}
}

// Record adds a run, dropping the oldest when full
func (h *History) Record(r *Result) {
	if r == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.runs) >= h.maxSize {
		h.runs = h.runs[1:]
	}
	h.runs = append(h.runs, *r)
}

// Recent returns up to n runs, newest first. n <= 0 returns all.
func (h *History) Recent(n int) []Result {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 || n > len(h.runs) {
		n = len(h.runs)
	}

	out := make([]Result, n)
	for i := 0; i < n; i++ {
		out[i] = h.runs[len(h.runs)-1-i]
	}
	return out
}

// Count returns the number of runs held
func (h *History) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.runs)
}

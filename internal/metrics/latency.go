package metrics

import (
	"sync"
	"time"
)

type ToolLatency struct {
	// EWMA of call duration in milliseconds.
	EWMAms float64

	// Counters (rolling since start).
	OK    uint64
	Error uint64

	// Last observed duration.
	LastDuration time.Duration

	// Timestamp of last observation.
	LastAt time.Time
}

// LatencyTracker keeps a smoothed per-tool latency view for the dashboard
// and the admin API. Prometheus histograms carry the long-term data; this is
// the cheap in-process summary.
type LatencyTracker struct {
	mu    sync.RWMutex
	alpha float64
	tools map[string]*ToolLatency
}

// NewLatencyTracker creates a tracker with EWMA smoothing factor alpha.
// Typical alpha: 0.1..0.3 (higher reacts faster).
func NewLatencyTracker(alpha float64) *LatencyTracker {
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.2
	}
	return &LatencyTracker{
		alpha: alpha,
		tools: map[string]*ToolLatency{},
	}
}

func (t *LatencyTracker) ObserveOK(tool string, d time.Duration) {
	t.observe(tool, d, true)
}

func (t *LatencyTracker) ObserveError(tool string, d time.Duration) {
	t.observe(tool, d, false)
}

func (t *LatencyTracker) observe(tool string, d time.Duration, ok bool) {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	l := t.tools[tool]
	if l == nil {
		l = &ToolLatency{}
		t.tools[tool] = l
	}

	ms := float64(d.Milliseconds())
	if ms < 0 {
		ms = 0
	}

	if l.EWMAms == 0 {
		l.EWMAms = ms
	} else {
		l.EWMAms = (t.alpha * ms) + ((1.0 - t.alpha) * l.EWMAms)
	}

	l.LastDuration = d
	l.LastAt = now
	if ok {
		l.OK++
	} else {
		l.Error++
	}
}

func (t *LatencyTracker) Get(tool string) (ToolLatency, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	l := t.tools[tool]
	if l == nil {
		return ToolLatency{}, false
	}
	return *l, true
}

func (t *LatencyTracker) Snapshot() map[string]ToolLatency {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]ToolLatency, len(t.tools))
	for k, v := range t.tools {
		out[k] = *v
	}
	return out
}

package dynstore

import (
	"sync"
	"sync/atomic"
	"time"
)

// latencyWindow bounds the rolling sample used for the average latency.
const latencyWindow = 100

// Metrics is a point-in-time snapshot of store activity.
type Metrics struct {
	ActiveOperations int64
	TotalOperations  int64
	Succeeded        int64
	Failed           int64
	AverageLatency   time.Duration
	LastOperation    time.Time
}

type metricsRecorder struct {
	active    atomic.Int64
	total     atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64

	mu        sync.Mutex
	latencies []time.Duration
	next      int
	last      time.Time
}

func (m *metricsRecorder) opStarted() {
	m.active.Add(1)
}

func (m *metricsRecorder) opFinished(elapsed time.Duration, ok bool) {
	m.active.Add(-1)
	m.total.Add(1)
	if ok {
		m.succeeded.Add(1)
	} else {
		m.failed.Add(1)
	}

	m.mu.Lock()
	if len(m.latencies) < latencyWindow {
		m.latencies = append(m.latencies, elapsed)
	} else {
		m.latencies[m.next] = elapsed
		m.next = (m.next + 1) % latencyWindow
	}
	m.last = time.Now()
	m.mu.Unlock()
}

func (m *metricsRecorder) snapshot() Metrics {
	m.mu.Lock()
	var sum time.Duration
	for _, d := range m.latencies {
		sum += d
	}
	var avg time.Duration
	if len(m.latencies) > 0 {
		avg = sum / time.Duration(len(m.latencies))
	}
	last := m.last
	m.mu.Unlock()

	return Metrics{
		ActiveOperations: m.active.Load(),
		TotalOperations:  m.total.Load(),
		Succeeded:        m.succeeded.Load(),
		Failed:           m.failed.Load(),
		AverageLatency:   avg,
		LastOperation:    last,
	}
}

package infra

import (
	"sync/atomic"
	"time"

	"nft_market/internal/domain"
)

// Metrics counts market commands with atomic operations; it is safe for
// concurrent use and exported through MetricsCollector.
type Metrics struct {
	// Counters per operation
	sells       atomic.Uint64
	updates     atomic.Uint64
	cancels     atomic.Uint64
	buys        atomic.Uint64
	collects    atomic.Uint64
	feeSweeps   atomic.Uint64
	rejected    atomic.Uint64
	eventsSaved atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	activeConnections atomic.Int32
}

// RecordOp records one processed command. Rejected commands only count as
// rejections, never as successful operations.
func (m *Metrics) RecordOp(op string, latencyNs int64, err error) {
	m.latencySumNs.Add(latencyNs)
	m.latencyCount.Add(1)

	if err != nil {
		m.rejected.Add(1)
		return
	}
	switch op {
	case domain.OpSell:
		m.sells.Add(1)
	case domain.OpUpdate:
		m.updates.Add(1)
	case domain.OpCancel:
		m.cancels.Add(1)
	case domain.OpBuy:
		m.buys.Add(1)
	case domain.OpCollect:
		m.collects.Add(1)
	case domain.OpCollectFees:
		m.feeSweeps.Add(1)
	}
}

// RecordEvent records a journaled event.
func (m *Metrics) RecordEvent() {
	m.eventsSaved.Add(1)
}

// IncrementConnections increments active feed connections by 1.
func (m *Metrics) IncrementConnections() {
	m.activeConnections.Add(1)
}

// DecrementConnections decrements active feed connections by 1.
func (m *Metrics) DecrementConnections() {
	m.activeConnections.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	Sells             uint64
	Updates           uint64
	Cancels           uint64
	Buys              uint64
	Collects          uint64
	FeeSweeps         uint64
	Rejected          uint64
	EventsSaved       uint64
	AvgLatencyNs      int64
	ActiveConnections int32
	Timestamp         time.Time
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		Sells:             m.sells.Load(),
		Updates:           m.updates.Load(),
		Cancels:           m.cancels.Load(),
		Buys:              m.buys.Load(),
		Collects:          m.collects.Load(),
		FeeSweeps:         m.feeSweeps.Load(),
		Rejected:          m.rejected.Load(),
		EventsSaved:       m.eventsSaved.Load(),
		AvgLatencyNs:      avgLatency,
		ActiveConnections: m.activeConnections.Load(),
		Timestamp:         time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	for _, c := range []*atomic.Uint64{
		&m.sells, &m.updates, &m.cancels, &m.buys, &m.collects,
		&m.feeSweeps, &m.rejected, &m.eventsSaved, &m.latencyCount,
	} {
		c.Store(0)
	}
	m.latencySumNs.Store(0)
	m.activeConnections.Store(0)
}

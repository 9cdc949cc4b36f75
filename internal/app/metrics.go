package app

import (
	"sync/atomic"
	"time"
)

// Metrics tracks event-loop and render timing with atomic counters so
// observers may read them from any goroutine.
type Metrics struct {
	eventCount   atomic.Uint64
	eventTotalNs atomic.Int64

	renderCount   atomic.Uint64
	renderTotalNs atomic.Int64
	renderMaxNs   atomic.Int64

	resizeCount  atomic.Uint64
	commandCount atomic.Uint64
	editCommits  atomic.Uint64
	editFailures atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordEvent records one handled key event and its processing time.
func (m *Metrics) RecordEvent(d time.Duration) {
	m.eventCount.Add(1)
	m.eventTotalNs.Add(d.Nanoseconds())
}

// RecordRender records one render pass.
func (m *Metrics) RecordRender(d time.Duration) {
	ns := d.Nanoseconds()
	m.renderCount.Add(1)
	m.renderTotalNs.Add(ns)
	for {
		old := m.renderMaxNs.Load()
		if ns <= old || m.renderMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordResize records one settled resize.
func (m *Metrics) RecordResize() {
	m.resizeCount.Add(1)
}

// RecordCommand records one submitted command line.
func (m *Metrics) RecordCommand() {
	m.commandCount.Add(1)
}

// RecordEditCommit records one cell edit commit attempt.
func (m *Metrics) RecordEditCommit(ok bool) {
	if ok {
		m.editCommits.Add(1)
	} else {
		m.editFailures.Add(1)
	}
}

// MetricsSnapshot is a point-in-time view.
type MetricsSnapshot struct {
	Uptime       time.Duration
	EventCount   uint64
	AvgEventNs   int64
	RenderCount  uint64
	AvgRenderNs  int64
	MaxRenderNs  int64
	ResizeCount  uint64
	CommandCount uint64
	EditCommits  uint64
	EditFailures uint64
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	events := m.eventCount.Load()
	renders := m.renderCount.Load()

	var avgEvent, avgRender int64
	if events > 0 {
		avgEvent = m.eventTotalNs.Load() / int64(events)
	}
	if renders > 0 {
		avgRender = m.renderTotalNs.Load() / int64(renders)
	}

	return MetricsSnapshot{
		Uptime:       time.Since(m.startTime),
		EventCount:   events,
		AvgEventNs:   avgEvent,
		RenderCount:  renders,
		AvgRenderNs:  avgRender,
		MaxRenderNs:  m.renderMaxNs.Load(),
		ResizeCount:  m.resizeCount.Load(),
		CommandCount: m.commandCount.Load(),
		EditCommits:  m.editCommits.Load(),
		EditFailures: m.editFailures.Load(),
	}
}

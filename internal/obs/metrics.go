package obs

import (
	"errors"
	"sync/atomic"
	"time"

	"broker/internal/report"
	"broker/pkg/exception"
)

const maxEvent = int(report.EventCancel)

// ErrorKind classifies lifecycle errors for counting.
type ErrorKind uint8

const (
	ErrorKindOther ErrorKind = iota
	ErrorKindUnknownOrder
	ErrorKindOverfill
	ErrorKindTerminalOrder
	ErrorKindInvalidFill
	ErrorKindDuplicate
	ErrorKindValidation
	errorKindEnd
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindUnknownOrder:
		return "unknown_order"
	case ErrorKindOverfill:
		return "overfill"
	case ErrorKindTerminalOrder:
		return "terminal_order"
	case ErrorKindInvalidFill:
		return "invalid_fill"
	case ErrorKindDuplicate:
		return "duplicate"
	case ErrorKindValidation:
		return "validation"
	default:
		return "other"
	}
}

// ClassifyError maps an engine error to its kind.
func ClassifyError(err error) ErrorKind {
	var verr interface{ Has(string) bool }
	switch {
	case errors.Is(err, exception.ErrOrderUnknown):
		return ErrorKindUnknownOrder
	case errors.Is(err, exception.ErrOrderOverfill):
		return ErrorKindOverfill
	case errors.Is(err, exception.ErrOrderTerminal):
		return ErrorKindTerminalOrder
	case errors.Is(err, exception.ErrOrderInvalidFill):
		return ErrorKindInvalidFill
	case errors.Is(err, exception.ErrOrderDuplicate):
		return ErrorKindDuplicate
	case errors.As(err, &verr):
		return ErrorKindValidation
	default:
		return ErrorKindOther
	}
}

// Metrics collects lightweight counters and latency stats.
type Metrics struct {
	inbound         uint64
	handled         uint64
	accepted        uint64
	completed       uint64
	businessRejects uint64
	cancelRejects   uint64
	sendFailures    uint64

	reportCounts [maxEvent + 1]uint64
	errorCounts  [errorKindEnd]uint64

	orderLifetime LatencyStats
	submitLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	Inbound         uint64
	Handled         uint64
	Accepted        uint64
	Completed       uint64
	BusinessRejects uint64
	CancelRejects   uint64
	SendFailures    uint64
	Reports         map[report.Event]uint64
	Errors          map[ErrorKind]uint64
	OrderLifetime   LatencySnapshot
	SubmitLatency   LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncInbound counts an inbound application message.
func (m *Metrics) IncInbound() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.inbound, 1)
}

// IncHandled counts an inbound message whose handler has returned.
func (m *Metrics) IncHandled() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.handled, 1)
}

// ObserveAccepted counts an accepted order and the time spent accepting it.
func (m *Metrics) ObserveAccepted(d time.Duration) {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.accepted, 1)
	m.submitLatency.Observe(d)
}

// ObserveCompleted counts an order reaching a terminal status after living d.
func (m *Metrics) ObserveCompleted(d time.Duration) {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.completed, 1)
	m.orderLifetime.Observe(d)
}

// IncReport counts an emitted execution report.
func (m *Metrics) IncReport(ev report.Event) {
	if m == nil {
		return
	}
	idx := int(ev)
	if idx >= 0 && idx < len(m.reportCounts) {
		atomic.AddUint64(&m.reportCounts[idx], 1)
	}
}

// IncBusinessReject counts an emitted business message reject.
func (m *Metrics) IncBusinessReject() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.businessRejects, 1)
}

// IncCancelReject counts an emitted cancel reject.
func (m *Metrics) IncCancelReject() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.cancelRejects, 1)
}

// IncSendFailure counts a message the transport refused.
func (m *Metrics) IncSendFailure() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.sendFailures, 1)
}

// IncError counts a lifecycle error.
func (m *Metrics) IncError(err error) {
	if m == nil || err == nil {
		return
	}
	atomic.AddUint64(&m.errorCounts[ClassifyError(err)], 1)
}

// Open returns the number of accepted orders not yet terminal.
func (m *Metrics) Open() uint64 {
	if m == nil {
		return 0
	}
	completed := atomic.LoadUint64(&m.completed)
	accepted := atomic.LoadUint64(&m.accepted)
	if completed >= accepted {
		return 0
	}
	return accepted - completed
}

// Settled reports whether expected inbound messages were handled and every
// accepted order reached a terminal status.
func (m *Metrics) Settled(expected uint64) bool {
	if m == nil {
		return false
	}
	return atomic.LoadUint64(&m.handled) >= expected && m.Open() == 0
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	reports := make(map[report.Event]uint64)
	for i := range m.reportCounts {
		if v := atomic.LoadUint64(&m.reportCounts[i]); v > 0 {
			reports[report.Event(i)] = v
		}
	}
	errs := make(map[ErrorKind]uint64)
	for i := range m.errorCounts {
		if v := atomic.LoadUint64(&m.errorCounts[i]); v > 0 {
			errs[ErrorKind(i)] = v
		}
	}
	return Snapshot{
		Inbound:         atomic.LoadUint64(&m.inbound),
		Handled:         atomic.LoadUint64(&m.handled),
		Accepted:        atomic.LoadUint64(&m.accepted),
		Completed:       atomic.LoadUint64(&m.completed),
		BusinessRejects: atomic.LoadUint64(&m.businessRejects),
		CancelRejects:   atomic.LoadUint64(&m.cancelRejects),
		SendFailures:    atomic.LoadUint64(&m.sendFailures),
		Reports:         reports,
		Errors:          errs,
		OrderLifetime:   m.orderLifetime.Snapshot(),
		SubmitLatency:   m.submitLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}

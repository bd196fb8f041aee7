package obs

import (
	"errors"
	"sync"
	"testing"
	"time"

	"broker/internal/order"
	"broker/internal/report"
	"broker/pkg/exception"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pkgerrors "github.com/yanun0323/errors"
)

func TestClassifyError(t *testing.T) {
	_, verr := order.Request{}.Validate()
	require.Error(t, verr)

	testCases := []struct {
		desc     string
		err      error
		expected ErrorKind
	}{
		{"unknown", pkgerrors.Wrap(exception.ErrOrderUnknown, "k"), ErrorKindUnknownOrder},
		{"overfill", pkgerrors.Wrap(exception.ErrOrderOverfill, "k"), ErrorKindOverfill},
		{"terminal", exception.ErrOrderTerminal, ErrorKindTerminalOrder},
		{"invalid fill", exception.ErrOrderInvalidFill, ErrorKindInvalidFill},
		{"duplicate", exception.ErrOrderDuplicate, ErrorKindDuplicate},
		{"validation", verr, ErrorKindValidation},
		{"other", errors.New("boom"), ErrorKindOther},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			assert.Equal(t, tc.expected, ClassifyError(tc.err))
		})
	}
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.IncInbound()
	m.IncInbound()
	m.ObserveAccepted(time.Millisecond)
	m.ObserveAccepted(3 * time.Millisecond)
	m.ObserveCompleted(time.Second)
	m.IncReport(report.EventNew)
	m.IncReport(report.EventNew)
	m.IncReport(report.EventFill)
	m.IncReport(report.Event(200))
	m.IncBusinessReject()
	m.IncCancelReject()
	m.IncSendFailure()
	m.IncError(exception.ErrOrderOverfill)
	m.IncError(nil)

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.Inbound)
	assert.Equal(t, uint64(2), snap.Accepted)
	assert.Equal(t, uint64(1), snap.Completed)
	assert.Equal(t, uint64(1), m.Open())
	assert.Equal(t, uint64(1), snap.BusinessRejects)
	assert.Equal(t, uint64(1), snap.CancelRejects)
	assert.Equal(t, uint64(1), snap.SendFailures)
	assert.Equal(t, map[report.Event]uint64{report.EventNew: 2, report.EventFill: 1}, snap.Reports)
	assert.Equal(t, map[ErrorKind]uint64{ErrorKindOverfill: 1}, snap.Errors)

	assert.Equal(t, LatencySnapshot{Count: 2, Min: time.Millisecond, Max: 3 * time.Millisecond, Avg: 2 * time.Millisecond}, snap.SubmitLatency)
	assert.Equal(t, uint64(1), snap.OrderLifetime.Count)
}

func TestOpenNeverWraps(t *testing.T) {
	m := NewMetrics()
	m.ObserveCompleted(time.Millisecond)
	assert.Zero(t, m.Open())

	m.ObserveAccepted(time.Millisecond)
	m.ObserveAccepted(time.Millisecond)
	assert.Equal(t, uint64(1), m.Open())
}

func TestSettled(t *testing.T) {
	m := NewMetrics()
	assert.True(t, m.Settled(0))

	m.IncInbound()
	assert.False(t, m.Settled(1), "received but not handled yet")

	m.ObserveAccepted(time.Millisecond)
	m.IncHandled()
	assert.False(t, m.Settled(1), "accepted order still open")

	m.ObserveCompleted(time.Millisecond)
	assert.True(t, m.Settled(1))
	assert.False(t, m.Settled(2))

	var nilMetrics *Metrics
	assert.False(t, nilMetrics.Settled(0))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncInbound()
		m.IncHandled()
		m.ObserveAccepted(time.Second)
		m.ObserveCompleted(time.Second)
		m.IncReport(report.EventNew)
		m.IncBusinessReject()
		m.IncCancelReject()
		m.IncSendFailure()
		m.IncError(exception.ErrOrderUnknown)
	})
	assert.Zero(t, m.Open())
	assert.Equal(t, Snapshot{}, m.Snapshot())
}

func TestLatencyStatsConcurrent(t *testing.T) {
	var l LatencyStats
	var wg sync.WaitGroup
	for i := 1; i <= 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Observe(time.Duration(i) * time.Microsecond)
		}()
	}
	wg.Wait()
	l.Observe(-time.Second)

	snap := l.Snapshot()
	assert.Equal(t, uint64(100), snap.Count)
	assert.Equal(t, time.Microsecond, snap.Min)
	assert.Equal(t, 100*time.Microsecond, snap.Max)
	assert.Equal(t, 50500*time.Nanosecond, snap.Avg)
}

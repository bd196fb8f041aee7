package lifecycle

import (
	"sync"
	"testing"
	"time"

	"broker/internal/message"
	"broker/internal/obs"
	"broker/internal/order"
	"broker/internal/report"
	"broker/internal/session"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

type sent struct {
	sid session.ID
	msg message.Typed
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (s *recordingSender) Send(msg message.Typed, id session.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sent{sid: id, msg: msg})
	return nil
}

func (s *recordingSender) all() []sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sent(nil), s.sent...)
}

func (s *recordingSender) reports(sid session.ID, clOrdID string) []message.ExecutionReport {
	var out []message.ExecutionReport
	for _, m := range s.all() {
		if rpt, ok := m.msg.(message.ExecutionReport); ok && m.sid == sid && (rpt.ClOrdID == clOrdID || rpt.OrigClOrdID == clOrdID) {
			out = append(out, rpt)
		}
	}
	return out
}

func (s *recordingSender) allReports() []message.ExecutionReport {
	var out []message.ExecutionReport
	for _, m := range s.all() {
		if rpt, ok := m.msg.(message.ExecutionReport); ok {
			out = append(out, rpt)
		}
	}
	return out
}

func (s *recordingSender) rejects() []message.BusinessMessageReject {
	var out []message.BusinessMessageReject
	for _, m := range s.all() {
		if rej, ok := m.msg.(message.BusinessMessageReject); ok {
			out = append(out, rej)
		}
	}
	return out
}

func (s *recordingSender) cancelRejects() []message.OrderCancelReject {
	var out []message.OrderCancelReject
	for _, m := range s.all() {
		if rej, ok := m.msg.(message.OrderCancelReject); ok {
			out = append(out, rej)
		}
	}
	return out
}

// manualVenue only remembers what it was asked to execute.
type manualVenue struct {
	mu        sync.Mutex
	scheduled []order.Order
	err       error
}

func (v *manualVenue) Schedule(o order.Order, _ Filler) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.err != nil {
		return v.err
	}
	v.scheduled = append(v.scheduled, o)
	return nil
}

// immediateVenue fills the whole order at once, at px when set or else at
// the order's limit price.
type immediateVenue struct {
	px *decimal.Decimal
}

func (v immediateVenue) Schedule(o order.Order, f Filler) error {
	px := o.Price.Decimal
	if v.px != nil {
		px = *v.px
	}
	return f.ApplyFill(o.Key(), o.LeavesQty, px)
}

// asyncVenue fills each order in slices from its own goroutine.
type asyncVenue struct {
	slices int
	wg     sync.WaitGroup
}

func (v *asyncVenue) Schedule(o order.Order, f Filler) error {
	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		part := o.LeavesQty.Div(decimal.NewFromInt(int64(v.slices)))
		for range v.slices {
			_ = f.ApplyFill(o.Key(), part, o.Price.Decimal)
		}
	}()
	return nil
}

type testEnv struct {
	mgr     *Manager
	sender  *recordingSender
	metrics *obs.Metrics
}

func newTestEnv(t *testing.T, venue Venue) testEnv {
	t.Helper()
	sender := &recordingSender{}
	metrics := obs.NewMetrics()
	var n int
	var mu sync.Mutex
	mgr, err := NewManager(Config{
		Builder: report.NewBuilder(report.NewIDGenerator(1)).WithClock(func() time.Time { return testNow }),
		Sender:  sender,
		Venue:   venue,
		Metrics: metrics,
		Now:     func() time.Time { return testNow },
		OrderIDs: func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return "BRK-" + decimal.NewFromInt(int64(n)).String()
		},
	})
	require.NoError(t, err)
	return testEnv{mgr: mgr, sender: sender, metrics: metrics}
}

func field(v string) message.Field {
	if v == "" {
		return message.Field{}
	}
	return message.Field{Value: v, Present: true}
}

func limitRequest(clOrdID, qty, px string) order.Request {
	return order.Request{
		ClOrdID:  field(clOrdID),
		Symbol:   field("ABC"),
		Side:     field(string(message.SideBuy)),
		OrdType:  field(string(message.OrdTypeLimit)),
		Price:    field(px),
		OrderQty: field(qty),
	}
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

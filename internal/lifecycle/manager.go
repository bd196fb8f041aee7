package lifecycle

import (
	"errors"
	"strings"
	"time"

	"broker/internal/message"
	"broker/internal/obs"
	"broker/internal/order"
	"broker/internal/report"
	"broker/internal/session"
	"broker/pkg/exception"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	pkgerrors "github.com/yanun0323/errors"
)

// Config wires the manager to its collaborators. Only Sender is required.
type Config struct {
	Store    *order.Store
	Builder  *report.Builder
	Sender   session.Sender
	Venue    Venue
	Logger   obs.Logger
	Metrics  *obs.Metrics
	OrderIDs func() string
	Now      func() time.Time
}

// Manager applies order events and emits the matching reports.
type Manager struct {
	store    *order.Store
	builder  *report.Builder
	sender   session.Sender
	venue    Venue
	logger   obs.Logger
	metrics  *obs.Metrics
	orderIDs func() string
	now      func() time.Time
}

// NewManager creates a manager. Missing optional collaborators get defaults.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Sender == nil {
		return nil, pkgerrors.Wrap(exception.ErrNilInstance, "sender")
	}
	if cfg.Store == nil {
		cfg.Store = order.NewStore()
	}
	if cfg.Builder == nil {
		cfg.Builder = report.NewBuilder(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = obs.Nop()
	}
	if cfg.OrderIDs == nil {
		cfg.OrderIDs = uuid.NewString
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Manager{
		store:    cfg.Store,
		builder:  cfg.Builder,
		sender:   cfg.Sender,
		venue:    cfg.Venue,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
		orderIDs: cfg.OrderIDs,
		now:      cfg.Now,
	}, nil
}

// Submit accepts a new order from session sid. Invalid or duplicate requests
// are answered with a business message reject and create no record.
func (m *Manager) Submit(sid session.ID, req order.Request) (order.Order, error) {
	start := m.now()
	params, err := req.Validate()
	if err != nil {
		m.sendReject(sid, m.builder.BuildReject(message.MsgTypeNewOrderSingle, err.Error()))
		m.fail("submit", order.Key{Session: sid, ClOrdID: req.ClOrdID.Value}, err)
		return order.Order{}, err
	}

	o := order.New(params, sid, m.orderIDs(), start)
	err = m.store.Insert(o, func(o order.Order) {
		m.metrics.ObserveAccepted(m.now().Sub(start))
		m.emit(o, report.EventNew, m.builder.Build(o, report.EventNew))
	})
	if err != nil {
		text := err.Error()
		if errors.Is(err, exception.ErrOrderDuplicate) {
			text = "duplicate cl_ord_id " + params.ClOrdID
		}
		m.sendReject(sid, m.builder.BuildReject(message.MsgTypeNewOrderSingle, text))
		m.fail("submit", o.Key(), err)
		return order.Order{}, err
	}
	m.logger.Infof("order accepted, key: %s, order id: %s, %s %s %s qty %s", o.Key(), o.OrderID, o.Side, o.Type, o.Symbol, o.OrderQty)

	if m.venue != nil {
		if err := m.venue.Schedule(o, m); err != nil {
			m.logger.Errorf("schedule order, key: %s, err: %+v", o.Key(), err)
			if rerr := m.Reject(o.Key(), "venue unavailable"); rerr != nil {
				return o, rerr
			}
		}
	}
	return o, nil
}

// ApplyFill executes qty at px against the order at key.
func (m *Manager) ApplyFill(key order.Key, qty, px decimal.Decimal) error {
	_, err := m.store.Update(key,
		func(o *order.Order) error {
			return o.Fill(qty, px, m.now())
		},
		func(o order.Order) {
			ev := report.EventPartialFill
			if o.Status == message.OrdStatusFilled {
				ev = report.EventFill
			}
			m.emit(o, ev, m.builder.BuildTrade(o, qty, px))
		},
	)
	if err != nil {
		m.fail("apply fill", key, err)
	}
	return err
}

// Cancel cancels a live order.
func (m *Manager) Cancel(key order.Key) error {
	return m.transit(key, "cancel", report.EventCancel, nil, (*order.Order).Cancel)
}

// Reject rejects an order the venue refused.
func (m *Manager) Reject(key order.Key, reason string) error {
	return m.transit(key, "reject", report.EventReject, func(rpt *message.ExecutionReport) {
		rpt.Text = reason
	}, (*order.Order).Reject)
}

// RequestCancel handles a counterparty cancel request from session sid.
// Failures are answered with an order cancel reject.
func (m *Manager) RequestCancel(sid session.ID, req order.CancelRequest) error {
	if err := req.Validate(); err != nil {
		m.sendReject(sid, m.builder.BuildReject(message.MsgTypeOrderCancelRequest, err.Error()))
		m.fail("request cancel", order.Key{Session: sid, ClOrdID: req.OrigClOrdID.Value}, err)
		return err
	}

	clOrdID := strings.TrimSpace(req.ClOrdID.Value)
	key := order.Key{Session: sid, ClOrdID: strings.TrimSpace(req.OrigClOrdID.Value)}
	err := m.transit(key, "cancel", report.EventCancel, func(rpt *message.ExecutionReport) {
		rpt.OrigClOrdID = rpt.ClOrdID
		rpt.ClOrdID = clOrdID
	}, (*order.Order).Cancel)
	if err == nil {
		return nil
	}

	cur, _ := m.store.Get(key)
	reason, text := message.CxlRejReasonOther, err.Error()
	switch {
	case errors.Is(err, exception.ErrOrderUnknown):
		reason, text = message.CxlRejReasonUnknownOrder, "unknown order "+key.ClOrdID
	case errors.Is(err, exception.ErrOrderTerminal):
		reason, text = message.CxlRejReasonTooLateToCancel, "order already "+cur.Status.String()
	}

	rej := m.builder.BuildCancelReject(cur, clOrdID, key.ClOrdID, reason, text)
	if serr := m.sender.Send(rej, sid); serr != nil {
		m.metrics.IncSendFailure()
		m.logger.Errorf("send cancel reject, session: %s, err: %+v", sid, serr)
	}
	m.metrics.IncCancelReject()
	return err
}

// Order returns a snapshot of one order.
func (m *Manager) Order(key order.Key) (order.Order, bool) {
	return m.store.Get(key)
}

// Orders returns snapshots of every order.
func (m *Manager) Orders() []order.Order {
	return m.store.Snapshot()
}

func (m *Manager) transit(key order.Key, op string, ev report.Event, decorate func(*message.ExecutionReport), fn func(*order.Order, time.Time) error) error {
	_, err := m.store.Update(key,
		func(o *order.Order) error {
			return fn(o, m.now())
		},
		func(o order.Order) {
			rpt := m.builder.Build(o, ev)
			if decorate != nil {
				decorate(&rpt)
			}
			m.emit(o, ev, rpt)
		},
	)
	if err != nil {
		m.fail(op, key, err)
	}
	return err
}

// emit hands a report to the transport. It runs under the order's lock.
func (m *Manager) emit(o order.Order, ev report.Event, rpt message.ExecutionReport) {
	if err := m.sender.Send(rpt, o.Session); err != nil {
		m.metrics.IncSendFailure()
		m.logger.Errorf("send execution report, key: %s, exec id: %s, err: %+v", o.Key(), rpt.ExecID, err)
	}
	m.metrics.IncReport(ev)
	if o.IsTerminal() {
		m.metrics.ObserveCompleted(o.UpdatedAt.Sub(o.CreatedAt))
		m.logger.Infof("order done, key: %s, status: %s, cum: %s, avg px: %s", o.Key(), o.Status, o.CumQty, o.AvgPx)
	}
}

func (m *Manager) sendReject(sid session.ID, rej message.BusinessMessageReject) {
	if err := m.sender.Send(rej, sid); err != nil {
		m.metrics.IncSendFailure()
		m.logger.Errorf("send business reject, session: %s, err: %+v", sid, err)
	}
	m.metrics.IncBusinessReject()
}

func (m *Manager) fail(op string, key order.Key, err error) {
	m.metrics.IncError(err)
	m.logger.Errorf("%s, key: %s, err: %+v", op, key, err)
}

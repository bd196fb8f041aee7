package order

import (
	"time"

	"broker/internal/message"
	"broker/internal/session"
	"broker/pkg/exception"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
)

// Key identifies an order. Client order ids are only unique within one session.
type Key struct {
	Session session.ID
	ClOrdID string
}

func (k Key) String() string {
	return string(k.Session) + "/" + k.ClOrdID
}

// Order holds the engine's view of an order.
type Order struct {
	ClOrdID   string
	OrderID   string
	Symbol    string
	Side      message.Side
	Type      message.OrdType
	Price     decimal.NullDecimal
	OrderQty  decimal.Decimal
	CumQty    decimal.Decimal
	LeavesQty decimal.Decimal
	AvgPx     decimal.Decimal
	Status    message.OrdStatus
	Session   session.ID
	CreatedAt time.Time
	UpdatedAt time.Time

	notional decimal.Decimal
}

// New creates an accepted order in New status.
func New(params Params, sid session.ID, orderID string, now time.Time) Order {
	return Order{
		ClOrdID:   params.ClOrdID,
		OrderID:   orderID,
		Symbol:    params.Symbol,
		Side:      params.Side,
		Type:      params.Type,
		Price:     params.Price,
		OrderQty:  params.OrderQty,
		CumQty:    decimal.Zero,
		LeavesQty: params.OrderQty,
		AvgPx:     decimal.Zero,
		Status:    message.OrdStatusNew,
		Session:   sid,
		CreatedAt: now,
		UpdatedAt: now,
		notional:  decimal.Zero,
	}
}

// Key returns the store key of the order.
func (o Order) Key() Key {
	return Key{Session: o.Session, ClOrdID: o.ClOrdID}
}

// IsTerminal reports whether the order can no longer change.
func (o Order) IsTerminal() bool {
	return IsTerminal(o.Status)
}

// Check verifies the quantity invariants.
func (o Order) Check() error {
	if !o.CumQty.Add(o.LeavesQty).Equal(o.OrderQty) {
		return errors.Wrapf(exception.ErrOrderInvariant, "cum %s + leaves %s != qty %s", o.CumQty, o.LeavesQty, o.OrderQty)
	}
	if o.CumQty.IsNegative() || o.LeavesQty.IsNegative() {
		return errors.Wrapf(exception.ErrOrderInvariant, "negative quantity, cum %s, leaves %s", o.CumQty, o.LeavesQty)
	}
	return nil
}

// Fill applies an execution of qty at px.
func (o *Order) Fill(qty, px decimal.Decimal, now time.Time) error {
	if o.IsTerminal() {
		return errors.Wrapf(exception.ErrOrderTerminal, "status: %s", o.Status)
	}
	if !qty.IsPositive() || !px.IsPositive() {
		return errors.Wrapf(exception.ErrOrderInvalidFill, "qty: %s, px: %s", qty, px)
	}
	if qty.GreaterThan(o.LeavesQty) {
		return errors.Wrapf(exception.ErrOrderOverfill, "qty: %s, leaves: %s", qty, o.LeavesQty)
	}

	next := message.OrdStatusPartiallyFilled
	if qty.Equal(o.LeavesQty) {
		next = message.OrdStatusFilled
	}
	if !CanTransition(o.Status, next) {
		return errors.Wrapf(exception.ErrOrderTerminal, "%s -> %s", o.Status, next)
	}

	o.CumQty = o.CumQty.Add(qty)
	o.LeavesQty = o.LeavesQty.Sub(qty)
	o.notional = o.notional.Add(qty.Mul(px))
	o.AvgPx = o.notional.Div(o.CumQty)
	o.Status = next
	o.UpdatedAt = now
	return nil
}

// Cancel moves a live order to Canceled. Quantities are left untouched.
func (o *Order) Cancel(now time.Time) error {
	return o.moveTo(message.OrdStatusCanceled, now)
}

// Reject moves a New order to Rejected.
func (o *Order) Reject(now time.Time) error {
	return o.moveTo(message.OrdStatusRejected, now)
}

func (o *Order) moveTo(status message.OrdStatus, now time.Time) error {
	if o.IsTerminal() {
		return errors.Wrapf(exception.ErrOrderTerminal, "%s -> %s", o.Status, status)
	}
	if !CanTransition(o.Status, status) {
		return errors.Wrapf(exception.ErrOrderInvalidTransition, "%s -> %s", o.Status, status)
	}
	o.Status = status
	o.UpdatedAt = now
	return nil
}

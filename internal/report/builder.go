package report

import (
	"time"

	"broker/internal/message"
	"broker/internal/order"

	"github.com/shopspring/decimal"
)

// Builder turns order snapshots into outbound messages. Apart from drawing
// execution ids it holds no state.
type Builder struct {
	execIDs *IDGenerator
	now     func() time.Time
}

// NewBuilder creates a builder drawing execution ids from ids.
func NewBuilder(ids *IDGenerator) *Builder {
	if ids == nil {
		ids = NewIDGenerator(0)
	}
	return &Builder{
		execIDs: ids,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithClock swaps the clock used for transact times.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	if now != nil {
		b.now = func() time.Time { return now().UTC() }
	}
	return b
}

// Build creates the execution report of an order snapshot for ev.
func (b *Builder) Build(o order.Order, ev Event) message.ExecutionReport {
	execType, ordStatus := ev.Types()
	rpt := message.ExecutionReport{
		OrderID:      o.OrderID,
		ClOrdID:      o.ClOrdID,
		ExecID:       b.execIDs.Next(),
		ExecType:     execType,
		OrdStatus:    ordStatus,
		Symbol:       o.Symbol,
		Side:         o.Side,
		OrdType:      o.Type,
		OrderQty:     o.OrderQty,
		CumQty:       o.CumQty,
		LeavesQty:    o.LeavesQty,
		AvgPx:        o.AvgPx,
		TransactTime: b.now(),
	}
	if o.Type == message.OrdTypeLimit && o.Price.Valid {
		px := o.Price.Decimal
		rpt.Price = &px
	}
	return rpt
}

// BuildTrade creates the report of a fill of lastQty at lastPx, already
// applied to the snapshot.
func (b *Builder) BuildTrade(o order.Order, lastQty, lastPx decimal.Decimal) message.ExecutionReport {
	ev := EventPartialFill
	if o.Status == message.OrdStatusFilled {
		ev = EventFill
	}
	rpt := b.Build(o, ev)
	rpt.LastQty = &lastQty
	rpt.LastPx = &lastPx
	return rpt
}

// BuildReject creates the reject of an application message that failed validation.
func (b *Builder) BuildReject(ref message.MsgType, text string) message.BusinessMessageReject {
	return message.BusinessMessageReject{
		RefMsgType:           ref,
		BusinessRejectReason: message.BusinessRejectReasonOther,
		Text:                 text,
	}
}

// BuildUnsupported creates the reject of a message type without a handler.
func (b *Builder) BuildUnsupported(ref message.MsgType) message.BusinessMessageReject {
	return message.BusinessMessageReject{
		RefMsgType:           ref,
		BusinessRejectReason: message.BusinessRejectReasonUnsupportedMessageType,
		Text:                 "unsupported message type " + string(ref),
	}
}

// BuildCancelReject creates the refusal of a cancel request. o is the zero
// order when the original order is unknown.
func (b *Builder) BuildCancelReject(o order.Order, clOrdID, origClOrdID string, reason message.CxlRejReason, text string) message.OrderCancelReject {
	rej := message.OrderCancelReject{
		OrderID:          o.OrderID,
		ClOrdID:          clOrdID,
		OrigClOrdID:      origClOrdID,
		OrdStatus:        o.Status,
		CxlRejResponseTo: message.CxlRejResponseToCancelRequest,
		CxlRejReason:     reason,
		Text:             text,
	}
	if rej.OrderID == "" {
		rej.OrderID = "NONE"
	}
	if rej.OrdStatus == "" {
		rej.OrdStatus = message.OrdStatusRejected
	}
	return rej
}

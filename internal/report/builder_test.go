package report

import (
	"testing"
	"time"

	"broker/internal/message"
	"broker/internal/order"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func testOrder(t *testing.T, ordType message.OrdType) order.Order {
	t.Helper()
	params := order.Params{
		ClOrdID:  "ORDER_1",
		Symbol:   "COMPANY_SYMBOL",
		Side:     message.SideBuy,
		Type:     ordType,
		OrderQty: decimal.NewFromInt(100),
	}
	if ordType == message.OrdTypeLimit {
		params.Price = decimal.NewNullDecimal(decimal.NewFromInt(150))
	}
	return order.New(params, "S1", "OID-1", testNow)
}

func newTestBuilder() *Builder {
	return NewBuilder(NewIDGenerator(1)).WithClock(func() time.Time { return testNow })
}

func TestBuildEvents(t *testing.T) {
	testCases := []struct {
		ev       Event
		execType message.ExecType
		status   message.OrdStatus
	}{
		{EventNew, message.ExecTypeNew, message.OrdStatusNew},
		{EventPartialFill, message.ExecTypeTrade, message.OrdStatusPartiallyFilled},
		{EventFill, message.ExecTypeTrade, message.OrdStatusFilled},
		{EventReject, message.ExecTypeRejected, message.OrdStatusRejected},
		{EventCancel, message.ExecTypeCanceled, message.OrdStatusCanceled},
	}

	b := newTestBuilder()
	o := testOrder(t, message.OrdTypeLimit)
	for _, tc := range testCases {
		t.Run(tc.ev.String(), func(t *testing.T) {
			rpt := b.Build(o, tc.ev)
			assert.Equal(t, tc.execType, rpt.ExecType)
			assert.Equal(t, tc.status, rpt.OrdStatus)
			assert.Equal(t, "OID-1", rpt.OrderID)
			assert.Equal(t, "ORDER_1", rpt.ClOrdID)
			assert.Equal(t, testNow, rpt.TransactTime)
			assert.Equal(t, message.MsgTypeExecutionReport, rpt.MsgType())
		})
	}
}

func TestBuildPriceOnlyForLimit(t *testing.T) {
	b := newTestBuilder()

	limit := b.Build(testOrder(t, message.OrdTypeLimit), EventNew)
	require.NotNil(t, limit.Price)
	assert.True(t, limit.Price.Equal(decimal.NewFromInt(150)))

	market := b.Build(testOrder(t, message.OrdTypeMarket), EventNew)
	assert.Nil(t, market.Price)
}

func TestBuildTrade(t *testing.T) {
	b := newTestBuilder()
	o := testOrder(t, message.OrdTypeLimit)

	require.NoError(t, o.Fill(decimal.NewFromInt(40), decimal.NewFromInt(150), testNow))
	rpt := b.BuildTrade(o, decimal.NewFromInt(40), decimal.NewFromInt(150))
	assert.Equal(t, message.OrdStatusPartiallyFilled, rpt.OrdStatus)
	require.NotNil(t, rpt.LastQty)
	require.NotNil(t, rpt.LastPx)
	assert.True(t, rpt.LastQty.Equal(decimal.NewFromInt(40)))
	assert.True(t, rpt.CumQty.Equal(decimal.NewFromInt(40)))
	assert.True(t, rpt.LeavesQty.Equal(decimal.NewFromInt(60)))

	require.NoError(t, o.Fill(decimal.NewFromInt(60), decimal.NewFromInt(150), testNow))
	rpt = b.BuildTrade(o, decimal.NewFromInt(60), decimal.NewFromInt(150))
	assert.Equal(t, message.ExecTypeTrade, rpt.ExecType)
	assert.Equal(t, message.OrdStatusFilled, rpt.OrdStatus)
	assert.True(t, rpt.AvgPx.Equal(decimal.NewFromInt(150)))
}

func TestExecIDsAreUnique(t *testing.T) {
	b := newTestBuilder()
	o := testOrder(t, message.OrdTypeLimit)

	seen := make(map[string]struct{})
	for range 1000 {
		id := b.Build(o, EventNew).ExecID
		_, dup := seen[id]
		require.Falsef(t, dup, "exec id %s reused", id)
		seen[id] = struct{}{}
	}
}

func TestBuildRejects(t *testing.T) {
	b := newTestBuilder()

	rej := b.BuildReject(message.MsgTypeNewOrderSingle, "missing order_qty")
	assert.Equal(t, message.MsgTypeBusinessMessageReject, rej.MsgType())
	assert.Equal(t, message.MsgTypeNewOrderSingle, rej.RefMsgType)
	assert.Equal(t, message.BusinessRejectReasonOther, rej.BusinessRejectReason)
	assert.Equal(t, "missing order_qty", rej.Text)

	unsupported := b.BuildUnsupported("AE")
	assert.Equal(t, message.BusinessRejectReasonUnsupportedMessageType, unsupported.BusinessRejectReason)
	assert.Equal(t, message.MsgType("AE"), unsupported.RefMsgType)
	assert.Equal(t, "unsupported message type AE", unsupported.Text)
}

func TestBuildCancelReject(t *testing.T) {
	b := newTestBuilder()

	unknown := b.BuildCancelReject(order.Order{}, "CXL_1", "NOPE", message.CxlRejReasonUnknownOrder, "unknown order NOPE")
	assert.Equal(t, "NONE", unknown.OrderID)
	assert.Equal(t, message.OrdStatusRejected, unknown.OrdStatus)
	assert.Equal(t, message.CxlRejReasonUnknownOrder, unknown.CxlRejReason)
	assert.Equal(t, message.CxlRejResponseToCancelRequest, unknown.CxlRejResponseTo)

	o := testOrder(t, message.OrdTypeLimit)
	require.NoError(t, o.Cancel(testNow))
	late := b.BuildCancelReject(o, "CXL_2", "ORDER_1", message.CxlRejReasonTooLateToCancel, "order already Canceled")
	assert.Equal(t, "OID-1", late.OrderID)
	assert.Equal(t, message.OrdStatusCanceled, late.OrdStatus)
	assert.Equal(t, "ORDER_1", late.OrigClOrdID)
	assert.Equal(t, "CXL_2", late.ClOrdID)
}

func TestEventForStatus(t *testing.T) {
	for ev := EventNew; ev <= EventCancel; ev++ {
		_, status := ev.Types()
		got, ok := EventForStatus(status)
		require.True(t, ok)
		assert.Equal(t, ev, got)
	}
	_, ok := EventForStatus(message.OrdStatusDoneForDay)
	assert.False(t, ok)
}

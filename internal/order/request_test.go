package order

import (
	"testing"

	"broker/internal/message"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrderSingle(fields map[message.Tag]string) message.Message {
	msg := message.New(message.MsgTypeNewOrderSingle)
	for tag, value := range fields {
		msg = msg.Set(tag, value)
	}
	return msg
}

func validFields() map[message.Tag]string {
	return map[message.Tag]string{
		message.TagClOrdID:  "ORDER_1",
		message.TagSymbol:   "COMPANY_SYMBOL",
		message.TagSide:     "1",
		message.TagOrdType:  "2",
		message.TagPrice:    "150.00",
		message.TagOrderQty: "100",
	}
}

func TestRequestValidate(t *testing.T) {
	params, err := RequestFromMessage(newOrderSingle(validFields())).Validate()
	require.NoError(t, err)
	assert.Equal(t, "ORDER_1", params.ClOrdID)
	assert.Equal(t, "COMPANY_SYMBOL", params.Symbol)
	assert.Equal(t, message.SideBuy, params.Side)
	assert.Equal(t, message.OrdTypeLimit, params.Type)
	require.True(t, params.Price.Valid)
	assert.True(t, params.Price.Decimal.Equal(dec(t, "150")))
	assert.True(t, params.OrderQty.Equal(dec(t, "100")))
}

func TestRequestValidateIssues(t *testing.T) {
	testCases := []struct {
		desc     string
		mutate   func(f map[message.Tag]string)
		fields   []string
		expected string
	}{
		{
			"missing order qty",
			func(f map[message.Tag]string) { delete(f, message.TagOrderQty) },
			[]string{FieldOrderQty},
			"missing order_qty",
		},
		{
			"empty cl ord id counts as missing",
			func(f map[message.Tag]string) { f[message.TagClOrdID] = "" },
			[]string{FieldClOrdID},
			"missing cl_ord_id",
		},
		{
			"whitespace cl ord id counts as missing",
			func(f map[message.Tag]string) { f[message.TagClOrdID] = "   " },
			[]string{FieldClOrdID},
			"missing cl_ord_id",
		},
		{
			"blank symbol and side count as missing",
			func(f map[message.Tag]string) {
				f[message.TagSymbol] = "  "
				f[message.TagSide] = "\t"
			},
			[]string{FieldSymbol, FieldSide},
			"missing symbol; missing side",
		},
		{
			"non numeric qty",
			func(f map[message.Tag]string) { f[message.TagOrderQty] = "abc" },
			[]string{FieldOrderQty},
			"invalid order_qty: abc is not a positive number",
		},
		{
			"zero qty",
			func(f map[message.Tag]string) { f[message.TagOrderQty] = "0" },
			[]string{FieldOrderQty},
			"invalid order_qty: 0 is not a positive number",
		},
		{
			"limit without price",
			func(f map[message.Tag]string) { delete(f, message.TagPrice) },
			[]string{FieldPrice},
			"missing price",
		},
		{
			"limit with negative price",
			func(f map[message.Tag]string) { f[message.TagPrice] = "-1" },
			[]string{FieldPrice},
			"invalid price: -1 is not a positive number",
		},
		{
			"unknown side",
			func(f map[message.Tag]string) { f[message.TagSide] = "7" },
			[]string{FieldSide},
			"invalid side: 7",
		},
		{
			"unsupported ord type",
			func(f map[message.Tag]string) { f[message.TagOrdType] = "3" },
			[]string{FieldOrdType},
			"unsupported ord_type: 3",
		},
		{
			"several issues at once",
			func(f map[message.Tag]string) {
				delete(f, message.TagSymbol)
				delete(f, message.TagOrderQty)
			},
			[]string{FieldSymbol, FieldOrderQty},
			"missing symbol; missing order_qty",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			fields := validFields()
			tc.mutate(fields)

			_, err := RequestFromMessage(newOrderSingle(fields)).Validate()
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Issues, len(tc.fields))
			for _, field := range tc.fields {
				assert.Truef(t, verr.Has(field), "issues should name %s", field)
			}
			assert.Equal(t, tc.expected, err.Error())
		})
	}
}

func TestRequestValidateMarketIgnoresPrice(t *testing.T) {
	fields := validFields()
	fields[message.TagOrdType] = "1"
	fields[message.TagPrice] = "garbage"

	params, err := RequestFromMessage(newOrderSingle(fields)).Validate()
	require.NoError(t, err)
	assert.Equal(t, message.OrdTypeMarket, params.Type)
	assert.False(t, params.Price.Valid)
}

func TestCancelRequestValidate(t *testing.T) {
	msg := message.New(message.MsgTypeOrderCancelRequest).
		Set(message.TagClOrdID, "CXL_1").
		Set(message.TagOrigClOrdID, "ORDER_1")
	req := CancelRequestFromMessage(msg)
	require.NoError(t, req.Validate())
	assert.Equal(t, "ORDER_1", req.OrigClOrdID.Value)

	err := CancelRequestFromMessage(message.New(message.MsgTypeOrderCancelRequest)).Validate()
	require.Error(t, err)
	assert.Equal(t, "missing cl_ord_id; missing orig_cl_ord_id", err.Error())
}

func TestRequestValidateBlankValues(t *testing.T) {
	blank := message.Field{Value: "   ", Present: true}
	padded := func(v string) message.Field { return message.Field{Value: " " + v + " ", Present: true} }

	_, err := Request{
		ClOrdID:  blank,
		Symbol:   blank,
		Side:     padded("1"),
		OrdType:  padded("2"),
		Price:    padded("150"),
		OrderQty: padded("100"),
	}.Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Issues, 2)
	assert.Equal(t, "missing cl_ord_id; missing symbol", err.Error())

	params, err := Request{
		ClOrdID:  padded("ORDER_1"),
		Symbol:   padded("ABC"),
		Side:     padded("1"),
		OrdType:  padded("2"),
		Price:    padded("150"),
		OrderQty: padded("100"),
	}.Validate()
	require.NoError(t, err)
	assert.Equal(t, "ORDER_1", params.ClOrdID)
	assert.Equal(t, "ABC", params.Symbol)

	err = CancelRequest{ClOrdID: blank, OrigClOrdID: padded("ORDER_1")}.Validate()
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has(FieldClOrdID))
	assert.False(t, verr.Has(FieldOrigClOrdID))
}

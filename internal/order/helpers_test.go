package order

import (
	"testing"
	"time"

	"broker/internal/message"
	"broker/internal/session"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func newLimit(t *testing.T, clOrdID, qty, px string) Order {
	t.Helper()
	params := Params{
		ClOrdID:  clOrdID,
		Symbol:   "COMPANY_SYMBOL",
		Side:     message.SideBuy,
		Type:     message.OrdTypeLimit,
		Price:    decimal.NewNullDecimal(dec(t, px)),
		OrderQty: dec(t, qty),
	}
	return New(params, session.ID("S1"), "OID-"+clOrdID, testNow)
}

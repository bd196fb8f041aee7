package lifecycle

import (
	"broker/internal/order"

	"github.com/shopspring/decimal"
)

// Venue decides when and how an accepted order executes. Schedule must not
// block the caller.
type Venue interface {
	Schedule(o order.Order, f Filler) error
}

// Filler receives the venue's decisions for a scheduled order.
type Filler interface {
	ApplyFill(key order.Key, qty, px decimal.Decimal) error
	Reject(key order.Key, reason string) error
}

package exception

import "github.com/yanun0323/errors"

var (
	ErrOrderUnknown           = errors.New("order: unknown order")
	ErrOrderDuplicate         = errors.New("order: duplicate client order id")
	ErrOrderOverfill          = errors.New("order: fill quantity exceeds leaves quantity")
	ErrOrderTerminal          = errors.New("order: order is in a terminal status")
	ErrOrderInvalidTransition = errors.New("order: invalid status transition")
	ErrOrderInvalidFill       = errors.New("order: invalid fill")
	ErrOrderInvariant         = errors.New("order: quantity invariant violated")
)

// Venue errors
var (
	ErrVenueClosed = errors.New("venue: closed")
)

package venue

import (
	"time"

	"broker/pkg/exception"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
)

const (
	defaultWorkers   = 8
	defaultQueueSize = 1024
)

// Config controls how the simulator executes orders.
type Config struct {
	// Delay is the wait before each fill slice.
	Delay time.Duration
	// Jitter adds a random extra wait in [0, Jitter).
	Jitter time.Duration
	// Slices splits an order into this many fills.
	Slices int
	// RejectRate is the chance an order is rejected instead of filled.
	RejectRate float64
	// Seed feeds the random source, zero picks the current time.
	Seed int64
	// MarketPrices are the fill prices of market orders by symbol.
	MarketPrices map[string]decimal.Decimal

	Workers   int
	QueueSize int
}

// Validate ensures the config is within supported ranges.
func (c Config) Validate() error {
	if c.Delay < 0 {
		return errors.Wrap(exception.ErrInvalidArgument, "delay must be >= 0")
	}
	if c.Jitter < 0 {
		return errors.Wrap(exception.ErrInvalidArgument, "jitter must be >= 0")
	}
	if c.Slices < 0 {
		return errors.Wrap(exception.ErrInvalidArgument, "slices must be >= 0")
	}
	if c.RejectRate < 0 || c.RejectRate > 1 {
		return errors.Wrap(exception.ErrInvalidArgument, "rejectRate must be between 0 and 1")
	}
	for symbol, px := range c.MarketPrices {
		if !px.IsPositive() {
			return errors.Wrapf(exception.ErrInvalidArgument, "market price of %s must be positive", symbol)
		}
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Slices <= 0 {
		c.Slices = 1
	}
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UTC().UnixNano()
	}
	return c
}

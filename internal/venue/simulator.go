package venue

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"broker/internal/lifecycle"
	"broker/internal/message"
	"broker/internal/obs"
	"broker/internal/order"
	"broker/pkg/exception"

	"github.com/shopspring/decimal"
	pkgerrors "github.com/yanun0323/errors"
)

const sliceScale = 8

// Simulator executes accepted orders after a delay, optionally in slices.
// Each pending slice waits on its own timer and is applied by a worker pool.
type Simulator struct {
	cfg    Config
	logger obs.Logger
	prices atomic.Pointer[map[string]decimal.Decimal]

	rngMu sync.Mutex
	rng   *rand.Rand

	queue   chan step
	done    chan struct{}
	running atomic.Bool
	workers sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	pending sync.WaitGroup
}

type step struct {
	key    order.Key
	symbol string
	kind   message.OrdType
	price  decimal.NullDecimal
	plan   []decimal.Decimal
	idx    int
	px     decimal.Decimal
	filler lifecycle.Filler
}

// NewSimulator creates a simulator. Call Run to start executing.
func NewSimulator(cfg Config, logger obs.Logger) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = obs.Nop()
	}
	s := &Simulator{
		cfg:    cfg,
		logger: logger,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		queue:  make(chan step, cfg.QueueSize),
		done:   make(chan struct{}),
	}
	s.SetMarketPrices(cfg.MarketPrices)
	return s, nil
}

// SetMarketPrices replaces the market order reference prices.
func (s *Simulator) SetMarketPrices(prices map[string]decimal.Decimal) {
	cp := make(map[string]decimal.Decimal, len(prices))
	for symbol, px := range prices {
		cp[symbol] = px
	}
	s.prices.Store(&cp)
}

// MarketPrice returns the reference price of symbol.
func (s *Simulator) MarketPrice(symbol string) (decimal.Decimal, bool) {
	prices := s.prices.Load()
	if prices == nil {
		return decimal.Zero, false
	}
	px, ok := (*prices)[symbol]
	return px, ok
}

// Run starts the worker pool. It returns immediately.
func (s *Simulator) Run(ctx context.Context) {
	if s.running.Swap(true) {
		return
	}
	for range s.cfg.Workers {
		s.workers.Add(1)
		go s.work(ctx)
	}
}

// Schedule plans the execution of o and reports back through f.
func (s *Simulator) Schedule(o order.Order, f lifecycle.Filler) error {
	if f == nil {
		return pkgerrors.Wrap(exception.ErrNilInstance, "filler")
	}
	return s.after(step{
		key:    o.Key(),
		symbol: o.Symbol,
		kind:   o.Type,
		price:  o.Price,
		plan:   Slice(o.LeavesQty, s.cfg.Slices),
		filler: f,
	})
}

// Close stops every pending execution and waits for the workers.
func (s *Simulator) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	s.mu.Unlock()

	s.pending.Wait()
	s.workers.Wait()
}

func (s *Simulator) after(st step) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return exception.ErrVenueClosed
	}

	s.pending.Add(1)
	delay := s.delay()
	go func() {
		defer s.pending.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-s.done:
			return
		}
		select {
		case s.queue <- st:
		case <-s.done:
		}
	}()
	return nil
}

func (s *Simulator) work(ctx context.Context) {
	defer s.workers.Done()
	for {
		select {
		case st := <-s.queue:
			s.execute(st)
		case <-ctx.Done():
			return
		case <-s.done:
			return
		}
	}
}

func (s *Simulator) execute(st step) {
	if st.idx == 0 {
		if s.roll() {
			s.reject(st, "simulated venue reject")
			return
		}
		px, ok := s.fillPrice(st)
		if !ok {
			s.reject(st, "no reference price for "+st.symbol)
			return
		}
		st.px = px
	}

	if err := st.filler.ApplyFill(st.key, st.plan[st.idx], st.px); err != nil {
		if !errors.Is(err, exception.ErrOrderTerminal) {
			s.logger.Errorf("simulated fill, key: %s, err: %+v", st.key, err)
		}
		return
	}

	st.idx++
	if st.idx < len(st.plan) {
		if err := s.after(st); err != nil && !errors.Is(err, exception.ErrVenueClosed) {
			s.logger.Errorf("schedule next slice, key: %s, err: %+v", st.key, err)
		}
	}
}

func (s *Simulator) reject(st step, reason string) {
	if err := st.filler.Reject(st.key, reason); err != nil && !errors.Is(err, exception.ErrOrderTerminal) {
		s.logger.Errorf("simulated reject, key: %s, err: %+v", st.key, err)
	}
}

func (s *Simulator) fillPrice(st step) (decimal.Decimal, bool) {
	if st.kind == message.OrdTypeLimit && st.price.Valid {
		return st.price.Decimal, true
	}
	return s.MarketPrice(st.symbol)
}

func (s *Simulator) delay() time.Duration {
	d := s.cfg.Delay
	if s.cfg.Jitter > 0 {
		s.rngMu.Lock()
		d += time.Duration(s.rng.Int63n(int64(s.cfg.Jitter)))
		s.rngMu.Unlock()
	}
	return d
}

func (s *Simulator) roll() bool {
	if s.cfg.RejectRate <= 0 {
		return false
	}
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64() < s.cfg.RejectRate
}

// Slice splits qty into n fills. Every fill but the last is qty/n truncated
// to eight decimal places, the last carries the remainder.
func Slice(qty decimal.Decimal, n int) []decimal.Decimal {
	if n <= 1 || !qty.IsPositive() {
		return []decimal.Decimal{qty}
	}
	part := qty.Div(decimal.NewFromInt(int64(n))).Truncate(sliceScale)
	if !part.IsPositive() {
		return []decimal.Decimal{qty}
	}
	out := make([]decimal.Decimal, 0, n)
	rest := qty
	for range n - 1 {
		out = append(out, part)
		rest = rest.Sub(part)
	}
	return append(out, rest)
}

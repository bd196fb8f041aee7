package order

import (
	"sync"

	"broker/pkg/exception"

	"github.com/yanun0323/errors"
)

// Store owns every order record. Structural access to the map is guarded by
// a read-write lock and each record carries its own lock, so writers of
// different orders never wait on each other.
type Store struct {
	mu      sync.RWMutex
	records map[Key]*record
}

type record struct {
	mu    sync.Mutex
	order Order
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{records: make(map[Key]*record)}
}

// Insert adds a new order and runs then while the record is still locked,
// so no other writer can observe the order before then returns.
func (s *Store) Insert(o Order, then func(Order)) error {
	if err := o.Check(); err != nil {
		return err
	}
	key := o.Key()

	s.mu.Lock()
	if _, ok := s.records[key]; ok {
		s.mu.Unlock()
		return errors.Wrapf(exception.ErrOrderDuplicate, "key: %s", key)
	}
	rec := &record{order: o}
	rec.mu.Lock()
	s.records[key] = rec
	s.mu.Unlock()

	defer rec.mu.Unlock()
	if then != nil {
		then(rec.order)
	}
	return nil
}

// Update mutates one order under its lock. fn works on a copy that is only
// committed when fn succeeds and the quantity invariants still hold; then runs
// after the commit, before the lock is released.
func (s *Store) Update(key Key, fn func(o *Order) error, then func(Order)) (Order, error) {
	rec, ok := s.record(key)
	if !ok {
		return Order{}, errors.Wrapf(exception.ErrOrderUnknown, "key: %s", key)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	working := rec.order
	if err := fn(&working); err != nil {
		return rec.order, err
	}
	if err := working.Check(); err != nil {
		return rec.order, err
	}
	rec.order = working
	if then != nil {
		then(working)
	}
	return working, nil
}

// Get returns a snapshot of one order.
func (s *Store) Get(key Key) (Order, bool) {
	rec, ok := s.record(key)
	if !ok {
		return Order{}, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.order, true
}

// Has reports whether the key is stored.
func (s *Store) Has(key Key) bool {
	_, ok := s.record(key)
	return ok
}

// Len returns the number of stored orders.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Snapshot returns a copy of every order.
func (s *Store) Snapshot() []Order {
	s.mu.RLock()
	recs := make([]*record, 0, len(s.records))
	for _, rec := range s.records {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()

	out := make([]Order, 0, len(recs))
	for _, rec := range recs {
		rec.mu.Lock()
		out = append(out, rec.order)
		rec.mu.Unlock()
	}
	return out
}

func (s *Store) record(key Key) (*record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	return rec, ok
}

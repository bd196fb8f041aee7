package order

import (
	"errors"
	"sync"
	"testing"

	"broker/internal/message"
	"broker/pkg/exception"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreInsert(t *testing.T) {
	s := NewStore()
	o := newLimit(t, "ORDER_1", "100", "150")

	var seen []Order
	require.NoError(t, s.Insert(o, func(o Order) { seen = append(seen, o) }))
	require.Len(t, seen, 1)
	assert.True(t, s.Has(o.Key()))
	assert.Equal(t, 1, s.Len())

	dup := newLimit(t, "ORDER_1", "5", "1")
	err := s.Insert(dup, func(Order) { t.Fatal("then should not run for a duplicate") })
	require.ErrorIs(t, err, exception.ErrOrderDuplicate)

	got, ok := s.Get(o.Key())
	require.True(t, ok)
	assert.True(t, got.OrderQty.Equal(dec(t, "100")), "existing order must be untouched")
}

func TestStoreKeyIsScopedBySession(t *testing.T) {
	s := NewStore()
	a := newLimit(t, "ORDER_1", "100", "150")
	b := newLimit(t, "ORDER_1", "100", "150")
	b.Session = "S2"

	require.NoError(t, s.Insert(a, nil))
	require.NoError(t, s.Insert(b, nil))
	assert.Equal(t, 2, s.Len())
}

func TestStoreUpdate(t *testing.T) {
	s := NewStore()
	o := newLimit(t, "ORDER_1", "100", "150")
	require.NoError(t, s.Insert(o, nil))

	var after Order
	got, err := s.Update(o.Key(), func(o *Order) error {
		return o.Fill(dec(t, "10"), dec(t, "150"), testNow)
	}, func(o Order) { after = o })
	require.NoError(t, err)
	assert.Equal(t, message.OrdStatusPartiallyFilled, got.Status)
	assert.Equal(t, got, after)

	_, err = s.Update(o.Key(), func(o *Order) error {
		o.CumQty = o.CumQty.Add(dec(t, "1"))
		return nil
	}, func(Order) { t.Fatal("then should not run when the invariant breaks") })
	require.ErrorIs(t, err, exception.ErrOrderInvariant)

	stored, _ := s.Get(o.Key())
	assert.True(t, stored.CumQty.Equal(dec(t, "10")), "failed update must not be committed")

	_, err = s.Update(Key{Session: "S1", ClOrdID: "nope"}, func(*Order) error { return nil }, nil)
	require.ErrorIs(t, err, exception.ErrOrderUnknown)
}

func TestStoreUpdateFailureKeepsState(t *testing.T) {
	s := NewStore()
	o := newLimit(t, "ORDER_1", "100", "150")
	require.NoError(t, s.Insert(o, nil))

	boom := errors.New("boom")
	_, err := s.Update(o.Key(), func(o *Order) error {
		o.Status = message.OrdStatusFilled
		return boom
	}, nil)
	require.ErrorIs(t, err, boom)

	stored, _ := s.Get(o.Key())
	assert.Equal(t, message.OrdStatusNew, stored.Status)
}

func TestStoreConcurrentFills(t *testing.T) {
	s := NewStore()
	o := newLimit(t, "ORDER_1", "100", "150")
	require.NoError(t, s.Insert(o, nil))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		overfill int
		one      = dec(t, "1")
		px       = dec(t, "150")
	)
	for range 150 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(o.Key(), func(o *Order) error {
				return o.Fill(one, px, testNow)
			}, nil)
			if err != nil {
				mu.Lock()
				overfill++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	stored, _ := s.Get(o.Key())
	assert.Equal(t, message.OrdStatusFilled, stored.Status)
	assert.True(t, stored.CumQty.Equal(dec(t, "100")))
	assert.Equal(t, 50, overfill)
	require.NoError(t, stored.Check())
}

func TestStoreSnapshot(t *testing.T) {
	s := NewStore()
	for _, id := range []string{"A", "B", "C"} {
		require.NoError(t, s.Insert(newLimit(t, id, "1", "1"), nil))
	}
	assert.Len(t, s.Snapshot(), 3)
}

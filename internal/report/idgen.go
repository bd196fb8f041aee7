package report

import (
	"strconv"
	"sync/atomic"
	"time"
)

// IDGenerator creates monotonically increasing execution ids.
type IDGenerator struct {
	next uint64
}

// NewIDGenerator returns a generator seeded with the given value.
func NewIDGenerator(seed uint64) *IDGenerator {
	if seed == 0 {
		seed = uint64(time.Now().UTC().UnixNano())
	}
	return &IDGenerator{next: seed}
}

// Next returns the next id.
func (g *IDGenerator) Next() string {
	return strconv.FormatUint(atomic.AddUint64(&g.next, 1), 10)
}

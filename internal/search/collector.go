package search

import (
	"sort"
	"sync"
	"sync/atomic"
)

// collector admits at most max records across all workers and keeps them
// grouped by unit so output can be ordered by discovery index
type collector struct {
	max      int64
	admitted atomic.Int64
	stop     atomic.Bool

	mu      sync.Mutex
	buckets map[int][]MatchRecord
}

func newCollector(max int) *collector {
	return &collector{
		max:     int64(max),
		buckets: make(map[int][]MatchRecord),
	}
}

// admit reserves a slot for one record. False means the cap is exhausted
// and the record must be discarded. Scanning stops at the first refusal, so
// a corpus holding exactly max matches is read to the end.
func (c *collector) admit() bool {
	n := c.admitted.Add(1)
	if n > c.max {
		c.stop.Store(true)
		return false
	}
	return true
}

func (c *collector) stopped() bool {
	return c.stop.Load()
}

// put stores the records of one finished unit
func (c *collector) put(unit int, records []MatchRecord) {
	if len(records) == 0 {
		return
	}
	c.mu.Lock()
	c.buckets[unit] = records
	c.mu.Unlock()
}

// results flattens the buckets in unit order
func (c *collector) results() []MatchRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	units := make([]int, 0, len(c.buckets))
	total := 0
	for unit, records := range c.buckets {
		units = append(units, unit)
		total += len(records)
	}
	sort.Ints(units)

	out := make([]MatchRecord, 0, total)
	for _, unit := range units {
		out = append(out, c.buckets[unit]...)
	}
	return out
}

// truncated reports whether a record was refused
func (c *collector) truncated() bool {
	return c.admitted.Load() > c.max
}

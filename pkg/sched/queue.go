package sched

import (
	"sort"
	"time"
)

// entry is a closed variant over the two schedulable kinds. Exactly one
// field is set.
type entry struct {
	p *Process
	f *FastProcess
}

type delayedEntry struct {
	e      entry
	wakeAt time.Time
}

// delayedQueue is a dynamic list kept sorted by wake time lazily: an
// insertion that would violate the existing order only marks the list dirty,
// and the list is re-sorted once before the next scan. This amortizes the
// sort cost under bursty scheduling.
type delayedQueue struct {
	items []delayedEntry
	dirty bool
}

func (q *delayedQueue) add(e entry, wakeAt time.Time) {
	if n := len(q.items); n > 0 && wakeAt.Before(q.items[n-1].wakeAt) {
		q.dirty = true
	}
	q.items = append(q.items, delayedEntry{e: e, wakeAt: wakeAt})
}

// promote moves every entry due at or before now onto dst, preserving wake
// order. Insertion order breaks exact wake-time ties.
func (q *delayedQueue) promote(now time.Time, dst []entry) []entry {
	if len(q.items) == 0 {
		return dst
	}
	if q.dirty {
		sort.SliceStable(q.items, func(i, j int) bool {
			return q.items[i].wakeAt.Before(q.items[j].wakeAt)
		})
		q.dirty = false
	}
	i := 0
	for i < len(q.items) && !q.items[i].wakeAt.After(now) {
		dst = append(dst, q.items[i].e)
		i++
	}
	if i > 0 {
		rest := copy(q.items, q.items[i:])
		for j := rest; j < len(q.items); j++ {
			q.items[j] = delayedEntry{}
		}
		q.items = q.items[:rest]
	}
	return dst
}

func (q *delayedQueue) len() int {
	return len(q.items)
}

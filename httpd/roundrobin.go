package httpd

import "sync"

// RoundRobin hands out list elements in turn. The position is kept per
// RoundRobin, not per list, so one instance should serve one list. The
// zero value is ready to use.
type RoundRobin[T any] struct {
	mu   sync.Mutex
	next uint64
}

// Next returns the element after the one returned last time, wrapping
// around. ok is false for an empty list.
func (rr *RoundRobin[T]) Next(list []T) (v T, ok bool) {
	if len(list) == 0 {
		return v, false
	}
	rr.mu.Lock()
	i := rr.next % uint64(len(list))
	rr.next++
	rr.mu.Unlock()
	return list[i], true
}

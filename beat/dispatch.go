package beat

import (
	"sync"

	"github.com/dalps/rhythm"
	"github.com/dalps/rhythm/logger"
)

// dispatchQueue hands fired sub-beats to the listeners strictly in the order
// they were scheduled. Deferred dispatches run on goroutines of their own and
// may fire out of order when they are due close to each other, e.g. during a
// catch-up burst; a sub-beat that fires early waits here until all the
// sub-beats before it have been dispatched.
type dispatchQueue struct {
	mu    sync.Mutex
	gen   int
	next  int // step of the next sub-beat to dispatch
	ready map[int]rhythm.Coordinate
}

// push queues sub-beat step of generation gen and dispatches every queued
// sub-beat that is next in line. current reports whether a generation is
// still playing; it is checked before each dispatch, as a listener may stop
// the Beat in the middle of a burst.
func (q *dispatchQueue) push(gen, step int, c rhythm.Coordinate, current func(gen int) bool, dispatch func(rhythm.Coordinate)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if gen < q.gen {
		logger.Logf("beat", "dropped dispatch of %v scheduled before stop", c)
		return
	}
	if gen > q.gen || q.ready == nil {
		q.gen, q.next, q.ready = gen, 0, map[int]rhythm.Coordinate{}
	}
	q.ready[step] = c
	for {
		c, ok := q.ready[q.next]
		if !ok {
			return
		}
		delete(q.ready, q.next)
		q.next++
		if !current(gen) {
			logger.Logf("beat", "dropped dispatch of %v scheduled before stop", c)
			continue
		}
		dispatch(c)
	}
}

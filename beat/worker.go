package beat

import (
	"sync"
	"time"

	"github.com/dalps/rhythm/logger"
)

type (
	// TickSource polls the scheduler. After Start, it sends on the Ticks
	// channel roughly every interval, until Stop. Start, Stop and SetInterval
	// are requests: they may take effect asynchronously, but in the order they
	// were made. Close releases the tick source for good.
	TickSource interface {
		Start()
		Stop()
		SetInterval(d time.Duration)
		Ticks() <-chan struct{}
		Close()
	}

	// Worker is the default TickSource: a goroutine of its own running a
	// time.Ticker, so that ticks keep coming however busy the listeners are.
	// Ticks that the scheduler does not pick up in time are coalesced.
	Worker struct {
		control   chan workerMsg
		ticks     chan struct{}
		quit      chan struct{}
		done      chan struct{}
		closeOnce sync.Once
	}

	workerMsg struct {
		kind     workerMsgKind
		interval time.Duration
	}

	workerMsgKind int
)

const (
	workerStart workerMsgKind = iota
	workerStop
	workerInterval
)

const workerControlBuffer = 16

// NewWorker starts a stopped Worker that ticks every interval once started.
func NewWorker(interval time.Duration) *Worker {
	if interval <= 0 {
		interval = DefaultLookahead
	}
	w := &Worker{
		control: make(chan workerMsg, workerControlBuffer),
		ticks:   make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run(interval)
	return w
}

// Start makes the worker tick, the first time right away.
func (w *Worker) Start() { w.send(workerMsg{kind: workerStart}) }

// Stop makes the worker stop ticking.
func (w *Worker) Stop() { w.send(workerMsg{kind: workerStop}) }

// SetInterval changes the tick interval. Non-positive intervals are ignored.
func (w *Worker) SetInterval(d time.Duration) {
	w.send(workerMsg{kind: workerInterval, interval: d})
}

func (w *Worker) Ticks() <-chan struct{} { return w.ticks }

// Close stops the worker goroutine and waits for it to exit.
func (w *Worker) Close() {
	w.closeOnce.Do(func() { close(w.quit) })
	<-w.done
}

func (w *Worker) send(msg workerMsg) {
	select {
	case w.control <- msg:
	case <-w.done:
	}
}

func (w *Worker) run(interval time.Duration) {
	defer close(w.done)
	var ticker *time.Ticker
	var tickC <-chan time.Time
	for {
		select {
		case msg := <-w.control:
			switch msg.kind {
			case workerStart:
				if ticker != nil {
					continue
				}
				ticker = time.NewTicker(interval)
				tickC = ticker.C
				logger.Logf("worker", "started, ticking every %v", interval)
				TrySend(w.ticks, struct{}{})
			case workerStop:
				if ticker == nil {
					continue
				}
				ticker.Stop()
				ticker, tickC = nil, nil
				logger.Log("worker", "stopped")
			case workerInterval:
				if msg.interval <= 0 || msg.interval == interval {
					continue
				}
				interval = msg.interval
				if ticker != nil {
					ticker.Reset(interval)
				}
				logger.Logf("worker", "interval set to %v", interval)
			}
		case <-tickC:
			TrySend(w.ticks, struct{}{})
		case <-w.quit:
			if ticker != nil {
				ticker.Stop()
			}
			return
		}
	}
}

// TrySend is a helper function to send a value to a channel if it is not
// full. It is guaranteed to be non-blocking. Return true if the value was
// sent, false otherwise.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

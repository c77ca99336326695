// Package beat implements the transport of the rhythm engine: a lookahead
// scheduler that projects the pulse of a Tempo onto a hardware clock and
// dispatches every sub-beat Coordinate to registered listeners, in order,
// right when it sounds.
//
// The scheduler is polled by a TickSource running on its own goroutine. On
// every tick, all sub-beats falling within the schedule-ahead window are given
// a deferred dispatch of their own, timed to the instant they sound. Sub-beats
// are never skipped: if ticks are late, the sub-beats that were missed are
// dispatched in a burst, still in order.
package beat

import (
	"math"
	"sync"
	"time"

	"github.com/dalps/rhythm"
	"github.com/dalps/rhythm/logger"
)

type (
	// Beat is the transport. It is either idle or playing; Play and Stop
	// switch between the two and are safe to call from any goroutine,
	// including from within a listener.
	Beat struct {
		clock     rhythm.Clock // hardware clock the pulse is anchored to
		ticks     TickSource   // polls the scheduler
		deferFn   Deferrer     // times each dispatch
		ahead     float64      // schedule-ahead window, in seconds
		lookahead time.Duration

		tempo    rhythm.Tempo
		subDelta float64 // length of one sub-beat, in seconds

		mu         sync.Mutex
		playing    bool
		anchor     float64             // clock time of the first sub-beat of the current session
		next       rhythm.Coordinate   // next coordinate to schedule
		steps      int                 // number of sub-beats scheduled in the current session
		generation int                 // bumped by Play and Stop; dispatches of older generations are dropped
		pending    map[int]func() bool // step -> stop function of its deferred dispatch
		frozen     rhythm.Coordinate   // sounding coordinate at the moment of Stop

		queue     dispatchQueue
		listeners registry

		quit      chan struct{}
		done      chan struct{}
		closeOnce sync.Once
	}

	// Option configures a Beat.
	Option func(*Beat)

	// Deferrer calls f after d has elapsed, on a goroutine of its own
	// choosing. The returned function tries to cancel the call and reports
	// whether it did so before f started.
	Deferrer func(d time.Duration, f func()) (stop func() bool)

	// SystemClock is a Clock counting seconds since it was created, for when
	// no audio device is available.
	SystemClock struct {
		start time.Time
	}
)

const (
	DefaultLookahead     = 25 * time.Millisecond
	DefaultScheduleAhead = 100 * time.Millisecond
)

// NewSystemClock returns a SystemClock starting at zero.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) Now() float64 {
	return time.Since(c.start).Seconds()
}

// AfterFunc is the default Deferrer, backed by time.AfterFunc.
func AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// WithClock anchors the pulse to the given clock instead of a SystemClock.
// Pass the clock of the device that makes the pulse audible.
func WithClock(c rhythm.Clock) Option {
	return func(b *Beat) { b.clock = c }
}

// WithTickSource polls the scheduler with t instead of a Worker. The Beat
// takes ownership of t and closes it in Close.
func WithTickSource(t TickSource) Option {
	return func(b *Beat) { b.ticks = t }
}

// WithDeferrer times dispatches with d instead of AfterFunc.
func WithDeferrer(d Deferrer) Option {
	return func(b *Beat) { b.deferFn = d }
}

// WithLookahead sets the polling interval of the tick source.
func WithLookahead(d time.Duration) Option {
	return func(b *Beat) { b.lookahead = d }
}

// WithScheduleAhead sets how far into the future sub-beats are scheduled on
// each tick. It should be comfortably longer than the lookahead.
func WithScheduleAhead(d time.Duration) Option {
	return func(b *Beat) { b.ahead = d.Seconds() }
}

// New returns an idle Beat playing bpm beats per minute, with beatsPerBar
// beats in a bar and subsPerBeat sub-beats in a beat. A non-positive bpm or
// subsPerBeat makes sub-beats one second long; a non-positive meter is
// treated as one.
func New(bpm float64, beatsPerBar, subsPerBeat int, opts ...Option) *Beat {
	b := &Beat{
		tempo:     rhythm.Tempo{BPM: bpm, BeatsPerBar: beatsPerBar, SubsPerBeat: subsPerBeat},
		deferFn:   AfterFunc,
		ahead:     DefaultScheduleAhead.Seconds(),
		lookahead: DefaultLookahead,
		pending:   map[int]func() bool{},
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.clock == nil {
		b.clock = NewSystemClock()
	}
	if b.lookahead <= 0 {
		b.lookahead = DefaultLookahead
	}
	if b.ticks == nil {
		b.ticks = NewWorker(b.lookahead)
	} else {
		b.ticks.SetInterval(b.lookahead)
	}
	b.subDelta = b.tempo.SubDelta()
	if !(bpm > 0) || math.IsInf(bpm, 1) || subsPerBeat <= 0 {
		logger.Logf("beat", "invalid tempo (%v bpm, %v subs per beat), sub-beats last %v s", bpm, subsPerBeat, b.subDelta)
	}
	go b.run()
	return b
}

// Tempo returns the tempo the Beat was created with.
func (b *Beat) Tempo() rhythm.Tempo {
	return b.tempo
}

// SubDelta returns the length of one sub-beat in seconds.
func (b *Beat) SubDelta() float64 {
	return b.subDelta
}

// Play starts a new session from the first sub-beat of the first bar,
// anchored to the current clock time. Play does nothing if the Beat is
// already playing.
func (b *Beat) Play() {
	b.mu.Lock()
	if b.playing {
		b.mu.Unlock()
		return
	}
	b.playing = true
	b.generation++
	b.anchor = b.clock.Now()
	b.next = rhythm.Coordinate{}
	b.steps = 0
	b.pending = map[int]func() bool{}
	b.mu.Unlock()
	b.ticks.Start()
}

// Stop halts the tick source and cancels the dispatches that have been
// scheduled but not yet fired. A dispatch that could not be cancelled in time
// is dropped when it fires, and the drop is logged. Stop does nothing if the
// Beat is idle.
func (b *Beat) Stop() {
	b.mu.Lock()
	if !b.playing {
		b.mu.Unlock()
		return
	}
	b.frozen = b.sounding(b.clock.Now())
	b.playing = false
	b.generation++
	stops := make([]func() bool, 0, len(b.pending))
	for _, stop := range b.pending {
		if stop != nil {
			stops = append(stops, stop)
		}
	}
	b.pending = map[int]func() bool{}
	b.mu.Unlock()
	b.ticks.Stop()
	for _, stop := range stops {
		stop()
	}
}

// IsPlaying reports whether the Beat is playing.
func (b *Beat) IsPlaying() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.playing
}

// CurrentCoordinate returns the coordinate sounding now, i.e. the last
// sub-beat at or before the current clock time. While idle, it returns the
// coordinate that was sounding when the Beat was stopped.
func (b *Beat) CurrentCoordinate() rhythm.Coordinate {
	c, _ := b.Snapshot()
	return c
}

// TimingSample tells how close the current clock time is to the pulse. The
// phase is the time since the sub-beat sounding now, as a fraction of
// SubDelta, so it counts up towards the next pulse. While
// idle, there is no pulse to be close to: the sample is the one halfway
// between two pulses, with zero accuracy.
func (b *Beat) TimingSample() rhythm.TimingSample {
	_, s := b.Snapshot()
	return s
}

// Snapshot returns CurrentCoordinate and TimingSample computed from a single
// reading of the clock, so that they agree with each other.
func (b *Beat) Snapshot() (rhythm.Coordinate, rhythm.TimingSample) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.playing {
		return b.frozen, rhythm.SampleAt(0.5)
	}
	now := b.clock.Now()
	pos := (now - b.anchor) / b.subDelta
	phase := pos - math.Floor(pos+positionEpsilon)
	if phase < 0 {
		phase = 0
	}
	return b.sounding(now), rhythm.SampleAt(phase)
}

// NextEventTime returns the clock time of the next sub-beat to be scheduled.
func (b *Beat) NextEventTime() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nextEventTime()
}

// Scheduled returns the coordinate of the next sub-beat to be scheduled.
func (b *Beat) Scheduled() rhythm.Coordinate {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.next
}

// Close stops the Beat, its goroutine and its tick source. The Beat cannot
// be used after Close.
func (b *Beat) Close() {
	b.Stop()
	b.closeOnce.Do(func() {
		close(b.quit)
		b.ticks.Close()
		select {
		case <-b.done:
		case <-time.After(time.Second):
			logger.Log("beat", "scheduler goroutine did not exit in time")
		}
	})
}

// positionEpsilon keeps a clock reading that lands exactly on a sub-beat,
// give or take rounding, from being counted as the end of the previous one.
const positionEpsilon = 1e-9

func (b *Beat) sounding(now float64) rhythm.Coordinate {
	n := math.Floor((now-b.anchor)/b.subDelta + positionEpsilon)
	if n < 0 || math.IsNaN(n) {
		n = 0
	}
	return b.tempo.Coordinate(int(n))
}

func (b *Beat) nextEventTime() float64 {
	return b.anchor + float64(b.steps)*b.subDelta
}

func (b *Beat) run() {
	defer close(b.done)
	ticks := b.ticks.Ticks()
	for {
		select {
		case _, ok := <-ticks:
			if !ok {
				return
			}
			b.schedule()
		case <-b.quit:
			return
		}
	}
}

type scheduled struct {
	step  int
	coord rhythm.Coordinate
	delay float64
}

// schedule gives every sub-beat that sounds before now + ahead a deferred
// dispatch. The coordinate is captured before advancing, as it names the
// sub-beat sounding after the delay.
func (b *Beat) schedule() {
	b.mu.Lock()
	if !b.playing {
		b.mu.Unlock()
		return
	}
	gen := b.generation
	now := b.clock.Now()
	var due []scheduled
	for t := b.nextEventTime(); t < now+b.ahead; t = b.nextEventTime() {
		due = append(due, scheduled{step: b.steps, coord: b.next, delay: t - now})
		b.pending[b.steps] = nil
		b.next = b.tempo.Advance(b.next)
		b.steps++
	}
	b.mu.Unlock()
	for _, s := range due {
		s := s
		d := time.Duration(max(s.delay, 0) * float64(time.Second))
		stop := b.deferFn(d, func() { b.fire(gen, s.step, s.coord) })
		b.mu.Lock()
		if gen != b.generation {
			b.mu.Unlock()
			if stop != nil {
				stop()
			}
			continue
		}
		if _, ok := b.pending[s.step]; ok {
			b.pending[s.step] = stop
		}
		b.mu.Unlock()
	}
}

func (b *Beat) fire(gen, step int, c rhythm.Coordinate) {
	b.mu.Lock()
	stale := gen != b.generation
	if !stale {
		delete(b.pending, step)
	}
	b.mu.Unlock()
	if stale {
		logger.Logf("beat", "dropped dispatch of %v scheduled before stop", c)
		return
	}
	b.queue.push(gen, step, c, b.current, b.listeners.dispatch)
}

func (b *Beat) current(gen int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return gen == b.generation
}

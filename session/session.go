// Package session plays a rhythm.Song on a beat.Beat: it resolves the
// metronome and the choreography of every dispatched sub-beat, plays the
// count-in before the song and stops the beat when the song is over.
package session

import (
	"sync"

	"github.com/dalps/rhythm"
	"github.com/dalps/rhythm/beat"
	"github.com/dalps/rhythm/logger"
)

type (
	// Event is what happens on one sub-beat of a session.
	Event struct {
		Coordinate rhythm.Coordinate // as dispatched, count-in included
		Song       rhythm.Coordinate // within the song; the count-in bars are negative
		CountIn    bool
		Click      int    // metronome accent level, 0 for silence
		Action     string // choreography action, "" for none
	}

	// Options tune a Session. The zero value plays the song once, without a
	// count-in unless the song has one.
	Options struct {
		// CountIn plays rhythm.CountInMetronome before songs that have no
		// count-in of their own.
		CountIn bool
		// Bars overrides the length of the song. With a Loop policy and no
		// override, the session never ends.
		Bars int
		// OnEvent is called on every sub-beat, on the dispatch goroutine.
		OnEvent func(Event)
	}

	Session struct {
		beat         *beat.Beat
		song         rhythm.Song
		countIn      rhythm.Pattern[int]
		choreography rhythm.Pattern[string]
		end          int // bar of the dispatch coordinate after the last one; 0 for endless
		onEvent      func(Event)

		listener beat.Handle

		mu       sync.Mutex
		endBar   beat.Handle
		done     chan struct{}
		finished bool
	}
)

// New binds song to b. The beat should have been created with the tempo of
// the song. Nothing sounds until Play is called.
func New(b *beat.Beat, song rhythm.Song, opts Options) *Session {
	s := &Session{
		beat:         b,
		song:         song,
		countIn:      song.CountIn,
		choreography: song.Choreography.Pattern(),
		onEvent:      opts.OnEvent,
		done:         make(chan struct{}),
	}
	if s.countIn.Bars() == 0 && opts.CountIn {
		s.countIn = rhythm.CountInMetronome()
	}
	bars := opts.Bars
	if bars <= 0 && song.Wrap != rhythm.Loop {
		bars = song.Bars()
	}
	if bars > 0 {
		s.end = s.countIn.Bars() + bars
	}
	s.listener = b.OnBeat(s.dispatch)
	if s.end > 0 {
		s.endBar = b.AtBar(rhythm.At(s.end, 0, 0), s.finish)
	}
	return s
}

// Event returns the event of the sub-beat dispatched at c.
func (s *Session) Event(c rhythm.Coordinate) Event {
	countIn := s.countIn.Bars()
	e := Event{Coordinate: c, Song: c}
	e.Song.Bar -= countIn
	if c.Bar < countIn {
		e.CountIn = true
		e.Click = s.countIn.Resolve(c, rhythm.End).Or(0)
		return e
	}
	e.Click = s.song.Metronome.Resolve(e.Song, rhythm.Loop).Or(0)
	e.Action = s.choreography.Resolve(e.Song, s.song.Wrap).Or("")
	return e
}

// Play starts the beat. A session that is over can be played again: it gets
// a new Done channel.
func (s *Session) Play() {
	s.mu.Lock()
	if s.finished {
		s.finished = false
		s.done = make(chan struct{})
		s.endBar = s.beat.AtBar(rhythm.At(s.end, 0, 0), s.finish)
	}
	s.mu.Unlock()
	logger.Logf("session", "playing %q, %v bars of count-in", s.song.Title, s.countIn.Bars())
	s.beat.Play()
}

// Done is closed when the last bar of the song is over.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Bars returns the number of bars played, count-in included, or 0 if the
// session never ends.
func (s *Session) Bars() int {
	return s.end
}

// Close stops the beat and unregisters the listeners of the session. The
// beat can be reused for another session; this one stays silent.
func (s *Session) Close() {
	s.beat.Stop()
	s.beat.RemoveListener(s.listener)
	s.mu.Lock()
	s.beat.RemoveListener(s.endBar)
	s.mu.Unlock()
}

func (s *Session) dispatch(c rhythm.Coordinate) {
	if s.end > 0 && c.Bar >= s.end {
		return
	}
	if s.onEvent != nil {
		s.onEvent(s.Event(c))
	}
}

func (s *Session) finish() {
	s.beat.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.finished = true
	logger.Logf("session", "%q is over after %v bars", s.song.Title, s.end)
	close(s.done)
}

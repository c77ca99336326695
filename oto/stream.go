package oto

import (
	"sync"

	"github.com/dalps/rhythm/click"
)

const bytesPerFrame = click.Channels * 4

// stream is the endless io.Reader played by the device. The frames the
// device has read are what the clock is built on.
type stream struct {
	*click.Track

	mu  sync.Mutex
	buf []float32
}

func newStream(sampleRate int) *stream {
	return &stream{Track: click.NewTrack(sampleRate)}
}

func (s *stream) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	s.mu.Lock()
	defer s.mu.Unlock()
	if cap(s.buf) < frames*click.Channels {
		s.buf = make([]float32, frames*click.Channels)
	}
	buf := s.buf[:frames*click.Channels]
	s.Render(buf)
	out := AppendFloat32LE(p[:0], buf)
	return len(out), nil
}

// Package oto plays the metronome on the audio device and provides the
// device clock the beat scheduler anchors to.
package oto

import (
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/dalps/rhythm/click"
)

// Context is a rhythm.AudioContext backed by an oto player that never stops
// playing: the clock advances with the frames the device consumes.
type Context struct {
	player *oto.Player
	stream *stream

	mu   sync.Mutex
	last float64
}

// NewContext opens the audio device at the given sample rate and starts
// playing silence.
func NewContext(sampleRate int) (*Context, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %v", sampleRate)
	}
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: click.Channels,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	s := newStream(sampleRate)
	p := ctx.NewPlayer(s)
	p.Play()
	return &Context{player: p, stream: s}, nil
}

// Now returns the time of the frame the device is playing, in seconds: the
// frames read from the stream minus those still buffered by the player. It
// never goes backwards.
func (c *Context) Now() float64 {
	buffered := int64(c.player.BufferedSize() / bytesPerFrame)
	t := float64(c.stream.Frames()-buffered) / float64(c.stream.SampleRate())
	c.mu.Lock()
	defer c.mu.Unlock()
	if t < c.last {
		return c.last
	}
	c.last = t
	return t
}

// Click plays a metronome click of the given accent level at clock time at.
func (c *Context) Click(at float64, level int) {
	c.stream.Click(at, level)
}

// Close stops the player.
func (c *Context) Close() error {
	if err := c.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}

// Package click synthesizes metronome clicks: short decaying sine bursts,
// high and loud for accents, lower and softer otherwise. A Track mixes clicks
// into an endless stereo stream of float32 frames, which is played on the
// audio device or rendered to a file.
package click

import (
	"math"
	"sort"
	"sync"
)

const (
	// Channels is the number of interleaved channels Render writes.
	Channels = 2

	Length       = 0.03 // seconds
	decay        = 0.006
	accentFreq   = 1500
	normalFreq   = 1000
	accentVolume = 0.8
	normalVolume = 0.5
)

type (
	// Track is an endless stream of silence with clicks mixed in at the
	// requested frames. It counts the frames rendered so far, so it doubles
	// as the clock of whatever consumes it.
	Track struct {
		sampleRate int

		mu     sync.Mutex
		frame  int64 // frames rendered so far
		clicks []click
	}

	click struct {
		start int64 // frame
		freq  float64
		vol   float64
	}
)

// NewTrack returns an empty Track at the given sample rate.
func NewTrack(sampleRate int) *Track {
	return &Track{sampleRate: sampleRate}
}

// SampleRate returns the sample rate of the track.
func (t *Track) SampleRate() int {
	return t.sampleRate
}

// Frames returns the number of frames rendered so far.
func (t *Track) Frames() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frame
}

// Pending returns the number of clicks that have not been played out yet.
func (t *Track) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.clicks)
}

// Click mixes a click of the given accent level in, starting at track time
// at, in seconds. A click that is already late starts right away. Levels
// below 1 are ignored.
func (t *Track) Click(at float64, level int) {
	if level < 1 {
		return
	}
	c := click{freq: normalFreq, vol: normalVolume}
	if level >= 2 {
		c.freq, c.vol = accentFreq, accentVolume
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	c.start = max(int64(math.Round(at*float64(t.sampleRate))), t.frame)
	i := sort.Search(len(t.clicks), func(i int) bool { return t.clicks[i].start > c.start })
	t.clicks = append(t.clicks, click{})
	copy(t.clicks[i+1:], t.clicks[i:])
	t.clicks[i] = c
}

// Render fills buf with the next len(buf)/Channels frames and advances the
// track past them.
func (t *Track) Render(buf []float32) {
	frames := int64(len(buf) / Channels)
	for i := range buf {
		buf[i] = 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	length := int64(Length * float64(t.sampleRate))
	for _, c := range t.clicks {
		if c.start >= t.frame+frames {
			break
		}
		for f := max(c.start, t.frame); f < min(c.start+length, t.frame+frames); f++ {
			s := float64(f-c.start) / float64(t.sampleRate)
			v := float32(c.vol * math.Sin(2*math.Pi*c.freq*s) * math.Exp(-s/decay))
			j := int(f-t.frame) * Channels
			buf[j] += v
			buf[j+1] += v
		}
	}
	t.frame += frames
	// forget the clicks that have been played out
	n := 0
	for n < len(t.clicks) && t.clicks[n].start+length <= t.frame {
		n++
	}
	t.clicks = append(t.clicks[:0], t.clicks[n:]...)
}

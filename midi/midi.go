// Package midi connects the rhythm engine to MIDI devices: note-ons from a
// pad or a keyboard are player hits, and the metronome can click on a drum
// module. The device access itself lives in package midi/rtmidi, which needs
// cgo; this package only holds the driver independent parts.
package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

type (
	// Context gives access to the MIDI devices of the system.
	Context interface {
		// Inputs lists the names of the input ports.
		Inputs() []string
		// Open starts listening to the first input port whose name starts with
		// prefix; an empty prefix takes the first port.
		Open(prefix string) error
		// Hits delivers the note-ons of the open input. Hits that are not
		// received in time are dropped.
		Hits() <-chan Hit
		// Output opens the first output port whose name starts with prefix;
		// an empty prefix takes the first port.
		Output(prefix string) (Sender, error)
		Close()
	}

	// Sender plays notes on an output port.
	Sender interface {
		// Note sends a note-on immediately followed by its note-off.
		Note(channel, key, velocity uint8) error
	}

	// Hit is a note-on received from an input.
	Hit struct {
		Channel  uint8
		Key      uint8
		Velocity uint8
	}

	// NullContext is a Context without any devices, for builds without MIDI
	// support.
	NullContext struct{}
)

// General MIDI percussion keys used for metronome clicks.
const (
	AccentKey uint8 = 76 // hi wood block
	ClickKey  uint8 = 77 // low wood block
)

// DrumChannel is the General MIDI percussion channel (10, zero-based 9).
const DrumChannel uint8 = 9

// HitBuffer is the number of hits that are kept waiting on Hits.
const HitBuffer = 64

// IsHit returns the hit carried by msg, if it is a note-on with a non-zero
// velocity. A note-on with zero velocity is a note-off in disguise.
func IsHit(msg gomidi.Message) (Hit, bool) {
	var h Hit
	if msg.GetNoteOn(&h.Channel, &h.Key, &h.Velocity) && h.Velocity > 0 {
		return h, true
	}
	return Hit{}, false
}

// Click returns the key and velocity that play a metronome click of the given
// accent level: 2 is a strong click, 1 a weak one. ok is false for levels
// that should not sound.
func Click(level int) (key, velocity uint8, ok bool) {
	switch {
	case level >= 2:
		return AccentKey, 127, true
	case level == 1:
		return ClickKey, 90, true
	}
	return 0, 0, false
}

// Deliver sends h on c without blocking; it reports false if c was full and
// the hit was dropped.
func Deliver(c chan<- Hit, h Hit) bool {
	select {
	case c <- h:
		return true
	default:
		return false
	}
}

func (NullContext) Inputs() []string { return nil }

func (NullContext) Open(prefix string) error { return errNoMIDI }

func (NullContext) Hits() <-chan Hit { return nil }

func (NullContext) Output(prefix string) (Sender, error) { return nil, errNoMIDI }

func (NullContext) Close() {}

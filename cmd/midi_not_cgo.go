//go:build !cgo

package cmd

import (
	"github.com/dalps/rhythm/midi"
)

func NewMidiContext() midi.Context {
	// with no cgo, we cannot use MIDI, so return a null context
	return midi.NullContext{}
}

//go:build cgo

package cmd

import (
	"github.com/dalps/rhythm/midi"
	"github.com/dalps/rhythm/midi/rtmidi"
)

func NewMidiContext() midi.Context {
	return rtmidi.NewContext()
}

package midi_test

import (
	"testing"

	"github.com/dalps/rhythm/midi"
	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestIsHit(t *testing.T) {
	tests := []struct {
		name string
		msg  gomidi.Message
		want midi.Hit
		ok   bool
	}{
		{"note on", gomidi.NoteOn(2, 60, 100), midi.Hit{Channel: 2, Key: 60, Velocity: 100}, true},
		{"zero velocity", gomidi.NoteOn(2, 60, 0), midi.Hit{}, false},
		{"note off", gomidi.NoteOff(2, 60), midi.Hit{}, false},
		{"control change", gomidi.ControlChange(0, 7, 100), midi.Hit{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := midi.IsHit(tt.msg)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("IsHit() = %+v, %v; want %+v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestClick(t *testing.T) {
	if key, _, ok := midi.Click(2); !ok || key != midi.AccentKey {
		t.Fatalf("expected an accent, got %v %v", key, ok)
	}
	if key, _, ok := midi.Click(1); !ok || key != midi.ClickKey {
		t.Fatalf("expected a click, got %v %v", key, ok)
	}
	if _, _, ok := midi.Click(0); ok {
		t.Fatalf("level 0 should not sound")
	}
}

func TestDeliverDropsWhenFull(t *testing.T) {
	c := make(chan midi.Hit, 1)
	if !midi.Deliver(c, midi.Hit{Key: 1}) {
		t.Fatalf("first hit should be delivered")
	}
	if midi.Deliver(c, midi.Hit{Key: 2}) {
		t.Fatalf("second hit should be dropped")
	}
	if h := <-c; h.Key != 1 {
		t.Fatalf("got %+v", h)
	}
}

func TestNullContext(t *testing.T) {
	var c midi.Context = midi.NullContext{}
	if len(c.Inputs()) != 0 {
		t.Fatalf("expected no inputs")
	}
	if err := c.Open(""); err == nil {
		t.Fatalf("expected an error opening an input")
	}
	if _, err := c.Output(""); err == nil {
		t.Fatalf("expected an error opening an output")
	}
	c.Close()
}

package export_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"

	"github.com/dalps/rhythm"
	"github.com/dalps/rhythm/click"
	"github.com/dalps/rhythm/export"
)

func TestWriteWav(t *testing.T) {
	song := rhythm.Song{
		BPM:         600,
		BeatsPerBar: 4,
		SubsPerBeat: 1,
		Metronome:   rhythm.DefaultMetronome(),
	}
	const sampleRate = 8000
	filename := filepath.Join(t.TempDir(), "clicks.wav")
	f, err := os.Create(filename)
	if err != nil {
		t.Fatalf("could not create %v: %v", filename, err)
	}
	tl := export.NewTimeline(song)
	if err := tl.WriteWav(f, sampleRate); err != nil {
		f.Close()
		t.Fatalf("could not write wav: %v", err)
	}
	f.Close()

	f, err = os.Open(filename)
	if err != nil {
		t.Fatalf("could not reopen %v: %v", filename, err)
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatalf("not a valid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("could not decode wav: %v", err)
	}
	if dec.NumChans != click.Channels || dec.SampleRate != sampleRate {
		t.Fatalf("expected %v channels at %v Hz, got %v at %v", click.Channels, sampleRate, dec.NumChans, dec.SampleRate)
	}
	frames := int(math.Ceil((tl.Duration + click.Length) * float64(sampleRate)))
	if len(buf.Data) != frames*click.Channels {
		t.Fatalf("expected %v samples, got %v", frames*click.Channels, len(buf.Data))
	}
	// one click every 0.1 s, i.e. every 800 frames
	for beat := 0; beat < 4; beat++ {
		start := beat * 800 * click.Channels
		var loud bool
		for _, v := range buf.Data[start : start+100*click.Channels] {
			loud = loud || v != 0
		}
		if !loud {
			t.Errorf("expected a click on beat %v", beat+1)
		}
		for _, v := range buf.Data[start+300*click.Channels : start+700*click.Channels] {
			if v != 0 {
				t.Fatalf("expected silence between the clicks of beats %v and %v", beat+1, beat+2)
			}
		}
	}
}

func TestWriteWavInvalidSampleRate(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "clicks.wav"))
	if err != nil {
		t.Fatalf("could not create file: %v", err)
	}
	defer f.Close()
	if err := export.NewTimeline(rhythm.Song{BPM: 120, BeatsPerBar: 4, SubsPerBeat: 1}).WriteWav(f, 0); err == nil {
		t.Fatalf("expected an error for a zero sample rate")
	}
}

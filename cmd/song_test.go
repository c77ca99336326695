package cmd_test

import (
	"errors"
	"path/filepath"
	"runtime"
	"slices"
	"testing"

	"github.com/dalps/rhythm"
	"github.com/dalps/rhythm/cmd"
)

func TestReadSongFile(t *testing.T) {
	_, myname, _, _ := runtime.Caller(0)
	filename := filepath.Join(filepath.Dir(myname), "..", "testdata", "stardust-memories.yml")
	song, err := cmd.ReadSongFile(filename)
	if err != nil {
		t.Fatalf("could not read song: %v", err)
	}
	if song.BPM != 125 {
		t.Fatalf("expected 125 bpm, got %v", song.BPM)
	}
	if _, err := cmd.ReadSongFile(filepath.Join(filepath.Dir(myname), "missing.yml")); err == nil {
		t.Fatalf("reading a missing file should fail")
	}
}

func TestMetronomeSong(t *testing.T) {
	song, err := cmd.MetronomeSong(90, 3, 2)
	if err != nil {
		t.Fatalf("could not make metronome: %v", err)
	}
	for beat, want := range []int{2, 1, 1} {
		if got := song.Metronome.At(0, beat, 0).Or(0); got != want {
			t.Errorf("beat %v: expected level %v, got %v", beat, want, got)
		}
	}
	if song.Metronome.At(0, 0, 1).Valid {
		t.Errorf("the second sub-beat should not click")
	}
	song, err = cmd.MetronomeSong(120, 4, 1)
	if err != nil {
		t.Fatalf("could not make metronome: %v", err)
	}
	if got := song.Metronome.At(0, 2, 0).Or(0); got != 2 {
		t.Errorf("expected the 4/4 metronome to accent beat three, got %v", got)
	}
	if _, err := cmd.MetronomeSong(0, 4, 1); !errors.Is(err, rhythm.ErrInvalidSong) {
		t.Fatalf("expected an invalid song error, got %v", err)
	}
}

func TestParseTargets(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"", []int{0, 1, 2, 3}, false},
		{"2,4", []int{1, 3}, false},
		{" 1 , 3 ", []int{0, 2}, false},
		{"5", nil, true},
		{"0", nil, true},
		{"two", nil, true},
	}
	for _, tt := range tests {
		got, err := cmd.ParseTargets(tt.in, 4)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTargets(%q) error = %v, expected error %v", tt.in, err, tt.wantErr)
			continue
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("ParseTargets(%q) = %v, expected %v", tt.in, got, tt.want)
		}
	}
}

package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dalps/rhythm"
)

// ReadSongFile reads a .yml or .json song from disk.
func ReadSongFile(filename string) (rhythm.Song, error) {
	f, err := os.Open(filename)
	if err != nil {
		return rhythm.Song{}, fmt.Errorf("could not open file %v: %w", filename, err)
	}
	defer f.Close()
	song, err := rhythm.ReadSong(f)
	if err != nil {
		return rhythm.Song{}, fmt.Errorf("could not read song %v: %w", filename, err)
	}
	return song, nil
}

// MetronomeSong returns a bare metronome: one bar clicking every beat, with
// an accent on the downbeat, looped forever. In 4/4 it is the default
// metronome with its accents on one and three.
func MetronomeSong(bpm float64, beatsPerBar, subsPerBeat int) (rhythm.Song, error) {
	song := rhythm.Song{
		Title:       "metronome",
		BPM:         bpm,
		BeatsPerBar: beatsPerBar,
		SubsPerBeat: subsPerBeat,
		Wrap:        rhythm.Loop,
	}
	if err := song.Validate(); err != nil {
		return rhythm.Song{}, err
	}
	if beatsPerBar == 4 {
		song.Metronome = rhythm.DefaultMetronome()
		return song, nil
	}
	bar := make([][]int, beatsPerBar)
	for i := range bar {
		bar[i] = []int{1}
	}
	bar[0] = []int{2}
	song.Metronome = rhythm.Dense([][][]int{bar})
	return song, nil
}

// ParseTargets parses a comma separated list of one-based beat numbers, e.g.
// "2,4", into zero-based beat indices. Beats outside the bar are an error.
func ParseTargets(s string, beatsPerBar int) ([]int, error) {
	var ret []int
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("could not parse target beat %q: %w", field, err)
		}
		if n < 1 || n > beatsPerBar {
			return nil, fmt.Errorf("target beat %v is not within a bar of %v beats", n, beatsPerBar)
		}
		ret = append(ret, n-1)
	}
	if len(ret) == 0 {
		for i := 0; i < beatsPerBar; i++ {
			ret = append(ret, i)
		}
	}
	return ret, nil
}

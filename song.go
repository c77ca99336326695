package rhythm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"gopkg.in/yaml.v3"
)

type (
	// Song bundles everything one play session needs: the tempo, the click
	// pattern of the metronome, an optional count-in played before the song
	// starts, and the choreography, i.e. the action the player is expected to
	// perform on each sub-beat.
	Song struct {
		Title  string `yaml:",omitempty" json:",omitempty"`
		Author string `yaml:",omitempty" json:",omitempty"`
		Year   string `yaml:",omitempty" json:",omitempty"`
		Href   string `yaml:",omitempty" json:",omitempty"`

		BPM         float64
		BeatsPerBar int
		SubsPerBeat int

		// Metronome holds accent levels: 2 for a strong click, 1 for a weak
		// click, None for silence.
		Metronome Pattern[int]    `yaml:",omitempty" json:",omitempty"`
		CountIn   Pattern[int]    `yaml:",omitempty" json:",omitempty"`
		Wrap      WrapPolicy      `yaml:",omitempty" json:",omitempty"`
		// Choreography names the action expected on each sub-beat, e.g. "swim"
		// or "turn".
		Choreography Arrangement[string] `yaml:",omitempty" json:",omitempty"`
	}
)

// ErrInvalidSong is wrapped by the errors returned from Song.Validate.
var ErrInvalidSong = errors.New("invalid song")

// DefaultMetronome returns a one bar 4/4 click with accents on beats one and
// three.
func DefaultMetronome() Pattern[int] {
	return Dense([][][]int{{{2}, {1}, {2}, {1}}})
}

// CountInMetronome returns the two bar count-in played before a song: two
// half-note clicks, then four quarter-note clicks.
func CountInMetronome() Pattern[int] {
	return Pattern[int]{
		{{Some(2)}, {}, {Some(2)}, {}},
		{{Some(2)}, {Some(1)}, {Some(1)}, {Some(1)}},
	}
}

// Tempo returns the tempo the song is played at.
func (s *Song) Tempo() Tempo {
	return Tempo{BPM: s.BPM, BeatsPerBar: s.BeatsPerBar, SubsPerBeat: s.SubsPerBeat}
}

// Validate checks that the song can be scheduled: a positive finite BPM and
// a positive meter.
func (s *Song) Validate() error {
	if !(s.BPM > 0) || math.IsInf(s.BPM, 0) {
		return fmt.Errorf("%w: bpm should be positive, got %v", ErrInvalidSong, s.BPM)
	}
	if s.BeatsPerBar <= 0 {
		return fmt.Errorf("%w: beats per bar should be positive, got %v", ErrInvalidSong, s.BeatsPerBar)
	}
	if s.SubsPerBeat <= 0 {
		return fmt.Errorf("%w: subs per beat should be positive, got %v", ErrInvalidSong, s.SubsPerBeat)
	}
	return nil
}

// Bars returns the length of the song in bars: the length of the
// choreography, or of the metronome pattern if there is no choreography.
func (s *Song) Bars() int {
	if n := s.Choreography.Bars(); n > 0 {
		return n
	}
	return s.Metronome.Bars()
}

// ReadSong reads a song from r, trying first JSON and then YAML. Missing meter
// fields default to 4/4 with no subdivision and a missing metronome to
// DefaultMetronome. The returned song is validated.
func ReadSong(r io.Reader) (Song, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Song{}, fmt.Errorf("could not read song: %w", err)
	}
	var song Song
	if errJSON := json.Unmarshal(b, &song); errJSON != nil {
		song = Song{}
		if errYaml := yaml.Unmarshal(b, &song); errYaml != nil {
			return Song{}, fmt.Errorf("the song could not be parsed as .json (%v) or .yml (%v)", errJSON, errYaml)
		}
	}
	if song.BeatsPerBar == 0 {
		song.BeatsPerBar = 4
	}
	if song.SubsPerBeat == 0 {
		song.SubsPerBeat = 1
	}
	if song.Metronome == nil {
		song.Metronome = DefaultMetronome()
	}
	if err := song.Validate(); err != nil {
		return Song{}, err
	}
	return song, nil
}

// Write encodes the song to w: JSON if ext is ".json", YAML otherwise.
func (s *Song) Write(w io.Writer, ext string) error {
	if ext == ".json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("could not encode song as json: %w", err)
		}
		return nil
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("could not encode song as yaml: %w", err)
	}
	return enc.Close()
}

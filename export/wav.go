package export

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/dalps/rhythm/click"
)

const wavChunk = 4096 // frames rendered per encoder write

// WriteWav renders the metronome of the timeline as a 16-bit stereo WAV
// file, long enough for the last click to ring out.
func (t Timeline) WriteWav(w io.WriteSeeker, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %v", sampleRate)
	}
	track := click.NewTrack(sampleRate)
	for _, r := range t.Rows {
		track.Click(r.Time, r.Click)
	}
	frames := int(math.Ceil((t.Duration + click.Length) * float64(sampleRate)))
	enc := wav.NewEncoder(w, sampleRate, 16, click.Channels, 1)
	buf := make([]float32, wavChunk*click.Channels)
	ints := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: click.Channels, SampleRate: sampleRate},
		Data:           make([]int, 0, len(buf)),
		SourceBitDepth: 16,
	}
	for done := 0; done < frames; done += wavChunk {
		samples := buf[:min(wavChunk, frames-done)*click.Channels]
		track.Render(samples)
		ints.Data = ints.Data[:0]
		for _, v := range samples {
			ints.Data = append(ints.Data, int(math.Round(float64(min(max(v, -1), 1))*math.MaxInt16)))
		}
		if err := enc.Write(ints); err != nil {
			return fmt.Errorf("could not encode wav: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("could not finish wav: %w", err)
	}
	return nil
}

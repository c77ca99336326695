// Package export renders songs to human readable timelines: a plain text
// listing of every sub-beat, and a Markdown chart of the choreography.
package export

import (
	"bytes"
	"embed"
	"fmt"
	"math"
	"path"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/dalps/rhythm"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type (
	// Exporter renders songs with the embedded templates.
	Exporter struct {
		tmpl *template.Template
	}

	// Timeline is the data the templates are executed with.
	Timeline struct {
		Song     rhythm.Song
		Tempo    rhythm.Tempo
		SubDelta float64 // seconds
		Duration float64 // seconds
		Policy   string
		Bars     int
		Rows     []Row
		Actions  []ActionCount
		Grid     []GridBar
	}

	// Row is a single sub-beat of the song.
	Row struct {
		Coordinate rhythm.Coordinate
		Time       float64 // seconds since the first sub-beat
		Click      int     // metronome accent level, 0 for silence
		Action     string  // choreography action, empty for none
		Downbeat   bool    // first sub-beat of a bar
	}

	// ActionCount tells how many times an action occurs in the choreography.
	ActionCount struct {
		Name  string
		Count int
	}

	// GridBar lists the actions of each beat of a bar, sub-beats separated by
	// spaces.
	GridBar struct {
		Bar   int
		Beats []string
	}
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var title = cases.Title(language.English)

var funcs = template.FuncMap{
	"titlecase": func(s string) string { return title.String(s) },
	"clock":     clock,
	"click":     clickMark,
}

// New parses the embedded templates.
func New() (*Exporter, error) {
	tmpl, err := template.New("base").Funcs(sprig.TxtFuncMap()).Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf(`could not create template based on embedded templates: %v`, err)
	}
	return &Exporter{tmpl: tmpl}, nil
}

// Extensions returns the extensions of the outputs of Song, e.g. ".txt".
func (e *Exporter) Extensions() []string {
	var ret []string
	for _, t := range e.tmpl.Templates() {
		if ext, ok := extension(t.Name()); ok {
			ret = append(ret, ext)
		}
	}
	sort.Strings(ret)
	return ret
}

// Song renders the song with every template, returning the outputs keyed by
// file extension.
func (e *Exporter) Song(song rhythm.Song) (map[string]string, error) {
	data := NewTimeline(song)
	ret := map[string]string{}
	for _, t := range e.tmpl.Templates() {
		ext, ok := extension(t.Name())
		if !ok {
			continue
		}
		var buf bytes.Buffer
		if err := t.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf(`could not execute template "%v": %v`, t.Name(), err)
		}
		ret[ext] = buf.String()
	}
	return ret, nil
}

// NewTimeline lays the song out sub-beat by sub-beat. The metronome loops for
// the whole length of the song; the choreography follows the wrap policy of
// the song.
func NewTimeline(song rhythm.Song) Timeline {
	tempo := song.Tempo()
	t := Timeline{
		Song:     song,
		Tempo:    tempo,
		SubDelta: tempo.SubDelta(),
		Policy:   song.Wrap.String(),
		Bars:     song.Bars(),
	}
	choreography := song.Choreography.Pattern()
	counts := map[string]int{}
	steps := t.Bars * tempo.Steps()
	t.Duration = float64(steps) * t.SubDelta
	for n := 0; n < steps; n++ {
		c := tempo.Coordinate(n)
		row := Row{
			Coordinate: c,
			Time:       float64(n) * t.SubDelta,
			Click:      song.Metronome.Resolve(c, rhythm.Loop).Or(0),
			Action:     choreography.Resolve(c, song.Wrap).Or(""),
			Downbeat:   c.Beat == 0 && c.Sub == 0,
		}
		t.Rows = append(t.Rows, row)
		if row.Action != "" {
			counts[row.Action]++
		}
		if row.Downbeat {
			t.Grid = append(t.Grid, GridBar{Bar: c.Bar, Beats: make([]string, tempo.Beats())})
		}
		if row.Action != "" {
			g := &t.Grid[len(t.Grid)-1]
			g.Beats[c.Beat] = strings.TrimSpace(g.Beats[c.Beat] + " " + row.Action)
		}
	}
	for name, count := range counts {
		t.Actions = append(t.Actions, ActionCount{Name: name, Count: count})
	}
	sort.Slice(t.Actions, func(i, j int) bool {
		if t.Actions[i].Count != t.Actions[j].Count {
			return t.Actions[i].Count > t.Actions[j].Count
		}
		return t.Actions[i].Name < t.Actions[j].Name
	})
	return t
}

// extension maps a template name like "chart.md.tmpl" to ".md".
func extension(name string) (string, bool) {
	if path.Ext(name) != ".tmpl" {
		return "", false
	}
	ext := path.Ext(strings.TrimSuffix(name, ".tmpl"))
	return ext, ext != ""
}

// clock formats seconds as m:ss.mmm.
func clock(seconds float64) string {
	ms := int(math.Round(seconds * 1000))
	return fmt.Sprintf("%d:%02d.%03d", ms/60000, ms/1000%60, ms%1000)
}

func clickMark(level int) string {
	switch {
	case level >= 2:
		return "X"
	case level == 1:
		return "x"
	}
	return "."
}

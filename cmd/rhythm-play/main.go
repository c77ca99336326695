package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dalps/rhythm"
	"github.com/dalps/rhythm/beat"
	"github.com/dalps/rhythm/cmd"
	"github.com/dalps/rhythm/config"
	"github.com/dalps/rhythm/logger"
	"github.com/dalps/rhythm/midi"
	"github.com/dalps/rhythm/oto"
	"github.com/dalps/rhythm/score"
	"github.com/dalps/rhythm/session"
	"github.com/dalps/rhythm/version"
)

var (
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555"))
	actionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#fff"))
	hitStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5f5")).Bold(true)
	missStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f55"))
	passedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5f5")).Bold(true)
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#fa5")).Bold(true)
)

func main() {
	bpm := flag.Float64("bpm", 120, "Tempo in beats per minute, when no song is given.")
	beats := flag.Int("beats", 4, "Beats per bar, when no song is given.")
	subs := flag.Int("subs", 1, "Sub-beats per beat, when no song is given.")
	bars := flag.Int("bars", 0, "Stop after this many bars, count-in excluded. By default, songs play to their end and the bare metronome plays until interrupted.")
	countIn := flag.Bool("c", false, "Play a two bar count-in before songs that have none.")
	silent := flag.Bool("silent", false, "Do not open the audio device; keep time with the system clock.")
	midiInput := flag.String("midi-input", "", "Score note-ons of the first MIDI input whose name starts with this prefix. Overrides the engine config.")
	midiOutput := flag.String("midi-output", "", "Play the metronome on the first MIDI output whose name starts with this prefix. Overrides the engine config.")
	targets := flag.String("targets", "", "Comma separated beats of the bar the player should hit, counting from 1. By default, every beat.")
	quiet := flag.Bool("q", false, "Do not print the beats as they are played.")
	logEcho := flag.Bool("log", false, "Print the engine log to standard error.")
	help := flag.Bool("h", false, "Show help.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.Describe("rhythm-play"))
		os.Exit(0)
	}
	if *help || flag.NArg() > 1 {
		flag.Usage()
		os.Exit(0)
	}
	engine := config.MakeEngine()
	if engine.YmlError != nil {
		fmt.Fprintf(os.Stderr, "using default engine settings: %v\n", engine.YmlError)
	}
	if *logEcho || engine.LogEcho {
		logger.SetEcho(os.Stderr)
	}
	var song rhythm.Song
	var err error
	if flag.NArg() == 1 {
		song, err = cmd.ReadSongFile(flag.Arg(0))
	} else {
		song, err = cmd.MetronomeSong(*bpm, *beats, *subs)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	targetBeats, err := cmd.ParseTargets(*targets, song.BeatsPerBar)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	opts := engine.Options()
	var audio *oto.Context
	if !*silent {
		audio, err = oto.NewContext(engine.SampleRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not acquire oto AudioContext, keeping time with the system clock: %v\n", err)
		} else {
			defer audio.Close()
			opts = append(opts, beat.WithClock(audio))
		}
	}
	midiContext := cmd.NewMidiContext()
	defer midiContext.Close()
	if *midiInput == "" {
		*midiInput = engine.Midi.Input
	}
	if *midiOutput == "" {
		*midiOutput = engine.Midi.Output
	}
	var hits <-chan midi.Hit
	if *midiInput != "" {
		if err := midiContext.Open(*midiInput); err != nil {
			fmt.Fprintf(os.Stderr, "could not open MIDI input %q: %v\n", *midiInput, err)
		} else {
			hits = midiContext.Hits()
		}
	}
	var sender midi.Sender
	if *midiOutput != "" {
		if sender, err = midiContext.Output(*midiOutput); err != nil {
			fmt.Fprintf(os.Stderr, "could not open MIDI output %q: %v\n", *midiOutput, err)
		}
	}

	b := beat.New(song.BPM, song.BeatsPerBar, song.SubsPerBeat, opts...)
	defer b.Close()
	judge := score.NewJudge(b, targetBeats, engine.GoodThreshold, engine.Goal)
	s := session.New(b, song, session.Options{
		CountIn: *countIn,
		Bars:    *bars,
		OnEvent: func(e session.Event) {
			if e.Click > 0 {
				if audio != nil {
					audio.Click(audio.Now(), e.Click)
				}
				if sender != nil {
					if key, velocity, ok := midi.Click(e.Click); ok {
						if err := sender.Note(midi.DrumChannel, key, velocity); err != nil {
							logger.Logf("midi", "could not send click: %v", err)
						}
					}
				}
			}
			if !*quiet {
				printEvent(e)
			}
		},
	})
	defer s.Close()

	if song.Title != "" {
		fmt.Printf("%v", song.Title)
		if song.Author != "" {
			fmt.Printf(" by %v", song.Author)
		}
		fmt.Println()
	}
	fmt.Printf("%g bpm, %v/%v, hit beats %v and press enter or a MIDI pad to score\n", song.BPM, song.BeatsPerBar, song.SubsPerBeat, oneBased(targetBeats))

	keys := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			keys <- struct{}{}
		}
	}()
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	s.Play()
loop:
	for {
		select {
		case <-keys:
			judgeHit(judge)
		case <-hits:
			judgeHit(judge)
		case <-s.Done():
			break loop
		case <-interrupt:
			break loop
		}
	}
	s.Close()
	report(judge)
}

func judgeHit(j *score.Judge) {
	hit, ok := j.Hit()
	if !ok {
		return
	}
	mark := missStyle.Render("miss")
	if hit.Accepted {
		mark = hitStyle.Render("hit ")
	}
	fmt.Printf("%-9v %v %.2f %v\n", hit.Coordinate, mark, hit.Sample.Accuracy, dimStyle.Render(fmt.Sprintf("(%v left)", j.Left())))
}

func printEvent(e session.Event) {
	switch {
	case e.CountIn && e.Click > 0:
		fmt.Printf("%-9v %v\n", e.Coordinate, dimStyle.Render("count-in"))
	case e.Action != "":
		fmt.Printf("%-9v %v\n", e.Song, actionStyle.Render(e.Action))
	}
}

func report(j *score.Judge) {
	card := j.Scorecard()
	if card.Len() == 0 {
		fmt.Println("no hits scored")
		return
	}
	rating := score.Rate(j.Score())
	title := cases.Title(language.English)
	style := failedStyle
	if rating.Passed() {
		style = passedStyle
	}
	fmt.Printf("%v: %.0f%%, %v\n", style.Render(title.String(rating.Name)), j.Score()*100, rating.Message)
	fmt.Printf("%v hits, mean %.2f, best %.2f, worst %.2f\n", card.Len(), card.Mean(), card.Best(), card.Worst())
}

func oneBased(beats []int) []int {
	ret := make([]int, len(beats))
	for i, b := range beats {
		ret[i] = b + 1
	}
	return ret
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Rhythm player. Plays a .yml or .json song, or a bare metronome, and scores the beats you hit.\nUsage: %s [flags] [song]\n", os.Args[0])
	flag.PrintDefaults()
}

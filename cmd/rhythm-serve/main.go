package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/dalps/rhythm"
	"github.com/dalps/rhythm/cmd"
	"github.com/dalps/rhythm/config"
	"github.com/dalps/rhythm/logger"
	"github.com/dalps/rhythm/version"
)

func main() {
	addr := flag.String("addr", ":10000", "Address to listen on.")
	bpm := flag.Float64("bpm", 120, "Tempo in beats per minute, when no song is given.")
	beats := flag.Int("beats", 4, "Beats per bar, when no song is given.")
	subs := flag.Int("subs", 1, "Sub-beats per beat, when no song is given.")
	countIn := flag.Bool("c", false, "Play a two bar count-in before songs that have none.")
	targets := flag.String("targets", "", "Comma separated beats of the bar the player should hit, counting from 1. By default, every beat.")
	logEcho := flag.Bool("log", false, "Print the engine log to standard error.")
	help := flag.Bool("h", false, "Show help.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.Describe("rhythm-serve"))
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
	srv := newServer(song, *countIn, targetBeats, engine.GoodThreshold, engine.Goal, engine.Options()...)
	defer srv.close()
	http.Handle("/", srv.router())

	fmt.Printf("Starting server on %s\n", *addr)
	if err := http.ListenAndServe(*addr, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting server: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Rhythm server. Plays a .yml or .json song, or a bare metronome, controlled over HTTP.\nUsage: %s [flags] [song]\n", os.Args[0])
	flag.PrintDefaults()
}

package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dalps/rhythm/cmd"
	"github.com/dalps/rhythm/config"
	"github.com/dalps/rhythm/export"
	"github.com/dalps/rhythm/version"
)

func filterExtensions(input map[string]string, extensions []string) map[string]string {
	ret := map[string]string{}
	for _, ext := range extensions {
		extWithDot := "." + strings.TrimPrefix(strings.TrimSpace(ext), ".")
		if inputVal, ok := input[extWithDot]; ok {
			ret[extWithDot] = inputVal
		}
	}
	return ret
}

func main() {
	safe := flag.Bool("n", false, "Never overwrite files; if file already exists and would be overwritten, give an error.")
	stdout := flag.Bool("s", false, "Do not write files; write to standard output instead.")
	help := flag.Bool("h", false, "Show help.")
	jsonOut := flag.Bool("j", false, "Also output the song itself as .json file.")
	yamlOut := flag.Bool("y", false, "Also output the song itself as .yml file.")
	wavOut := flag.Bool("w", false, "Also render the metronome of the song as .wav file. Ignored when writing to standard output.")
	sampleRate := flag.Int("rate", 0, "Sample rate of the .wav file. By default, the sample rate of the engine config.")
	outDir := flag.String("o", "", "Directory where to write the outputs. The directory and its parents are created if needed. By default, everything is placed in the working directory.")
	extensionsOut := flag.String("e", "", "Output only the files with these comma separated extensions. For example: txt,md")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.Describe("rhythm-export"))
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	exporter, err := export.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error creating exporter: %v\n", err)
		os.Exit(1)
	}
	if *sampleRate <= 0 {
		*sampleRate = config.MakeEngine().SampleRate
	}
	target := func(filename string, extension string) (string, error) {
		_, name := filepath.Split(filename)
		dir := *outDir
		if dir == "" {
			var err error
			dir, err = os.Getwd()
			if err != nil {
				return "", fmt.Errorf("could not get working directory, specify the output directory explicitly: %v", err)
			}
		}
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return "", fmt.Errorf("could not create output directory %v: %v", dir, err)
		}
		name = strings.TrimSuffix(name, filepath.Ext(name)) + extension
		return filepath.Join(dir, name), nil
	}
	output := func(filename string, extension string, contents []byte) error {
		if *stdout {
			fmt.Print(string(contents))
			return nil
		}
		f, err := target(filename, extension)
		if err != nil {
			return err
		}
		original, err := os.ReadFile(f)
		if err == nil {
			if bytes.Equal(original, contents) {
				return nil // no need to update
			}
			if *safe {
				return fmt.Errorf("file %v would be overwritten by exporter", f)
			}
		}
		if err := os.WriteFile(f, contents, 0644); err != nil {
			return fmt.Errorf("could not write file %v: %v", f, err)
		}
		return nil
	}
	outputWav := func(filename string, timeline export.Timeline) error {
		f, err := target(filename, ".wav")
		if err != nil {
			return err
		}
		if _, err := os.Stat(f); err == nil && *safe {
			return fmt.Errorf("file %v would be overwritten by exporter", f)
		}
		file, err := os.Create(f)
		if err != nil {
			return fmt.Errorf("could not create file %v: %v", f, err)
		}
		if err := timeline.WriteWav(file, *sampleRate); err != nil {
			file.Close()
			return err
		}
		return file.Close()
	}
	process := func(filename string) error {
		song, err := cmd.ReadSongFile(filename)
		if err != nil {
			return err
		}
		outputs, err := exporter.Song(song)
		if err != nil {
			return fmt.Errorf("exporting song failed: %v", err)
		}
		if *jsonOut || *yamlOut {
			for _, ext := range []string{".json", ".yml"} {
				if (ext == ".json" && !*jsonOut) || (ext == ".yml" && !*yamlOut) {
					continue
				}
				var buf bytes.Buffer
				if err := song.Write(&buf, ext); err != nil {
					return err
				}
				outputs[ext] = buf.String()
			}
		}
		if len(*extensionsOut) > 0 {
			outputs = filterExtensions(outputs, strings.Split(*extensionsOut, ","))
		}
		for extension, contents := range outputs {
			if err := output(filename, extension, []byte(contents)); err != nil {
				return fmt.Errorf("error outputting %v file: %v", extension, err)
			}
		}
		if *wavOut && !*stdout {
			if err := outputWav(filename, export.NewTimeline(song)); err != nil {
				return fmt.Errorf("error outputting .wav file: %v", err)
			}
		}
		return nil
	}
	retval := 0
	for _, param := range flag.Args() {
		if info, err := os.Stat(param); err == nil && info.IsDir() {
			jsonfiles, err := filepath.Glob(filepath.Join(param, "*.json"))
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not glob the path %v for json files: %v\n", param, err)
				retval = 1
				continue
			}
			ymlfiles, err := filepath.Glob(filepath.Join(param, "*.yml"))
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not glob the path %v for yml files: %v\n", param, err)
				retval = 1
				continue
			}
			files := append(ymlfiles, jsonfiles...)
			for _, file := range files {
				if err := process(file); err != nil {
					fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", file, err)
					retval = 1
				}
			}
		} else {
			if err := process(param); err != nil {
				fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", param, err)
				retval = 1
			}
		}
	}
	os.Exit(retval)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Rhythm exporter. Input .yml or .json songs, outputs their timelines (%v files).\nUsage: %s [flags] [path ...]\n", strings.Join(exportExtensions(), ", "), os.Args[0])
	flag.PrintDefaults()
}

func exportExtensions() []string {
	exporter, err := export.New()
	if err != nil {
		return nil
	}
	return exporter.Extensions()
}

// Package config loads the engine settings: defaults embedded in the binary,
// overridden by engine.yml in the user config directory.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/dalps/rhythm/beat"
)

type (
	Engine struct {
		Lookahead     time.Duration
		ScheduleAhead time.Duration
		SampleRate    int
		GoodThreshold float64
		Goal          int
		LogEcho       bool
		Midi          MidiPorts

		// YmlError is the error of reading the user config file, if it
		// exists but could not be parsed. The defaults are used then.
		YmlError error `yaml:"-"`
	}

	// MidiPorts name the MIDI ports to open by default, by name prefix. An
	// empty name opens nothing.
	MidiPorts struct {
		Input  string
		Output string
	}
)

//go:embed engine.yml
var defaultEngineYaml []byte

// ConfigDir is the directory under os.UserConfigDir where the user config
// files are looked up.
const ConfigDir = "rhythm"

func loadDefaultEngine() Engine {
	var engine Engine
	err := yaml.UnmarshalStrict(defaultEngineYaml, &engine)
	if err != nil {
		panic(fmt.Errorf("failed to unmarshal engine config: %w", err))
	}
	return engine
}

// ReadCustomConfigYml modifies the target argument, i.e. needs a pointer
func ReadCustomConfigYml(filename string, target interface{}) (exists bool, err error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return false, err
	}
	path := filepath.Join(configDir, ConfigDir, filename)
	bytes, err2 := os.ReadFile(path)
	if err2 != nil {
		return false, err2
	}
	err = yaml.Unmarshal(bytes, target)
	return true, err
}

// MakeEngine returns the default settings overridden by the user's
// engine.yml, if there is one. If the file cannot be parsed, the defaults are
// returned with YmlError set.
func MakeEngine() Engine {
	engine := loadDefaultEngine()
	custom := engine
	exists, err := ReadCustomConfigYml("engine.yml", &custom)
	if !exists {
		return engine
	}
	if err != nil {
		engine.YmlError = fmt.Errorf("could not parse engine.yml: %w", err)
		return engine
	}
	return custom
}

// Options returns the beat options matching the settings.
func (e Engine) Options() []beat.Option {
	var opts []beat.Option
	if e.Lookahead > 0 {
		opts = append(opts, beat.WithLookahead(e.Lookahead))
	}
	if e.ScheduleAhead > 0 {
		opts = append(opts, beat.WithScheduleAhead(e.ScheduleAhead))
	}
	return opts
}

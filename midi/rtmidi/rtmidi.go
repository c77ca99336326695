// Package rtmidi implements midi.Context on the rtmidi driver of gomidi. It
// needs cgo.
package rtmidi

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dalps/rhythm/logger"
	"github.com/dalps/rhythm/midi"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

type (
	Context struct {
		driver *rtmididrv.Driver
		hits   chan midi.Hit

		mu      sync.Mutex
		in      drivers.In
		stopIn  func()
		outs    []drivers.Out
		dropped int
	}

	sender struct {
		send func(msg gomidi.Message) error
	}
)

var _ midi.Context = (*Context)(nil)

// NewContext opens the rtmidi driver. If that fails, the Context works but
// has no ports.
func NewContext() *Context {
	c := &Context{hits: make(chan midi.Hit, midi.HitBuffer)}
	driver, err := rtmididrv.New()
	if err != nil {
		logger.Logf("midi", "could not open rtmidi driver: %v", err)
		return c
	}
	c.driver = driver
	return c
}

func (c *Context) Inputs() []string {
	if c.driver == nil {
		return nil
	}
	ins, err := c.driver.Ins()
	if err != nil {
		logger.Logf("midi", "could not list inputs: %v", err)
		return nil
	}
	ret := make([]string, len(ins))
	for i, in := range ins {
		ret[i] = in.String()
	}
	return ret
}

// Open listens to the first input whose name starts with prefix, closing the
// input that was open before.
func (c *Context) Open(prefix string) error {
	if c.driver == nil {
		return errors.New("no MIDI driver available")
	}
	ins, err := c.driver.Ins()
	if err != nil {
		return fmt.Errorf("could not list MIDI inputs: %w", err)
	}
	for _, in := range ins {
		if !strings.HasPrefix(in.String(), prefix) {
			continue
		}
		c.closeInput()
		if err := in.Open(); err != nil {
			return fmt.Errorf("opening MIDI input failed: %w", err)
		}
		stop, err := gomidi.ListenTo(in, c.handleMessage)
		if err != nil {
			in.Close()
			return fmt.Errorf("listening to MIDI input failed: %w", err)
		}
		c.mu.Lock()
		c.in, c.stopIn = in, stop
		c.mu.Unlock()
		logger.Logf("midi", "listening to %v", in)
		return nil
	}
	return fmt.Errorf("%w: input %q", midi.ErrNoPort, prefix)
}

func (c *Context) Hits() <-chan midi.Hit {
	return c.hits
}

// Output opens the first output whose name starts with prefix.
func (c *Context) Output(prefix string) (midi.Sender, error) {
	if c.driver == nil {
		return nil, errors.New("no MIDI driver available")
	}
	outs, err := c.driver.Outs()
	if err != nil {
		return nil, fmt.Errorf("could not list MIDI outputs: %w", err)
	}
	for _, out := range outs {
		if !strings.HasPrefix(out.String(), prefix) {
			continue
		}
		send, err := gomidi.SendTo(out)
		if err != nil {
			return nil, fmt.Errorf("opening MIDI output failed: %w", err)
		}
		c.mu.Lock()
		c.outs = append(c.outs, out)
		c.mu.Unlock()
		logger.Logf("midi", "sending to %v", out)
		return sender{send: send}, nil
	}
	return nil, fmt.Errorf("%w: output %q", midi.ErrNoPort, prefix)
}

func (c *Context) Close() {
	if c.driver == nil {
		return
	}
	c.closeInput()
	c.mu.Lock()
	for _, out := range c.outs {
		if out.IsOpen() {
			out.Close()
		}
	}
	c.outs = nil
	c.mu.Unlock()
	c.driver.Close()
}

func (c *Context) closeInput() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopIn != nil {
		c.stopIn()
		c.stopIn = nil
	}
	if c.in != nil && c.in.IsOpen() {
		c.in.Close()
	}
	c.in = nil
}

func (c *Context) handleMessage(msg gomidi.Message, timestampms int32) {
	h, ok := midi.IsHit(msg)
	if !ok {
		return
	}
	if !midi.Deliver(c.hits, h) {
		c.mu.Lock()
		c.dropped++
		n := c.dropped
		c.mu.Unlock()
		logger.Logf("midi", "hit buffer full, %d hits dropped", n)
	}
}

func (s sender) Note(channel, key, velocity uint8) error {
	if err := s.send(gomidi.NoteOn(channel, key, velocity)); err != nil {
		return fmt.Errorf("could not send note on: %w", err)
	}
	if err := s.send(gomidi.NoteOff(channel, key)); err != nil {
		return fmt.Errorf("could not send note off: %w", err)
	}
	return nil
}

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dalps/rhythm"
	"github.com/dalps/rhythm/beat"
	"github.com/dalps/rhythm/cmd"
)

type fakeClock struct {
	mu  sync.Mutex
	now float64
}

func (c *fakeClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type manualTicks struct {
	ticks chan struct{}
}

func (m *manualTicks) Start()                    {}
func (m *manualTicks) Stop()                     {}
func (m *manualTicks) SetInterval(time.Duration) {}
func (m *manualTicks) Ticks() <-chan struct{}    { return m.ticks }
func (m *manualTicks) Close()                    {}

func syncDeferrer(d time.Duration, f func()) func() bool {
	f()
	return func() bool { return false }
}

func newTestServer(t *testing.T) (*server, *fakeClock, *manualTicks, *httptest.Server) {
	t.Helper()
	song, err := cmd.MetronomeSong(600, 4, 1)
	if err != nil {
		t.Fatalf("could not make song: %v", err)
	}
	clock := &fakeClock{}
	ticks := &manualTicks{ticks: make(chan struct{})}
	srv := newServer(song, false, []int{0}, 0.5, 2,
		beat.WithClock(clock), beat.WithTickSource(ticks), beat.WithDeferrer(syncDeferrer))
	ts := httptest.NewServer(srv.router())
	t.Cleanup(func() {
		ts.Close()
		srv.close()
	})
	return srv, clock, ticks, ts
}

func post(t *testing.T, url string, v interface{}) {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		t.Fatalf("POST %v failed: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST %v: expected status 200, got %v", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("could not decode response of %v: %v", url, err)
	}
}

func TestRoot(t *testing.T) {
	_, _, _, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET / failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %v", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected CORS header, got %q", got)
	}
}

func TestPlayHitStop(t *testing.T) {
	_, clock, _, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/status")
	if err != nil {
		t.Fatalf("GET /status failed: %v", err)
	}
	var status statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("could not decode status: %v", err)
	}
	resp.Body.Close()
	if status.Playing || status.Tempo.BPM != 600 || status.Left != 2 {
		t.Fatalf("unexpected idle status: %+v", status)
	}

	post(t, ts.URL+"/play", &status)
	if !status.Playing {
		t.Fatalf("expected the beat to play after /play")
	}

	// 600 bpm: a beat every 0.1 s, so 0.405 s is just after the second
	// downbeat.
	clock.Set(0.405)
	var hit hitResponse
	post(t, ts.URL+"/hit", &hit)
	if !hit.Judged || !hit.Accepted {
		t.Fatalf("expected an accepted hit, got %+v", hit)
	}
	if hit.Coordinate != rhythm.At(1, 0, 0) {
		t.Fatalf("expected the hit on 2.1.1, got %v", hit.Coordinate)
	}
	if hit.Left != 1 {
		t.Fatalf("expected one hit left, got %v", hit.Left)
	}

	clock.Set(0.52)
	post(t, ts.URL+"/hit", &hit)
	if !hit.Judged || hit.Accepted {
		t.Fatalf("a hit on the second beat should be rejected, got %+v", hit)
	}

	post(t, ts.URL+"/stop", &status)
	if status.Playing {
		t.Fatalf("expected the beat to stop after /stop")
	}
	if status.Position != "2.2.1" {
		t.Fatalf("expected the position frozen at 2.2.1, got %v", status.Position)
	}
}

func TestEvents(t *testing.T) {
	srv, clock, ticks, ts := newTestServer(t)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/events", nil)
	if err != nil {
		t.Fatalf("could not subscribe to events: %v", err)
	}
	defer conn.Close()
	deadline := time.Now().Add(5 * time.Second)
	for srv.hub.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber was not registered")
		}
		time.Sleep(time.Millisecond)
	}

	var status statusResponse
	post(t, ts.URL+"/play", &status)
	clock.Set(0.15)
	ticks.ticks <- struct{}{}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for i, want := range []int{2, 1, 2} {
		var m message
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("could not read event %v: %v", i, err)
		}
		if m.Type != "beat" || m.Event == nil {
			t.Fatalf("expected a beat message, got %+v", m)
		}
		if m.Event.Coordinate != rhythm.At(0, i, 0) {
			t.Fatalf("expected event %v on %v, got %v", i, rhythm.At(0, i, 0), m.Event.Coordinate)
		}
		if m.Event.Click != want {
			t.Fatalf("expected click %v on %v, got %v", want, m.Event.Coordinate, m.Event.Click)
		}
	}
}

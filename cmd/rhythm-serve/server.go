package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/dalps/rhythm"
	"github.com/dalps/rhythm/beat"
	"github.com/dalps/rhythm/logger"
	"github.com/dalps/rhythm/score"
	"github.com/dalps/rhythm/session"
	"github.com/dalps/rhythm/version"
)

type (
	server struct {
		song    rhythm.Song
		countIn bool
		beat    *beat.Beat
		judge   *score.Judge
		hub     *hub

		mu      sync.Mutex
		session *session.Session
	}

	statusResponse struct {
		Title      string              `json:"title,omitempty"`
		Playing    bool                `json:"playing"`
		Coordinate rhythm.Coordinate   `json:"coordinate"`
		Position   string              `json:"position"`
		Sample     rhythm.TimingSample `json:"sample"`
		Tempo      rhythm.Tempo        `json:"tempo"`
		Score      float64             `json:"score"`
		Left       int                 `json:"left"`
	}

	hitResponse struct {
		score.Hit
		Judged bool `json:"judged"` // false once the goal has been reached
		Left   int  `json:"left"`
	}
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func newServer(song rhythm.Song, countIn bool, targets []int, threshold float64, goal int, opts ...beat.Option) *server {
	b := beat.New(song.BPM, song.BeatsPerBar, song.SubsPerBeat, opts...)
	return &server{
		song:    song,
		countIn: countIn,
		beat:    b,
		judge:   score.NewJudge(b, targets, threshold, goal),
		hub:     newHub(),
	}
}

func (s *server) router() *mux.Router {
	router := mux.NewRouter()
	router.Use(cors)
	router.HandleFunc("/", s.handleRoot).Methods("GET")
	router.HandleFunc("/status", s.handleStatus).Methods("GET")
	router.HandleFunc("/play", s.handlePlay).Methods("POST", "OPTIONS")
	router.HandleFunc("/stop", s.handleStop).Methods("POST", "OPTIONS")
	router.HandleFunc("/hit", s.handleHit).Methods("POST", "OPTIONS")
	router.HandleFunc("/events", s.handleEvents).Methods("GET")
	return router
}

func (s *server) close() {
	s.mu.Lock()
	if s.session != nil {
		s.session.Close()
	}
	s.mu.Unlock()
	s.beat.Close()
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "%v. POST /play, /stop and /hit; GET /status; subscribe to /events.\n", version.Describe("rhythm-serve"))
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	c, sample := s.beat.Snapshot()
	writeJSON(w, statusResponse{
		Title:      s.song.Title,
		Playing:    s.beat.IsPlaying(),
		Coordinate: c,
		Position:   c.String(),
		Sample:     sample,
		Tempo:      s.beat.Tempo(),
		Score:      s.judge.Score(),
		Left:       s.judge.Left(),
	})
}

// handlePlay starts a new session, unless one is playing already.
func (s *server) handlePlay(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if !s.beat.IsPlaying() {
		if s.session != nil {
			s.session.Close()
		}
		s.judge.Reset()
		s.session = session.New(s.beat, s.song, session.Options{
			CountIn: s.countIn,
			OnEvent: s.hub.broadcastEvent,
		})
		s.session.Play()
	}
	s.mu.Unlock()
	s.handleStatus(w, r)
}

func (s *server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.beat.Stop()
	s.handleStatus(w, r)
}

func (s *server) handleHit(w http.ResponseWriter, r *http.Request) {
	hit, ok := s.judge.Hit()
	if ok {
		s.hub.broadcastHit(hit)
	}
	writeJSON(w, hitResponse{Hit: hit, Judged: ok, Left: s.judge.Left()})
}

func (s *server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Logf("serve", "could not upgrade connection from %v: %v", r.RemoteAddr, err)
		return
	}
	sub := s.hub.subscribe(conn)
	logger.Logf("serve", "%v subscribed to events", conn.RemoteAddr())
	// Subscribers only listen; reading detects when they go away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.hub.unsubscribe(sub)
	logger.Logf("serve", "%v unsubscribed", conn.RemoteAddr())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, fmt.Sprintf("Error encoding response: %v", err), http.StatusInternalServerError)
	}
}

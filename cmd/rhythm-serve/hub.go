package main

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dalps/rhythm/beat"
	"github.com/dalps/rhythm/logger"
	"github.com/dalps/rhythm/score"
	"github.com/dalps/rhythm/session"
)

const (
	writeWait  = time.Second
	sendBuffer = 64
)

type (
	// hub fans the events of the beat out to the websocket subscribers.
	hub struct {
		mu          sync.Mutex
		subscribers map[*subscriber]struct{}
	}

	subscriber struct {
		conn *websocket.Conn
		mu   sync.Mutex
		send chan []byte
	}

	message struct {
		Type  string         `json:"type"` // "beat" or "hit"
		Event *session.Event `json:"event,omitempty"`
		Hit   *score.Hit     `json:"hit,omitempty"`
	}
)

func newHub() *hub {
	return &hub{subscribers: map[*subscriber]struct{}{}}
}

// WriteMessage sends a websocket message guarded by the subscriber's mutex and
// write deadline.
func (s *subscriber) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(messageType, data)
}

func (h *hub) subscribe(conn *websocket.Conn) *subscriber {
	sub := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()
	go h.write(sub)
	return sub
}

func (h *hub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribers[sub]; !ok {
		return
	}
	delete(h.subscribers, sub)
	close(sub.send)
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (h *hub) write(sub *subscriber) {
	defer sub.conn.Close()
	for data := range sub.send {
		if err := sub.WriteMessage(websocket.TextMessage, data); err != nil {
			logger.Logf("serve", "failed to send event to %v: %v", sub.conn.RemoteAddr(), err)
			h.unsubscribe(sub)
			return
		}
	}
}

// broadcast queues m for every subscriber. Subscribers that fall behind miss
// messages rather than hold up the beat.
func (h *hub) broadcast(m message) {
	data, err := json.Marshal(m)
	if err != nil {
		logger.Logf("serve", "could not marshal %v message: %v", m.Type, err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subscribers {
		if !beat.TrySend(sub.send, data) {
			logger.Logf("serve", "dropped %v message to %v", m.Type, sub.conn.RemoteAddr())
		}
	}
}

func (h *hub) broadcastEvent(e session.Event) {
	h.broadcast(message{Type: "beat", Event: &e})
}

func (h *hub) broadcastHit(hit score.Hit) {
	h.broadcast(message{Type: "hit", Hit: &hit})
}

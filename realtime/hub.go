package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Event is one frame on the websocket wire, both for server-pushed
// change notifications and for join/leave acknowledgements.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

const sessionBuffer = 16

// Session is one connected viewer. Frames queue on a buffered outbound
// channel drained by the connection's write pump; when the buffer is
// full the frame is dropped rather than blocking the hub.
type Session struct {
	mu     sync.Mutex
	out    chan []byte
	closed bool
}

func newSession() *Session {
	return &Session{out: make(chan []byte, sessionBuffer)}
}

func (s *Session) send(frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.out <- frame:
	default:
		slog.Warn("dropping frame for slow session")
	}
}

func (s *Session) sendEvent(name string, data any) {
	frame, err := json.Marshal(Event{Name: name, Data: data})
	if err != nil {
		slog.Error("marshal event", "event", name, "err", err)
		return
	}
	s.send(frame)
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.out)
	}
}

// Hub routes change events to viewers by basket code. Membership is
// shared mutable state; all map access goes through mu so join, leave
// and publish are safe from independent goroutines.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*Session]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Session]struct{})}
}

// Subscribe adds the session to the channel for code. Idempotent:
// joining a channel twice neither fails nor duplicates deliveries.
func (h *Hub) Subscribe(code string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[code]
	if room == nil {
		room = make(map[*Session]struct{})
		h.rooms[code] = room
	}
	room[s] = struct{}{}
}

// Unsubscribe removes the session from the channel for code. Leaving a
// channel that was never joined is a no-op.
func (h *Hub) Unsubscribe(code string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[code]
	delete(room, s)
	if len(room) == 0 {
		delete(h.rooms, code)
	}
}

// Drop removes the session from every channel and closes its outbox.
// Called when the underlying connection goes away.
func (h *Hub) Drop(s *Session) {
	h.mu.Lock()
	for code, room := range h.rooms {
		delete(room, s)
		if len(room) == 0 {
			delete(h.rooms, code)
		}
	}
	h.mu.Unlock()
	s.close()
}

// Publish delivers the event to every current subscriber of code and to
// no one else. Events are not persisted: a viewer not subscribed at
// publish time never sees the event.
func (h *Hub) Publish(code, event string, data any) {
	frame, err := json.Marshal(Event{Name: event, Data: data})
	if err != nil {
		slog.Error("marshal event", "event", event, "err", err)
		return
	}
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.rooms[code]))
	for s := range h.rooms[code] {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()
	for _, s := range sessions {
		s.send(frame)
	}
}

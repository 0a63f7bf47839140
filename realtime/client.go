package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser and native clients connect from arbitrary origins.
	CheckOrigin: func(*http.Request) bool { return true },
}

// controlMessage is what a viewer sends to manage its channel
// membership: join_room / leave_room with the basket code.
type controlMessage struct {
	Event string `json:"event"`
	Data  struct {
		BasketCode string `json:"basket_code"`
	} `json:"data"`
}

// ServeWS upgrades the request to a websocket and runs the session until
// the connection drops. Reads and writes run in separate goroutines in
// the usual pump arrangement.
func ServeWS(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("failed to upgrade", "err", err)
			return
		}
		s := newSession()
		go writePump(conn, s)
		readPump(conn, hub, s)
	}
}

func readPump(conn *websocket.Conn, hub *Hub, s *Session) {
	defer func() {
		hub.Drop(s)
		_ = conn.Close()
	}()
	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read failed", "err", err)
			}
			return
		}
		var msg controlMessage
		if err := json.Unmarshal(p, &msg); err != nil {
			slog.Warn("bad control message", "err", err)
			continue
		}
		switch msg.Event {
		case "join_room":
			hub.Subscribe(msg.Data.BasketCode, s)
			s.sendEvent("room_joined", map[string]any{
				"message": fmt.Sprintf("Joined basket %s", msg.Data.BasketCode),
			})
		case "leave_room":
			hub.Unsubscribe(msg.Data.BasketCode, s)
			s.sendEvent("room_left", map[string]any{
				"message": fmt.Sprintf("Left basket %s", msg.Data.BasketCode),
			})
		default:
			// Unknown control events are ignored.
		}
	}
}

func writePump(conn *websocket.Conn, s *Session) {
	defer conn.Close()
	for frame := range s.out {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}
	// Outbox closed: say goodbye properly before dropping the conn.
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/hperssn/clockd/internal/domain"
	"github.com/hperssn/clockd/internal/runner"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Message is what the server writes to a WebSocket client.
type Message struct {
	Type     string                `json:"type"`
	Event    *domain.Event         `json:"event,omitempty"`
	Snapshot *domain.ClockSnapshot `json:"snapshot,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// ServeSessionSocket is a bidirectional variant of StreamSessionEvents: the
// client receives the same events and may send Commands, each answered with
// a fresh snapshot or an error.
func ServeSessionSocket(manager *runner.SessionManager, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		clock, err := manager.GetSession(id, GetUserId(r))
		if err != nil {
			RespondError(w, err.Error(), StatusFor(err))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", "session", id, "error", err)
			return
		}

		events, cancel := clock.Subscribe()
		replies := make(chan Message, 8)
		done := make(chan struct{})

		go readPump(conn, clock, replies, done, logger)
		writePump(conn, clock, events, replies, done)

		cancel()
		conn.Close()
	}
}

// readPump decodes client commands until the connection fails.
func readPump(conn *websocket.Conn, clock *runner.Clock, replies chan<- Message, done chan<- struct{}, logger *log.Logger) {
	defer close(done)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read failed", "error", err)
			}
			return
		}

		var reply Message
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			reply = Message{Type: "error", Error: "invalid command"}
		} else if err := Dispatch(clock, cmd); err != nil {
			reply = Message{Type: "error", Error: err.Error()}
		} else {
			snap := clock.Snapshot()
			reply = Message{Type: "snapshot", Snapshot: &snap}
		}

		select {
		case replies <- reply:
		default:
			logger.Warn("dropping websocket reply, client too slow")
		}
	}
}

func writePump(conn *websocket.Conn, clock *runner.Clock, events <-chan domain.Event, replies <-chan Message, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	snap := clock.Snapshot()
	if writeMessage(conn, Message{Type: "snapshot", Snapshot: &snap}) != nil {
		return
	}

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			if writeMessage(conn, Message{Type: "event", Event: &ev}) != nil {
				return
			}

		case reply := <-replies:
			if writeMessage(conn, reply) != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}

func writeMessage(conn *websocket.Conn, msg Message) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

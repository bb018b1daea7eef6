package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/eskrenkovic/match-engine-go/internal/modules/core"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	sendBufferSize = 32
)

// envelope is the wire shape of every pushed message.
type envelope struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Hub fans match events out to connected users over websockets. It implements
// core.Publisher - publishing to a user with no open connection is a no-op,
// HTTP reads are the catch-up path.
type Hub struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[int64]map[*subscriber]struct{}

	// onDisconnect fires when a user's last connection goes away.
	onDisconnect func(userID int64)
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		subscribers: map[int64]map[*subscriber]struct{}{},
	}
}

// OnDisconnect registers the hook invoked when a user loses their last
// connection. Set once during wiring, before the server accepts traffic.
func (h *Hub) OnDisconnect(hook func(userID int64)) {
	h.onDisconnect = hook
}

// Publish sends the event to every listed user's open connections. With no
// users listed the event goes to everyone. A slow consumer's backlog is
// dropped rather than blocking the caller - the next snapshot supersedes
// anything missed.
func (h *Hub) Publish(event string, payload interface{}, userIDs ...int64) error {
	message, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if len(userIDs) == 0 {
		for userID := range h.subscribers {
			userIDs = append(userIDs, userID)
		}
	}

	for _, userID := range userIDs {
		for sub := range h.subscribers[userID] {
			select {
			case sub.send <- message:
			default:
				h.logger.Warn(
					"dropping message for slow websocket consumer",
					zap.Int64("user_id", userID),
					zap.String("event", event),
				)
			}
		}
	}

	return nil
}

// Handle upgrades GET /ws. The caller's identity comes from the session
// middleware, same as every other endpoint.
func (h *Hub) Handle(w http.ResponseWriter, r *http.Request) {
	userID := core.Session(r.Context()).UserID

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := &subscriber{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
	}

	h.register(sub)

	go sub.writePump()
	go h.readPump(sub)
}

func (h *Hub) register(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subscribers[sub.userID] == nil {
		h.subscribers[sub.userID] = map[*subscriber]struct{}{}
	}
	h.subscribers[sub.userID][sub] = struct{}{}
}

func (h *Hub) unregister(sub *subscriber) {
	h.mu.Lock()

	delete(h.subscribers[sub.userID], sub)
	lastConnection := len(h.subscribers[sub.userID]) == 0
	if lastConnection {
		delete(h.subscribers, sub.userID)
	}

	h.mu.Unlock()

	close(sub.send)

	if lastConnection && h.onDisconnect != nil {
		h.onDisconnect(sub.userID)
	}
}

// readPump drains the connection. Clients don't send anything meaningful over
// the socket - commands go over HTTP - but reading is what surfaces pongs and
// closes.
func (h *Hub) readPump(sub *subscriber) {
	defer h.unregister(sub)

	sub.conn.SetReadLimit(512)
	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn(
					"websocket closed unexpectedly",
					zap.Int64("user_id", sub.userID),
					zap.Error(err),
				)
			}
			return
		}
	}
}

type subscriber struct {
	userID int64
	conn   *websocket.Conn
	send   chan []byte
}

func (s *subscriber) writePump() {
	pingTicker := time.NewTicker(pingInterval)
	defer func() {
		pingTicker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}

			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-pingTicker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"crash-rounds-backend/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler is the broadcast transport: every connected viewer
// receives the round-phase and ledger events. A single hub goroutine
// performs all writes, so emission order is preserved per channel.
type WebSocketHandler struct {
	hub *WebSocketHub
}

type WebSocketHub struct {
	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan *Message
}

type Message struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewWebSocketHandler() *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan *Message, 256),
	}

	go hub.run()

	return &WebSocketHandler{hub: hub}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	h.hub.register <- conn

	defer func() {
		h.hub.unregister <- conn
		conn.Close()
	}()

	// Viewers only listen; reads detect disconnects and answer pings.
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		if msg.Type == "PING" {
			conn.WriteJSON(Message{Type: "PONG", Timestamp: time.Now().UnixMilli()})
		}
	}
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case conn := <-hub.register:
			hub.clients[conn] = true

		case conn := <-hub.unregister:
			delete(hub.clients, conn)

		case message := <-hub.broadcast:
			for conn := range hub.clients {
				if err := conn.WriteJSON(message); err != nil {
					conn.Close()
					delete(hub.clients, conn)
				}
			}
		}
	}
}

func (h *WebSocketHandler) publish(eventType string, data interface{}) {
	msg := &Message{
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}

	// Best-effort transport: a full buffer drops the event rather
	// than stalling the round engine.
	select {
	case h.hub.broadcast <- msg:
	default:
		log.Printf("broadcast buffer full, dropped %s", eventType)
	}
}

func (h *WebSocketHandler) RoundCommitted(e models.RoundCommittedEvent) {
	h.publish(models.EventRoundCommitted, e)
}

func (h *WebSocketHandler) RoundStarted(e models.RoundStartedEvent) {
	h.publish(models.EventRoundStarted, e)
}

func (h *WebSocketHandler) BetConfirmed(e models.BetConfirmedEvent) {
	h.publish(models.EventBetConfirmed, e)
}

func (h *WebSocketHandler) CashOutConfirmed(e models.CashOutConfirmedEvent) {
	h.publish(models.EventCashOutConfirmed, e)
}

func (h *WebSocketHandler) RoundCrashed(e models.RoundCrashedEvent) {
	h.publish(models.EventRoundCrashed, e)
}

func (h *WebSocketHandler) RoundSettled(e models.RoundSettledEvent) {
	h.publish(models.EventRoundSettled, e)
}

func (h *WebSocketHandler) RoundFailed(e models.RoundFailedEvent) {
	h.publish(models.EventRoundFailed, e)
}

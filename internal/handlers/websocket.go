package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"mining-rewards-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler streams live mining status (wallet balance, effective
// rate, session end) to connected clients. The engine pushes updates through
// the hub after boosts, watch rewards and accrual ticks.
type WebSocketHandler struct {
	engine *services.MiningEngine
	hub    *WebSocketHub
}

// WebSocketHub owns every registered connection; its run goroutine is the
// only writer to them.
type WebSocketHub struct {
	clients    map[string]*websocket.Conn
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
}

type Client struct {
	UserID string
	Conn   *websocket.Conn
}

type Message struct {
	Type   string      `json:"type"`
	UserID string      `json:"user_id,omitempty"`
	Data   interface{} `json:"data"`
}

func NewWebSocketHandler(engine *services.MiningEngine) *WebSocketHandler {
	hub := &WebSocketHub{
		clients:    make(map[string]*websocket.Conn),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 100),
	}

	go hub.run()

	return &WebSocketHandler{
		engine: engine,
		hub:    hub,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade to WebSocket: %v", err)
		return
	}

	client := &Client{
		UserID: userID,
		Conn:   conn,
	}

	h.hub.register <- client

	defer func() {
		h.hub.unregister <- client
		conn.Close()
	}()

	h.sendStatus(client)

	for {
		var msg Message
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		h.handleMessage(client, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(client *Client, msg *Message) {
	switch msg.Type {
	case "PING":
		h.sendPong(client)
	case "REFRESH_STATUS":
		h.sendStatus(client)
	}
}

// Reply sends go through the hub channel rather than writing directly:
// gorilla/websocket allows only one concurrent writer per connection, and
// the hub goroutine is that writer.
func (h *WebSocketHandler) sendStatus(client *Client) {
	status, err := h.engine.GetStatus(client.UserID)
	if err != nil {
		log.Printf("Failed to get status for WS: %v", err)
		return
	}

	h.hub.broadcast <- &Message{
		Type:   "STATUS_UPDATE",
		UserID: client.UserID,
		Data: gin.H{
			"session":        status.Session,
			"wallet_balance": status.Profile.WalletBalance,
			"effective_rate": status.EffectiveRate,
		},
	}
}

func (h *WebSocketHandler) sendPong(client *Client) {
	h.hub.broadcast <- &Message{
		Type:   "PONG",
		UserID: client.UserID,
		Data: gin.H{
			"timestamp": time.Now().Unix(),
		},
	}
}

func (hub *WebSocketHub) run() {
	for {
		select {
		case client := <-hub.register:
			hub.clients[client.UserID] = client.Conn
			log.Printf("Client registered: %s", client.UserID)

		case client := <-hub.unregister:
			if _, ok := hub.clients[client.UserID]; ok {
				delete(hub.clients, client.UserID)
				log.Printf("Client unregistered: %s", client.UserID)
			}

		case message := <-hub.broadcast:
			hub.broadcastMessage(message)
		}
	}
}

func (hub *WebSocketHub) broadcastMessage(message *Message) {
	if message.UserID != "" {
		if conn, ok := hub.clients[message.UserID]; ok {
			conn.WriteJSON(message)
		}
	} else {
		for _, conn := range hub.clients {
			conn.WriteJSON(message)
		}
	}
}

// BroadcastStatus implements services.Broadcaster.
func (h *WebSocketHandler) BroadcastStatus(userID string, balance, effectiveRate float64) {
	msg := &Message{
		Type:   "STATUS_UPDATE",
		UserID: userID,
		Data: gin.H{
			"wallet_balance": balance,
			"effective_rate": effectiveRate,
			"timestamp":      time.Now().Unix(),
		},
	}

	h.hub.broadcast <- msg
}

// BroadcastSessionEnded implements services.Broadcaster.
func (h *WebSocketHandler) BroadcastSessionEnded(userID, sessionID string) {
	msg := &Message{
		Type:   "SESSION_ENDED",
		UserID: userID,
		Data: gin.H{
			"session_id": sessionID,
			"timestamp":  time.Now().Unix(),
		},
	}

	h.hub.broadcast <- msg
}

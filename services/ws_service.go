package services

import (
	"sync"
	"time"

	"inventaris-backend/models"
	"inventaris-backend/utils"

	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

// Типы сообщений WebSocket
const (
	WSTypeInventoryUpdated = "inventory.updated"
	WSTypePing             = "ping"
	WSTypePong             = "pong"
)

// WSMessage представляет сообщение WebSocket
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// InventoryUpdate payload inventory.updated
type InventoryUpdate struct {
	Search   string                `json:"search"`
	Category models.CategoryFilter `json:"category"`
	Total    int                   `json:"total"`
	Items    []ItemView            `json:"items"`
}

// Client представляет подключенного клиента
type Client struct {
	UserID   uint
	Conn     *websocket.Conn
	Send     chan WSMessage
	Hub      *Hub
	LastPing time.Time
}

// Hub рассылает изменения инвентаря подключенным клиентам аккаунта
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	jwt        *utils.JWTManager
	log        logrus.FieldLogger
	now        func() time.Time
}

// NewHub создает новый хаб
func NewHub(jwt *utils.JWTManager, log logrus.FieldLogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		jwt:        jwt,
		log:        log,
		now:        time.Now,
	}
}

// Run запускает хаб
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()

			h.log.WithFields(logrus.Fields{"user_id": client.UserID, "clients": total}).Info("websocket client connected")

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			total := len(h.clients)
			h.mutex.Unlock()

			h.log.WithFields(logrus.Fields{"user_id": client.UserID, "clients": total}).Info("websocket client disconnected")
		}
	}
}

// Attach подписывает хаб на изменения модели пользователя
func (h *Hub) Attach(userID uint, vm *InventoryViewModel) {
	vm.Subscribe(func(snap Snapshot) {
		h.SendToUser(userID, h.updateMessage(snap))
	})
}

func (h *Hub) updateMessage(snap Snapshot) WSMessage {
	return WSMessage{
		Type: WSTypeInventoryUpdated,
		Payload: InventoryUpdate{
			Search:   snap.Search,
			Category: snap.Category,
			Total:    snap.Total,
			Items:    DecorateRecords(snap.Visible, h.now()),
		},
	}
}

// SendToUser отправляет сообщение всем соединениям пользователя
func (h *Hub) SendToUser(userID uint, message WSMessage) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		if client.UserID != userID {
			continue
		}
		select {
		case client.Send <- message:
		default:
			// Медленный клиент отключается
			close(client.Send)
			delete(h.clients, client)
		}
	}
}

// ConnectedClients количество соединений пользователя
func (h *Hub) ConnectedClients(userID uint) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	n := 0
	for client := range h.clients {
		if client.UserID == userID {
			n++
		}
	}
	return n
}

// Authenticate проверяет токен из query параметра и возвращает ID пользователя
func (h *Hub) Authenticate(token string) (uint, bool) {
	if token == "" {
		return 0, false
	}
	claims, err := h.jwt.Validate(token)
	if err != nil {
		return 0, false
	}
	return claims.UserID, true
}

// HandleWebSocket обрабатывает WebSocket соединение; initial отправляется сразу после подключения
func (h *Hub) HandleWebSocket(c *websocket.Conn, userID uint, initial Snapshot) {
	client := &Client{
		UserID:   userID,
		Conn:     c,
		Send:     make(chan WSMessage, 256),
		Hub:      h,
		LastPing: time.Now(),
	}

	h.register <- client
	client.Send <- h.updateMessage(initial)

	go client.writePump()
	// readPump блокирует: fiber закрывает соединение после возврата обработчика
	client.readPump()
}

// readPump читает сообщения из WebSocket
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		c.LastPing = time.Now()
		return nil
	})

	for {
		var message WSMessage
		err := c.Conn.ReadJSON(&message)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.WithError(err).Warn("websocket read error")
			}
			break
		}

		if message.Type == WSTypePing {
			c.Hub.SendToUser(c.UserID, WSMessage{
				Type:    WSTypePong,
				Payload: map[string]interface{}{"timestamp": time.Now().Unix()},
			})
		}
	}
}

// writePump записывает сообщения в WebSocket
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteJSON(message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

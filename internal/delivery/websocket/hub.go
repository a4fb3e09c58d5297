package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/meiziya0402-source/PPT/internal/deck"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const (
	// Время, разрешенное для записи сообщения клиенту.
	writeWait = 10 * time.Second
	// Время, разрешенное для чтения следующего pong сообщения от клиента.
	pongWait = 60 * time.Second
	// Период пингов, меньше pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Максимальный размер сообщения от клиента.
	maxMessageSize = 512

	sendBufferSize      = 64
	broadcastBufferSize = 256
)

// EventConnected отправляется клиенту сразу после подключения.
const EventConnected = "ws.connected"

// ErrHubStopped - хаб уже остановлен, новые подключения не принимаются.
var ErrHubStopped = errors.New("websocket hub stopped")

var wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "deck_websocket_connections",
	Help: "Number of open websocket connections.",
})

// Hub рассылает события колод подписанным клиентам. Тема - id сессии.
type Hub struct {
	clients    map[uuid.UUID]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan Message
	done       chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	logger     *zap.Logger
}

// Client - одно websocket соединение.
type Client struct {
	ID   uuid.UUID
	Conn *websocket.Conn
	hub  *Hub
	send chan []byte

	topicsMu sync.RWMutex
	topics   map[string]bool
}

// Message - конверт события для клиента.
type Message struct {
	Type    string      `json:"type"`
	Topic   string      `json:"topic"`
	Payload interface{} `json:"payload"`
}

// NewHub создает хаб. Пустой allowedOrigins разрешает любой Origin.
func NewHub(allowedOrigins []string, logger *zap.Logger) *Hub {
	h := &Hub{
		clients:    make(map[uuid.UUID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Message, broadcastBufferSize),
		done:       make(chan struct{}),
		logger:     logger.Named("WebSocketHub"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
				return true
			}
			return slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// Run обрабатывает регистрацию и рассылку до отмены ctx. Вызывается в отдельной горутине.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, c := range h.clients {
				close(c.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			h.logger.Info("WebSocket hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			wsConnections.Inc()
			h.logger.Debug("Client connected", zap.String("clientID", client.ID.String()))

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				h.logger.Error("Failed to marshal message", zap.String("type", message.Type), zap.Error(err))
				continue
			}

			var slow []*Client
			h.mu.RLock()
			for _, client := range h.clients {
				if !client.IsSubscribed(message.Topic) {
					continue
				}
				select {
				case client.send <- data:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range slow {
				h.logger.Warn("Client send buffer full, dropping connection", zap.String("clientID", client.ID.String()))
				h.remove(client)
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; ok {
		close(client.send)
		delete(h.clients, client.ID)
		wsConnections.Dec()
		h.logger.Debug("Client disconnected", zap.String("clientID", client.ID.String()))
	}
}

// Broadcast ставит событие в очередь рассылки всем клиентам темы.
// Не блокирует вызывающего: при переполненной очереди событие отбрасывается.
func (h *Hub) Broadcast(messageType, topic string, payload interface{}) {
	select {
	case h.broadcast <- Message{Type: messageType, Topic: topic, Payload: payload}:
	default:
		h.logger.Warn("Broadcast queue full, event dropped", zap.String("type", messageType), zap.String("topic", topic))
	}
}

// ClientCount возвращает число подключенных клиентов.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve апгрейдит соединение и подписывает клиента на topic.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, topic string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader уже записал ответ
		return err
	}

	client := &Client{
		ID:     uuid.New(),
		Conn:   conn,
		hub:    h,
		send:   make(chan []byte, sendBufferSize),
		topics: map[string]bool{topic: true},
	}
	hello, _ := json.Marshal(Message{Type: EventConnected, Topic: topic, Payload: map[string]string{"clientId": client.ID.String()}})
	client.send <- hello

	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return ErrHubStopped
	}

	go client.writePump()
	go client.readPump()
	return nil
}

// readPump читает команды подписки от клиента.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("WebSocket read error", zap.String("clientID", c.ID.String()), zap.Error(err))
			}
			return
		}

		var cmd struct {
			Action string `json:"action"`
			Topic  string `json:"topic"`
		}
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.hub.logger.Debug("Bad client command", zap.Error(err))
			continue
		}
		switch cmd.Action {
		case "subscribe":
			c.Subscribe(cmd.Topic)
		case "unsubscribe":
			c.Unsubscribe(cmd.Topic)
		}
	}
}

// writePump отправляет события клиенту, по одному JSON сообщению на кадр.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Subscribe подписывает клиента на тему
func (c *Client) Subscribe(topic string) {
	c.topicsMu.Lock()
	c.topics[topic] = true
	c.topicsMu.Unlock()
}

// Unsubscribe отписывает клиента от темы
func (c *Client) Unsubscribe(topic string) {
	c.topicsMu.Lock()
	delete(c.topics, topic)
	c.topicsMu.Unlock()
}

// IsSubscribed проверяет, подписан ли клиент на тему
func (c *Client) IsSubscribed(topic string) bool {
	c.topicsMu.RLock()
	defer c.topicsMu.RUnlock()
	return c.topics[topic]
}

var _ deck.Notifier = (*Hub)(nil)

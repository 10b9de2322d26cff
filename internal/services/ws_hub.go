package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"city-tours/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type      string   `json:"type"`
	Timestamp int64    `json:"timestamp,omitempty"`
	Message   string   `json:"message,omitempty"`
	Messages  []string `json:"messages,omitempty"`
	Fallback  *bool    `json:"fallback,omitempty"`
	Bucket    string   `json:"bucket,omitempty"`
}

// WebSocket message types
const (
	WSTypeMessage    = "message"
	WSTypeBotMessage = "bot_message"
	WSTypePing       = "ping"
	WSTypePong       = "pong"
	WSTypeError      = "error"
)

type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages chat WebSocket connections, one per user
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*wsClient
	chat        *ChatService
}

// NewWSHub creates a new WebSocket hub
func NewWSHub(chat *ChatService) *WSHub {
	return &WSHub{
		connections: make(map[string]*wsClient),
		chat:        chat,
	}
}

// Register registers a new WebSocket connection for a user, closing the previous one
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, exists := h.connections[userID]; exists {
		existing.conn.Close()
	}
	h.connections[userID] = &wsClient{conn: conn}

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes conn if it is still the registered connection of the user
func (h *WSHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, exists := h.connections[userID]; exists && c.conn == conn {
		c.conn.Close()
		delete(h.connections, userID)
		log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
	}
}

// SendToUser sends a message to a specific user
func (h *WSHub) SendToUser(userID string, message WSMessage) error {
	h.mu.RLock()
	client, exists := h.connections[userID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := client.write(data); err != nil {
		h.Unregister(userID, client.conn)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// IsOnline checks if a user is connected
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[userID]
	return exists
}

// Count returns the number of connected users
func (h *WSHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// HandleMessage answers one frame received from a user
func (h *WSHub) HandleMessage(ctx context.Context, userID string, data []byte) error {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return h.SendToUser(userID, WSMessage{Type: WSTypeError, Message: "invalid message format"})
	}

	switch msg.Type {
	case WSTypeMessage:
		reply, err := h.chat.Send(ctx, userID, msg.Message)
		if err != nil {
			return h.SendToUser(userID, WSMessage{Type: WSTypeError, Message: models.MessageOf(err, "could not answer")})
		}
		fallback := reply.Fallback
		return h.SendToUser(userID, WSMessage{
			Type:      WSTypeBotMessage,
			Timestamp: time.Now().UnixMilli(),
			Messages:  reply.Messages,
			Fallback:  &fallback,
			Bucket:    reply.Bucket,
		})
	case WSTypePing:
		return h.SendToUser(userID, WSMessage{Type: WSTypePong, Timestamp: time.Now().UnixMilli()})
	default:
		return h.SendToUser(userID, WSMessage{Type: WSTypeError, Message: "unknown message type"})
	}
}

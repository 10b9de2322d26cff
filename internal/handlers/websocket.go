package handlers

import (
	"net/http"

	"city-tours/internal/middleware"
	"city-tours/internal/models"
	"city-tours/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const maxWSFrame = 8 << 10

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // native clients send no Origin
	},
}

// ConnectionGauge tracks open chat connections
type ConnectionGauge interface {
	WSConnected(delta int)
}

// WebSocketHandler handles chat WebSocket connections
type WebSocketHandler struct {
	hub   *services.WSHub
	auth  middleware.Authenticator
	gauge ConnectionGauge
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.WSHub, auth middleware.Authenticator, gauge ConnectionGauge) *WebSocketHandler {
	return &WebSocketHandler{
		hub:   hub,
		auth:  auth,
		gauge: gauge,
	}
}

// HandleWebSocket handles GET /ws/chat?token=
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := middleware.ValidateWebSocketToken(ctx, r.URL.Query().Get("token"), h.auth)
	if err != nil {
		if models.KindOf(err) == models.KindUnauthorized {
			respondError(w, models.MessageOf(err, "invalid token"), models.KindUnauthorized, http.StatusUnauthorized)
			return
		}
		respondServiceError(w, r, err, "Failed to validate token")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	conn.SetReadLimit(maxWSFrame)

	h.hub.Register(userID, conn)
	if h.gauge != nil {
		h.gauge.WSConnected(1)
	}
	defer func() {
		h.hub.Unregister(userID, conn)
		conn.Close()
		if h.gauge != nil {
			h.gauge.WSConnected(-1)
		}
	}()

	log.Info().Str("user_id", userID).Msg("Chat connection established")

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			return
		}

		if err := h.hub.HandleMessage(ctx, userID, data); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to answer chat message")
			return
		}
	}
}

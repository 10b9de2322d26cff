package handlers

import (
	"net/http"

	"city-tours/internal/services"
)

// ChatHandler handles chat HTTP requests
type ChatHandler struct {
	chat *services.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// ChatRequest is the body of POST /api/v1/chat
type ChatRequest struct {
	Sender  string `json:"sender,omitempty"`
	Message string `json:"message"`
}

// ChatStatusResponse is the body of GET /api/v1/chat/status
type ChatStatusResponse struct {
	Online bool `json:"online"`
}

// Send handles POST /api/v1/chat
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, err, "Invalid request body")
		return
	}

	reply, err := h.chat.Send(r.Context(), req.Sender, req.Message)
	if err != nil {
		respondServiceError(w, r, err, "Failed to send message")
		return
	}
	respondJSON(w, http.StatusOK, reply)
}

// Status handles GET /api/v1/chat/status
func (h *ChatHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ChatStatusResponse{Online: h.chat.Status(r.Context())})
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"city-tours/internal/services"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRoutes_Fallback(t *testing.T) {
	api := newTestAPI(t)

	status, body := api.do(t, http.MethodPost, "/api/v1/chat", "", ChatRequest{Message: "¿Cuál es el PRECIO?"})
	require.Equal(t, http.StatusOK, status, string(body))
	var reply struct {
		Messages []string `json:"messages"`
		Fallback bool     `json:"fallback"`
		Bucket   string   `json:"bucket"`
	}
	api.decode(t, body, &reply)
	assert.True(t, reply.Fallback)
	assert.Equal(t, services.BucketPrecio, reply.Bucket)
	require.Len(t, reply.Messages, 1)
	assert.Contains(t, services.FallbackResponses(services.BucketPrecio), reply.Messages[0])

	status, body = api.do(t, http.MethodPost, "/api/v1/chat", "", ChatRequest{Message: "   "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation", errorKind(t, body))

	status, body = api.do(t, http.MethodGet, "/api/v1/chat/status", "", nil)
	require.Equal(t, http.StatusOK, status)
	var online ChatStatusResponse
	api.decode(t, body, &online)
	assert.False(t, online.Online)
}

func TestWebSocketChat(t *testing.T) {
	api := newTestAPI(t)
	token, userID := api.signUp(t, "ana@b.com")
	wsURL := "ws" + strings.TrimPrefix(api.srv.URL, "http") + "/ws/chat"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+"?token=bogus", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return api.deps.Hub.IsOnline(userID) }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(services.WSMessage{Type: services.WSTypeMessage, Message: "horario de visita"}))
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg services.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, services.WSTypeBotMessage, msg.Type)
	require.NotNil(t, msg.Fallback)
	assert.True(t, *msg.Fallback)
	assert.Equal(t, services.BucketHorario, msg.Bucket)
	assert.NotEmpty(t, msg.Messages)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, services.WSTypeError, msg.Type)

	data, err := json.Marshal(services.WSMessage{Type: services.WSTypePing})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, services.WSTypePong, msg.Type)

	conn.Close()
	assert.Eventually(t, func() bool { return !api.deps.Hub.IsOnline(userID) }, time.Second, 10*time.Millisecond)
}

func TestHealthAndMetrics(t *testing.T) {
	api := newTestAPI(t)

	status, _ := api.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)

	api.do(t, http.MethodGet, "/api/v1/tours/abc", "", nil)
	status, body := api.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), `citytours_http_requests_total{method="GET",route="/api/v1/tours/{tour_id}",status_code="404"} 1`)
}

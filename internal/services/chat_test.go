package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"city-tours/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackBucket(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"Quiero un TOUR nocturno", BucketTour},
		{"¿Cuál es el precio?", BucketPrecio},
		{"cuánto costo tiene", BucketPrecio},
		{"¿A qué hora empieza?", BucketHorario},
		{"horarios de apertura", BucketHorario},
		{"Quiero ver la Catedral", BucketMonumento},
		{"el ALCÁZAR", BucketMonumento},
		{"el alcazar", BucketMonumento},
		{"monumentos", BucketMonumento},
		{"precio del tour", BucketTour},
		{"hola", BucketAyuda},
		{"", BucketAyuda},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, FallbackBucket(tt.message))
		})
	}
}

func TestChatSend_Webhook(t *testing.T) {
	var got webhookRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/webhooks/rest/webhook", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"recipient_id":"ana","text":"<b>Hola</b> & bienvenida"},
			{"recipient_id":"ana","buttons":[{"title":"Tours","payload":"/tours"},{"title":"Precios","payload":"/precios"}]},
			{"recipient_id":"ana","image":"https://img.example/giralda.jpg"}
		]`))
	}))
	defer srv.Close()

	chat := NewChatService(srv.URL+"/", time.Second)
	reply, err := chat.Send(context.Background(), "ana", " hola ")
	require.NoError(t, err)

	assert.Equal(t, webhookRequest{Sender: "ana", Message: "hola"}, got)
	assert.False(t, reply.Fallback)
	assert.Equal(t, []string{
		"Hola & bienvenida",
		"Opciones:\n• Tours\n• Precios",
		"[Imagen: https://img.example/giralda.jpg]",
	}, reply.Messages)
}

func TestChatSend_FallbackOnTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	chat := NewChatService(srv.URL, 50*time.Millisecond)
	start := time.Now()
	reply, err := chat.Send(context.Background(), "", "¿Qué precio tiene?")
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, reply.Fallback)
	assert.Equal(t, BucketPrecio, reply.Bucket)
	require.Len(t, reply.Messages, 1)
	assert.Contains(t, FallbackResponses(BucketPrecio), reply.Messages[0])
}

func TestChatSend_FallbackOnEmptyAndErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"empty array", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`[]`)) }},
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"bad json", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{`)) }},
		{"only blank text", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`[{"text":"  "}]`)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			chat := NewChatService(srv.URL, time.Second)
			chat.pick = func(int) int { return 1 }
			reply, err := chat.Send(context.Background(), "u", "hola")
			require.NoError(t, err)
			assert.True(t, reply.Fallback)
			assert.Equal(t, BucketAyuda, reply.Bucket)
			assert.Equal(t, []string{"¿Qué te gustaría saber?"}, reply.Messages)
		})
	}
}

func TestChatSend_NoWebhookConfigured(t *testing.T) {
	chat := NewChatService("", 0)
	reply, err := chat.Send(context.Background(), "u", "Quiero ver el Alcázar")
	require.NoError(t, err)
	assert.True(t, reply.Fallback)
	assert.Equal(t, BucketMonumento, reply.Bucket)
	assert.False(t, chat.Status(context.Background()))
}

func TestChatSend_Validation(t *testing.T) {
	chat := NewChatService("", 0)
	_, err := chat.Send(context.Background(), "u", "   ")
	assert.True(t, models.IsValidation(err))
}

func TestChatStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/status" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	assert.True(t, NewChatService(srv.URL, time.Second).Status(context.Background()))

	srv.Close()
	assert.False(t, NewChatService(srv.URL, 100*time.Millisecond).Status(context.Background()))
}

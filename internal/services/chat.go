package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"city-tours/internal/models"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultChatTimeout bounds one webhook exchange
	DefaultChatTimeout = 5 * time.Second

	webhookPath    = "/webhooks/rest/webhook"
	statusPath     = "/status"
	defaultSender  = "user"
	maxChatMessage = 2000
)

// Fallback buckets
const (
	BucketTour      = "tour"
	BucketPrecio    = "precio"
	BucketHorario   = "horario"
	BucketMonumento = "monumento"
	BucketAyuda     = "ayuda"
)

var fallbackResponses = map[string][]string{
	BucketTour: {
		"¿Te gustaría explorar algún tour específico de Sevilla?",
		"Tenemos tours de catedrales, alcázares, plazas y mucho más.",
	},
	BucketPrecio: {
		"Los precios varían según el tour. ¿Qué tipo de tour te interesa?",
		"Puedo mostrarte tours en diferentes rangos de precio.",
	},
	BucketHorario: {
		"Los tours están disponibles en varios horarios. ¿Qué hora te va bien?",
		"Podemos organizar tours matutinos, vespertinos y nocturnos.",
	},
	BucketMonumento: {
		"Sevilla tiene monumentos históricos increíbles. ¿Cuál te interesa visitar?",
		"La Catedral, el Alcázar y la Torre del Oro son muy populares.",
	},
	BucketAyuda: {
		"Puedo ayudarte con información sobre tours, monumentos, horarios y precios.",
		"¿Qué te gustaría saber?",
	},
}

// bucket keywords, checked in order
var fallbackKeywords = []struct {
	bucket   string
	keywords []string
}{
	{BucketTour, []string{"tour"}},
	{BucketPrecio, []string{"precio", "costo"}},
	{BucketHorario, []string{"hora", "horario"}},
	{BucketMonumento, []string{"monumento", "catedral", "alcázar", "alcazar"}},
}

// FallbackBucket selects the canned-response bucket for a message
func FallbackBucket(message string) string {
	lower := strings.ToLower(message)
	for _, k := range fallbackKeywords {
		for _, kw := range k.keywords {
			if strings.Contains(lower, kw) {
				return k.bucket
			}
		}
	}
	return BucketAyuda
}

// FallbackResponses returns the canned responses of a bucket
func FallbackResponses(bucket string) []string {
	r, ok := fallbackResponses[bucket]
	if !ok {
		r = fallbackResponses[BucketAyuda]
	}
	return append([]string(nil), r...)
}

type webhookRequest struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

type webhookButton struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

type webhookResponse struct {
	RecipientID string          `json:"recipient_id"`
	Text        string          `json:"text,omitempty"`
	Buttons     []webhookButton `json:"buttons,omitempty"`
	Image       string          `json:"image,omitempty"`
}

// ChatService relays messages to the conversational webhook
type ChatService struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	policy  *bluemonday.Policy
	pick    func(n int) int
	metrics Recorder
}

// NewChatService creates a new chat service; an empty baseURL always answers from the fallback table
func NewChatService(baseURL string, timeout time.Duration) *ChatService {
	if timeout <= 0 {
		timeout = DefaultChatTimeout
	}
	return &ChatService{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		policy:  bluemonday.StrictPolicy(),
		pick:    rand.IntN,
		metrics: nopRecorder{},
	}
}

// WithRecorder sets the metrics recorder
func (s *ChatService) WithRecorder(r Recorder) *ChatService {
	s.metrics = r
	return s
}

// Send forwards a message and flattens the answer. It never fails because of the webhook:
// errors, timeouts and empty answers are replaced by a canned response.
func (s *ChatService) Send(ctx context.Context, sender, message string) (*models.ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, models.NewValidationError("message is required")
	}
	if len(message) > maxChatMessage {
		return nil, models.NewValidationError("message must be at most %d characters", maxChatMessage)
	}
	if sender = strings.TrimSpace(sender); sender == "" {
		sender = defaultSender
	}

	if s.baseURL != "" {
		messages, err := s.callWebhook(ctx, sender, message)
		if err != nil {
			log.Warn().Err(err).Msg("Chat webhook unavailable, using fallback")
		} else if len(messages) > 0 {
			s.metrics.RecordChatReply(false, "")
			return &models.ChatReply{Messages: messages}, nil
		}
	}

	bucket := FallbackBucket(message)
	responses := fallbackResponses[bucket]
	s.metrics.RecordChatReply(true, bucket)
	return &models.ChatReply{
		Messages: []string{responses[s.pick(len(responses))]},
		Fallback: true,
		Bucket:   bucket,
	}, nil
}

func (s *ChatService) callWebhook(ctx context.Context, sender, message string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err := json.Marshal(webhookRequest{Sender: sender, Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+webhookPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	var responses []webhookResponse
	if err := json.NewDecoder(resp.Body).Decode(&responses); err != nil {
		return nil, fmt.Errorf("failed to decode webhook response: %w", err)
	}
	return s.flatten(responses), nil
}

func (s *ChatService) flatten(responses []webhookResponse) []string {
	var messages []string
	for _, r := range responses {
		if t := s.clean(r.Text); t != "" {
			messages = append(messages, t)
		}
		if len(r.Buttons) > 0 {
			lines := make([]string, 0, len(r.Buttons))
			for _, b := range r.Buttons {
				lines = append(lines, "• "+s.clean(b.Title))
			}
			messages = append(messages, "Opciones:\n"+strings.Join(lines, "\n"))
		}
		if r.Image != "" {
			messages = append(messages, fmt.Sprintf("[Imagen: %s]", s.clean(r.Image)))
		}
	}
	return messages
}

// clean strips markup and returns plain text
func (s *ChatService) clean(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
}

// Status reports whether the webhook server answers
func (s *ChatService) Status(ctx context.Context) bool {
	if s.baseURL == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+statusPath, nil)
	if err != nil {
		return false
	}
	resp, err := s.client.Do(req)
	if err != nil {
		log.Debug().Err(err).Msg("Chat webhook status check failed")
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

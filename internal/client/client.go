// Package client talks to the city tours HTTP API and keeps the signed-in session on disk.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"city-tours/internal/models"

	"github.com/rs/zerolog/log"
)

const apiPrefix = "/api/v1"

// Client is an HTTP client of the API
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      SessionStore
	now        func() time.Time
}

// New creates a client for the API at baseURL
func New(baseURL string, timeout time.Duration, store SessionStore) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		store:      store,
		now:        time.Now,
	}
}

// WithHTTPClient replaces the underlying HTTP client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

type errorBody struct {
	Error string      `json:"error"`
	Kind  models.Kind `json:"kind"`
}

// token returns the stored access token or an unauthorized error
func (c *Client) token() (string, error) {
	sess, err := c.store.Load()
	if err != nil {
		return "", models.NewInternalError("failed to load session", err)
	}
	if sess == nil || sess.AccessToken == "" {
		return "", models.NewUnauthorizedError("not signed in")
	}
	return sess.AccessToken, nil
}

// send performs one request. body is JSON encoded when not nil.
func (c *Client) send(ctx context.Context, method, path string, body any, auth bool) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, models.NewInternalError("failed to encode request", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return nil, models.NewInternalError("failed to create request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if auth {
		token, err := c.token()
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, models.NewRemoteError("failed to reach server", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		apiErr := decodeError(resp)
		if auth && apiErr.Kind == models.KindUnauthorized {
			log.Debug().Str("path", path).Msg("Stored session rejected, clearing it")
			if err := c.store.Clear(); err != nil {
				log.Warn().Err(err).Msg("Failed to clear stored session")
			}
		}
		return nil, apiErr
	}
	return resp, nil
}

// do sends a request and decodes a JSON answer into out when out is not nil
func (c *Client) do(ctx context.Context, method, path string, body any, auth bool, out any) error {
	resp, err := c.send(ctx, method, path, body, auth)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return models.NewRemoteError("failed to decode response", err)
	}
	return nil
}

// decodeError turns an error answer back into a *models.Error
func decodeError(resp *http.Response) *models.Error {
	var body errorBody
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(data, &body)

	kind := body.Kind
	switch kind {
	case models.KindValidation, models.KindUnauthorized, models.KindForbidden, models.KindNotFound,
		models.KindConflict, models.KindRemote, models.KindInternal:
	default:
		kind = kindForStatus(resp.StatusCode)
	}

	msg := body.Error
	if msg == "" {
		msg = fmt.Sprintf("server returned %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return &models.Error{Kind: kind, Message: msg}
}

func kindForStatus(status int) models.Kind {
	switch status {
	case http.StatusBadRequest:
		return models.KindValidation
	case http.StatusUnauthorized:
		return models.KindUnauthorized
	case http.StatusForbidden:
		return models.KindForbidden
	case http.StatusNotFound:
		return models.KindNotFound
	case http.StatusConflict:
		return models.KindConflict
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusTooManyRequests:
		return models.KindRemote
	default:
		return models.KindInternal
	}
}

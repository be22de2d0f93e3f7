package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Error is a normalized upstream failure: either a transport-level problem or
// a response with success=false. Message is what the user should see.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// Envelope is the upstream response contract: {success, message?, data?}.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("upstream: empty data payload")
	}
	return json.Unmarshal(e.Data, v)
}

type Client struct {
	HTTP    *http.Client
	BaseURL string
	Log     *zap.Logger
}

func New(baseURL string, log *zap.Logger) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		BaseURL: strings.TrimRight(baseURL, "/"),
		Log:     log,
	}
}

// Do performs one call against the upstream API. A bearer token is attached
// when present. Non-2xx responses and success=false envelopes both come back
// as *Error carrying the upstream message.
func (c *Client) Do(ctx context.Context, method, path, token string, body any) (*Envelope, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("upstream: encode body: %w", err)
		}
		reader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("upstream: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Log.Warn("upstream request failed", zap.String("path", path), zap.Error(err))
		return nil, &Error{Message: "Erreur API"}
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	var env Envelope
	if err := json.Unmarshal(bodyBytes, &env); err != nil {
		return nil, &Error{Status: resp.StatusCode, Message: "Erreur API"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "Erreur API"
		}
		return nil, &Error{Status: resp.StatusCode, Message: msg}
	}

	return &env, nil
}

func (c *Client) Get(ctx context.Context, path, token string) (*Envelope, error) {
	return c.Do(ctx, http.MethodGet, path, token, nil)
}

func (c *Client) Post(ctx context.Context, path, token string, body any) (*Envelope, error) {
	return c.Do(ctx, http.MethodPost, path, token, body)
}

func (c *Client) Put(ctx context.Context, path, token string, body any) (*Envelope, error) {
	return c.Do(ctx, http.MethodPut, path, token, body)
}

func (c *Client) Delete(ctx context.Context, path, token string) (*Envelope, error) {
	return c.Do(ctx, http.MethodDelete, path, token, nil)
}

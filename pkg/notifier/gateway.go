// Package notifier delivers winner and admin messages through an outbound gateway.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// Message is a single outbound message
type Message struct {
	Recipient string
	Subject   string
	Body      string
}

// Gateway represents an outbound message gateway
type Gateway interface {
	Name() string
	Send(ctx context.Context, msg Message) (string, error)
}

// HTTPGateway posts messages as JSON to a delivery API
type HTTPGateway struct {
	BaseURL    string
	APIKey     string
	Sender     string
	httpClient *http.Client
}

// NewHTTPGateway creates a new HTTPGateway
func NewHTTPGateway(baseURL, apiKey, sender string) *HTTPGateway {
	return &HTTPGateway{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Sender:  sender,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the gateway name recorded on notifications
func (g *HTTPGateway) Name() string { return "http" }

// Send delivers a message and returns the provider message id
func (g *HTTPGateway) Send(ctx context.Context, msg Message) (string, error) {
	requestBody := map[string]interface{}{
		"from":    g.Sender,
		"to":      msg.Recipient,
		"subject": msg.Subject,
		"text":    msg.Body,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", g.APIKey))

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		MessageID string `json:"messageId"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return response.MessageID, nil
}

// MockGateway records messages instead of sending them
type MockGateway struct {
	mu   sync.Mutex
	sent []Message
	// Fail, when set, is returned for every recipient it maps
	Fail map[string]error
}

// NewMockGateway creates a new mock gateway
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

// Name returns the gateway name recorded on notifications
func (g *MockGateway) Name() string { return "mock" }

// Send records the message and returns a generated id
func (g *MockGateway) Send(ctx context.Context, msg Message) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.Fail[msg.Recipient]; err != nil {
		return "", err
	}
	g.sent = append(g.sent, msg)
	msgID := "MOCK-" + uuid.NewString()
	slog.Debug("Mock gateway accepted message", "messageID", msgID, "subject", msg.Subject)
	return msgID, nil
}

// Sent returns a copy of every message accepted so far
func (g *MockGateway) Sent() []Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Message, len(g.sent))
	copy(out, g.sent)
	return out
}

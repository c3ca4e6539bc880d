package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rpineda/aichat-be/internal/models"
)

// Provider returns the next assistant message for an ordered conversation.
// A single attempt is made; any failure is surfaced to the caller.
type Provider interface {
	Complete(ctx context.Context, messages []models.Message) (models.Message, error)
}

type chatCompletionRequest struct {
	Model    string           `json:"model"`
	Messages []models.Message `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Index        int            `json:"index"`
		Message      models.Message `json:"message"`
		FinishReason string         `json:"finish_reason"`
	} `json:"choices"`
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
}

// NewClient creates a completion client against the given base URL, e.g.
// "https://api.openai.com/v1".
func NewClient(apiKey, baseURL, model string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
	}
}

// Complete sends the full conversation and returns the provider's reply with
// the role normalized to assistant.
func (c *Client) Complete(ctx context.Context, messages []models.Message) (models.Message, error) {
	body, err := json.Marshal(chatCompletionRequest{Model: c.model, Messages: messages})
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return models.Message{}, fmt.Errorf("completion request failed with status %d: %s", resp.StatusCode, string(b))
	}

	var parsed chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return models.Message{}, fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return models.Message{}, fmt.Errorf("no choices in completion response")
	}

	reply := parsed.Choices[0].Message
	reply.Role = models.RoleAssistant
	return reply, nil
}

// Package anthropic implements the AIProvider interface for the Anthropic
// Messages API (Claude models).
//
// Anthropic's API differs from OpenAI's in several key ways:
//   - The system prompt is a top-level field, not a message.
//   - The response body uses "content" as an array of typed blocks.
//   - Authentication uses "x-api-key" header, not Bearer tokens.
//   - max_tokens is required (not optional).
//
// This implementation normalizes those differences behind the
// provider.AIProvider interface, using go-resty/v2 for transport.
package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/viper"

	"github.com/sanix-darker/quorum/internal/provider"
)

// ---------------------------------------------------------------------------
// Registration
// ---------------------------------------------------------------------------

func init() {
	provider.Register("anthropic", NewProvider)
}

const anthropicVersion = "2023-06-01"

// ---------------------------------------------------------------------------
// Anthropic-specific API types
// ---------------------------------------------------------------------------

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	System      string       `json:"system,omitempty"`
	MaxTokens   int          `json:"max_tokens"`
	Temperature *float64     `json:"temperature,omitempty"`
}

type apiContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type apiResponse struct {
	ID         string            `json:"id"`
	Content    []apiContentBlock `json:"content"`
	Model      string            `json:"model"`
	StopReason string            `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ---------------------------------------------------------------------------
// Provider implementation
// ---------------------------------------------------------------------------

// Provider implements provider.AIProvider for the Anthropic Messages API.
type Provider struct {
	client  *resty.Client
	apiKey  string
	baseURL string
	model   string
	maxTok  int
}

// NewProvider is the factory function registered with the provider registry.
func NewProvider(v *viper.Viper) (provider.AIProvider, error) {
	apiKey := v.GetString("api_key")
	baseURL := v.GetString("base_url")
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	model := v.GetString("model")
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	maxTok := v.GetInt("max_tokens")
	if maxTok == 0 {
		maxTok = 4096
	}
	timeout := v.GetDuration("timeout")
	if timeout == 0 {
		timeout = 120 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("anthropic-version", anthropicVersion)

	return &Provider{
		client:  client,
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		maxTok:  maxTok,
	}, nil
}

// Info returns provider metadata.
func (p *Provider) Info() provider.ProviderInfo {
	return provider.ProviderInfo{
		Name:         "anthropic",
		DisplayName:  "Anthropic",
		DefaultModel: "claude-sonnet-4-20250514",
	}
}

// Validate checks that the API key is present. Anthropic has no cheap
// unauthenticated health endpoint, so no network round-trip is made here.
func (p *Provider) Validate(_ context.Context) error {
	if p.apiKey == "" {
		return &provider.ProviderError{
			Code:     provider.ErrCodeAuthentication,
			Message:  "api_key is not set",
			Provider: "anthropic",
		}
	}
	return nil
}

// Complete performs a synchronous messages call.
func (p *Provider) Complete(ctx context.Context, req provider.CompletionRequest) (*provider.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	maxTok := req.MaxTokens
	if maxTok == 0 {
		maxTok = p.maxTok
	}

	// Anthropic takes the system prompt as a top-level field.
	system, msgs := splitSystem(req.Messages)

	body := apiRequest{
		Model:       model,
		Messages:    msgs,
		System:      system,
		MaxTokens:   maxTok,
		Temperature: req.Temperature,
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("x-api-key", p.apiKey).
		SetBody(body).
		Post(p.baseURL + "/v1/messages")
	if err != nil {
		return nil, &provider.ProviderError{
			Code:     provider.ErrCodeProviderUnavailable,
			Message:  "HTTP request failed",
			Provider: "anthropic",
			Cause:    err,
		}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, classifyHTTPError(resp.StatusCode(), resp.Body())
	}

	var ar apiResponse
	if err := json.Unmarshal(resp.Body(), &ar); err != nil {
		return nil, &provider.ProviderError{
			Code:     provider.ErrCodeUnknown,
			Message:  "failed to decode response body",
			Provider: "anthropic",
			Cause:    err,
		}
	}

	var content strings.Builder
	for _, block := range ar.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	if content.Len() == 0 {
		return nil, &provider.ProviderError{
			Code:     provider.ErrCodeUnknown,
			Message:  "response contained no text content",
			Provider: "anthropic",
		}
	}

	return &provider.CompletionResponse{
		ID:      ar.ID,
		Model:   ar.Model,
		Content: content.String(),
		Usage: provider.Usage{
			PromptTokens:     ar.Usage.InputTokens,
			CompletionTokens: ar.Usage.OutputTokens,
			TotalTokens:      ar.Usage.InputTokens + ar.Usage.OutputTokens,
		},
		FinishReason: ar.StopReason,
	}, nil
}

// splitSystem extracts system messages into a single top-level prompt and
// returns the remaining conversation messages.
func splitSystem(msgs []provider.Message) (string, []apiMessage) {
	var system []string
	out := make([]apiMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == provider.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		out = append(out, apiMessage{Role: string(m.Role), Content: m.Content})
	}
	return strings.Join(system, "\n\n"), out
}

func classifyHTTPError(status int, body []byte) error {
	msg := "request failed"
	var ae apiError
	if err := json.Unmarshal(body, &ae); err == nil && ae.Error.Message != "" {
		msg = ae.Error.Message
	}
	code := provider.CodeForStatus(status)
	if ae.Error.Type == "invalid_request_error" && strings.Contains(msg, "prompt is too long") {
		code = provider.ErrCodeContextLength
	}
	return &provider.ProviderError{
		Code:       code,
		Message:    msg,
		Provider:   "anthropic",
		StatusCode: status,
	}
}

// Package provider defines the narrow contract quorum's analyzers use to
// talk to an AI model service. It abstracts away the differences between
// backends (OpenAI, Anthropic, self-hosted compatibles) behind a unified
// interface so analyzers never depend on a concrete API shape.
//
// Design principles:
//   - Idiomatic Go: context propagation, error values
//   - go-resty/v2 as the HTTP transport layer
//   - spf13/viper for provider-scoped configuration
//   - Normalized error codes across providers
//   - Registry/factory pattern for provider discovery
//
// Retry is deliberately NOT implemented here: the orchestrator owns the
// retry-and-degrade policy per analyzer, and stacking a second transport
// retry underneath it would multiply attempts invisibly.
package provider

import (
	"context"
	"fmt"
)

// ---------------------------------------------------------------------------
// Message types
// ---------------------------------------------------------------------------

// Role represents the role of a message participant.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ---------------------------------------------------------------------------
// Request / response types
// ---------------------------------------------------------------------------

// CompletionRequest is the provider-agnostic request that gets translated
// into each backend's native format by the provider implementation.
type CompletionRequest struct {
	// Model overrides the provider's configured model when non-empty.
	Model string `json:"model,omitempty"`

	// Messages is the ordered conversation history.
	Messages []Message `json:"messages"`

	// MaxTokens limits the response length. Zero means the provider default.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness. Nil means the provider default.
	Temperature *float64 `json:"temperature,omitempty"`
}

// Usage tracks token consumption.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponse is the provider-agnostic response from a completion call.
type CompletionResponse struct {
	// ID is the provider-assigned response identifier.
	ID string `json:"id"`

	// Model is the model that actually served the request.
	Model string `json:"model"`

	// Content is the assistant's reply text.
	Content string `json:"content"`

	// Usage contains token accounting for the request.
	Usage Usage `json:"usage"`

	// FinishReason indicates why generation stopped.
	FinishReason string `json:"finish_reason"`
}

// ---------------------------------------------------------------------------
// Error types
// ---------------------------------------------------------------------------

// ErrorCode classifies provider errors into actionable categories so the
// caller can decide how to react without inspecting backend-specific
// payloads.
type ErrorCode string

const (
	ErrCodeAuthentication      ErrorCode = "authentication"
	ErrCodeRateLimit           ErrorCode = "rate_limit"
	ErrCodeInvalidRequest      ErrorCode = "invalid_request"
	ErrCodeContextLength       ErrorCode = "context_length"
	ErrCodeProviderUnavailable ErrorCode = "provider_unavailable"
	ErrCodeTimeout             ErrorCode = "timeout"
	ErrCodeUnknown             ErrorCode = "unknown"
)

// ProviderError is a structured error carrying both a normalized code and
// the original backend details. It supports errors.Is / errors.As.
type ProviderError struct {
	Code       ErrorCode
	Message    string
	Provider   string
	StatusCode int
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (status %d): %v",
			e.Provider, e.Code, e.Message, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s (status %d)",
		e.Provider, e.Code, e.Message, e.StatusCode)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is to match ProviderErrors by code.
func (e *ProviderError) Is(target error) bool {
	t, ok := target.(*ProviderError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel errors for use with errors.Is().
var (
	ErrAuthentication      = &ProviderError{Code: ErrCodeAuthentication}
	ErrRateLimit           = &ProviderError{Code: ErrCodeRateLimit}
	ErrInvalidRequest      = &ProviderError{Code: ErrCodeInvalidRequest}
	ErrContextLength       = &ProviderError{Code: ErrCodeContextLength}
	ErrProviderUnavailable = &ProviderError{Code: ErrCodeProviderUnavailable}
	ErrTimeout             = &ProviderError{Code: ErrCodeTimeout}
)

// CodeForStatus maps an HTTP status to a normalized error code. Shared by
// the resty-based implementations.
func CodeForStatus(status int) ErrorCode {
	switch {
	case status == 401 || status == 403:
		return ErrCodeAuthentication
	case status == 429:
		return ErrCodeRateLimit
	case status == 408:
		return ErrCodeTimeout
	case status >= 500:
		return ErrCodeProviderUnavailable
	case status >= 400:
		return ErrCodeInvalidRequest
	default:
		return ErrCodeUnknown
	}
}

// ---------------------------------------------------------------------------
// Provider metadata and core interface
// ---------------------------------------------------------------------------

// ProviderInfo describes a registered provider for introspection and
// user-facing help text.
type ProviderInfo struct {
	// Name is the canonical short name used in configuration (e.g. "openai").
	Name string

	// DisplayName is the human-readable name (e.g. "OpenAI").
	DisplayName string

	// DefaultModel is the model used when the user does not specify one.
	DefaultModel string
}

// AIProvider is the central abstraction. Every backend implements this
// interface so analyzers can work with any provider interchangeably.
type AIProvider interface {
	// Info returns static metadata about this provider.
	Info() ProviderInfo

	// Complete sends a chat completion request and blocks until the full
	// response is available. The context controls cancellation and timeouts.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Validate checks that the provider is correctly configured (API key
	// present, etc.) and returns a descriptive error if not.
	Validate(ctx context.Context) error
}

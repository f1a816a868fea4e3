package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanix-darker/quorum/internal/provider"
)

func newTestProvider(t *testing.T, url string) provider.AIProvider {
	t.Helper()
	v := viper.New()
	v.Set("api_key", "test-key")
	v.Set("base_url", url)
	p, err := NewProvider(v)
	require.NoError(t, err)
	return p
}

func TestCompleteSplitsSystemPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req apiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "You are a code reviewer.", req.System)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.NotZero(t, req.MaxTokens)

		resp := apiResponse{
			ID:    "msg-1",
			Model: req.Model,
			Content: []apiContentBlock{
				{Type: "text", Text: "first "},
				{Type: "text", Text: "second"},
			},
			StopReason: "end_turn",
		}
		resp.Usage.InputTokens = 7
		resp.Usage.OutputTokens = 3
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	resp, err := p.Complete(context.Background(), provider.CompletionRequest{
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: "You are a code reviewer."},
			{Role: provider.RoleUser, Content: "Review this."},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "first second", resp.Content)
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.Equal(t, 10, resp.Usage.TotalTokens)
}

func TestCompleteErrorClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"throttled"}}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	_, err := p.Complete(context.Background(), provider.CompletionRequest{})
	require.Error(t, err)

	var pe *provider.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, provider.ErrCodeRateLimit, pe.Code)
	assert.Equal(t, "throttled", pe.Message)
}

func TestValidateMissingKey(t *testing.T) {
	p, err := NewProvider(viper.New())
	require.NoError(t, err)

	err = p.Validate(context.Background())
	assert.ErrorIs(t, err, provider.ErrAuthentication)
}

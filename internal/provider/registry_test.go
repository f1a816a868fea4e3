package provider

import (
	"context"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct{ name string }

func (f *fakeProvider) Info() ProviderInfo { return ProviderInfo{Name: f.name} }
func (f *fakeProvider) Complete(context.Context, CompletionRequest) (*CompletionResponse, error) {
	return &CompletionResponse{Content: "ok"}, nil
}
func (f *fakeProvider) Validate(context.Context) error { return nil }

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register("fake", func(*viper.Viper) (AIProvider, error) {
		return &fakeProvider{name: "fake"}, nil
	})

	p, err := r.Get("fake", viper.New())
	require.NoError(t, err)
	assert.Equal(t, "fake", p.Info().Name)
}

func TestRegistryUnknownProvider(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("nope", viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestRegistryDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	f := func(*viper.Viper) (AIProvider, error) { return &fakeProvider{}, nil }
	r.Register("dup", f)
	assert.Panics(t, func() { r.Register("dup", f) })
}

func TestRegistryNamesSorted(t *testing.T) {
	r := NewRegistry()
	f := func(*viper.Viper) (AIProvider, error) { return &fakeProvider{}, nil }
	r.Register("zeta", f)
	r.Register("alpha", f)
	assert.Equal(t, []string{"alpha", "zeta"}, r.Names())
}

func TestProviderErrorIs(t *testing.T) {
	err := &ProviderError{Code: ErrCodeRateLimit, Provider: "openai", StatusCode: 429}
	assert.ErrorIs(t, err, ErrRateLimit)
	assert.NotErrorIs(t, err, ErrAuthentication)
}

func TestCodeForStatus(t *testing.T) {
	assert.Equal(t, ErrCodeAuthentication, CodeForStatus(401))
	assert.Equal(t, ErrCodeAuthentication, CodeForStatus(403))
	assert.Equal(t, ErrCodeRateLimit, CodeForStatus(429))
	assert.Equal(t, ErrCodeTimeout, CodeForStatus(408))
	assert.Equal(t, ErrCodeProviderUnavailable, CodeForStatus(503))
	assert.Equal(t, ErrCodeInvalidRequest, CodeForStatus(400))
	assert.Equal(t, ErrCodeUnknown, CodeForStatus(200))
}

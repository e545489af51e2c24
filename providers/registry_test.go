package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryGetKnownProviders(t *testing.T) {
	registry := NewRegistry()

	for _, name := range []string{"openai", "anthropic", "gemini", "google", "openrouter"} {
		provider, err := registry.Get(name, "fake-key", "some-model", nil)
		require.NoError(t, err, "provider %s", name)
		require.NotNil(t, provider)
	}
}

func TestRegistryGetUnknownProvider(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get("aws-bedrock", "fake-key", "some-model", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported provider")
}

func TestRegistryGetReturnsFreshInstances(t *testing.T) {
	registry := NewRegistry()

	a, err := registry.Get("openai", "fake-key", "gpt-4o-mini", nil)
	require.NoError(t, err)
	b, err := registry.Get("openai", "fake-key", "gpt-4o-mini", nil)
	require.NoError(t, err)

	// Workers must not share client state.
	assert.NotSame(t, a, b)
}

func TestRegistrySubset(t *testing.T) {
	registry := NewRegistry("openai")

	_, err := registry.Get("openai", "fake-key", "gpt-4o-mini", nil)
	require.NoError(t, err)

	_, err = registry.Get("anthropic", "fake-key", "claude-3-5-haiku-latest", nil)
	require.Error(t, err)
}

func TestRegistryCaseInsensitive(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Get("OpenAI", "fake-key", "gpt-4o-mini", nil)
	require.NoError(t, err)
}

package providers

import (
	"fmt"
	"strings"
	"sync"
)

// Registry manages the registration and retrieval of provider
// constructors. It is thread-safe; workers call Get concurrently, each
// receiving its own provider instance.
type Registry struct {
	providers map[string]ProviderConstructor
	mutex     sync.RWMutex
}

// NewRegistry creates a registry with the specified providers. If no
// names are given, all known providers are registered.
func NewRegistry(providerNames ...string) *Registry {
	registry := &Registry{
		providers: make(map[string]ProviderConstructor),
	}

	knownProviders := getKnownProviders()

	if len(providerNames) == 0 {
		for name, constructor := range knownProviders {
			registry.providers[name] = constructor
		}
	} else {
		for _, name := range providerNames {
			if constructor, ok := knownProviders[name]; ok {
				registry.providers[name] = constructor
			}
		}
	}

	return registry
}

func getKnownProviders() map[string]ProviderConstructor {
	return map[string]ProviderConstructor{
		"openai":     NewOpenAIProvider,
		"anthropic":  NewAnthropicProvider,
		"gemini":     NewGeminiProvider,
		"google":     NewGeminiProvider,
		"openrouter": NewOpenRouterProvider,
	}
}

// Register adds a new provider constructor to the registry.
func (r *Registry) Register(name string, constructor ProviderConstructor) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.providers[strings.ToLower(name)] = constructor
}

// Get creates a fresh provider instance by name.
func (r *Registry) Get(name, apiKey, model string, extraHeaders map[string]string) (Provider, error) {
	r.mutex.RLock()
	constructor, exists := r.providers[strings.ToLower(name)]
	r.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}

	return constructor(apiKey, model, extraHeaders), nil
}

package llmadapters

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// Registry maps provider names to adapters. Adapters are registered once at
// startup and looked up by the scheduler for every work unit.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]LLMAdapter
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: map[string]LLMAdapter{}}
}

// Register adds an adapter under its Provider() name, replacing any previous
// registration for the same provider.
func (r *Registry) Register(adapter LLMAdapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[adapter.Provider()] = adapter
}

// Get returns the adapter for a provider name.
func (r *Registry) Get(provider string) (LLMAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for provider %q", provider)
	}
	return adapter, nil
}

// Providers lists the registered provider names.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry populated at startup.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// InitDefaultRegistry wires adapters for every provider whose API key is
// present in the environment. The mock adapter is always registered so the
// platform works end to end without any credentials.
func InitDefaultRegistry() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		defaultRegistry.Register(NewOpenAIAdapter(key))
		log.Println("Registered OpenAI adapter.")
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		defaultRegistry.Register(NewAnthropicAdapter(key))
		log.Println("Registered Anthropic adapter.")
	}
	if key := os.Getenv("ARK_API_KEY"); key != "" {
		defaultRegistry.Register(NewArkAdapter(key))
		log.Println("Registered Volcengine Ark adapter.")
	}
	defaultRegistry.Register(&MockLLMAdapter{})
}

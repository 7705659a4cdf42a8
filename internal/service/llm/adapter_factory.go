package llm

import (
	"fmt"

	llmprovider "github.com/haowjy/meridian-llm-go"

	domainllm "fsgateway/internal/domain/services/llm"
	"fsgateway/internal/service/llm/adapters"
)

// AdapterFactory creates provider adapters by name.
// Implements Strategy pattern for adapter creation, enabling extension without modification (OCP).
type AdapterFactory interface {
	CreateAdapter(providerName string, libraryProvider llmprovider.Provider) (domainllm.LLMProvider, error)
}

// AdapterCreatorFunc is a function type that creates an adapter from a library provider.
type AdapterCreatorFunc func(llmprovider.Provider) domainllm.LLMProvider

// DefaultAdapterFactory implements AdapterFactory with a registry of adapter creators.
type DefaultAdapterFactory struct {
	creators map[string]AdapterCreatorFunc
}

// NewDefaultAdapterFactory creates a new adapter factory with standard adapters registered.
func NewDefaultAdapterFactory() *DefaultAdapterFactory {
	factory := &DefaultAdapterFactory{
		creators: make(map[string]AdapterCreatorFunc),
	}

	// Register standard adapters with wrapper functions that return the interface type
	factory.Register("anthropic", func(p llmprovider.Provider) domainllm.LLMProvider {
		return adapters.NewAnthropicAdapterWithProvider(p)
	})
	factory.Register("openrouter", func(p llmprovider.Provider) domainllm.LLMProvider {
		return adapters.NewOpenRouterAdapterWithProvider(p)
	})
	factory.Register("lorem", func(p llmprovider.Provider) domainllm.LLMProvider {
		return adapters.NewLoremAdapterWithProvider(p)
	})

	return factory
}

// Register adds a new adapter creator for a provider.
// Enables extension without modifying existing code (OCP compliance).
func (f *DefaultAdapterFactory) Register(providerName string, creator AdapterCreatorFunc) {
	f.creators[providerName] = creator
}

// CreateAdapter creates an adapter for the given provider.
// Returns error if provider is not registered.
func (f *DefaultAdapterFactory) CreateAdapter(providerName string, libraryProvider llmprovider.Provider) (domainllm.LLMProvider, error) {
	creator, exists := f.creators[providerName]
	if !exists {
		return nil, fmt.Errorf("unsupported provider: %s (supported: anthropic, openrouter, lorem)", providerName)
	}

	return creator(libraryProvider), nil
}

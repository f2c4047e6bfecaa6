package llm

import (
	"fmt"
	"sort"

	"github.com/nikhilbhutani/promptrelay/internal/config"
)

// Registry holds the direct providers that have a real credential. A vendor
// with a missing or placeholder key is simply absent.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(cfg config.LLMConfig) *Registry {
	r := &Registry{providers: make(map[string]Provider)}

	if cfg.OpenAIConfigured() {
		r.Register(NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIBaseURL))
	}
	if cfg.AnthropicConfigured() {
		r.Register(NewAnthropicProvider(cfg.AnthropicKey))
	}

	return r
}

func (r *Registry) Register(p Provider) {
	r.providers[p.Name()] = p
}

func (r *Registry) Provider(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, name)
	}
	return p, nil
}

// Names lists configured providers in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

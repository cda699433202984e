package providers

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Registry holds vision clients by name with thread-safe access.
// It supports config-driven instantiation and hot-reload.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]VisionClient
	logger  *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		clients: make(map[string]VisionClient),
		logger:  logger,
	}
}

// Register registers a vision client by name.
func (r *Registry) Register(name string, client VisionClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = client
	r.logger.Info("registered vision client", "name", name)
}

// Unregister removes a vision client by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, name)
	r.logger.Info("unregistered vision client", "name", name)
}

// Get returns the named vision client.
func (r *Registry) Get(name string) (VisionClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("vision client %q not registered", name)
	}
	return client, nil
}

// Names returns all registered client names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	return names
}

// ClientConfig describes a vision client to instantiate.
type ClientConfig struct {
	Type       string // "openrouter", "openai", "mock"
	Model      string
	APIKey     string
	RPS        float64
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// Build instantiates a vision client from config.
func Build(cfg ClientConfig) (VisionClient, error) {
	switch cfg.Type {
	case "openrouter":
		return NewOpenRouterClient(OpenRouterConfig{
			APIKey:       cfg.APIKey,
			DefaultModel: cfg.Model,
			RPS:          cfg.RPS,
			MaxRetries:   cfg.MaxRetries,
			RetryDelay:   cfg.RetryDelay,
			Timeout:      cfg.Timeout,
		}), nil
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			RateLimit:  cfg.RPS,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
			Timeout:    cfg.Timeout,
		}), nil
	case "mock":
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown vision client type %q", cfg.Type)
	}
}

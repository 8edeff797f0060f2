package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	agentErrors "github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/errors"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/logger"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/model/contract"
	anthropicProvider "github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/model/providers/anthropic"
	geminiProvider "github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/model/providers/gemini"
	openaiProvider "github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/model/providers/openai"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/observe"
)

// DefaultModelRouter resolves a model name to its provider and issues exactly
// one request. A failed request is returned to the caller as is; the fallback
// model only stands in for names that are not registered.
type DefaultModelRouter struct {
	cfg       config.ModelsConfig
	providers map[string]Provider
	timeouts  map[string]time.Duration
	metrics   *observe.Metrics
	mu        sync.RWMutex
	mapper    *agentErrors.DefaultErrorMapper
}

type RouterOption func(*DefaultModelRouter)

func WithMetrics(m *observe.Metrics) RouterOption {
	return func(r *DefaultModelRouter) { r.metrics = m }
}

// WithProvider registers p under name, replacing any configured entry.
func WithProvider(name string, p Provider) RouterOption {
	return func(r *DefaultModelRouter) { r.providers[name] = p }
}

func NewModelRouter(cfg config.ModelsConfig, opts ...RouterOption) (*DefaultModelRouter, error) {
	router := &DefaultModelRouter{
		cfg:       cfg,
		providers: make(map[string]Provider),
		timeouts:  make(map[string]time.Duration),
		mapper:    agentErrors.NewDefaultErrorMapper(),
	}

	if err := router.initProviders(); err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(router)
	}
	if len(router.providers) == 0 {
		return nil, agentErrors.Unavailable("no model providers initialized; set GEMINI_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY")
	}

	return router, nil
}

func (r *DefaultModelRouter) Route(ctx context.Context, model string, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	log := logger.FromContext(ctx)

	name, provider, err := r.resolveProvider(ctx, model)
	if err != nil {
		return nil, err
	}
	req.Model = name

	if timeout := r.timeouts[name]; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	log.Debug("Routing completion request", "model", name, "provider", provider.Type(), "messages", len(req.Messages))

	resp, err := provider.Generate(ctx, req)
	if err != nil {
		status := observe.StatusError
		if errors.Is(err, context.Canceled) {
			status = observe.StatusCancelled
		}
		r.metrics.RecordProviderRequest(ctx, provider.Type(), status)
		log.Error("Provider request failed", "model", name, "error", err)
		return nil, r.mapper.MapError(agentErrors.Wrap(err, "provider request failed"))
	}
	if resp == nil {
		r.metrics.RecordProviderRequest(ctx, provider.Type(), observe.StatusError)
		return nil, agentErrors.InvalidModelOutput(fmt.Sprintf("model %s returned no response", name))
	}

	r.metrics.RecordProviderRequest(ctx, provider.Type(), observe.StatusOK)
	log.Debug("Request completed", "model", name, "tool_calls", len(resp.ToolCalls))
	return resp, nil
}

func (r *DefaultModelRouter) ListModels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]string, 0, len(r.providers))
	for name := range r.providers {
		models = append(models, name)
	}
	sort.Strings(models)
	return models
}

func (r *DefaultModelRouter) Health(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for name, provider := range r.providers {
		if err := provider.Health(ctx); err != nil {
			slog.Warn("Provider unhealthy", "provider", name, "error", err)
			return agentErrors.Transient(fmt.Sprintf("provider %s unhealthy", name))
		}
	}
	return nil
}

func (r *DefaultModelRouter) initProviders() error {
	for _, entry := range r.cfg.Registry {
		provider, err := createProvider(entry)
		if err != nil {
			slog.Warn("Skipping model", "provider", entry.Provider, "model", entry.Name, "error", err)
			continue
		}

		timeout, err := config.DurationOrDefault(entry.RequestTimeout, config.DefaultModelRequestTimeout)
		if err != nil {
			return agentErrors.InvalidInput(fmt.Sprintf("invalid request_timeout for model %s: %v", entry.Name, err))
		}

		r.providers[entry.Name] = provider
		r.timeouts[entry.Name] = timeout
		slog.Info("Provider initialized", "name", entry.Name, "type", entry.Provider)
	}
	return nil
}

func (r *DefaultModelRouter) resolveProvider(ctx context.Context, model string) (string, Provider, error) {
	select {
	case <-ctx.Done():
		return "", nil, agentErrors.Wrap(ctx.Err(), "provider resolution cancelled")
	default:
	}

	if model == "" {
		model = r.cfg.Default
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if provider, ok := r.providers[model]; ok {
		return model, provider, nil
	}

	if r.cfg.Fallback != "" && model != r.cfg.Fallback {
		if provider, ok := r.providers[r.cfg.Fallback]; ok {
			slog.Warn("Model not registered, using fallback", "model", model, "fallback", r.cfg.Fallback)
			return r.cfg.Fallback, provider, nil
		}
	}

	return "", nil, agentErrors.NotFound(fmt.Sprintf("model %s not found", model))
}

func createProvider(entry config.ModelRegistry) (Provider, error) {
	maxTokens := entry.MaxTokens
	if maxTokens <= 0 {
		maxTokens = config.DefaultModelMaxTokens
	}

	switch entry.Provider {
	case config.ProviderOpenAI:
		if entry.APIKey == "" {
			return nil, agentErrors.InvalidInput("API key required for OpenAI provider")
		}
		baseURL := entry.BaseURL
		if baseURL == "" {
			baseURL = config.DefaultOpenAIBaseURL
		}
		return openaiProvider.New(entry.APIKey, baseURL, entry.Name, config.ProviderOpenAI), nil

	case config.ProviderOllama:
		baseURL := entry.BaseURL
		if baseURL == "" {
			baseURL = config.DefaultOllamaBaseURL
		}
		apiKey := entry.APIKey
		if apiKey == "" {
			apiKey = config.DefaultOllamaAPIKey
		}
		return openaiProvider.New(apiKey, baseURL, entry.Name, config.ProviderOllama), nil

	case config.ProviderAnthropic:
		if entry.APIKey == "" {
			return nil, agentErrors.InvalidInput("API key required for Anthropic provider")
		}
		return anthropicProvider.New(entry.APIKey, entry.BaseURL, entry.Name, int64(maxTokens)), nil

	case config.ProviderGemini:
		if entry.APIKey == "" {
			return nil, agentErrors.InvalidInput("API key required for Gemini provider")
		}
		provider, err := geminiProvider.New(entry.APIKey, entry.Name, int32(maxTokens))
		if err != nil {
			return nil, agentErrors.WrapWithCategory(err, "failed to create Gemini provider", agentErrors.ErrInternal)
		}
		return provider, nil

	default:
		return nil, agentErrors.InvalidInput(fmt.Sprintf("unknown provider type: %s", entry.Provider))
	}
}

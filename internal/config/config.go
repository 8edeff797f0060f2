package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Models       ModelsConfig       `koanf:"models"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator"`
	Tools        ToolsConfig        `koanf:"tools"`
	Session      SessionConfig      `koanf:"session"`
	Ingress      IngressConfig      `koanf:"ingress"`
	Worker       WorkerConfig       `koanf:"worker"`
	Adapters     AdaptersConfig     `koanf:"adapters"`
	Observe      ObserveConfig      `koanf:"observe"`
	Daemon       DaemonConfig       `koanf:"daemon"`
}

type ServerConfig struct {
	Port            int    `koanf:"port"`
	LogLevel        string `koanf:"log_level"`
	ReadTimeout     string `koanf:"read_timeout"`
	WriteTimeout    string `koanf:"write_timeout"`
	IdleTimeout     string `koanf:"idle_timeout"`
	ShutdownTimeout string `koanf:"shutdown_timeout"`
}

type ModelsConfig struct {
	Default  string          `koanf:"default"`
	Fallback string          `koanf:"fallback"`
	Registry []ModelRegistry `koanf:"registry"`
}

type ModelRegistry struct {
	Name           string `koanf:"name"`
	Provider       string `koanf:"provider"`
	BaseURL        string `koanf:"base_url"`
	APIKey         string `koanf:"api_key"`
	RequestTimeout string `koanf:"request_timeout"`
	MaxTokens      int    `koanf:"max_tokens"`
}

// OrchestratorConfig drives the decide/execute loop.
type OrchestratorConfig struct {
	MaxIterations          int    `koanf:"max_iterations"`
	ParallelTools          bool   `koanf:"parallel_tools"`
	MaxParallelTools       int    `koanf:"max_parallel_tools"`
	SystemPrompt           string `koanf:"system_prompt"`
	AssistantInstructions  string `koanf:"assistant_instructions"`
	FallbackResponse       string `koanf:"fallback_response"`
	IterationLimitResponse string `koanf:"iteration_limit_response"`
	ErrorResponseTemplate  string `koanf:"error_response_template"`
	Greeting               string `koanf:"greeting"`
}

type ToolsConfig struct {
	SerpAPI SerpAPIConfig `koanf:"serpapi"`
}

type SerpAPIConfig struct {
	BaseURL   string `koanf:"base_url"`
	APIKey    string `koanf:"api_key"`
	Timeout   string `koanf:"timeout"`
	Language  string `koanf:"hl"`
	Country   string `koanf:"gl"`
	Currency  string `koanf:"currency"`
	Stops     string `koanf:"stops"`
	MaxHotels int    `koanf:"max_hotels"`
}

type SessionConfig struct {
	IdleTTL       string `koanf:"idle_ttl"`
	SweepSchedule string `koanf:"sweep_schedule"`
	MaxMessages   int    `koanf:"max_messages"`
}

// IngressConfig sizes the event queue. DedupPath persists seen delivery
// ids across restarts; empty keeps them in memory.
type IngressConfig struct {
	QueueSize     int    `koanf:"queue_size"`
	SubmitTimeout string `koanf:"submit_timeout"`
	DedupTTL      string `koanf:"dedup_ttl"`
	DedupPath     string `koanf:"dedup_path"`
}

type WorkerConfig struct {
	PoolSize        int    `koanf:"pool_size"`
	ShutdownTimeout string `koanf:"shutdown_timeout"`
	RunTimeout      string `koanf:"run_timeout"`
}

type AdaptersConfig struct {
	Voice    VoiceConfig    `koanf:"voice"`
	Slack    SlackConfig    `koanf:"slack"`
	Telegram TelegramConfig `koanf:"telegram"`
}

// VoiceConfig configures the websocket transport. OriginPatterns lists
// extra browser origins allowed to open the socket.
type VoiceConfig struct {
	Enabled        bool     `koanf:"enabled"`
	Path           string   `koanf:"path"`
	OriginPatterns []string `koanf:"origin_patterns"`
	WriteTimeout   string   `koanf:"write_timeout"`
}

type SlackConfig struct {
	Enabled       bool   `koanf:"enabled"`
	Port          int    `koanf:"port"`
	SigningSecret string `koanf:"signing_secret"`
	BotToken      string `koanf:"bot_token"`
}

type TelegramConfig struct {
	Enabled       bool   `koanf:"enabled"`
	BotToken      string `koanf:"bot_token"`
	UpdateTimeout int    `koanf:"update_timeout"`
}

type ObserveConfig struct {
	MetricsEnabled bool   `koanf:"metrics_enabled"`
	MetricsPath    string `koanf:"metrics_path"`
	ServiceName    string `koanf:"service_name"`
}

type DaemonConfig struct {
	ShutdownTimeout     string `koanf:"shutdown_timeout"`
	HealthCheckInterval string `koanf:"health_check_interval"`
	LockDir             string `koanf:"lock_dir"`
	LockTimeout         string `koanf:"lock_timeout"`
	LockRetry           string `koanf:"lock_retry"`
	StaleLockTTL        string `koanf:"stale_lock_ttl"`
}

const (
	EnvPrefix                          = "TRAVELAGENT_"
	DefaultServerPort                  = 8000
	DefaultServerLogLevel              = "info"
	DefaultServerReadTimeout           = "15s"
	DefaultServerWriteTimeout          = "120s"
	DefaultServerIdleTimeout           = "60s"
	DefaultServerShutdownTimeout       = "5s"
	DefaultModelDefault                = "gemini-1.5-flash"
	DefaultModelFallback               = "gpt-4o-mini"
	DefaultModelRequestTimeout         = "60s"
	DefaultModelMaxTokens              = 1024
	DefaultOpenAIBaseURL               = "https://api.openai.com/v1"
	DefaultOllamaBaseURL               = "http://localhost:11434/v1"
	DefaultOllamaAPIKey                = "ollama"
	DefaultOrchestratorMaxIterations   = 10
	DefaultOrchestratorParallelTools   = true
	DefaultOrchestratorMaxParallel     = 4
	DefaultFallbackResponse            = "I've completed the travel research for you."
	DefaultIterationLimitResponse      = "I wasn't able to finish the travel research within the allowed number of steps. Please try narrowing your request."
	DefaultErrorResponseTemplate       = "I encountered an error while processing your request: %s. Let me try to help you in a different way."
	DefaultGreeting                    = "Hello! I am your travel assistant. I can look up flights and hotels for you. Where would you like to go?"
	DefaultSerpAPIBaseURL              = "https://serpapi.com/search"
	DefaultSerpAPITimeout              = "30s"
	DefaultSerpAPILanguage             = "en"
	DefaultSerpAPICountry              = "us"
	DefaultSerpAPICurrency             = "USD"
	DefaultSerpAPIStops                = "1"
	DefaultSerpAPIMaxHotels            = 5
	DefaultSessionIdleTTL              = "30m"
	DefaultSessionSweepSchedule        = "@every 5m"
	DefaultSessionMaxMessages          = 200
	DefaultIngressQueueSize            = 100
	DefaultIngressSubmitTimeout        = "500ms"
	DefaultIngressDedupTTL             = "10m"
	DefaultWorkerPoolSize              = 8
	DefaultWorkerShutdownTimeout       = "30s"
	DefaultWorkerRunTimeout            = "5m"
	DefaultVoicePath                   = "/v1/voice"
	DefaultVoiceWriteTimeout           = "10s"
	DefaultSlackPort                   = 3000
	DefaultTelegramUpdateTimeout       = 60
	DefaultObserveMetricsEnabled       = true
	DefaultObserveMetricsPath          = "/metrics"
	DefaultObserveServiceName          = "travelagent"
	DefaultDaemonShutdownTimeout       = "30s"
	DefaultDaemonHealthCheckInterval   = "30s"
	DefaultDaemonLockTimeout           = "5s"
	DefaultDaemonLockRetry             = "100ms"
	DefaultDaemonStaleLockTTL          = "15m"
	ProviderGemini                     = "gemini"
	ProviderOpenAI                     = "openai"
	ProviderOllama                     = "ollama"
	ProviderAnthropic                  = "anthropic"
	defaultConfigDirName               = ".travelagent"
	defaultConfigFileName              = "config.yaml"
)

// DefaultConfigPath returns ~/.travelagent/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, defaultConfigDirName, defaultConfigFileName), nil
}

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":             DefaultServerPort,
		"server.log_level":        DefaultServerLogLevel,
		"server.read_timeout":     DefaultServerReadTimeout,
		"server.write_timeout":    DefaultServerWriteTimeout,
		"server.idle_timeout":     DefaultServerIdleTimeout,
		"server.shutdown_timeout": DefaultServerShutdownTimeout,
		"models.default":          DefaultModelDefault,
		"models.fallback":         DefaultModelFallback,
		"models.registry": []ModelRegistry{
			{Name: DefaultModelDefault, Provider: ProviderGemini},
			{Name: DefaultModelFallback, Provider: ProviderOpenAI, BaseURL: DefaultOpenAIBaseURL},
			{Name: "claude-3-5-haiku-latest", Provider: ProviderAnthropic},
			{Name: "llama3.1", Provider: ProviderOllama, BaseURL: DefaultOllamaBaseURL},
		},
		"orchestrator.max_iterations":           DefaultOrchestratorMaxIterations,
		"orchestrator.parallel_tools":           DefaultOrchestratorParallelTools,
		"orchestrator.max_parallel_tools":       DefaultOrchestratorMaxParallel,
		"orchestrator.system_prompt":            DefaultSystemPrompt,
		"orchestrator.assistant_instructions":   DefaultAssistantInstructions,
		"orchestrator.fallback_response":        DefaultFallbackResponse,
		"orchestrator.iteration_limit_response": DefaultIterationLimitResponse,
		"orchestrator.error_response_template":  DefaultErrorResponseTemplate,
		"orchestrator.greeting":                 DefaultGreeting,
		"tools.serpapi.base_url":                DefaultSerpAPIBaseURL,
		"tools.serpapi.timeout":                 DefaultSerpAPITimeout,
		"tools.serpapi.hl":                      DefaultSerpAPILanguage,
		"tools.serpapi.gl":                      DefaultSerpAPICountry,
		"tools.serpapi.currency":                DefaultSerpAPICurrency,
		"tools.serpapi.stops":                   DefaultSerpAPIStops,
		"tools.serpapi.max_hotels":              DefaultSerpAPIMaxHotels,
		"session.idle_ttl":                      DefaultSessionIdleTTL,
		"session.sweep_schedule":                DefaultSessionSweepSchedule,
		"session.max_messages":                  DefaultSessionMaxMessages,
		"ingress.queue_size":                    DefaultIngressQueueSize,
		"ingress.submit_timeout":                DefaultIngressSubmitTimeout,
		"ingress.dedup_ttl":                     DefaultIngressDedupTTL,
		"worker.pool_size":                      DefaultWorkerPoolSize,
		"worker.shutdown_timeout":               DefaultWorkerShutdownTimeout,
		"worker.run_timeout":                    DefaultWorkerRunTimeout,
		"adapters.voice.enabled":                true,
		"adapters.voice.path":                   DefaultVoicePath,
		"adapters.voice.write_timeout":          DefaultVoiceWriteTimeout,
		"adapters.slack.port":                   DefaultSlackPort,
		"adapters.telegram.update_timeout":      DefaultTelegramUpdateTimeout,
		"observe.metrics_enabled":               DefaultObserveMetricsEnabled,
		"observe.metrics_path":                  DefaultObserveMetricsPath,
		"observe.service_name":                  DefaultObserveServiceName,
		"daemon.shutdown_timeout":               DefaultDaemonShutdownTimeout,
		"daemon.health_check_interval":          DefaultDaemonHealthCheckInterval,
		"daemon.lock_dir":                       filepath.Join(os.TempDir(), "travelagent"),
		"daemon.lock_timeout":                   DefaultDaemonLockTimeout,
		"daemon.lock_retry":                     DefaultDaemonLockRetry,
		"daemon.stale_lock_ttl":                 DefaultDaemonStaleLockTTL,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else if globalPath, err := DefaultConfigPath(); err == nil {
		if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
			slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
		}
	}

	k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", -1)
	}), nil)

	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	for i, m := range cfg.Models.Registry {
		if m.Provider == "" {
			cfg.Models.Registry[i].Provider = ProviderOpenAI
		}
	}

	injectWellKnownEnv(&cfg)

	lockDir, err := ExpandPath(cfg.Daemon.LockDir)
	if err != nil {
		return nil, err
	}
	cfg.Daemon.LockDir = lockDir

	if cfg.Ingress.DedupPath != "" {
		dedupPath, err := ExpandPath(cfg.Ingress.DedupPath)
		if err != nil {
			return nil, err
		}
		cfg.Ingress.DedupPath = dedupPath
	}

	return &cfg, nil
}

// injectWellKnownEnv fills credentials from the variables the provider SDKs
// document, without overriding explicit configuration.
func injectWellKnownEnv(cfg *Config) {
	keys := map[string]string{
		ProviderOpenAI:    os.Getenv("OPENAI_API_KEY"),
		ProviderAnthropic: os.Getenv("ANTHROPIC_API_KEY"),
		ProviderGemini:    firstNonEmpty(os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY")),
		ProviderOllama:    DefaultOllamaAPIKey,
	}
	for i, m := range cfg.Models.Registry {
		if m.APIKey != "" {
			continue
		}
		cfg.Models.Registry[i].APIKey = keys[m.Provider]
	}

	if cfg.Tools.SerpAPI.APIKey == "" {
		cfg.Tools.SerpAPI.APIKey = os.Getenv("SERPAPI_API_KEY")
	}

	// Container platforms hand out the listen port through PORT.
	if raw := strings.TrimSpace(os.Getenv("PORT")); raw != "" {
		if port, err := strconv.Atoi(raw); err == nil && port > 0 {
			cfg.Server.Port = port
		} else {
			slog.Warn("Ignoring invalid PORT", "value", raw)
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

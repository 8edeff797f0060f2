package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/observe"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ToolExecutor runs a named tool. *tool.Runner satisfies it.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args any) (any, error)
}

// Chatter runs one synchronous orchestration for a session.
type Chatter interface {
	Run(ctx context.Context, sessionID, text string) (string, error)
}

// HealthReporter lists component health for /health.
type HealthReporter func(ctx context.Context) map[string]error

type Options struct {
	Tools   ToolExecutor
	Chat    Chatter
	Health  HealthReporter
	Metrics *observe.Metrics

	// Voice is mounted at VoicePath when set.
	Voice     http.Handler
	VoicePath string

	MetricsEnabled bool
	MetricsPath    string
	// MetricsHandler defaults to promhttp.Handler().
	MetricsHandler http.Handler
}

type Server struct {
	cfg             config.ServerConfig
	opts            Options
	handler         http.Handler
	server          *http.Server
	shutdownTimeout time.Duration

	mu       sync.Mutex
	listener net.Listener
}

func NewServer(cfg config.ServerConfig, opts Options) (*Server, error) {
	readTimeout, err := config.DurationOrDefault(cfg.ReadTimeout, config.DefaultServerReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse server read timeout: %w", err)
	}
	writeTimeout, err := config.DurationOrDefault(cfg.WriteTimeout, config.DefaultServerWriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse server write timeout: %w", err)
	}
	idleTimeout, err := config.DurationOrDefault(cfg.IdleTimeout, config.DefaultServerIdleTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse server idle timeout: %w", err)
	}
	shutdownTimeout, err := config.DurationOrDefault(cfg.ShutdownTimeout, config.DefaultServerShutdownTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse server shutdown timeout: %w", err)
	}

	if opts.MetricsPath == "" {
		opts.MetricsPath = config.DefaultObserveMetricsPath
	}
	if opts.VoicePath == "" {
		opts.VoicePath = config.DefaultVoicePath
	}
	if opts.MetricsHandler == nil {
		opts.MetricsHandler = promhttp.Handler()
	}

	s := &Server{cfg: cfg, opts: opts, shutdownTimeout: shutdownTimeout}
	s.handler = s.routes()
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	handle := func(pattern string, h http.Handler) {
		route := pattern
		if i := strings.IndexByte(pattern, ' '); i >= 0 {
			route = pattern[i+1:]
		}
		mux.Handle(pattern, observe.Middleware(s.opts.Metrics, route, h))
	}

	handle("GET /{$}", http.HandlerFunc(s.handleRoot))
	handle("GET /docs", http.HandlerFunc(s.handleDocs))
	handle("GET /health", http.HandlerFunc(s.handleHealth))
	handle("POST /flights/search", http.HandlerFunc(s.handleFlightSearch))
	handle("POST /hotels/search", http.HandlerFunc(s.handleHotelSearch))

	if s.opts.Chat != nil {
		handle("POST /v1/chat", http.HandlerFunc(s.handleChat))
	}
	// Websocket upgrades hijack the connection, so the voice route skips the
	// status-recording middleware.
	if s.opts.Voice != nil {
		mux.Handle("GET "+s.opts.VoicePath, s.opts.Voice)
	}
	if s.opts.MetricsEnabled {
		mux.Handle("GET "+s.opts.MetricsPath, s.opts.MetricsHandler)
	}

	return mux
}

// Start listens on the configured port and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	go func() {
		slog.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server failed", "error", err)
		}
	}()
	return nil
}

// Addr reports the bound address once started.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.server.Addr
	}
	return s.listener.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

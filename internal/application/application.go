package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/eugenenazirov/stac-search-settings/internal/api"
	"github.com/eugenenazirov/stac-search-settings/internal/config"
	"github.com/eugenenazirov/stac-search-settings/internal/search"
	"github.com/eugenenazirov/stac-search-settings/internal/settings"
	"github.com/eugenenazirov/stac-search-settings/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	clientSettings *settings.Settings[*elasticsearch.Client]
	typedSettings  *settings.Settings[*elasticsearch.TypedClient]
	probes         *storage.MemoryStorage
	handler        *api.Handler
	router         http.Handler
	logger         *zap.Logger
	server         *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []settings.Option{
		settings.WithHosts(cfg.SearchHosts...),
		settings.WithLogger(logger),
	}
	clientSettings := settings.NewClientSettings(opts...)
	typedSettings := settings.NewTypedClientSettings(opts...)
	probes := storage.NewMemoryStorage()

	handler := api.NewHandler(clientSettings,
		api.WithProbeStorage(probes),
		api.WithProber(search.FlavorClient, clientProber(clientSettings)),
		api.WithProber(search.FlavorTyped, typedProber(typedSettings)),
	)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithDirectResponse(clientSettings.EnableDirectResponse()),
	)

	rootHandler, err := BuildRootHandler(apiRouter)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP handler: %w", err)
	}

	return &App{
		clientSettings: clientSettings,
		typedSettings:  typedSettings,
		probes:         probes,
		handler:        handler,
		router:         apiRouter,
		logger:         logger,
		server:         NewServer(cfg, rootHandler),
	}, nil
}

// BuildRootHandler routes API requests and exposes Prometheus metrics.
func BuildRootHandler(apiHandler http.Handler) (http.Handler, error) {
	if apiHandler == nil {
		return nil, errors.New("api handler is required")
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening",
			zap.String("addr", a.server.Addr),
			zap.Strings("search_hosts", a.clientSettings.Hosts()),
		)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Settings returns the views for both client flavors.
func (a *App) Settings() []settings.View {
	return []settings.View{a.clientSettings, a.typedSettings}
}

func clientProber(f settings.ClientFactory[*elasticsearch.Client]) api.Prober {
	return api.ProberFunc(func(ctx context.Context) error {
		es, err := f.CreateClient()
		if err != nil {
			return &search.ProbeError{Kind: search.ErrConnection, Err: err}
		}
		return search.PingClient(ctx, es)
	})
}

func typedProber(f settings.ClientFactory[*elasticsearch.TypedClient]) api.Prober {
	return api.ProberFunc(func(ctx context.Context) error {
		es, err := f.CreateClient()
		if err != nil {
			return &search.ProbeError{Kind: search.ErrConnection, Err: err}
		}
		return search.PingTypedClient(ctx, es)
	})
}

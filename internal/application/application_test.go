package application

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/stac-search-settings/internal/config"
	"github.com/eugenenazirov/stac-search-settings/internal/search"
	"github.com/eugenenazirov/stac-search-settings/internal/settings"
)

func TestNewInitializesDependencies(t *testing.T) {
	t.Setenv(settings.EnableDirectResponseEnv, "false")
	cfg := baseTestConfig(":8085")
	cfg.SearchHosts = []string{"https://search.internal:9200"}

	app, err := New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if app.server == nil || app.router == nil || app.handler == nil || app.probes == nil {
		t.Fatalf("expected server, router, handler and probe store to be initialized")
	}
	if app.Server() != app.server {
		t.Fatalf("Server accessor did not return underlying instance")
	}
	if got := app.clientSettings.Hosts(); !slices.Equal(got, cfg.SearchHosts) {
		t.Fatalf("expected hosts %v, got %v", cfg.SearchHosts, got)
	}

	views := app.Settings()
	if len(views) != 2 || views[0].Flavor() != search.FlavorClient || views[1].Flavor() != search.FlavorTyped {
		t.Fatalf("expected client and typed views, got %v", views)
	}
}

func TestNewServesSettingsThroughRootHandler(t *testing.T) {
	t.Setenv(settings.EnableDirectResponseEnv, "false")
	app, err := New(baseTestConfig(":0"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	rec := httptest.NewRecorder()
	app.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected middleware chain to set a request id")
	}
}

func TestNewHonoursDirectResponse(t *testing.T) {
	t.Setenv(settings.EnableDirectResponseEnv, "true")
	app, err := New(baseTestConfig(":0"), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	rec := httptest.NewRecorder()
	app.server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") != "" {
		t.Fatalf("expected middleware chain to be bypassed")
	}
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := baseTestConfig("9090")
	handler := http.NewServeMux()

	server := NewServer(cfg, handler)
	if server.Addr != ":9090" {
		t.Fatalf("expected address :9090, got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatalf("expected handler to be applied")
	}
	if server.ReadHeaderTimeout != cfg.ReadHeaderTimeout ||
		server.WriteTimeout != cfg.WriteTimeout ||
		server.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("server timeouts do not match configuration")
	}
}

func TestBuildRootHandlerRequiresAPI(t *testing.T) {
	if _, err := BuildRootHandler(nil); err == nil {
		t.Fatalf("expected error for missing api handler")
	}
}

type failingFactory[C any] struct{}

func (failingFactory[C]) CreateClient() (C, error) {
	var zero C
	return zero, errors.New("no transport")
}

func TestProbersClassifyConstructionFailures(t *testing.T) {
	ctx := context.Background()

	if err := clientProber(failingFactory[*elasticsearch.Client]{}).Probe(ctx); !errors.Is(err, search.ErrConnection) {
		t.Fatalf("expected connection error from client prober, got %v", err)
	}
	if err := typedProber(failingFactory[*elasticsearch.TypedClient]{}).Probe(ctx); !errors.Is(err, search.ErrConnection) {
		t.Fatalf("expected connection error from typed prober, got %v", err)
	}
}

func baseTestConfig(port string) config.Config {
	return config.Config{
		Port:                 port,
		SearchHosts:          search.DefaultHosts(),
		ShutdownGracePeriod:  50 * time.Millisecond,
		ReadHeaderTimeout:    20 * time.Millisecond,
		WriteTimeout:         30 * time.Millisecond,
		IdleTimeout:          40 * time.Millisecond,
		EnableRequestLogging: false,
		RateLimitRPS:         0,
		RateLimitBurst:       0,
	}
}

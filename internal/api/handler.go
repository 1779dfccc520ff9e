package api

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	json "github.com/goccy/go-json"

	"github.com/eugenenazirov/stac-search-settings/internal/config"
	"github.com/eugenenazirov/stac-search-settings/internal/search"
	"github.com/eugenenazirov/stac-search-settings/internal/settings"
	"github.com/eugenenazirov/stac-search-settings/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const defaultProbeTimeout = 5 * time.Second

// Prober checks that the search cluster is reachable with the current credentials.
type Prober interface {
	Probe(ctx context.Context) error
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) error

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context) error {
	return f(ctx)
}

// Handler exposes the resolved settings over HTTP.
type Handler struct {
	settings settings.View
	probers  map[search.Flavor]Prober
	probes   storage.Storage

	clock        func() time.Time
	probeTimeout time.Duration
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithProber registers the connectivity check for one client flavor on
// /api/health/search.
func WithProber(flavor search.Flavor, p Prober) HandlerOption {
	return func(h *Handler) {
		if p == nil {
			delete(h.probers, flavor)
			return
		}
		h.probers[flavor] = p
	}
}

// WithProbeStorage overrides where probe outcomes are recorded.
func WithProbeStorage(store storage.Storage) HandlerOption {
	return func(h *Handler) {
		if store != nil {
			h.probes = store
		}
	}
}

// WithProbeTimeout bounds a single connectivity check.
func WithProbeTimeout(d time.Duration) HandlerOption {
	return func(h *Handler) {
		if d > 0 {
			h.probeTimeout = d
		}
	}
}

// NewHandler constructs a Handler serving view.
func NewHandler(view settings.View, opts ...HandlerOption) *Handler {
	h := &Handler{
		settings:     view,
		probers:      make(map[search.Flavor]Prober),
		probes:       storage.NewMemoryStorage(),
		probeTimeout: defaultProbeTimeout,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	h.writeModel(w, http.StatusOK, resp)
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := settingsResponse{
		Flavor:               string(h.settings.Flavor()),
		ForbiddenFields:      h.settings.ForbiddenFields().Sorted(),
		IndexedFields:        h.settings.IndexedFields().Sorted(),
		EnableResponseModels: h.settings.EnableResponseModels(),
		EnableDirectResponse: h.settings.EnableDirectResponse(),
		RaiseOnBulkError:     h.settings.RaiseOnBulkError(),
		DatabaseRefresh:      h.settings.DatabaseRefresh(),
	}
	h.writeModel(w, http.StatusOK, resp)
}

func (h *Handler) handleSearchHealth(w http.ResponseWriter, r *http.Request) {
	flavor := search.Flavor(r.URL.Query().Get("flavor"))
	if flavor == "" {
		flavor = h.settings.Flavor()
	}
	if flavor != search.FlavorClient && flavor != search.FlavorTyped {
		writeError(w, http.StatusBadRequest, "Invalid flavor", "flavor must be client or typed")
		return
	}

	prober, ok := h.probers[flavor]
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "Search unavailable", "no search probe configured for "+string(flavor))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.probeTimeout)
	defer cancel()

	checkedAt := h.clock()
	start := time.Now()
	err := prober.Probe(ctx)
	elapsed := time.Since(start)

	result := storage.ProbeResult{Flavor: string(flavor), CheckedAt: checkedAt, Latency: elapsed}
	if err != nil {
		result.Err = err.Error()
	}
	_ = h.probes.RecordProbe(result)

	resp := searchHealthResponse{
		Status:    "ok",
		Flavor:    string(flavor),
		LatencyMs: elapsed.Milliseconds(),
		Timestamp: checkedAt,
	}
	if last, ok := h.probes.LastSuccess(string(flavor)); ok {
		at := last.CheckedAt
		resp.LastSuccess = &at
	}

	status := http.StatusOK
	if err != nil {
		resp.Status = "unavailable"
		resp.Error = err.Error()
		status = http.StatusServiceUnavailable
		if errors.Is(err, search.ErrAuthentication) {
			resp.Status = "unauthorized"
			resp.Suggestion = "check " + search.APIKeyEnv
			status = http.StatusBadGateway
		}
	}
	h.writeModel(w, status, resp)
}

func (h *Handler) handleProbeHistory(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := probeHistoryResponse{Flavors: []probeHistoryEntry{}}
	for _, flavor := range h.probes.Flavors() {
		last, ok := h.probes.LastProbe(flavor)
		if !ok {
			continue
		}
		entry := probeHistoryEntry{
			Flavor:    flavor,
			CheckedAt: last.CheckedAt,
			OK:        last.OK(),
			LatencyMs: last.Latency.Milliseconds(),
			Error:     last.Err,
		}
		if success, ok := h.probes.LastSuccess(flavor); ok {
			at := success.CheckedAt
			entry.LastSuccess = &at
		}
		resp.Flavors = append(resp.Flavors, entry)
	}
	h.writeModel(w, http.StatusOK, resp)
}

// writeModel validates payload when response models are enabled.
func (h *Handler) writeModel(w http.ResponseWriter, status int, payload any) {
	if h.settings.EnableResponseModels() {
		if model, ok := payload.(validator); ok {
			if err := model.Validate(); err != nil {
				writeError(w, http.StatusInternalServerError, "Invalid response", err.Error())
				return
			}
		}
	}
	writeJSON(w, status, payload)
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type validator interface {
	Validate() error
}

var (
	errMissingDiscriminator = errors.New("forbidden fields must include " + settings.TypeField)
	errMissingTemporalIndex = errors.New("indexed fields must include " + settings.DatetimeField)
	errMissingStatus        = errors.New("status is required")
)

type settingsResponse struct {
	Flavor               string             `json:"flavor"`
	ForbiddenFields      []string           `json:"forbiddenFields"`
	IndexedFields        []string           `json:"indexedFields"`
	EnableResponseModels bool               `json:"enableResponseModels"`
	EnableDirectResponse bool               `json:"enableDirectResponse"`
	RaiseOnBulkError     bool               `json:"raiseOnBulkError"`
	DatabaseRefresh      config.RefreshMode `json:"databaseRefresh"`
}

func (s settingsResponse) Validate() error {
	if !slices.Contains(s.ForbiddenFields, settings.TypeField) {
		return errMissingDiscriminator
	}
	if !slices.Contains(s.IndexedFields, settings.DatetimeField) {
		return errMissingTemporalIndex
	}
	return nil
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func (r healthResponse) Validate() error {
	if r.Status == "" {
		return errMissingStatus
	}
	return nil
}

type searchHealthResponse struct {
	Status      string     `json:"status"`
	Flavor      string     `json:"flavor"`
	LatencyMs   int64      `json:"latencyMs"`
	Timestamp   time.Time  `json:"timestamp"`
	LastSuccess *time.Time `json:"lastSuccess,omitempty"`
	Error       string     `json:"error,omitempty"`
	Suggestion  string     `json:"suggestion,omitempty"`
}

func (r searchHealthResponse) Validate() error {
	if r.Status == "" {
		return errMissingStatus
	}
	return nil
}

type probeHistoryEntry struct {
	Flavor      string     `json:"flavor"`
	CheckedAt   time.Time  `json:"checkedAt"`
	OK          bool       `json:"ok"`
	LatencyMs   int64      `json:"latencyMs"`
	Error       string     `json:"error,omitempty"`
	LastSuccess *time.Time `json:"lastSuccess,omitempty"`
}

type probeHistoryResponse struct {
	Flavors []probeHistoryEntry `json:"flavors"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

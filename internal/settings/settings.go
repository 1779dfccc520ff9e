package settings

import (
	"fmt"
	"slices"
	"sync"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"

	"github.com/eugenenazirov/stac-search-settings/internal/config"
	"github.com/eugenenazirov/stac-search-settings/internal/metrics"
	"github.com/eugenenazirov/stac-search-settings/internal/search"
)

const (
	// TypeField is the document discriminator; it is never user-queryable.
	TypeField = "type"
	// DatetimeField is the primary temporal field and always indexed.
	DatetimeField = "datetime"

	// EnableDirectResponseEnv bypasses request processing on every route.
	EnableDirectResponseEnv = "ENABLE_DIRECT_RESPONSE"
	// RaiseOnBulkErrorEnv turns partial bulk write failures into hard errors.
	RaiseOnBulkErrorEnv = "RAISE_ON_BULK_ERROR"
)

// View is the read side of a Settings value, independent of its client kind.
type View interface {
	Flavor() search.Flavor
	ForbiddenFields() FieldSet
	IndexedFields() FieldSet
	EnableResponseModels() bool
	EnableDirectResponse() bool
	RaiseOnBulkError() bool
	DatabaseRefresh() config.RefreshMode
}

// ClientFactory is anything that can hand out clients of kind C.
type ClientFactory[C any] interface {
	CreateClient() (C, error)
}

// Settings holds the API behaviour flags and the client factory for one
// client kind. It is immutable after New and safe for concurrent use.
type Settings[C any] struct {
	flavor    search.Flavor
	construct search.Constructor[C]
	hosts     []string
	logger    *zap.Logger

	forbiddenFields      FieldSet
	indexedFields        FieldSet
	enableResponseModels bool
	enableDirectResponse bool
	raiseOnBulkError     bool

	// raw DATABASE_REFRESH values already reported as invalid
	warnedRefresh sync.Map
}

// Option configures New.
type Option func(*options)

type options struct {
	hosts          []string
	forbidden      []string
	indexed        []string
	responseModels bool
	logger         *zap.Logger
}

// WithHosts sets the search endpoints used by CreateClient.
func WithHosts(hosts ...string) Option {
	return func(o *options) {
		o.hosts = slices.Clone(hosts)
	}
}

// WithForbiddenFields adds field names that may never be queried.
func WithForbiddenFields(fields ...string) Option {
	return func(o *options) {
		o.forbidden = append(o.forbidden, fields...)
	}
}

// WithIndexedFields adds field names that carry a query-optimised index.
func WithIndexedFields(fields ...string) Option {
	return func(o *options) {
		o.indexed = append(o.indexed, fields...)
	}
}

// WithResponseModels enables response validation before payloads are written.
func WithResponseModels(enabled bool) Option {
	return func(o *options) {
		o.responseModels = enabled
	}
}

// WithLogger sets the logger used to report unrecognized flag values.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New resolves the behaviour flags from the environment and binds construct
// as the client factory.
func New[C any](flavor search.Flavor, construct search.Constructor[C], opts ...Option) *Settings[C] {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if len(o.hosts) == 0 {
		o.hosts = search.DefaultHosts()
	}

	logger := o.logger.With(zap.String("flavor", string(flavor)))

	return &Settings[C]{
		flavor:               flavor,
		construct:            construct,
		hosts:                o.hosts,
		logger:               logger,
		forbiddenFields:      NewFieldSet(append([]string{TypeField}, o.forbidden...)...),
		indexedFields:        NewFieldSet(append([]string{DatetimeField}, o.indexed...)...),
		enableResponseModels: o.responseModels,
		enableDirectResponse: boolFlag(logger, EnableDirectResponseEnv, false),
		raiseOnBulkError:     boolFlag(logger, RaiseOnBulkErrorEnv, false),
	}
}

// NewClientSettings returns settings that construct low-level clients.
func NewClientSettings(opts ...Option) *Settings[*elasticsearch.Client] {
	return New(search.FlavorClient, search.NewClient, opts...)
}

// NewTypedClientSettings returns settings that construct typed clients.
func NewTypedClientSettings(opts ...Option) *Settings[*elasticsearch.TypedClient] {
	return New(search.FlavorTyped, search.NewTypedClient, opts...)
}

// Flavor reports which client kind CreateClient returns.
func (s *Settings[C]) Flavor() search.Flavor {
	if s == nil {
		return ""
	}
	return s.flavor
}

// Hosts returns a copy of the configured search endpoints.
func (s *Settings[C]) Hosts() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.hosts)
}

// ForbiddenFields returns a copy of the non-queryable field names.
func (s *Settings[C]) ForbiddenFields() FieldSet {
	if s == nil {
		return NewFieldSet(TypeField)
	}
	return s.forbiddenFields.Clone()
}

// IndexedFields returns a copy of the indexed field names.
func (s *Settings[C]) IndexedFields() FieldSet {
	if s == nil {
		return NewFieldSet(DatetimeField)
	}
	return s.indexedFields.Clone()
}

// EnableResponseModels reports whether payloads are validated before they are written.
func (s *Settings[C]) EnableResponseModels() bool {
	return s != nil && s.enableResponseModels
}

// EnableDirectResponse reports whether routes skip request processing,
// authentication included. Resolved from ENABLE_DIRECT_RESPONSE at New.
func (s *Settings[C]) EnableDirectResponse() bool {
	return s != nil && s.enableDirectResponse
}

// RaiseOnBulkError reports whether a partial bulk write failure is a hard
// error. Resolved from RAISE_ON_BULK_ERROR at New.
func (s *Settings[C]) RaiseOnBulkError() bool {
	return s != nil && s.raiseOnBulkError
}

// DatabaseRefresh reads DATABASE_REFRESH on every call so a changed
// environment is honoured without a restart. An unrecognized value resolves
// to RefreshFalse and is logged once.
func (s *Settings[C]) DatabaseRefresh() config.RefreshMode {
	mode, raw, recognized := config.RefreshModeFromEnv()
	if recognized || s == nil {
		return mode
	}
	if _, seen := s.warnedRefresh.LoadOrStore(raw, struct{}{}); !seen {
		s.logger.Warn("invalid refresh mode, defaulting to false",
			zap.String("variable", config.DatabaseRefreshEnv),
			zap.String("value", raw),
		)
	}
	return mode
}

// CreateClient builds a fresh ClientConfig and hands it to the constructor.
// Every call returns an independent client.
func (s *Settings[C]) CreateClient() (C, error) {
	client, err := s.construct(search.BuildClientConfig(s.hosts...))
	metrics.RecordClient(string(s.flavor), err)
	if err != nil {
		var zero C
		return zero, fmt.Errorf("create %s search client: %w", s.flavor, err)
	}
	return client, nil
}

func boolFlag(logger *zap.Logger, name string, def bool) bool {
	value, recognized := config.LookupBoolEnv(name, def)
	if !recognized {
		logger.Warn("unrecognized boolean environment value, using default",
			zap.String("variable", name),
			zap.Bool("default", def),
		)
	}
	return value
}

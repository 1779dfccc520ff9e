package search

import (
	"github.com/elastic/go-elasticsearch/v8"
)

// Flavor names a client kind in logs and metrics.
type Flavor string

const (
	// FlavorClient is the low-level esapi client.
	FlavorClient Flavor = "client"
	// FlavorTyped is the typed client whose requests run through Do(ctx).
	FlavorTyped Flavor = "typed"
)

// Constructor builds a client of kind C from a ClientConfig.
type Constructor[C any] func(ClientConfig) (C, error)

// NewClient constructs a low-level client.
func NewClient(cfg ClientConfig) (*elasticsearch.Client, error) {
	esCfg, err := cfg.Elasticsearch()
	if err != nil {
		return nil, err
	}
	return elasticsearch.NewClient(esCfg)
}

// NewTypedClient constructs a typed client.
func NewTypedClient(cfg ClientConfig) (*elasticsearch.TypedClient, error) {
	esCfg, err := cfg.Elasticsearch()
	if err != nil {
		return nil, err
	}
	return elasticsearch.NewTypedClient(esCfg)
}

package search

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"os"
	"slices"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"golang.org/x/net/http2"
)

const (
	// APIKeyEnv names the variable holding the value of the outgoing API key header.
	APIKeyEnv = "ES_API_KEY"

	// DefaultHost is the search endpoint used when no hosts are configured.
	DefaultHost = "https://elasticsearch.ceda.ac.uk"

	// AcceptHeader pins the response format to the version 8 compatible API.
	AcceptHeader = "application/vnd.elasticsearch+json; compatible-with=8"

	// APIKeyHeader carries ES_API_KEY to the cluster gateway.
	APIKeyHeader = "X-Api-Key"

	// MinTLSVersion is the lowest protocol version any connection may negotiate.
	MinTLSVersion uint16 = tls.VersionTLS12
)

// DefaultHosts returns a copy of the default endpoint list.
func DefaultHosts() []string {
	return []string{DefaultHost}
}

// ClientConfig describes how to reach the search cluster. It is rebuilt for
// every client so credential rotation through ES_API_KEY is picked up.
type ClientConfig struct {
	Hosts         []string
	Headers       http.Header
	VerifyCerts   bool
	SSLShowWarn   bool
	MinTLSVersion uint16
}

// BuildClientConfig assembles a ClientConfig for hosts, falling back to
// DefaultHosts when none are given. A missing ES_API_KEY leaves the header
// present but empty; the server rejects the request later.
func BuildClientConfig(hosts ...string) ClientConfig {
	if len(hosts) == 0 {
		hosts = DefaultHosts()
	}

	headers := make(http.Header, 2)
	headers.Set("Accept", AcceptHeader)
	headers.Set(APIKeyHeader, os.Getenv(APIKeyEnv))

	return ClientConfig{
		Hosts:         slices.Clone(hosts),
		Headers:       headers,
		VerifyCerts:   true,
		SSLShowWarn:   false,
		MinTLSVersion: MinTLSVersion,
	}
}

// TLSConfig returns the client TLS settings. Verification and the protocol
// floor come from package constants, not from the descriptor fields.
func (c ClientConfig) TLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion:         MinTLSVersion,
		InsecureSkipVerify: false,
	}
}

// Transport returns an HTTP/2 capable transport carrying TLSConfig.
func (c ClientConfig) Transport() (*http.Transport, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:       c.TLSConfig(),
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if err := enableHTTP2(transport); err != nil {
		return nil, err
	}
	return transport, nil
}

func enableHTTP2(transport *http.Transport) error {
	if err := http2.ConfigureTransport(transport); err != nil {
		return fmt.Errorf("configure HTTP/2: %w", err)
	}
	return nil
}

// Elasticsearch lowers the descriptor into a client configuration.
func (c ClientConfig) Elasticsearch() (elasticsearch.Config, error) {
	transport, err := c.Transport()
	if err != nil {
		return elasticsearch.Config{}, err
	}
	return elasticsearch.Config{
		Addresses: slices.Clone(c.Hosts),
		Header:    c.Headers.Clone(),
		Transport: transport,
	}, nil
}

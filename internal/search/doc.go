// Package search builds connection settings for the Elasticsearch cluster and
// constructs clients from them. Certificate verification and the TLS 1.2 floor
// are fixed here and cannot be relaxed by configuration.
package search

// Package application wires the service together. It builds the settings for
// both search client flavors, the connectivity probes and their history store,
// the API router and the HTTP server, leaving the main package to CLI parsing
// and orchestration.
package application

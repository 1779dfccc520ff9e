package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
)

var (
	// ErrConnection marks failures to reach the cluster or an unhealthy reply.
	ErrConnection = errors.New("search: connection failed")
	// ErrAuthentication marks a cluster that rejected the configured credentials.
	ErrAuthentication = errors.New("search: authentication failed")
)

// ProbeError pairs a failure kind with the error reported by the client.
// errors.Is matches both the kind and the underlying cause.
type ProbeError struct {
	Kind error
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *ProbeError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// PingClient checks that the cluster answers through a low-level client.
func PingClient(ctx context.Context, es *elasticsearch.Client) error {
	res, err := es.Ping(es.Ping.WithContext(ctx))
	if err != nil {
		return &ProbeError{Kind: ErrConnection, Err: err}
	}
	defer drain(res.Body)
	return classifyStatus(res.StatusCode)
}

// PingTypedClient checks that the cluster answers through a typed client.
func PingTypedClient(ctx context.Context, es *elasticsearch.TypedClient) error {
	res, err := es.Ping().Perform(ctx)
	if err != nil {
		return &ProbeError{Kind: ErrConnection, Err: err}
	}
	defer drain(res.Body)
	return classifyStatus(res.StatusCode)
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &ProbeError{Kind: ErrAuthentication, Err: fmt.Errorf("cluster responded %d", status)}
	case status >= http.StatusBadRequest:
		return &ProbeError{Kind: ErrConnection, Err: fmt.Errorf("cluster responded %d", status)}
	default:
		return nil
	}
}

func drain(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}

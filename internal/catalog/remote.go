package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/Jlymoure25/regaltyecommerce/pkg/httpclient"
)

// maxRemoteSize bounds the catalog body read from a remote source.
const maxRemoteSize = 8 << 20

// Getter issues GET requests. *httpclient.CircuitBreakerClient satisfies it.
type Getter interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Fetch downloads a catalog from url and validates it.
func Fetch(ctx context.Context, client Getter, url string) (*Catalog, error) {
	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch catalog: %w", httpclient.ParseResponseError(resp, "catalog source"))
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteSize+1))
	if err != nil {
		return nil, fmt.Errorf("read catalog body: %w", err)
	}
	if len(data) > maxRemoteSize {
		return nil, fmt.Errorf("catalog from %s exceeds %d bytes", url, maxRemoteSize)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog from %s: %w", url, err)
	}
	return c, nil
}

// Package blazegraph uploads Turtle data to a Blazegraph SPARQL endpoint
// via SPARQL UPDATE.
package blazegraph

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Client posts SPARQL UPDATE requests to one endpoint.
type Client struct {
	endpoint string
	client   *http.Client
}

// New returns a client for the given SPARQL endpoint URL.
func New(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Update executes one SPARQL UPDATE query, form-encoded as Blazegraph
// expects.
func (c *Client) Update(ctx context.Context, query string) error {
	form := url.Values{"update": {query}}
	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sparql update failed with %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// UploadTTL inserts Turtle data into the given named graph (or the default
// graph when graphIRI is empty) by wrapping it in INSERT DATA.
func (c *Client) UploadTTL(ctx context.Context, ttl, graphIRI string) error {
	var query string
	if graphIRI == "" {
		query = fmt.Sprintf("INSERT DATA {\n%s\n}", ttl)
	} else {
		query = fmt.Sprintf("INSERT DATA { GRAPH <%s> {\n%s\n} }", graphIRI, ttl)
	}
	return c.Update(ctx, query)
}

// UploadTTLFile reads a Turtle file and uploads it via UploadTTL.
func (c *Client) UploadTTLFile(ctx context.Context, path, graphIRI string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return c.UploadTTL(ctx, string(data), graphIRI)
}

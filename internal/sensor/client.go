// Package sensor talks to the fingerprint sensor module over the local network.
package sensor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Reply is the sensor's enrollment response, relayed verbatim to the caller.
type Reply struct {
	Status int
	Body   []byte
}

// Client calls the sensor firmware's HTTP interface.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New creates a client for the sensor at baseURL. Enrollment involves waiting
// for a finger placement, so the timeout is generous.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Enroll forwards an enrollment request for the given role and returns the
// sensor's status and JSON body unmodified.
func (c *Client) Enroll(ctx context.Context, role string) (*Reply, error) {
	u := c.BaseURL + "/enroll"
	if role != "" {
		u += "?role=" + url.QueryEscape(role)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sensor unreachable: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read sensor response: %w", err)
	}
	return &Reply{Status: resp.StatusCode, Body: body}, nil
}

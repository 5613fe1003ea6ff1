// Package actuator talks to the external power-control gateway that switches
// rented consoles on and off.
package actuator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Actuator switches device power. Calls are bounded by the client timeout and
// callers treat failures as warnings.
type Actuator interface {
	PowerOn(ctx context.Context, deviceID string, durationSeconds *int64) error
	PowerOff(ctx context.Context, deviceID string) error
}

const (
	stateOn  = "on"
	stateOff = "off"

	maxErrorBody = 512
)

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

var _ Actuator = (*Client)(nil)

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type powerRequest struct {
	State           string `json:"state"`
	DurationSeconds *int64 `json:"duration_seconds,omitempty"`
}

func (c *Client) PowerOn(ctx context.Context, deviceID string, durationSeconds *int64) error {
	return c.send(ctx, deviceID, powerRequest{State: stateOn, DurationSeconds: durationSeconds})
}

func (c *Client) PowerOff(ctx context.Context, deviceID string) error {
	return c.send(ctx, deviceID, powerRequest{State: stateOff})
}

func (c *Client) send(ctx context.Context, deviceID string, body powerRequest) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode power %s request: %w", body.State, err)
	}

	endpoint := c.BaseURL + "/v1/devices/" + url.PathEscape(deviceID) + "/power"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("power %s device %s: %w", body.State, deviceID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("power %s device %s: gateway returned %d: %s", body.State, deviceID, resp.StatusCode, strings.TrimSpace(string(b)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Noop is used when no gateway is configured.
type Noop struct{}

var _ Actuator = Noop{}

func (Noop) PowerOn(context.Context, string, *int64) error { return nil }
func (Noop) PowerOff(context.Context, string) error         { return nil }

// FromConfig returns a gateway client, or Noop when baseURL is empty.
func FromConfig(baseURL, apiKey string, timeout time.Duration) Actuator {
	if strings.TrimSpace(baseURL) == "" {
		return Noop{}
	}
	return New(baseURL, apiKey, timeout)
}

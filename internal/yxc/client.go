// Package yxc implements a stateless HTTP/JSON client for Yamaha
// Extended Control (YXC), the REST+JSON control API exposed by
// MusicCast devices at http://<host>/YamahaExtendedControl/v1.
//
// Grounded on internal/sonos/soap.Client: a pooled, timeout-bound
// http.Client, one Go method per documented action, and typed error
// wrapping instead of raw status-code checks.
package yxc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/strefethen/musiccast-hub-go/internal/apperrors"
)

const basePath = "/YamahaExtendedControl/v1"

// Subscription headers enroll this process for unicast YXC events
// (spec §4.3/§6).
const (
	HeaderAppName = "X-AppName"
	HeaderAppPort = "X-AppPort"
	AppNameValue  = "MusicCast/1.50"
	AppPortValue  = "41100"
)

// Client is a stateless YXC HTTP/JSON client shared across all agents.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a YXC client with the given per-request timeout.
// Uses connection pooling, matching soap.NewClient.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext:         (&net.Dialer{Timeout: timeout}).DialContext,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// WithSubscription adds the unicast-event enrollment headers (spec
// §4.3/§6) to an outgoing request.
func WithSubscription(req *http.Request) {
	req.Header.Set(HeaderAppName, AppNameValue)
	req.Header.Set(HeaderAppPort, AppPortValue)
}

// Get issues GET http://<host>/YamahaExtendedControl/v1<path>?<query>
// and returns the decoded JSON payload with response_code stripped on
// success.
func (c *Client) Get(ctx context.Context, host, path string, query url.Values, subscribe bool) (map[string]any, error) {
	u := fmt.Sprintf("http://%s%s%s", host, basePath, path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "build request", err)
	}
	if subscribe {
		WithSubscription(req)
	}

	return c.do(req, path)
}

// Post issues POST http://<host>/YamahaExtendedControl/v1<path> with a
// JSON body. Used only by netusb setSearchString (spec §4.3).
func (c *Client) Post(ctx context.Context, host, path string, body map[string]any) (map[string]any, error) {
	u := fmt.Sprintf("http://%s%s%s", host, basePath, path)

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidResponse, "encode request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, path)
}

func (c *Client) do(req *http.Request, action string) (map[string]any, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.Wrap(apperrors.KindTransport, fmt.Sprintf("%s timed out", action), err)
		}
		return nil, apperrors.Wrap(apperrors.KindTransport, fmt.Sprintf("%s unreachable", action), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "read response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperrors.New(apperrors.KindTransport, fmt.Sprintf("%s: http %d", action, resp.StatusCode))
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidResponse, fmt.Sprintf("%s: undecodable body", action), err)
	}

	code, _ := payload["response_code"].(float64)
	if int(code) != 0 {
		return nil, apperrors.FromResponseCode(int(code), action)
	}
	delete(payload, "response_code")

	return payload, nil
}

// decode re-marshals a generic map into a typed struct, used by every
// typed wrapper below to avoid hand-rolled field extraction.
func decode[T any](payload map[string]any) (T, error) {
	var out T
	raw, err := json.Marshal(payload)
	if err != nil {
		return out, apperrors.Wrap(apperrors.KindInvalidResponse, "re-encode payload", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, apperrors.Wrap(apperrors.KindInvalidResponse, "decode payload", err)
	}
	return out, nil
}

package upnp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/strefethen/musiccast-hub-go/internal/apperrors"
)

// GenaClient issues GENA SUBSCRIBE/UNSUBSCRIBE requests against a
// service's eventSubURL. Ported almost verbatim from
// events.SubscriptionClient, generalized to take a full URL rather than
// a deviceIP + fixed-port path.
type GenaClient struct {
	httpClient *http.Client
}

// NewGenaClient creates a GENA client with the given timeout.
func NewGenaClient(timeout time.Duration) *GenaClient {
	return &GenaClient{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Subscribe sends SUBSCRIBE to eventSubURL and returns the SID and
// actual granted timeout in seconds.
func (c *GenaClient) Subscribe(ctx context.Context, eventSubURL, callbackURL string, timeoutSec int) (sid string, grantedSec int, err error) {
	req, err := http.NewRequestWithContext(ctx, "SUBSCRIBE", eventSubURL, nil)
	if err != nil {
		return "", 0, apperrors.Wrap(apperrors.KindTransport, "build subscribe request", err)
	}
	req.Header.Set("CALLBACK", fmt.Sprintf("<%s>", callbackURL))
	req.Header.Set("NT", "upnp:event")
	req.Header.Set("TIMEOUT", fmt.Sprintf("Second-%d", timeoutSec))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, apperrors.Wrap(apperrors.KindTransport, "subscribe request", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", 0, apperrors.New(apperrors.KindUpnpError, fmt.Sprintf("subscribe failed: %s", resp.Status))
	}

	sid = ParseSID(resp.Header.Get("SID"))
	if sid == "" {
		return "", 0, apperrors.New(apperrors.KindInvalidResponse, "subscribe response missing SID")
	}
	grantedSec = ParseTimeout(resp.Header.Get("TIMEOUT"))

	return sid, grantedSec, nil
}

// Renew sends a renewal SUBSCRIBE (SID set, no CALLBACK/NT). A 412
// response maps to apperrors.ErrPreconditionFailed, signaling the
// caller to resubscribe from scratch. Some devices return a fresh SID
// on renewal rather than echoing the one sent; when the response
// carries no SID header, the original sid is returned unchanged.
func (c *GenaClient) Renew(ctx context.Context, eventSubURL, sid string, timeoutSec int) (newSID string, grantedSec int, err error) {
	req, err := http.NewRequestWithContext(ctx, "SUBSCRIBE", eventSubURL, nil)
	if err != nil {
		return "", 0, apperrors.Wrap(apperrors.KindTransport, "build renew request", err)
	}
	req.Header.Set("SID", sid)
	req.Header.Set("TIMEOUT", fmt.Sprintf("Second-%d", timeoutSec))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, apperrors.Wrap(apperrors.KindTransport, "renew request", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusPreconditionFailed {
		return "", 0, apperrors.ErrPreconditionFailed
	}
	if resp.StatusCode != http.StatusOK {
		return "", 0, apperrors.New(apperrors.KindUpnpError, fmt.Sprintf("renew failed: %s", resp.Status))
	}

	newSID = ParseSID(resp.Header.Get("SID"))
	if newSID == "" {
		newSID = sid
	}
	return newSID, ParseTimeout(resp.Header.Get("TIMEOUT")), nil
}

// Unsubscribe sends UNSUBSCRIBE, swallowing network errors since the
// device may already be offline -- matching the teacher's
// best-effort-on-teardown behavior.
func (c *GenaClient) Unsubscribe(ctx context.Context, eventSubURL, sid string) error {
	req, err := http.NewRequestWithContext(ctx, "UNSUBSCRIBE", eventSubURL, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.KindTransport, "build unsubscribe request", err)
	}
	req.Header.Set("SID", sid)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusPreconditionFailed {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return apperrors.New(apperrors.KindUpnpError, fmt.Sprintf("unsubscribe failed: %s", resp.Status))
	}
	return nil
}

// ParseSID extracts the SID from a SUBSCRIBE response header.
func ParseSID(sidHeader string) string {
	return strings.TrimSpace(sidHeader)
}

// ParseTimeout parses a "Second-N" or "infinite" TIMEOUT header into
// seconds, defaulting to 1 hour on malformed input.
func ParseTimeout(timeoutHeader string) int {
	if timeoutHeader == "infinite" {
		return 86400
	}
	trimmed := strings.TrimPrefix(timeoutHeader, "Second-")
	if seconds, err := strconv.Atoi(trimmed); err == nil {
		return seconds
	}
	return 3600
}

// ParseSEQ parses a NOTIFY SEQ header, defaulting to 0.
func ParseSEQ(seqHeader string) int {
	if seq, err := strconv.Atoi(seqHeader); err == nil {
		return seq
	}
	return 0
}

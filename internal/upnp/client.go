package upnp

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/strefethen/musiccast-hub-go/internal/apperrors"
)

// Client invokes SOAP actions against a device's control URL.
// Grounded on soap.Client: pooled http.Client, one method builds the
// envelope, callers decode the returned body themselves.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a SOAP client with the given per-call timeout.
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

// CallAction sends a SOAP action to controlURL and returns the raw
// response body on success. Unlike soap.Client.ExecuteAction, the
// control URL and service type are supplied per-call rather than
// looked up from a fixed table, since MusicCast devices publish their
// own control/event-sub URLs in the root device description (spec §4.2).
func (c *Client) CallAction(ctx context.Context, controlURL, serviceType, action string, args map[string]string) ([]byte, error) {
	body := buildEnvelope(serviceType, action, args)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, controlURL, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "build soap request", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=\"utf-8\"")
	req.Header.Set("SOAPACTION", fmt.Sprintf("\"%s#%s\"", serviceType, action))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperrors.Wrap(apperrors.KindTransport, fmt.Sprintf("%s timed out", action), err)
		}
		return nil, apperrors.Wrap(apperrors.KindTransport, fmt.Sprintf("%s unreachable", action), err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "read soap response", err)
	}

	if resp.StatusCode >= 400 {
		code, desc := parseSoapFault(payload)
		if code != "" {
			upnpErr := &apperrors.UpnpError{Code: code, Description: desc}
			return nil, apperrors.Wrap(apperrors.KindUpnpError, fmt.Sprintf("%s: %s", action, upnpErr.Error()), upnpErr)
		}
		return nil, apperrors.New(apperrors.KindUpnpError, fmt.Sprintf("%s failed: http %d", action, resp.StatusCode))
	}

	return payload, nil
}

func buildEnvelope(serviceType, action string, args map[string]string) []byte {
	var buf strings.Builder
	buf.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>")
	buf.WriteString("<s:Envelope xmlns:s=\"http://schemas.xmlsoap.org/soap/envelope/\" s:encodingStyle=\"http://schemas.xmlsoap.org/soap/encoding/\">")
	buf.WriteString("<s:Body>")
	buf.WriteString("<u:")
	buf.WriteString(action)
	buf.WriteString(" xmlns:u=\"")
	buf.WriteString(serviceType)
	buf.WriteString("\">")

	for key, value := range args {
		buf.WriteString("<")
		buf.WriteString(key)
		buf.WriteString(">")
		buf.WriteString(escapeXML(value))
		buf.WriteString("</")
		buf.WriteString(key)
		buf.WriteString(">")
	}

	buf.WriteString("</u:")
	buf.WriteString(action)
	buf.WriteString(">")
	buf.WriteString("</s:Body>")
	buf.WriteString("</s:Envelope>")

	return []byte(buf.String())
}

func escapeXML(input string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(input)); err != nil {
		return input
	}
	return b.String()
}

func parseSoapFault(payload []byte) (string, string) {
	decoder := xml.NewDecoder(bytes.NewReader(payload))
	var code, desc string

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "errorCode":
			var value string
			if err := decoder.DecodeElement(&value, &se); err == nil {
				code = strings.TrimSpace(value)
			}
		case "errorDescription":
			var value string
			if err := decoder.DecodeElement(&value, &se); err == nil {
				desc = strings.TrimSpace(value)
			}
		}
	}

	return code, desc
}

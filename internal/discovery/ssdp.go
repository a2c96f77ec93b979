// Package discovery implements SSDP multicast device discovery for
// MusicCast's MediaRenderer devices (spec §4.1), deduplicating sightings
// by source IP against live Agent handles so an Agent already running
// is never re-admitted.
//
// Grounded on internal/discovery/ssdp.go's M-SEARCH send-then-listen
// loop and USN-deduplication map, re-targeted from Sonos's ZonePlayer
// URN to MediaRenderer and from uppercase to lowercase/underscore
// header normalization (spec §4.1 REDESIGN note).
package discovery

import (
	"bufio"
	"context"
	"net"
	"strings"
	"time"

	"golang.org/x/net/ipv4"
)

const (
	ssdpAddr         = "239.255.255.250:1900"
	mediaRendererURN = "urn:schemas-upnp-org:device:MediaRenderer:1"
)

// Response is one deduplicated SSDP sighting (spec §4.1: accepted
// forms are "HTTP/1.1 200 OK" M-SEARCH replies and unsolicited
// "NOTIFY * HTTP/1.1" announcements; "M-SEARCH * HTTP/1.1" packets
// received back are ignored).
type Response struct {
	Location string
	USN      string
	Headers  map[string]string
	FromIP   string
}

// Discover performs passes rounds of M-SEARCH, waiting passInterval
// between sends, then collects responses until timeout. Responses are
// kept only when ST or NT equals the MediaRenderer URN (spec §4.1),
// deduplicated by USN.
//
// The socket is bound to :1900 and joined to the SSDP multicast group
// (spec §4.1: "bound to port 1900, joined to multicast group
// 239.255.255.250"), so a reply or an unsolicited NOTIFY landing
// during this pass's read window is picked up the same way a direct
// M-SEARCH reply is.
func Discover(ctx context.Context, passes int, passInterval, timeout time.Duration) ([]Response, error) {
	addr, err := net.ResolveUDPAddr("udp4", ssdpAddr)
	if err != nil {
		return nil, err
	}

	conn, err := net.ListenMulticastUDP("udp4", nil, addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	responses := make(map[string]Response)

	for pass := 0; pass < passes; pass++ {
		if err := sendSearch(conn, addr); err != nil {
			return nil, err
		}
		if pass < passes-1 {
			select {
			case <-ctx.Done():
				return mapToSlice(responses), ctx.Err()
			case <-time.After(passInterval):
			}
		}
	}

	deadline := time.Now().Add(timeout)
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	buf := make([]byte, 2048)
	for {
		n, raddr, err := conn.ReadFrom(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				break
			}
			return mapToSlice(responses), err
		}

		resp, ok := parseResponse(string(buf[:n]))
		if !ok {
			continue
		}
		resp.FromIP = raddr.String()

		if _, exists := responses[resp.USN]; !exists {
			responses[resp.USN] = resp
		}
	}

	return mapToSlice(responses), nil
}

// ListenNotify opens a long-lived socket bound to :1900 and joined to
// the SSDP multicast group, then reads from it until ctx is canceled,
// invoking onSighting for every unsolicited NOTIFY announcement kept
// by parseResponse (spec §4.1: "it also receives unsolicited NOTIFY
// announcements"). It never returns except on a non-timeout read error
// or ctx cancellation.
//
// Grounded on other_examples' vuiodev-vuio go-ssdp multicast listener:
// net.ListenMulticastUDP for the bind+group-join, golang.org/x/net/ipv4's
// PacketConn wrapping it for a deadline-bounded read loop so ctx
// cancellation is observed instead of blocking forever.
func ListenNotify(ctx context.Context, onSighting func(Response)) error {
	addr, err := net.ResolveUDPAddr("udp4", ssdpAddr)
	if err != nil {
		return err
	}

	conn, err := net.ListenMulticastUDP("udp4", nil, addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	pc := ipv4.NewPacketConn(conn)
	buf := make([]byte, 2048)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := conn.SetReadDeadline(time.Now().Add(time.Second)); err != nil {
			return err
		}

		n, _, raddr, err := pc.ReadFrom(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return err
		}

		resp, ok := parseResponse(string(buf[:n]))
		if !ok {
			continue
		}
		if udpAddr, ok := raddr.(*net.UDPAddr); ok {
			resp.FromIP = udpAddr.IP.String()
		}
		onSighting(resp)
	}
}

func sendSearch(conn net.PacketConn, addr *net.UDPAddr) error {
	msg := strings.Join([]string{
		"M-SEARCH * HTTP/1.1",
		"HOST: " + ssdpAddr,
		`MAN: "ssdp:discover"`,
		"MX: 2",
		"ST: " + mediaRendererURN,
		"",
		"",
	}, "\r\n")

	_, err := conn.WriteTo([]byte(msg), addr)
	return err
}

// parseResponse implements spec §4.1's packet-parsing rule: strip the
// first line, split remaining lines on CRLF, split each on the first
// ':', lowercase and '-'->'_' the keys, trim values. A bare
// "M-SEARCH * HTTP/1.1" request looped back to this socket is
// discarded; a packet is kept only if st or nt equals the
// MediaRenderer URN.
func parseResponse(raw string) (Response, bool) {
	scanner := bufio.NewScanner(strings.NewReader(raw))

	var firstLine string
	if scanner.Scan() {
		firstLine = strings.TrimSpace(scanner.Text())
	}
	if strings.HasPrefix(firstLine, "M-SEARCH") {
		return Response{}, false
	}

	headers := make(map[string]string)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := normalizeHeaderKey(parts[0])
		headers[key] = strings.TrimSpace(parts[1])
	}

	if headers["nts"] == "ssdp:byebye" {
		return Response{}, false
	}

	st := headers["st"]
	nt := headers["nt"]
	if st != mediaRendererURN && nt != mediaRendererURN {
		return Response{}, false
	}

	return Response{
		Location: headers["location"],
		USN:      headers["usn"],
		Headers:  headers,
	}, true
}

func normalizeHeaderKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	return strings.ReplaceAll(lowered, "-", "_")
}

func mapToSlice(responses map[string]Response) []Response {
	result := make([]Response, 0, len(responses))
	for _, r := range responses {
		result = append(result, r)
	}
	return result
}

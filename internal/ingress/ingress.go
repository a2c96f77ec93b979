// Package ingress implements Event Ingress (spec §4.6): a UDP listener
// for YXC unicast events and an HTTP handler for UPnP GENA NOTIFY
// callbacks, both routing to the Agent that owns the sighting and
// silently dropping anything that matches no live Agent.
//
// Grounded on discovery.Discover's conn.ReadFrom read-loop style for
// the UDP side and internal/sonos/events/callback.go's
// CallbackHandler.ServeHTTP method-gate-then-header-validate-then-
// body-read shape for the HTTP side, re-pointed at the Supervisor's
// device_id/session_id lookups instead of Sonos's fixed zone-group
// table.
package ingress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/strefethen/musiccast-hub-go/internal/agent"
	"github.com/strefethen/musiccast-hub-go/internal/upnp"
)

// notifyVars merges every service's tracked LastChange variables into
// one table, since a NOTIFY's originating service is identified only
// by its SID, not by service type.
var notifyVars = mergeVarTables(upnp.DefaultAVTransportVars, upnp.DefaultRenderingControlVars)

func mergeVarTables(tables ...upnp.VarTypeTable) upnp.VarTypeTable {
	merged := make(upnp.VarTypeTable)
	for _, table := range tables {
		for name, shape := range table {
			merged[name] = shape
		}
	}
	return merged
}

// DeviceLookup is the subset of *supervisor.Supervisor ingress needs,
// kept as an interface so this package stays decoupled from
// internal/supervisor and unit-testable against a fake.
type DeviceLookup interface {
	AgentByDeviceID(deviceID string) (*agent.Agent, bool)
	AgentBySessionID(sid string) (*agent.Agent, bool)
}

// yxcUnicastPayload is the wire shape of one YXC unicast UDP datagram
// (spec §4.6: "payload is JSON with device_id plus zone keys").
type yxcUnicastPayload map[string]json.RawMessage

// Stats is a snapshot of one ingress component's running counters,
// grounded on events.Manager.Stats()/ManagerStats (spec's Supplemented
// features: "Manager statistics").
type Stats struct {
	Received int64
	Matched  int64
	Dropped  int64
}

// UDPListener listens for YXC unicast events on port (default 41100)
// and routes each datagram to the Agent owning its device_id.
type UDPListener struct {
	lookup DeviceLookup

	received int64
	matched  int64
	dropped  int64
}

// NewUDPListener creates a UDPListener bound to lookup.
func NewUDPListener(lookup DeviceLookup) *UDPListener {
	return &UDPListener{lookup: lookup}
}

// Stats returns a snapshot of this listener's running counters.
func (l *UDPListener) Stats() Stats {
	return Stats{
		Received: atomic.LoadInt64(&l.received),
		Matched:  atomic.LoadInt64(&l.matched),
		Dropped:  atomic.LoadInt64(&l.dropped),
	}
}

// ListenAndServe opens a UDP socket on port and reads datagrams until
// ctx is canceled or the socket errors.
func (l *UDPListener) ListenAndServe(ctx context.Context, port int) error {
	conn, err := net.ListenPacket("udp4", portAddr(port))
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, 8192)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		l.handleDatagram(buf[:n])
	}
}

// handleDatagram JSON-decodes one datagram, looks up device_id in the
// Registry (via the Supervisor), and delivers the remaining zone keys
// to the matching Agent. An unknown device_id is dropped without error
// (spec §8 scenario 6).
func (l *UDPListener) handleDatagram(raw []byte) {
	atomic.AddInt64(&l.received, 1)

	var payload yxcUnicastPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Printf("ingress: malformed YXC unicast payload: %v", err)
		atomic.AddInt64(&l.dropped, 1)
		return
	}

	var deviceID string
	if raw, ok := payload["device_id"]; ok {
		_ = json.Unmarshal(raw, &deviceID)
		delete(payload, "device_id")
	}
	if deviceID == "" {
		atomic.AddInt64(&l.dropped, 1)
		return
	}

	a, ok := l.lookup.AgentByDeviceID(deviceID)
	if !ok {
		atomic.AddInt64(&l.dropped, 1)
		return
	}

	zones := make(map[string]map[string]any, len(payload))
	for zone, raw := range payload {
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			continue
		}
		zones[zone] = fields
	}

	a.DeliverYXCEvent(zones)
	atomic.AddInt64(&l.matched, 1)
}

func portAddr(port int) string {
	return fmt.Sprintf(":%d", port)
}

// CallbackHandler is the HTTP handler for incoming UPnP GENA NOTIFY
// callbacks, matched to an Agent by the request's SID header (spec
// §4.6: "scans ... for the Agent whose upnp_session_id equals the
// header").
type CallbackHandler struct {
	lookup DeviceLookup

	received int64
	matched  int64
	dropped  int64
}

// NewCallbackHandler creates a CallbackHandler bound to lookup.
func NewCallbackHandler(lookup DeviceLookup) *CallbackHandler {
	return &CallbackHandler{lookup: lookup}
}

// Stats returns a snapshot of this handler's running counters.
func (h *CallbackHandler) Stats() Stats {
	return Stats{
		Received: atomic.LoadInt64(&h.received),
		Matched:  atomic.LoadInt64(&h.matched),
		Dropped:  atomic.LoadInt64(&h.dropped),
	}
}

// ServeHTTP implements http.Handler. It responds 200 on a matched,
// decodable NOTIFY, 410 Gone when no live Agent holds sid, and 400 on
// a malformed body.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt64(&h.received, 1)

	sid := r.Header.Get("SID")

	a, ok := h.lookup.AgentBySessionID(sid)
	if !ok {
		atomic.AddInt64(&h.dropped, 1)
		w.WriteHeader(http.StatusGone)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		atomic.AddInt64(&h.dropped, 1)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	values, err := upnp.DecodeNotify(body, notifyVars)
	if err != nil {
		atomic.AddInt64(&h.dropped, 1)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	a.DeliverUpnpNotify(values)
	atomic.AddInt64(&h.matched, 1)
	w.WriteHeader(http.StatusOK)
}

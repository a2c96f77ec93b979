package ingress

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/strefethen/musiccast-hub-go/internal/agent"
	"github.com/strefethen/musiccast-hub-go/internal/registry"
	"github.com/strefethen/musiccast-hub-go/internal/upnp"
	"github.com/strefethen/musiccast-hub-go/internal/yxc"
)

// fakeLookup is a minimal DeviceLookup backed by a plain map, letting
// ingress be tested without a real Supervisor.
type fakeLookup struct {
	byDeviceID map[string]*agent.Agent
	bySession  map[string]*agent.Agent
}

func (f *fakeLookup) AgentByDeviceID(deviceID string) (*agent.Agent, bool) {
	a, ok := f.byDeviceID[deviceID]
	return a, ok
}

func (f *fakeLookup) AgentBySessionID(sid string) (*agent.Agent, bool) {
	a, ok := f.bySession[sid]
	return a, ok
}

// startedTestAgent spins a fake MusicCast device and returns a fully
// started Agent pointed at it, for exercising delivery end to end.
func startedTestAgent(t *testing.T, genaSID string) (*agent.Agent, *httptest.Server) {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/YamahaExtendedControl/v1/system/getDeviceInfo", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response_code":0,"device_id":"00A0DE999999"}`)
	})
	mux.HandleFunc("/YamahaExtendedControl/v1/system/getNetworkStatus", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response_code":0,"network_name":"Test"}`)
	})
	mux.HandleFunc("/YamahaExtendedControl/v1/system/getFeatures", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response_code":0,"system":{"input_list":[{"id":"net_radio"}]}}`)
	})
	mux.HandleFunc("/YamahaExtendedControl/v1/main/getStatus", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response_code":0,"power":"on","volume":10}`)
	})
	mux.HandleFunc("/YamahaExtendedControl/v1/netusb/getPlayInfo", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response_code":0,"playback":"stop"}`)
	})
	mux.HandleFunc("/upnp/AVTransport/event", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "SUBSCRIBE":
			w.Header().Set("SID", genaSID)
			w.Header().Set("TIMEOUT", "Second-30")
			w.WriteHeader(http.StatusOK)
		case "UNSUBSCRIBE":
			w.WriteHeader(http.StatusOK)
		}
	})

	srv := httptest.NewServer(mux)

	reg := registry.New()
	pubsub := registry.NewPubSub()
	a := agent.New(yxc.NewClient(2*time.Second), upnp.NewClient(2*time.Second), upnp.NewGenaClient(2*time.Second), reg, pubsub, agent.Config{
		CallbackURL:                "http://127.0.0.1:0/upnp/notify",
		UPnPSubscriptionTimeoutSec: 30,
		YXCPollIntervalSec:         180,
	})

	desc := &upnp.DeviceDescription{
		Services: []upnp.ServiceDescription{
			{ServiceType: upnp.AVTransportServiceType, EventSubURL: srv.URL + "/upnp/AVTransport/event"},
		},
	}
	require.NoError(t, a.Start(context.Background(), strings.TrimPrefix(srv.URL, "http://"), desc))

	return a, srv
}

func TestUDPListenerRoutesDatagramToMatchingAgent(t *testing.T) {
	a, srv := startedTestAgent(t, "uuid:sid-route")
	defer srv.Close()

	sub, err := a.Lookup(context.Background(), "device_id")
	require.NoError(t, err)
	require.Equal(t, "00A0DE999999", sub)

	lookup := &fakeLookup{byDeviceID: map[string]*agent.Agent{"00A0DE999999": a}}
	l := NewUDPListener(lookup)

	l.handleDatagram([]byte(`{"device_id":"00A0DE999999","main":{"volume":42}}`))

	require.Eventually(t, func() bool {
		val, err := a.Lookup(context.Background(), "status")
		if err != nil {
			return false
		}
		status, ok := val.(map[string]any)
		return ok && status["volume"] == float64(42)
	}, time.Second, 10*time.Millisecond)
}

func TestUDPListenerDropsUnknownDeviceIDWithoutPanic(t *testing.T) {
	lookup := &fakeLookup{byDeviceID: map[string]*agent.Agent{}}
	l := NewUDPListener(lookup)

	require.NotPanics(t, func() {
		l.handleDatagram([]byte(`{"device_id":"ZZZZ","main":{"volume":5}}`))
	})
}

func TestUDPListenerIgnoresMalformedPayload(t *testing.T) {
	lookup := &fakeLookup{byDeviceID: map[string]*agent.Agent{}}
	l := NewUDPListener(lookup)

	require.NotPanics(t, func() {
		l.handleDatagram([]byte(`not json`))
	})
}

func TestUDPListenerListenAndServeStopsOnContextCancel(t *testing.T) {
	lookup := &fakeLookup{byDeviceID: map[string]*agent.Agent{}}
	l := NewUDPListener(lookup)

	ctx, cancel := context.WithCancel(context.Background())

	conn, err := net.ListenPacket("udp4", ":0")
	require.NoError(t, err)
	port := conn.LocalAddr().(*net.UDPAddr).Port
	conn.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- l.ListenAndServe(ctx, port)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ListenAndServe did not stop after cancel")
	}
}

func TestCallbackHandlerDeliversOnMatchingSID(t *testing.T) {
	a, srv := startedTestAgent(t, "uuid:sid-notify")
	defer srv.Close()

	lookup := &fakeLookup{bySession: map[string]*agent.Agent{"uuid:sid-notify": a}}
	h := NewCallbackHandler(lookup)

	body := `<?xml version="1.0"?><e:propertyset xmlns:e="urn:schemas-upnp-org:event-1-0">` +
		`<e:property><LastChange>&lt;Event xmlns=&quot;urn:schemas-upnp-org:metadata-1-0/AVT/&quot;&gt;` +
		`&lt;InstanceID val=&quot;0&quot;&gt;&lt;TransportState val=&quot;PLAYING&quot;/&gt;&lt;/InstanceID&gt;&lt;/Event&gt;</LastChange></e:property>` +
		`</e:propertyset>`

	req := httptest.NewRequest("NOTIFY", "/upnp/notify", strings.NewReader(body))
	req.Header.Set("SID", "uuid:sid-notify")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCallbackHandlerReturnsGoneForUnknownSID(t *testing.T) {
	lookup := &fakeLookup{bySession: map[string]*agent.Agent{}}
	h := NewCallbackHandler(lookup)

	req := httptest.NewRequest("NOTIFY", "/upnp/notify", strings.NewReader(""))
	req.Header.Set("SID", "uuid:unknown")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusGone, rec.Code)
}

package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/strefethen/musiccast-hub-go/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Host:                       "0.0.0.0",
		Port:                       "0",
		SSDPDiscoveryTimeoutMs:     1000,
		SSDPDiscoveryPasses:        1,
		SSDPPassIntervalMs:         1000,
		SSDPRescanIntervalMs:       60000,
		YXCTimeoutMs:               1000,
		YXCPollIntervalSec:         180,
		UPnPSubscriptionTimeoutSec: 300,
		UPnPSoapTimeoutMs:          1000,
		UDPEventPort:               0,
	}
}

func TestNewHandlerServesHealthRoutes(t *testing.T) {
	handler, shutdown, err := NewHandler(testConfig(t), Options{DisableDiscovery: true})
	require.NoError(t, err)
	defer shutdown(nil)

	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/health/live")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewHandlerReturnsNotFoundForUnknownDevice(t *testing.T) {
	handler, shutdown, err := NewHandler(testConfig(t), Options{DisableDiscovery: true})
	require.NoError(t, err)
	defer shutdown(nil)

	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/devices/does-not-exist")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNewHandlerServesNetworkRoute(t *testing.T) {
	handler, shutdown, err := NewHandler(testConfig(t), Options{DisableDiscovery: true})
	require.NoError(t, err)
	defer shutdown(nil)

	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/v1/network")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewHandlerRoutesNotifyPathAroundRouter(t *testing.T) {
	handler, shutdown, err := NewHandler(testConfig(t), Options{DisableDiscovery: true})
	require.NoError(t, err)
	defer shutdown(nil)

	srv := httptest.NewServer(handler)
	defer srv.Close()

	req, err := http.NewRequest("NOTIFY", srv.URL+"/upnp/notify", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	// No SID header: the CallbackHandler answers Gone rather than chi's
	// catch-all 404, proving the request reached it and not the router.
	require.Equal(t, http.StatusGone, resp.StatusCode)
}

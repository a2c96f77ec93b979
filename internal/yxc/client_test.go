package yxc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClientGetStripsResponseCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/YamahaExtendedControl/v1/main/getStatus", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"response_code": 0,
			"power":         "on",
			"volume":        42,
		})
	}))
	defer srv.Close()

	client := NewClient(time.Second)
	payload, err := client.Get(context.Background(), srv.Listener.Addr().String(), "/main/getStatus", nil, false)
	require.NoError(t, err)
	require.Equal(t, "on", payload["power"])
	require.Equal(t, float64(42), payload["volume"])
	_, hasCode := payload["response_code"]
	require.False(t, hasCode)
}

func TestClientGetNonZeroResponseCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"response_code": 3})
	}))
	defer srv.Close()

	client := NewClient(time.Second)
	_, err := client.Get(context.Background(), srv.Listener.Addr().String(), "/main/setVolume", nil, false)
	require.Error(t, err)
}

func TestClientGetHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(time.Second)
	_, err := client.Get(context.Background(), srv.Listener.Addr().String(), "/main/getStatus", nil, false)
	require.Error(t, err)
}

func TestClientGetWithSubscriptionSetsHeaders(t *testing.T) {
	var gotAppName, gotAppPort string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAppName = r.Header.Get(HeaderAppName)
		gotAppPort = r.Header.Get(HeaderAppPort)
		json.NewEncoder(w).Encode(map[string]any{"response_code": 0})
	}))
	defer srv.Close()

	client := NewClient(time.Second)
	_, err := client.Get(context.Background(), srv.Listener.Addr().String(), "/system/getDeviceInfo", nil, true)
	require.NoError(t, err)
	require.Equal(t, AppNameValue, gotAppName)
	require.Equal(t, AppPortValue, gotAppPort)
}

func TestClientPostSendsJSONBody(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.True(t, strings.Contains(r.Header.Get("Content-Type"), "application/json"))
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{"response_code": 0})
	}))
	defer srv.Close()

	client := NewClient(time.Second)
	err := client.NetUSBSetSearchString(context.Background(), srv.Listener.Addr().String(), "list1", "query")
	require.NoError(t, err)
	require.Equal(t, "list1", gotBody["list_id"])
	require.Equal(t, "query", gotBody["str"])
}

func TestDecodeTypedPayload(t *testing.T) {
	payload := map[string]any{
		"device_id":  "00A0DE123456",
		"model_name": "RX-V6A",
	}
	info, err := decode[DeviceInfo](payload)
	require.NoError(t, err)
	require.Equal(t, "00A0DE123456", info.DeviceID)
	require.Equal(t, "RX-V6A", info.ModelName)
}

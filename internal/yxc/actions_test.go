package yxc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSetVolumeIncludesStepOnlyForUpDown(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(map[string]any{"response_code": 0})
	}))
	defer srv.Close()

	client := NewClient(time.Second)

	t.Run("absolute volume omits step", func(t *testing.T) {
		err := client.SetVolume(context.Background(), srv.Listener.Addr().String(), "main", "50", 0)
		require.NoError(t, err)
		_, hasStep := gotQuery["step"]
		require.False(t, hasStep)
	})

	t.Run("up includes step", func(t *testing.T) {
		err := client.SetVolume(context.Background(), srv.Listener.Addr().String(), "main", "up", 2)
		require.NoError(t, err)
		require.Equal(t, []string{"2"}, gotQuery["step"])
	})

	t.Run("down includes step", func(t *testing.T) {
		err := client.SetVolume(context.Background(), srv.Listener.Addr().String(), "main", "down", 3)
		require.NoError(t, err)
		require.Equal(t, []string{"3"}, gotQuery["step"])
	})
}

func TestZoneOrDefault(t *testing.T) {
	require.Equal(t, "main", zoneOrDefault(""))
	require.Equal(t, "zone2", zoneOrDefault("zone2"))
}

func TestGetStatusUsesZonePath(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]any{
			"response_code": 0,
			"power":         "on",
			"volume":        30,
			"max_volume":    60,
		})
	}))
	defer srv.Close()

	client := NewClient(time.Second)
	status, err := client.GetStatus(context.Background(), srv.Listener.Addr().String(), "zone2")
	require.NoError(t, err)
	require.Equal(t, "/YamahaExtendedControl/v1/zone2/getStatus", gotPath)
	require.Equal(t, "on", status.Power)
	require.Equal(t, 30, status.Volume)
}

func TestNetUSBGetListInfoDefaultsSize(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(map[string]any{"response_code": 0})
	}))
	defer srv.Close()

	client := NewClient(time.Second)
	_, err := client.NetUSBGetListInfo(context.Background(), srv.Listener.Addr().String(), "main", 0, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"0"}, gotQuery["index"])
	require.Equal(t, []string{"8"}, gotQuery["size"])
}

func TestSetMuteBoolParam(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(map[string]any{"response_code": 0})
	}))
	defer srv.Close()

	client := NewClient(time.Second)
	err := client.SetMute(context.Background(), srv.Listener.Addr().String(), "main", true)
	require.NoError(t, err)
	require.Equal(t, []string{"on"}, gotQuery["enable"])

	err = client.SetMute(context.Background(), srv.Listener.Addr().String(), "main", false)
	require.NoError(t, err)
	require.Equal(t, []string{"off"}, gotQuery["enable"])
}

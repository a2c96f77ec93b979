// Package server wires the control plane's embedded HTTP server: a
// small chi-routed operational surface (health, device listing,
// network topology, the live network-stream WebSocket) plus the UPnP
// NOTIFY callback endpoint, which sits in front of chi because NOTIFY
// is not a registered net/http method.
//
// Grounded on the teacher's NewHandler (chi router assembly,
// requestLoggerMiddleware's responseWriter status-capturing wrapper,
// the router-vs-raw-handler split for non-standard HTTP verbs) and
// internal/sonos/events/callback.go's CallbackHandler wiring.
package server

import (
	"bufio"
	"context"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/strefethen/musiccast-hub-go/internal/agent"
	"github.com/strefethen/musiccast-hub-go/internal/api"
	"github.com/strefethen/musiccast-hub-go/internal/apperrors"
	"github.com/strefethen/musiccast-hub-go/internal/config"
	"github.com/strefethen/musiccast-hub-go/internal/discovery"
	"github.com/strefethen/musiccast-hub-go/internal/ingress"
	"github.com/strefethen/musiccast-hub-go/internal/netstream"
	"github.com/strefethen/musiccast-hub-go/internal/registry"
	"github.com/strefethen/musiccast-hub-go/internal/supervisor"
	"github.com/strefethen/musiccast-hub-go/internal/upnp"
	"github.com/strefethen/musiccast-hub-go/internal/yxc"
)

// responseWriter wraps http.ResponseWriter to capture the status code
// for request logging, and supports Hijack so the WebSocket upgrade
// still works through requestLoggerMiddleware.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

func requestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.RequestURI(), wrapped.status, time.Since(start).Round(time.Millisecond))
	})
}

// Options controls server wiring, mainly for tests.
type Options struct {
	// DisableDiscovery skips starting the SSDP listener, for tests that
	// drive the Supervisor directly.
	DisableDiscovery bool
}

// NewHandler builds the HTTP handler and a shutdown function that
// stops discovery, the UDP ingress listener, and every live Agent.
func NewHandler(cfg config.Config, options Options) (http.Handler, func(context.Context) error, error) {
	reg := registry.New()
	pubsub := registry.NewPubSub()

	yxcClient := yxc.NewClient(time.Duration(cfg.YXCTimeoutMs) * time.Millisecond)
	upnpClient := upnp.NewClient(time.Duration(cfg.UPnPSoapTimeoutMs) * time.Millisecond)
	gena := upnp.NewGenaClient(time.Duration(cfg.UPnPSoapTimeoutMs) * time.Millisecond)

	callbackURL := cfg.UPnPCallbackURL
	if callbackURL == "" && cfg.UPnPSubscriptionTimeoutSec > 0 {
		callbackURL = defaultCallbackURL(cfg)
	}

	agentCfg := agent.Config{
		CallbackURL:                callbackURL,
		UPnPSubscriptionTimeoutSec: cfg.UPnPSubscriptionTimeoutSec,
		YXCPollIntervalSec:         cfg.YXCPollIntervalSec,
	}

	super := supervisor.New(yxcClient, upnpClient, gena, reg, pubsub, agentCfg)

	staticDevices, err := config.LoadStaticDevices(cfg.StaticDeviceConfigPath)
	if err != nil {
		return nil, nil, err
	}
	staticIPs := append([]string{}, cfg.StaticDeviceIPs...)
	for _, d := range staticDevices {
		staticIPs = append(staticIPs, d.IP)
	}

	listener := discovery.NewListener(discovery.Config{
		Passes:         cfg.SSDPDiscoveryPasses,
		PassInterval:   time.Duration(cfg.SSDPPassIntervalMs) * time.Millisecond,
		Timeout:        time.Duration(cfg.SSDPDiscoveryTimeoutMs) * time.Millisecond,
		RescanInterval: time.Duration(cfg.SSDPRescanIntervalMs) * time.Millisecond,
		StaticIPs:      staticIPs,
	}, super.AddDevice)

	discoveryCtx, cancelDiscovery := context.WithCancel(context.Background())
	if !options.DisableDiscovery {
		listener.Start(discoveryCtx)
	}

	udpListener := ingress.NewUDPListener(super)
	udpCtx, cancelUDP := context.WithCancel(context.Background())
	udpErrCh := make(chan error, 1)
	if !options.DisableDiscovery {
		go func() {
			udpErrCh <- udpListener.ListenAndServe(udpCtx, cfg.UDPEventPort)
		}()
	}

	callbackHandler := ingress.NewCallbackHandler(super)

	hub := netstream.NewHub(pubsub)
	hubStop := make(chan struct{})
	go hub.Broadcast(hubStop)

	router := chi.NewRouter()
	router.Use(middleware.StripSlashes)
	router.Use(requestLoggerMiddleware)
	router.Use(api.RequestIDMiddleware)
	router.Use(api.RecovererMiddleware)

	registerHealthRoutes(router, super, listener, udpListener, callbackHandler)
	registerDeviceRoutes(router, super)
	registerNetworkRoutes(router, reg)
	netstream.RegisterRoutes(router, hub)

	upnpMux := http.NewServeMux()
	upnpMux.Handle("/upnp/notify", callbackHandler)

	// NOTIFY is not a registered net/http method, so the router is
	// wrapped by a raw http.Handler that intercepts /upnp/notify before
	// delegating to chi for everything else.
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/upnp/notify") {
			upnpMux.ServeHTTP(w, r)
			return
		}
		router.ServeHTTP(w, r)
	})

	shutdown := func(ctx context.Context) error {
		cancelDiscovery()
		cancelUDP()
		close(hubStop)
		for _, a := range super.Snapshot() {
			a.Stop()
		}
		return nil
	}

	return handler, shutdown, nil
}

// defaultCallbackURL builds this process's own NOTIFY endpoint from
// cfg.Host/Port when UPNP_CALLBACK_URL isn't set explicitly, assuming
// Host is reachable from the LAN devices are on.
func defaultCallbackURL(cfg config.Config) string {
	host := cfg.Host
	if host == "0.0.0.0" || host == "" {
		return ""
	}
	return "http://" + net.JoinHostPort(host, cfg.Port) + "/upnp/notify"
}

func registerHealthRoutes(router chi.Router, super *supervisor.Supervisor, listener *discovery.Listener, udp *ingress.UDPListener, cb *ingress.CallbackHandler) {
	router.Method(http.MethodGet, "/v1/health", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		return api.WriteJSON(w, http.StatusOK, map[string]any{
			"status":    "healthy",
			"service":   "musiccast-hub",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"devices":   super.Count(),
			"discovery": listener.Stats(),
			"udp":       udp.Stats(),
			"upnp":      cb.Stats(),
		})
	}))
	router.Method(http.MethodGet, "/v1/health/live", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		return api.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}))
	router.Method(http.MethodGet, "/v1/health/ready", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		return api.WriteJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	}))
}

// deviceSummary is the shape returned by GET /v1/devices.
type deviceSummary struct {
	DeviceID string `json:"device_id"`
	Host     string `json:"host"`
}

func registerDeviceRoutes(router chi.Router, super *supervisor.Supervisor) {
	router.Method(http.MethodGet, "/v1/devices", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		snap := super.Snapshot()
		out := make([]deviceSummary, 0, len(snap))
		for deviceID, a := range snap {
			out = append(out, deviceSummary{DeviceID: deviceID, Host: a.Host()})
		}
		return api.WriteJSON(w, http.StatusOK, map[string]any{"devices": out})
	}))

	router.Method(http.MethodGet, "/v1/devices/{deviceID}", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		deviceID := chi.URLParam(r, "deviceID")
		a, ok := super.AgentByDeviceID(deviceID)
		if !ok {
			return apperrors.New(apperrors.KindNotFound, "device not found: "+deviceID)
		}
		state, err := a.Lookup(r.Context())
		if err != nil {
			return err
		}
		return api.WriteJSON(w, http.StatusOK, state)
	}))
}

func registerNetworkRoutes(router chi.Router, reg *registry.Registry) {
	router.Method(http.MethodGet, "/v1/network", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		snap := reg.Snapshot()
		entries := make(map[string]registry.Entry, len(snap))
		for k, v := range snap {
			entries[k] = v
		}
		return api.WriteJSON(w, http.StatusOK, map[string]any{
			"count":   reg.Count(),
			"devices": entries,
		})
	}))
}

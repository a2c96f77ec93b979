package discovery

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/strefethen/musiccast-hub-go/internal/upnp"
)

// staticDescriptionPort/Path is where a MusicCast device's root UPnP
// description is conventionally served when reached by static IP
// rather than discovered via SSDP (no Location header to follow).
const (
	staticDescriptionPort = "49154"
	staticDescriptionPath = "/MediaRenderer/desc.xml"
)

// AgentHandle is the liveness signal the Listener checks before
// re-admitting an already-seen IP; *agent.Agent satisfies it via its
// own Done() method (spec §3: "SSDP entries are weakly held references
// to Agent liveness").
type AgentHandle interface {
	Done() <-chan struct{}
}

// AddDeviceFunc spawns and registers a Device Agent for a freshly
// admitted sighting, returning its liveness handle. Supplied by
// whatever owns the Supervisor so this package stays decoupled from
// internal/agent.
type AddDeviceFunc func(ctx context.Context, host string, desc *upnp.DeviceDescription) (AgentHandle, error)

// Config bounds one Listener's discovery timing (spec §4.1).
type Config struct {
	Passes         int
	PassInterval   time.Duration
	Timeout        time.Duration
	RescanInterval time.Duration
	StaticIPs      []string
}

// Listener owns the SSDP entity map (spec §5: "The SSDP entity map is
// owned by the SSDP listener"): one auto-discover pass 2 seconds after
// Start, then periodic rescans, deduplicating by source IP against
// live Agent handles.
//
// Grounded on the teacher's DiscoverDevices SSDP-then-fallback-probe
// loop, replacing its one-shot seenIPs set with a persistent
// map[string]AgentHandle so a terminated Agent's IP can be re-admitted
// on the next sighting (spec §3/§7 "the next SSDP sighting re-admits
// the device").
type Listener struct {
	cfg       Config
	addDevice AddDeviceFunc

	mu   sync.Mutex
	seen map[string]AgentHandle

	sightingsSeen    int64
	devicesAdmitted  int64
	descFetchFailed  int64
	agentStartFailed int64
}

// Stats is a snapshot of the Listener's running counters (spec's
// Supplemented features: "Manager statistics").
type Stats struct {
	SightingsSeen    int64
	DevicesAdmitted  int64
	DescFetchFailed  int64
	AgentStartFailed int64
}

// Stats returns a snapshot of the Listener's running counters.
func (l *Listener) Stats() Stats {
	return Stats{
		SightingsSeen:    atomic.LoadInt64(&l.sightingsSeen),
		DevicesAdmitted:  atomic.LoadInt64(&l.devicesAdmitted),
		DescFetchFailed:  atomic.LoadInt64(&l.descFetchFailed),
		AgentStartFailed: atomic.LoadInt64(&l.agentStartFailed),
	}
}

// NewListener creates a Listener bound to addDevice.
func NewListener(cfg Config, addDevice AddDeviceFunc) *Listener {
	return &Listener{cfg: cfg, addDevice: addDevice, seen: make(map[string]AgentHandle)}
}

// Start launches the auto-discover timer and, if configured, the
// periodic rescan loop. It returns immediately; both run in the
// background until ctx is canceled.
func (l *Listener) Start(ctx context.Context) {
	time.AfterFunc(2*time.Second, func() {
		l.runPass(ctx)
	})
	go l.rescanLoop(ctx)
	go l.notifyLoop(ctx)
}

// notifyLoop keeps a passive multicast listener open for the Listener's
// whole lifetime, feeding every unsolicited NOTIFY sighting into the
// same admit() pipeline runPass uses for M-SEARCH replies (spec §4.1:
// SSDP discovery is not only the periodic active pass, it also reacts
// to devices announcing themselves between passes).
func (l *Listener) notifyLoop(ctx context.Context) {
	err := ListenNotify(ctx, func(resp Response) {
		l.admitResponse(ctx, resp)
	})
	if err != nil && ctx.Err() == nil {
		log.Printf("SSDP: passive NOTIFY listener stopped: %v", err)
	}
}

func (l *Listener) rescanLoop(ctx context.Context) {
	if l.cfg.RescanInterval <= 0 {
		return
	}
	ticker := time.NewTicker(l.cfg.RescanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.runPass(ctx)
		}
	}
}

func (l *Listener) runPass(ctx context.Context) {
	responses, err := Discover(ctx, l.cfg.Passes, l.cfg.PassInterval, l.cfg.Timeout)
	if err != nil {
		log.Printf("SSDP: discovery pass failed: %v", err)
	}

	for _, resp := range responses {
		l.admitResponse(ctx, resp)
	}

	for _, ip := range l.cfg.StaticIPs {
		if l.isLive(ip) {
			continue
		}
		location := fmt.Sprintf("http://%s:%s%s", ip, staticDescriptionPort, staticDescriptionPath)
		l.admit(ctx, ip, location)
	}
}

// admitResponse is the shared tail of both the active M-SEARCH pass and
// the passive NOTIFY loop: resolve the sighting's host and hand it to
// admit().
func (l *Listener) admitResponse(ctx context.Context, resp Response) {
	ip := extractHost(resp.Location)
	if ip == "" {
		return
	}
	l.admit(ctx, ip, resp.Location)
}

// admit fetches the root description for a sighting and, if that
// succeeds, asks addDevice to spawn an Agent. A description-fetch
// failure does not propagate -- it simply leaves the device unadmitted
// (spec §8: "SSDP does not fail on per-device description errors").
func (l *Listener) admit(ctx context.Context, ip, location string) {
	atomic.AddInt64(&l.sightingsSeen, 1)

	if l.isLive(ip) {
		return
	}

	probeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	desc, err := upnp.FetchDescription(probeCtx, location)
	cancel()
	if err != nil {
		log.Printf("SSDP: description fetch failed for %s: %v", ip, err)
		atomic.AddInt64(&l.descFetchFailed, 1)
		return
	}

	handle, err := l.addDevice(ctx, ip, desc)
	if err != nil {
		log.Printf("SSDP: agent startup failed for %s: %v", ip, err)
		atomic.AddInt64(&l.agentStartFailed, 1)
		return
	}

	l.mu.Lock()
	l.seen[ip] = handle
	l.mu.Unlock()
	atomic.AddInt64(&l.devicesAdmitted, 1)
}

// isLive reports whether ip already maps to a running Agent,
// forgetting it first if its Done() channel has closed so the next
// sighting re-admits it.
func (l *Listener) isLive(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	handle, ok := l.seen[ip]
	if !ok {
		return false
	}
	select {
	case <-handle.Done():
		delete(l.seen, ip)
		return false
	default:
		return true
	}
}

func extractHost(location string) string {
	if location == "" {
		return ""
	}
	parsed, err := url.Parse(location)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(parsed.Hostname())
}

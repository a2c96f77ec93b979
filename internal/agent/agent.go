package agent

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/strefethen/musiccast-hub-go/internal/apperrors"
	"github.com/strefethen/musiccast-hub-go/internal/registry"
	"github.com/strefethen/musiccast-hub-go/internal/upnp"
	"github.com/strefethen/musiccast-hub-go/internal/yxc"
)

// Config bounds one Agent's timing parameters, threaded through from
// internal/config.Config (spec §4.5/§6).
type Config struct {
	// CallbackURL is this process's UPnP NOTIFY endpoint; empty
	// disables UPnP eventing (spec §6).
	CallbackURL string
	// UPnPSubscriptionTimeoutSec is the GENA SUBSCRIBE TIMEOUT requested.
	UPnPSubscriptionTimeoutSec int
	// YXCPollIntervalSec is the YXC enrollment renewal interval (spec
	// §4.3: "Subscription timeout (poll interval): 180 seconds").
	YXCPollIntervalSec int
}

// Agent owns one device's state and the single goroutine that
// mutates it, reading commands, events, and timer ticks off one
// inbox in strict arrival order (spec §4.5/§5).
type Agent struct {
	id   string
	host string
	zone string

	yxcClient  *yxc.Client
	upnpClient *upnp.Client
	gena       *upnp.GenaClient
	registry   *registry.Registry
	pubsub     *registry.PubSub
	cfg        Config
	rng        *rand.Rand

	inbox chan any
	done  chan struct{}

	state state

	avTransportControlURL  string
	avTransportEventSubURL string

	sessionMu sync.RWMutex
	sessionID string

	// upnpGrantedTimeoutSec is the TIMEOUT the GENA SUBSCRIBE response
	// actually granted (spec.md:125/§4.5), used to schedule the first
	// UPnP renewal -- the configured value is only ever a request.
	upnpGrantedTimeoutSec int
}

// New creates an Agent bound to the given collaborators. Start must
// succeed before the Agent accepts commands or events.
func New(yxcClient *yxc.Client, upnpClient *upnp.Client, gena *upnp.GenaClient, reg *registry.Registry, pubsub *registry.PubSub, cfg Config) *Agent {
	return &Agent{
		id:         uuid.NewString(),
		zone:       "main",
		yxcClient:  yxcClient,
		upnpClient: upnpClient,
		gena:       gena,
		registry:   reg,
		pubsub:     pubsub,
		cfg:        cfg,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		inbox:      make(chan any, 32),
		done:       make(chan struct{}),
	}
}

// ID returns the Agent's opaque identity, used by Registry/PubSub
// ownership bookkeeping and by the Supervisor to reclaim entries.
func (a *Agent) ID() string { return a.id }

// Done returns a channel closed when the Agent's run loop exits. SSDP
// discovery treats this as the Agent's weak-reference liveness signal
// (spec §3: "SSDP entries are weakly held references to Agent
// liveness").
func (a *Agent) Done() <-chan struct{} { return a.done }

// CurrentUpnpSessionID returns the Agent's live GENA subscription id,
// read concurrently by the UPnP ingress dispatcher matching an
// incoming NOTIFY's SID header against every live Agent (spec §4.6:
// "scans the Registry for the Agent whose upnp_session_id equals the
// header" — in this implementation the Supervisor holds the Agent
// handles and asks each one directly, since the Registry's device_id
// index has no reason to carry GENA session state).
func (a *Agent) CurrentUpnpSessionID() string {
	a.sessionMu.RLock()
	defer a.sessionMu.RUnlock()
	return a.sessionID
}

func (a *Agent) setUpnpSessionID(sid string) {
	a.sessionMu.Lock()
	a.sessionID = sid
	a.sessionMu.Unlock()
	a.state.UpnpSessionID = sid
}

// Start runs init synchronously, schedules the two renewal timers,
// announces the Agent online, and launches the run loop (spec §4.5
// steps 9-10).
func (a *Agent) Start(ctx context.Context, host string, desc *upnp.DeviceDescription) error {
	if err := a.init(ctx, host, desc); err != nil {
		return err
	}

	a.scheduleYXCRenewal(renewalInterval(a.cfg.YXCPollIntervalSec))
	if a.CurrentUpnpSessionID() != "" {
		a.scheduleUpnpRenewal(renewalInterval(a.upnpGrantedTimeoutSec))
	}

	a.pubsub.Publish("network", NetworkAnnouncement{Kind: "online", State: a.state.snapshot()})

	go a.run()
	return nil
}

// init implements spec §4.5 steps 1-8. Any step failure aborts
// startup without registering the Agent.
func (a *Agent) init(ctx context.Context, host string, desc *upnp.DeviceDescription) error {
	a.host = host
	a.state.Host = a.host

	deviceInfo, err := a.yxcClient.GetDeviceInfo(ctx, a.host)
	if err != nil {
		return fmt.Errorf("get device info: %w", err)
	}
	a.state.DeviceID = deviceInfo.DeviceID

	netStatus, err := a.yxcClient.GetNetworkStatus(ctx, a.host)
	if err != nil {
		return fmt.Errorf("get network status: %w", err)
	}
	a.state.NetworkName = netStatus.NetworkName

	features, err := a.yxcClient.GetFeatures(ctx, a.host)
	if err != nil {
		return fmt.Errorf("get features: %w", err)
	}
	inputs := make([]string, 0, len(features.System.InputList))
	for _, item := range features.System.InputList {
		inputs = append(inputs, item.ID)
	}
	a.state.AvailableInputs = inputs

	// Step 5: relative URLs are already rewritten absolute by
	// upnp.ParseDeviceDescription at fetch time (spec §4.2).
	a.state.UpnpService = desc
	if svc, ok := desc.ServiceByType(upnp.AVTransportServiceType); ok {
		a.avTransportControlURL = svc.ControlURL
		a.avTransportEventSubURL = svc.EventSubURL
	}

	status, err := a.yxcClient.GetStatus(ctx, a.host, a.zone)
	if err != nil {
		return fmt.Errorf("get status: %w", err)
	}
	a.state.Status = status

	playback, err := a.fetchPlaybackInfo(ctx)
	if err != nil {
		return fmt.Errorf("get playback info: %w", err)
	}
	playback.AlbumartURL = absolutizeAlbumArt(a.host, playback.AlbumartURL)
	a.state.Playback = playback

	if a.cfg.CallbackURL != "" && a.avTransportEventSubURL != "" {
		sid, grantedSec, err := a.gena.Subscribe(ctx, a.avTransportEventSubURL, a.cfg.CallbackURL, a.cfg.UPnPSubscriptionTimeoutSec)
		if err != nil {
			return fmt.Errorf("subscribe upnp events: %w", err)
		}
		a.setUpnpSessionID(sid)
		a.upnpGrantedTimeoutSec = grantedSec
	}

	if err := a.registry.Register(a.state.DeviceID, a.id, a.host); err != nil {
		if sid := a.CurrentUpnpSessionID(); sid != "" {
			_ = a.gena.Unsubscribe(ctx, a.avTransportEventSubURL, sid)
		}
		return err
	}

	return nil
}

// fetchPlaybackInfo sources playback data from netusb/getPlayInfo,
// the YXC endpoint carrying the full field set spec §3's playback map
// requires; tuner/cd variants remain reachable as distinct commands
// but are not polled during initialization or refetch.
func (a *Agent) fetchPlaybackInfo(ctx context.Context) (yxc.PlaybackInfo, error) {
	return a.yxcClient.NetUSBGetPlayInfo(ctx, a.host)
}

// renewalInterval implements spec §4.3/§5's "renewal scheduled at
// max(0, timeout-3) seconds" for both the YXC poll interval and the
// UPnP granted GENA timeout.
func renewalInterval(timeoutSec int) time.Duration {
	interval := timeoutSec - 3
	if interval < 0 {
		interval = 0
	}
	return time.Duration(interval) * time.Second
}

func (a *Agent) scheduleYXCRenewal(d time.Duration) {
	time.AfterFunc(d, func() {
		select {
		case a.inbox <- yxcRenewalTick{}:
		case <-a.done:
		}
	})
}

func (a *Agent) scheduleUpnpRenewal(d time.Duration) {
	time.AfterFunc(d, func() {
		select {
		case a.inbox <- upnpRenewalTick{}:
		case <-a.done:
		}
	})
}

// Stop enqueues a graceful-stop sentinel; everything already queued
// ahead of it drains first.
func (a *Agent) Stop() {
	select {
	case a.inbox <- stopSignal{}:
	case <-a.done:
	}
}

// DeliverYXCEvent enqueues a YXC unicast event (spec §4.6), returning
// false if the Agent has already stopped.
func (a *Agent) DeliverYXCEvent(zones map[string]map[string]any) bool {
	select {
	case a.inbox <- yxcUnicastEvent{zones: zones}:
		return true
	case <-a.done:
		return false
	}
}

// DeliverUpnpNotify enqueues a decoded UPnP NOTIFY event (spec §4.6),
// returning false if the Agent has already stopped.
func (a *Agent) DeliverUpnpNotify(values map[string]string) bool {
	select {
	case a.inbox <- upnpNotifyEvent{values: values}:
		return true
	case <-a.done:
		return false
	}
}

func (a *Agent) run() {
	defer close(a.done)
	defer a.cleanup()

	for msg := range a.inbox {
		switch m := msg.(type) {
		case *command:
			a.handleCommand(m)
		case yxcUnicastEvent:
			a.handleYXCUnicast(m)
		case upnpNotifyEvent:
			a.handleUpnpNotify(m)
		case yxcRenewalTick:
			if !a.handleYXCRenewal() {
				return
			}
		case upnpRenewalTick:
			if !a.handleUpnpRenewal() {
				return
			}
		case stopSignal:
			return
		}
	}
}

func (a *Agent) cleanup() {
	a.registry.UnregisterAgent(a.id)
	a.pubsub.UnsubscribeAll(a.id)

	if sid := a.CurrentUpnpSessionID(); sid != "" && a.avTransportEventSubURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.gena.Unsubscribe(ctx, a.avTransportEventSubURL, sid)
		cancel()
	}
}

// withDiff runs mutate, then diffs the state snapshot before and
// after and publishes a StateUpdate to the device_id topic if
// anything changed (spec §4.5 "State update and diffing").
func (a *Agent) withDiff(mutate func()) {
	before := a.state.snapshot()
	mutate()
	after := a.state.snapshot()

	d := diff(before, after)
	if len(d) > 0 {
		a.pubsub.Publish(a.state.DeviceID, StateUpdate{DeviceID: a.state.DeviceID, Diff: d})
	}
}

// dispatch enqueues cmd and blocks for its reply, implementing the
// request/response-with-reply-handle shape spec §9 calls for.
func (a *Agent) dispatch(ctx context.Context, cmd *command) (any, error) {
	select {
	case a.inbox <- cmd:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-a.done:
		return nil, apperrors.New(apperrors.KindTransport, "agent stopped")
	}

	select {
	case res := <-cmd.reply:
		return res.value, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Package supervisor implements the Network Supervisor (spec §4.7): a
// one-for-one transient supervisor that spawns one Device Agent per
// SSDP sighting, tracks it by device_id for Event Ingress routing, and
// drops it on termination with no auto-restart -- the next SSDP
// sighting of the same host starts a fresh Agent.
//
// Grounded on events.Manager's devices map, generalized from a single
// flat collection into the Supervisor/discovery.Listener split spec §5
// assigns: the Listener owns sighting dedup, the Supervisor owns Agent
// lifecycle and device_id/session_id lookup.
package supervisor

import (
	"context"
	"sync"

	"github.com/strefethen/musiccast-hub-go/internal/agent"
	"github.com/strefethen/musiccast-hub-go/internal/discovery"
	"github.com/strefethen/musiccast-hub-go/internal/registry"
	"github.com/strefethen/musiccast-hub-go/internal/upnp"
	"github.com/strefethen/musiccast-hub-go/internal/yxc"
)

// Supervisor owns every live Agent, keyed by device_id, and is the
// discovery.AddDeviceFunc the Listener drives.
type Supervisor struct {
	yxcClient  *yxc.Client
	upnpClient *upnp.Client
	gena       *upnp.GenaClient
	registry   *registry.Registry
	pubsub     *registry.PubSub
	agentCfg   agent.Config

	mu         sync.RWMutex
	byDeviceID map[string]*agent.Agent
}

// New creates a Supervisor bound to the shared collaborators every
// spawned Agent uses.
func New(yxcClient *yxc.Client, upnpClient *upnp.Client, gena *upnp.GenaClient, reg *registry.Registry, pubsub *registry.PubSub, agentCfg agent.Config) *Supervisor {
	return &Supervisor{
		yxcClient:  yxcClient,
		upnpClient: upnpClient,
		gena:       gena,
		registry:   reg,
		pubsub:     pubsub,
		agentCfg:   agentCfg,
		byDeviceID: make(map[string]*agent.Agent),
	}
}

// AddDevice matches discovery.AddDeviceFunc: it spawns and starts one
// Agent for host/desc, tracks it by the device_id Start discovers, and
// reaps the entry once the Agent terminates (spec §4.7: "no
// auto-restart -- the next SSDP sighting re-admits the device").
func (s *Supervisor) AddDevice(ctx context.Context, host string, desc *upnp.DeviceDescription) (discovery.AgentHandle, error) {
	a := agent.New(s.yxcClient, s.upnpClient, s.gena, s.registry, s.pubsub, s.agentCfg)

	if err := a.Start(ctx, host, desc); err != nil {
		return nil, err
	}

	deviceID := a.DeviceID()

	s.mu.Lock()
	s.byDeviceID[deviceID] = a
	s.mu.Unlock()

	go s.reap(deviceID, a)

	return a, nil
}

func (s *Supervisor) reap(deviceID string, a *agent.Agent) {
	<-a.Done()
	s.mu.Lock()
	if current, ok := s.byDeviceID[deviceID]; ok && current == a {
		delete(s.byDeviceID, deviceID)
	}
	s.mu.Unlock()
}

// AgentByDeviceID looks up the live Agent owning device_id, used by
// Event Ingress to route a YXC unicast UDP payload (spec §4.6).
func (s *Supervisor) AgentByDeviceID(deviceID string) (*agent.Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byDeviceID[deviceID]
	return a, ok
}

// AgentBySessionID scans every live Agent for the one whose current
// GENA subscription id equals sid, used by Event Ingress to route an
// incoming UPnP NOTIFY (spec §4.6: "scans ... for the Agent whose
// upnp_session_id equals the header").
func (s *Supervisor) AgentBySessionID(sid string) (*agent.Agent, bool) {
	if sid == "" {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.byDeviceID {
		if a.CurrentUpnpSessionID() == sid {
			return a, true
		}
	}
	return nil, false
}

// Snapshot returns a copy of every live (device_id, Agent) pair, used
// by the device-listing HTTP route.
func (s *Supervisor) Snapshot() map[string]*agent.Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*agent.Agent, len(s.byDeviceID))
	for k, v := range s.byDeviceID {
		out[k] = v
	}
	return out
}

// Count returns the number of live Agents.
func (s *Supervisor) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byDeviceID)
}

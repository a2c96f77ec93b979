// Package registry implements the two keyed indexes the control plane
// shares across Agents: a unique index of live devices (Registry) and
// a duplicate index of topic subscribers (PubSub).
//
// Grounded on events.Manager's subscriptions/deviceSubs dual-map-with-
// mutex pattern, generalized from Sonos's single-manager bookkeeping
// into the two named indexes spec §4.4 describes.
package registry

import (
	"sync"

	"github.com/strefethen/musiccast-hub-go/internal/apperrors"
)

// Entry identifies the live Agent owning a device_id: its agent id
// (opaque, used only for reclaiming on termination) and LAN host.
type Entry struct {
	AgentID string
	Host    string
}

// Registry is the unique index keyed by device_id (spec §4.4: "at most
// one Agent per device_id; every running Agent appears exactly once").
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register claims deviceID for agentID/host. Returns
// apperrors.ErrAlreadyRegistered if deviceID is already claimed by a
// different agent.
func (r *Registry) Register(deviceID, agentID, host string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[deviceID]; ok && existing.AgentID != agentID {
		return apperrors.ErrAlreadyRegistered
	}
	r.entries[deviceID] = Entry{AgentID: agentID, Host: host}
	return nil
}

// Unregister releases deviceID. Agents release their own entries
// through UnregisterAgent instead.
func (r *Registry) Unregister(deviceID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, deviceID)
}

// UnregisterAgent removes every entry owned by agentID, called from
// the Agent's cleanup when its run loop exits.
func (r *Registry) UnregisterAgent(agentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for deviceID, entry := range r.entries {
		if entry.AgentID == agentID {
			delete(r.entries, deviceID)
		}
	}
}

// Lookup returns the Entry registered under deviceID.
func (r *Registry) Lookup(deviceID string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[deviceID]
	return entry, ok
}

// ReverseLookup scans for a device_id whose Entry satisfies match and
// returns the first one found. The UPnP callback dispatcher does not
// use it; it resolves a subscription id through
// Supervisor.AgentBySessionID.
func (r *Registry) ReverseLookup(match func(Entry) bool) (deviceID string, entry Entry, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, e := range r.entries {
		if match(e) {
			return id, e, true
		}
	}
	return "", Entry{}, false
}

// Snapshot returns a copy of every current (device_id, Entry) pair.
func (r *Registry) Snapshot() map[string]Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Entry, len(r.entries))
	for k, v := range r.entries {
		out[k] = v
	}
	return out
}

// Count returns the number of live entries.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

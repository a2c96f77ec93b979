// Package agent implements the per-device actor that fuses YXC
// unicast events, UPnP A/V eventing, and periodic polls into one
// coherent device state, diffs it, and publishes deltas.
//
// Grounded on events.Manager's stopCh/goroutine-with-channel idiom,
// generalized from a single-purpose subscription-renewal loop into a
// full per-device actor with a command/event inbox (spec §9's
// "actor model → task + inbox" design note).
package agent

import (
	"encoding/json"
	"fmt"

	"github.com/strefethen/musiccast-hub-go/internal/upnp"
	"github.com/strefethen/musiccast-hub-go/internal/yxc"
)

// QueueItem pairs a media URL with its DIDL-Lite track metadata, the
// element type of playback_queue.items (spec §3).
type QueueItem struct {
	URL  string             `json:"url"`
	Meta upnp.TrackMetadata `json:"meta"`
}

// playbackQueue is the Agent's queue-playback state (spec §3).
type playbackQueue struct {
	MediaURL string      `json:"media_url"`
	Items    []QueueItem `json:"items"`
}

// state is one Agent's complete device state (spec §3), mutated only
// by that Agent's run loop. Status and Playback are the typed
// yxc.Status / yxc.PlaybackInfo structs, which have no overflow field:
// device keys without a matching struct field are not kept. Upnp stays
// a flat map keyed by LastChange variable name, holding whichever of
// the upnp.DefaultAVTransportVars / DefaultRenderingControlVars
// variables the last NOTIFY carried (spec §9 "nested dynamic maps"
// design note).
type state struct {
	Host            string                  `json:"host"`
	DeviceID        string                  `json:"device_id"`
	NetworkName     string                  `json:"network_name"`
	AvailableInputs []string                `json:"available_inputs"`
	Status          yxc.Status              `json:"status"`
	Playback        yxc.PlaybackInfo        `json:"playback"`
	UpnpService     *upnp.DeviceDescription `json:"upnp_service"`
	Upnp            map[string]string       `json:"upnp"`
	UpnpSessionID   string                  `json:"upnp_session_id"`
	PlaybackQueue   playbackQueue           `json:"playback_queue"`
}

// snapshot renders state as a plain nested map for diffing and for
// the Agent's lookup command, reusing the yxc package's decode[T]
// generic re-marshal idea across a whole struct instead of one field.
func (s state) snapshot() map[string]any {
	raw, err := json.Marshal(s)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{}
	}
	return m
}

// absolutizeAlbumArt rewrites a possibly-relative albumart_url path
// absolute against host, leaving empty paths empty (spec §4.5 "Album
// art URL construction", tested by §8's "playback.albumart_url ∈ {"",
// "http://<host><path>"}" invariant).
func absolutizeAlbumArt(host, path string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("http://%s%s", host, path)
}

// structToMap and mapToStruct round-trip a typed value through JSON,
// used by the YXC unicast merge chain to treat Status/Playback as
// plain maps for field-presence-gated merging without hand-rolled
// reflection over struct tags.
func structToMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return map[string]any{}
	}
	return m
}

func mapToStruct(m map[string]any, out any) {
	raw, err := json.Marshal(m)
	if err != nil {
		return
	}
	_ = json.Unmarshal(raw, out)
}

// mergeKnownFields merges src into dst, keeping only keys dst already
// has and recursing into nested maps, matching spec §4.5's "Remaining
// keys are merged field-by-field into status and/or playback (only
// fields the target already contains are overwritten; nested maps
// recurse)." dst is mutated and returned for convenience.
func mergeKnownFields(dst map[string]any, src map[string]any) map[string]any {
	for key, val := range src {
		existing, ok := dst[key]
		if !ok {
			continue
		}
		if existingMap, isMap := existing.(map[string]any); isMap {
			if srcMap, ok := val.(map[string]any); ok {
				dst[key] = mergeKnownFields(existingMap, srcMap)
				continue
			}
		}
		dst[key] = val
	}
	return dst
}

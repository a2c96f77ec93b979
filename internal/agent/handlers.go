package agent

import (
	"context"

	"github.com/strefethen/musiccast-hub-go/internal/apperrors"
	"github.com/strefethen/musiccast-hub-go/internal/upnp"
	"github.com/strefethen/musiccast-hub-go/internal/yxc"
)

// handleCommand runs inside the run() goroutine, so it may mutate
// state without locking (spec §5 "ownership of mutable state").
func (a *Agent) handleCommand(cmd *command) {
	switch cmd.kind {
	case cmdYXC:
		err := cmd.yxc(context.Background())
		cmd.reply <- commandResult{err: err}

	case cmdPlaybackLoad:
		var err error
		a.withDiff(func() {
			err = a.playbackLoad(cmd.url, cmd.meta)
			if err == nil {
				a.state.PlaybackQueue.MediaURL = ""
			}
		})
		cmd.reply <- commandResult{err: err}

	case cmdPlaybackLoadNext:
		err := a.upnpClient.SetNextAVTransportURI(context.Background(), a.avTransportControlURL, cmd.url, upnp.EncodeDIDL(cmd.meta))
		cmd.reply <- commandResult{err: err}

	case cmdQueueLoad:
		var err error
		a.withDiff(func() {
			a.state.PlaybackQueue.Items = cmd.items
			if len(cmd.items) > 0 {
				first := cmd.items[0]
				err = a.playbackLoad(first.URL, first.Meta)
				if err == nil {
					a.state.PlaybackQueue.MediaURL = first.URL
				}
			}
		})
		cmd.reply <- commandResult{err: err}

	case cmdQueueNext, cmdQueuePrevious:
		a.handleQueueNeighbor(cmd)

	case cmdLookup:
		val, err := a.lookup(cmd.keys)
		cmd.reply <- commandResult{value: val, err: err}
	}
}

// playbackLoad issues Stop -> SetAVTransportURI -> Play in sequence
// (spec §4.5 "UPnP load").
func (a *Agent) playbackLoad(url string, meta upnp.TrackMetadata) error {
	ctx := context.Background()
	if err := a.upnpClient.Stop(ctx, a.avTransportControlURL); err != nil {
		return err
	}
	if err := a.upnpClient.SetAVTransportURI(ctx, a.avTransportControlURL, url, upnp.EncodeDIDL(meta)); err != nil {
		return err
	}
	return a.upnpClient.Play(ctx, a.avTransportControlURL)
}

// handleQueueNeighbor implements spec §4.5 "Queue next/previous": a
// non-empty queue picks a neighbor of the current media_url and loads
// it; an empty queue forwards to the YXC netusb setPlayback action.
func (a *Agent) handleQueueNeighbor(cmd *command) {
	direction := 1
	if cmd.kind == cmdQueuePrevious {
		direction = -1
	}

	items := a.state.PlaybackQueue.Items
	if len(items) == 0 {
		action := yxc.PlaybackNext
		if direction < 0 {
			action = yxc.PlaybackPrevious
		}
		err := a.yxcClient.NetUSBSetPlayback(context.Background(), a.host, action)
		cmd.reply <- commandResult{err: err}
		return
	}

	shuffleOn := a.state.Playback.Shuffle == "on"
	neighbor, ok := pickNeighbor(items, a.state.PlaybackQueue.MediaURL, shuffleOn, direction, a.rng)
	if !ok {
		cmd.reply <- commandResult{err: apperrors.ErrArgumentError}
		return
	}

	var err error
	a.withDiff(func() {
		err = a.playbackLoad(neighbor.URL, neighbor.Meta)
		if err == nil {
			a.state.PlaybackQueue.MediaURL = neighbor.URL
		}
	})
	cmd.reply <- commandResult{err: err}
}

// lookup returns a snapshot of one key, a subset of keys, or the
// whole state (spec §4.5 "Lookup"). Unknown keys fail with
// apperrors.ErrArgumentError.
func (a *Agent) lookup(keys []string) (any, error) {
	snap := a.state.snapshot()
	if len(keys) == 0 {
		return snap, nil
	}
	if len(keys) == 1 {
		val, ok := snap[keys[0]]
		if !ok {
			return nil, apperrors.ErrArgumentError
		}
		return val, nil
	}

	result := make(map[string]any, len(keys))
	for _, key := range keys {
		val, ok := snap[key]
		if !ok {
			return nil, apperrors.ErrArgumentError
		}
		result[key] = val
	}
	return result, nil
}

// handleYXCUnicast applies the handler chain described in spec §4.5
// for the zone this Agent tracks, ignoring any other zone keys the
// datagram may carry.
func (a *Agent) handleYXCUnicast(evt yxcUnicastEvent) {
	payload, ok := evt.zones[a.zone]
	if !ok {
		return
	}
	a.withDiff(func() {
		a.applyZoneEvent(payload)
	})
}

func (a *Agent) applyZoneEvent(payload map[string]any) {
	ctx := context.Background()

	if truthy(payload["status_updated"]) {
		if status, err := a.yxcClient.GetStatus(ctx, a.host, a.zone); err == nil {
			a.state.Status = status
		}
	}
	if truthy(payload["play_info_updated"]) {
		if playback, err := a.fetchPlaybackInfo(ctx); err == nil {
			playback.AlbumartURL = absolutizeAlbumArt(a.host, playback.AlbumartURL)
			a.state.Playback = playback
		}
	}

	remaining := make(map[string]any, len(payload))
	for k, v := range payload {
		remaining[k] = v
	}
	delete(remaining, "status_updated")
	delete(remaining, "play_info_updated")
	delete(remaining, "signal_info_updated")
	delete(remaining, "recent_info_updated")
	delete(remaining, "play_queue")

	statusMap := structToMap(a.state.Status)
	mapToStruct(mergeKnownFields(statusMap, remaining), &a.state.Status)

	playbackMap := structToMap(a.state.Playback)
	mapToStruct(mergeKnownFields(playbackMap, remaining), &a.state.Playback)
}

func truthy(v any) bool {
	b, _ := v.(bool)
	return b
}

// handleUpnpNotify applies a decoded UPnP event (spec §4.5 "UPnP
// event"): updates upnp, and on an AVTransportURI change updates the
// queue's media_url and fires a gapless SetNextAVTransportURI.
func (a *Agent) handleUpnpNotify(evt upnpNotifyEvent) {
	a.withDiff(func() {
		oldURI := a.state.Upnp["AVTransportURI"]
		a.state.Upnp = evt.values

		newURI, present := evt.values["AVTransportURI"]
		if present && newURI != oldURI {
			a.state.PlaybackQueue.MediaURL = newURI
			a.maybeLoadNextForGapless(newURI)
		}
	})
}

func (a *Agent) maybeLoadNextForGapless(currentURL string) {
	items := a.state.PlaybackQueue.Items
	if len(items) == 0 {
		return
	}

	shuffleOn := a.state.Playback.Shuffle == "on"
	next, ok := pickNeighbor(items, currentURL, shuffleOn, 1, a.rng)
	if !ok {
		return
	}

	controlURL, meta := a.avTransportControlURL, next.Meta
	url := next.URL
	go func() {
		_ = a.upnpClient.SetNextAVTransportURI(context.Background(), controlURL, url, upnp.EncodeDIDL(meta))
	}()
}

// handleYXCRenewal refreshes this process's YXC unicast-event
// enrollment (spec §4.5 "YXC renewal tick"). Failure terminates the
// Agent (spec §7).
func (a *Agent) handleYXCRenewal() bool {
	_, err := a.yxcClient.GetStatusSubscribed(context.Background(), a.host, a.zone)
	if err != nil {
		return false
	}
	a.scheduleYXCRenewal(renewalInterval(a.cfg.YXCPollIntervalSec))
	return true
}

// handleUpnpRenewal renews the GENA subscription (spec §4.5 "UPnP
// renewal tick"): the device may echo the same sid or rotate to a
// new one; a renewal error terminates the Agent.
func (a *Agent) handleUpnpRenewal() bool {
	ctx := context.Background()
	oldSID := a.CurrentUpnpSessionID()

	newSID, grantedSec, err := a.gena.Renew(ctx, a.avTransportEventSubURL, oldSID, a.cfg.UPnPSubscriptionTimeoutSec)
	if err != nil {
		return false
	}

	if newSID != oldSID {
		a.withDiff(func() {
			a.setUpnpSessionID(newSID)
		})
	}

	a.scheduleUpnpRenewal(renewalInterval(grantedSec))
	return true
}

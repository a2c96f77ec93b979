package agent

import (
	"context"

	"github.com/strefethen/musiccast-hub-go/internal/upnp"
	"github.com/strefethen/musiccast-hub-go/internal/yxc"
)

// DeviceID returns the device_id learned during Start. Safe to call
// once Start has returned: the value is set synchronously during init
// and never reassigned afterward, so no further synchronization with
// the run loop is needed.
func (a *Agent) DeviceID() string { return a.state.DeviceID }

// Host returns the LAN host Start was given.
func (a *Agent) Host() string { return a.host }

// Do dispatches an arbitrary YXC passthrough through the Agent's
// inbox, giving callers one escape hatch for YXC actions this file
// doesn't wrap individually, while still preserving command ordering
// (spec §4.5 "YXC passthroughs").
func (a *Agent) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	cmd := newCommand(cmdYXC)
	cmd.yxc = fn
	_, err := a.dispatch(ctx, cmd)
	return err
}

func (a *Agent) SetPower(ctx context.Context, power string) error {
	return a.Do(ctx, func(ctx context.Context) error {
		return a.yxcClient.SetPower(ctx, a.host, a.zone, power)
	})
}

func (a *Agent) SetInput(ctx context.Context, input string) error {
	return a.Do(ctx, func(ctx context.Context) error {
		return a.yxcClient.SetInput(ctx, a.host, a.zone, input)
	})
}

// SetVolume forwards volume (an absolute level or the literal
// "up"/"down") and step to the YXC client, which only includes step
// in the request for the "up"/"down" case (spec §9 Open Question).
func (a *Agent) SetVolume(ctx context.Context, volume string, step int) error {
	return a.Do(ctx, func(ctx context.Context) error {
		return a.yxcClient.SetVolume(ctx, a.host, a.zone, volume, step)
	})
}

func (a *Agent) IncreaseVolume(ctx context.Context, step int) error {
	return a.SetVolume(ctx, "up", step)
}

func (a *Agent) DecreaseVolume(ctx context.Context, step int) error {
	return a.SetVolume(ctx, "down", step)
}

func (a *Agent) Mute(ctx context.Context) error {
	return a.Do(ctx, func(ctx context.Context) error {
		return a.yxcClient.SetMute(ctx, a.host, a.zone, true)
	})
}

func (a *Agent) Unmute(ctx context.Context) error {
	return a.Do(ctx, func(ctx context.Context) error {
		return a.yxcClient.SetMute(ctx, a.host, a.zone, false)
	})
}

func (a *Agent) TogglePlayPause(ctx context.Context) error {
	return a.Do(ctx, func(ctx context.Context) error {
		return a.yxcClient.NetUSBSetPlayback(ctx, a.host, yxc.PlaybackPlayPause)
	})
}

func (a *Agent) ToggleRepeat(ctx context.Context) error {
	return a.Do(ctx, func(ctx context.Context) error {
		return a.yxcClient.NetUSBToggleRepeat(ctx, a.host)
	})
}

func (a *Agent) ToggleShuffle(ctx context.Context) error {
	return a.Do(ctx, func(ctx context.Context) error {
		return a.yxcClient.NetUSBToggleShuffle(ctx, a.host)
	})
}

func (a *Agent) PlaybackPlay(ctx context.Context) error {
	return a.Do(ctx, func(ctx context.Context) error {
		return a.yxcClient.NetUSBSetPlayback(ctx, a.host, yxc.PlaybackPlay)
	})
}

func (a *Agent) PlaybackPause(ctx context.Context) error {
	return a.Do(ctx, func(ctx context.Context) error {
		return a.yxcClient.NetUSBSetPlayback(ctx, a.host, yxc.PlaybackPause)
	})
}

func (a *Agent) PlaybackStop(ctx context.Context) error {
	return a.Do(ctx, func(ctx context.Context) error {
		return a.yxcClient.NetUSBSetPlayback(ctx, a.host, yxc.PlaybackStop)
	})
}

// PlaybackNext and PlaybackPrevious prefer the playback queue's
// neighbor-selection logic and fall back to the YXC transport action
// when no queue is active (spec §4.5 "Queue next/previous").
func (a *Agent) PlaybackNext(ctx context.Context) error {
	_, err := a.dispatch(ctx, newCommand(cmdQueueNext))
	return err
}

func (a *Agent) PlaybackPrevious(ctx context.Context) error {
	_, err := a.dispatch(ctx, newCommand(cmdQueuePrevious))
	return err
}

func (a *Agent) PlaybackLoad(ctx context.Context, url string, meta upnp.TrackMetadata) error {
	cmd := newCommand(cmdPlaybackLoad)
	cmd.url = url
	cmd.meta = meta
	_, err := a.dispatch(ctx, cmd)
	return err
}

func (a *Agent) PlaybackLoadNext(ctx context.Context, url string, meta upnp.TrackMetadata) error {
	cmd := newCommand(cmdPlaybackLoadNext)
	cmd.url = url
	cmd.meta = meta
	_, err := a.dispatch(ctx, cmd)
	return err
}

func (a *Agent) PlaybackLoadQueue(ctx context.Context, items []QueueItem) error {
	cmd := newCommand(cmdQueueLoad)
	cmd.items = items
	_, err := a.dispatch(ctx, cmd)
	return err
}

// Lookup returns a snapshot of the whole state (no keys), a single
// key's value, or a subset keyed map; an unknown key fails with
// apperrors.ErrArgumentError (spec §4.5 "Lookup").
func (a *Agent) Lookup(ctx context.Context, keys ...string) (any, error) {
	cmd := newCommand(cmdLookup)
	cmd.keys = keys
	return a.dispatch(ctx, cmd)
}

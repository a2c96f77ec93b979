package upnp

import (
	"context"
	"strconv"
)

// SetAVTransportURI sets the current playback URI, mirroring
// soap.actions.go's SetAVTransportURI shape.
func (c *Client) SetAVTransportURI(ctx context.Context, controlURL, uri, metadata string) error {
	args := map[string]string{
		"InstanceID":         "0",
		"CurrentURI":         uri,
		"CurrentURIMetaData": metadata,
	}
	_, err := c.CallAction(ctx, controlURL, AVTransportServiceType, "SetAVTransportURI", args)
	return err
}

// SetNextAVTransportURI sets the next track for gapless playback,
// grounded on the navidrome sonos_cast package's SetNextAVTransportURI.
func (c *Client) SetNextAVTransportURI(ctx context.Context, controlURL, uri, metadata string) error {
	args := map[string]string{
		"InstanceID":      "0",
		"NextURI":         uri,
		"NextURIMetaData": metadata,
	}
	_, err := c.CallAction(ctx, controlURL, AVTransportServiceType, "SetNextAVTransportURI", args)
	return err
}

func (c *Client) Play(ctx context.Context, controlURL string) error {
	args := map[string]string{"InstanceID": "0", "Speed": "1"}
	_, err := c.CallAction(ctx, controlURL, AVTransportServiceType, "Play", args)
	return err
}

func (c *Client) Pause(ctx context.Context, controlURL string) error {
	args := map[string]string{"InstanceID": "0"}
	_, err := c.CallAction(ctx, controlURL, AVTransportServiceType, "Pause", args)
	return err
}

func (c *Client) Stop(ctx context.Context, controlURL string) error {
	args := map[string]string{"InstanceID": "0"}
	_, err := c.CallAction(ctx, controlURL, AVTransportServiceType, "Stop", args)
	return err
}

func (c *Client) Next(ctx context.Context, controlURL string) error {
	args := map[string]string{"InstanceID": "0"}
	_, err := c.CallAction(ctx, controlURL, AVTransportServiceType, "Next", args)
	return err
}

func (c *Client) Previous(ctx context.Context, controlURL string) error {
	args := map[string]string{"InstanceID": "0"}
	_, err := c.CallAction(ctx, controlURL, AVTransportServiceType, "Previous", args)
	return err
}

func (c *Client) GetTransportInfo(ctx context.Context, controlURL string) ([]byte, error) {
	args := map[string]string{"InstanceID": "0"}
	return c.CallAction(ctx, controlURL, AVTransportServiceType, "GetTransportInfo", args)
}

func (c *Client) GetPositionInfo(ctx context.Context, controlURL string) ([]byte, error) {
	args := map[string]string{"InstanceID": "0"}
	return c.CallAction(ctx, controlURL, AVTransportServiceType, "GetPositionInfo", args)
}

// SetVolume invokes RenderingControl's SetVolume for the Master channel.
func (c *Client) SetVolume(ctx context.Context, controlURL string, volume int) error {
	args := map[string]string{
		"InstanceID":    "0",
		"Channel":       "Master",
		"DesiredVolume": strconv.Itoa(volume),
	}
	_, err := c.CallAction(ctx, controlURL, RenderingControlServiceType, "SetVolume", args)
	return err
}

// SetMute invokes RenderingControl's SetMute for the Master channel.
func (c *Client) SetMute(ctx context.Context, controlURL string, mute bool) error {
	desired := "0"
	if mute {
		desired = "1"
	}
	args := map[string]string{
		"InstanceID":  "0",
		"Channel":     "Master",
		"DesiredMute": desired,
	}
	_, err := c.CallAction(ctx, controlURL, RenderingControlServiceType, "SetMute", args)
	return err
}

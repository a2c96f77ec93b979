package yxc

import (
	"context"
	"net/url"
	"strconv"
)

const defaultZone = "main"

func zoneOrDefault(zone string) string {
	if zone == "" {
		return defaultZone
	}
	return zone
}

// --- System ---

func (c *Client) GetDeviceInfo(ctx context.Context, host string) (DeviceInfo, error) {
	payload, err := c.Get(ctx, host, "/system/getDeviceInfo", nil, true)
	if err != nil {
		return DeviceInfo{}, err
	}
	return decode[DeviceInfo](payload)
}

func (c *Client) GetFeatures(ctx context.Context, host string) (Features, error) {
	payload, err := c.Get(ctx, host, "/system/getFeatures", nil, false)
	if err != nil {
		return Features{}, err
	}
	return decode[Features](payload)
}

func (c *Client) GetNetworkStatus(ctx context.Context, host string) (NetworkStatus, error) {
	payload, err := c.Get(ctx, host, "/system/getNetworkStatus", nil, false)
	if err != nil {
		return NetworkStatus{}, err
	}
	return decode[NetworkStatus](payload)
}

func (c *Client) GetFuncStatus(ctx context.Context, host string) (FuncStatus, error) {
	payload, err := c.Get(ctx, host, "/system/getFuncStatus", nil, false)
	if err != nil {
		return FuncStatus{}, err
	}
	return decode[FuncStatus](payload)
}

func (c *Client) GetLocationInfo(ctx context.Context, host string) (LocationInfo, error) {
	payload, err := c.Get(ctx, host, "/system/getLocationInfo", nil, false)
	if err != nil {
		return LocationInfo{}, err
	}
	return decode[LocationInfo](payload)
}

func (c *Client) SetAutoPowerStandby(ctx context.Context, host, enable string) error {
	q := url.Values{"enable": {enable}}
	_, err := c.Get(ctx, host, "/system/setAutoPowerStandby", q, false)
	return err
}

func (c *Client) SendIrCode(ctx context.Context, host, code string) error {
	q := url.Values{"code": {code}}
	_, err := c.Get(ctx, host, "/system/sendIrCode", q, false)
	return err
}

// --- Zone ---

func (c *Client) GetStatus(ctx context.Context, host, zone string) (Status, error) {
	payload, err := c.Get(ctx, host, "/"+zoneOrDefault(zone)+"/getStatus", nil, false)
	if err != nil {
		return Status{}, err
	}
	return decode[Status](payload)
}

// GetStatusSubscribed is identical to GetStatus but carries the
// enrollment headers; used by the Agent's YXC renewal tick (spec
// §4.5) to keep this process registered for unicast events.
func (c *Client) GetStatusSubscribed(ctx context.Context, host, zone string) (Status, error) {
	payload, err := c.Get(ctx, host, "/"+zoneOrDefault(zone)+"/getStatus", nil, true)
	if err != nil {
		return Status{}, err
	}
	return decode[Status](payload)
}

func (c *Client) SetPower(ctx context.Context, host, zone, power string) error {
	q := url.Values{"power": {power}}
	_, err := c.Get(ctx, host, "/"+zoneOrDefault(zone)+"/setPower", q, false)
	return err
}

func (c *Client) SetSleep(ctx context.Context, host, zone string, seconds int) error {
	q := url.Values{"sleep": {strconv.Itoa(seconds)}}
	_, err := c.Get(ctx, host, "/"+zoneOrDefault(zone)+"/setSleep", q, false)
	return err
}

// SetVolume sets the zone volume. step is included only when volume is
// the literal string "up"/"down" (spec §9 Open Question).
func (c *Client) SetVolume(ctx context.Context, host, zone, volume string, step int) error {
	q := url.Values{"volume": {volume}}
	if volume == "up" || volume == "down" {
		q.Set("step", strconv.Itoa(step))
	}
	_, err := c.Get(ctx, host, "/"+zoneOrDefault(zone)+"/setVolume", q, false)
	return err
}

func (c *Client) SetMute(ctx context.Context, host, zone string, enable bool) error {
	q := url.Values{"enable": {boolParam(enable)}}
	_, err := c.Get(ctx, host, "/"+zoneOrDefault(zone)+"/setMute", q, false)
	return err
}

func (c *Client) SetInput(ctx context.Context, host, zone, input string) error {
	q := url.Values{"input": {input}}
	_, err := c.Get(ctx, host, "/"+zoneOrDefault(zone)+"/setInput", q, false)
	return err
}

func (c *Client) SetSoundProgram(ctx context.Context, host, zone, program string) error {
	q := url.Values{"program": {program}}
	_, err := c.Get(ctx, host, "/"+zoneOrDefault(zone)+"/setSoundProgram", q, false)
	return err
}

func (c *Client) PrepareInputChange(ctx context.Context, host, zone, input string) error {
	q := url.Values{"input": {input}}
	_, err := c.Get(ctx, host, "/"+zoneOrDefault(zone)+"/prepareInputChange", q, false)
	return err
}

func boolParam(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// --- Tuner ---

func (c *Client) TunerGetPresetInfo(ctx context.Context, host, band string) (map[string]any, error) {
	return c.Get(ctx, host, "/tuner/getPresetInfo", url.Values{"band": {band}}, false)
}

func (c *Client) TunerGetPlayInfo(ctx context.Context, host string) (PlaybackInfo, error) {
	payload, err := c.Get(ctx, host, "/tuner/getPlayInfo", nil, false)
	if err != nil {
		return PlaybackInfo{}, err
	}
	return decode[PlaybackInfo](payload)
}

func (c *Client) TunerSetPreset(ctx context.Context, host, band string, num int) error {
	q := url.Values{"band": {band}, "num": {strconv.Itoa(num)}}
	_, err := c.Get(ctx, host, "/tuner/setPreset", q, false)
	return err
}

func (c *Client) TunerRecallPreset(ctx context.Context, host, zone, band string, num int) error {
	q := url.Values{"zone": {zoneOrDefault(zone)}, "band": {band}, "num": {strconv.Itoa(num)}}
	_, err := c.Get(ctx, host, "/tuner/recallPreset", q, false)
	return err
}

func (c *Client) TunerStorePreset(ctx context.Context, host, band string, num int) error {
	q := url.Values{"band": {band}, "num": {strconv.Itoa(num)}}
	_, err := c.Get(ctx, host, "/tuner/storePreset", q, false)
	return err
}

func (c *Client) TunerSwitchPreset(ctx context.Context, host, dir string) error {
	q := url.Values{"dir": {dir}}
	_, err := c.Get(ctx, host, "/tuner/switchPreset", q, false)
	return err
}

func (c *Client) TunerSetDab(ctx context.Context, host, dirType string) error {
	q := url.Values{"type": {dirType}}
	_, err := c.Get(ctx, host, "/tuner/setDab", q, false)
	return err
}

// --- NetUSB ---

func (c *Client) NetUSBGetPresetInfo(ctx context.Context, host string) (map[string]any, error) {
	return c.Get(ctx, host, "/netusb/getPresetInfo", nil, false)
}

func (c *Client) NetUSBGetPlayInfo(ctx context.Context, host string) (PlaybackInfo, error) {
	payload, err := c.Get(ctx, host, "/netusb/getPlayInfo", nil, false)
	if err != nil {
		return PlaybackInfo{}, err
	}
	return decode[PlaybackInfo](payload)
}

// NetUSBPlaybackAction values (spec §4.3).
const (
	PlaybackPlay      = "play"
	PlaybackPause     = "pause"
	PlaybackStop      = "stop"
	PlaybackNext      = "next"
	PlaybackPrevious  = "previous"
	PlaybackPlayPause = "play_pause"
)

func (c *Client) NetUSBSetPlayback(ctx context.Context, host, action string) error {
	q := url.Values{"playback": {action}}
	_, err := c.Get(ctx, host, "/netusb/setPlayback", q, false)
	return err
}

func (c *Client) NetUSBToggleRepeat(ctx context.Context, host string) error {
	_, err := c.Get(ctx, host, "/netusb/toggleRepeat", nil, false)
	return err
}

func (c *Client) NetUSBToggleShuffle(ctx context.Context, host string) error {
	_, err := c.Get(ctx, host, "/netusb/toggleShuffle", nil, false)
	return err
}

// NetUSBGetListInfo defaults index=0, size=8 when callers pass zero
// (spec §4.3/§8 boundary).
func (c *Client) NetUSBGetListInfo(ctx context.Context, host, listID string, index, size int) (map[string]any, error) {
	if index == 0 {
		index = 0
	}
	if size == 0 {
		size = 8
	}
	q := url.Values{
		"list_id": {listID},
		"index":   {strconv.Itoa(index)},
		"size":    {strconv.Itoa(size)},
	}
	return c.Get(ctx, host, "/netusb/getListInfo", q, false)
}

func (c *Client) NetUSBSetListControl(ctx context.Context, host, listID, typ string, index int) error {
	q := url.Values{
		"list_id": {listID},
		"type":    {typ},
		"index":   {strconv.Itoa(index)},
	}
	_, err := c.Get(ctx, host, "/netusb/setListControl", q, false)
	return err
}

// NetUSBSetSearchString is the one documented POST endpoint (spec §4.3).
func (c *Client) NetUSBSetSearchString(ctx context.Context, host, listID, str string) error {
	_, err := c.Post(ctx, host, "/netusb/setSearchString", map[string]any{
		"list_id": listID,
		"str":     str,
	})
	return err
}

func (c *Client) NetUSBRecallPreset(ctx context.Context, host, zone string, num int) error {
	q := url.Values{"zone": {zoneOrDefault(zone)}, "num": {strconv.Itoa(num)}}
	_, err := c.Get(ctx, host, "/netusb/recallPreset", q, false)
	return err
}

func (c *Client) NetUSBStorePreset(ctx context.Context, host string, num int) error {
	q := url.Values{"num": {strconv.Itoa(num)}}
	_, err := c.Get(ctx, host, "/netusb/storePreset", q, false)
	return err
}

func (c *Client) NetUSBGetAccountStatus(ctx context.Context, host string) (map[string]any, error) {
	return c.Get(ctx, host, "/netusb/getAccountStatus", nil, false)
}

func (c *Client) NetUSBSwitchAccount(ctx context.Context, host, accountID string) error {
	q := url.Values{"id": {accountID}}
	_, err := c.Get(ctx, host, "/netusb/switchAccount", q, false)
	return err
}

func (c *Client) NetUSBGetServiceInfo(ctx context.Context, host, serviceType string) (map[string]any, error) {
	q := url.Values{"type": {serviceType}}
	return c.Get(ctx, host, "/netusb/getServiceInfo", q, false)
}

// --- CD ---

func (c *Client) CDGetPlayInfo(ctx context.Context, host string) (PlaybackInfo, error) {
	payload, err := c.Get(ctx, host, "/cd/getPlayInfo", nil, false)
	if err != nil {
		return PlaybackInfo{}, err
	}
	return decode[PlaybackInfo](payload)
}

func (c *Client) CDSetPlayback(ctx context.Context, host, action string) error {
	q := url.Values{"playback": {action}}
	_, err := c.Get(ctx, host, "/cd/setPlayback", q, false)
	return err
}

func (c *Client) CDToggleTray(ctx context.Context, host string) error {
	_, err := c.Get(ctx, host, "/cd/toggleTray", nil, false)
	return err
}

func (c *Client) CDToggleRepeat(ctx context.Context, host string) error {
	_, err := c.Get(ctx, host, "/cd/toggleRepeat", nil, false)
	return err
}

func (c *Client) CDToggleShuffle(ctx context.Context, host string) error {
	_, err := c.Get(ctx, host, "/cd/toggleShuffle", nil, false)
	return err
}

package agent

// yxcUnicastEvent is the YXC unicast event input (spec §4.5): zones
// maps zone name to its event dict, with device_id already stripped
// by the ingress dispatcher.
type yxcUnicastEvent struct {
	zones map[string]map[string]any
}

// upnpNotifyEvent is the UPnP event input (spec §4.5): values is the
// decoded LastChange variable map for the AVTransport instance this
// Agent subscribed to.
type upnpNotifyEvent struct {
	values map[string]string
}

// yxcRenewalTick and upnpRenewalTick are the two scheduled-timer
// events spec §4.5 describes; both arrive through the same inbox as
// commands and other events to preserve strict FIFO ordering (spec
// §5).
type yxcRenewalTick struct{}
type upnpRenewalTick struct{}

// stopSignal is enqueued by Stop(); because it travels through the
// same inbox, every message queued ahead of it drains first (spec §5
// "Agent stop is graceful: pending messages drain then the Agent
// exits").
type stopSignal struct{}

// NetworkAnnouncement is published to the "network" topic on Agent
// startup (spec §4.5 step 10: "Announce ... (:online, full state)").
type NetworkAnnouncement struct {
	Kind  string
	State map[string]any
}

// StateUpdate is published to the device_id topic whenever a
// non-empty diff results from a state mutation (spec §4.5 "State
// update and diffing").
type StateUpdate struct {
	DeviceID string
	Diff     map[string]any
}

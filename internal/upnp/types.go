// Package upnp implements the UPnP A/V transport runtime used to drive
// a MusicCast device's MediaRenderer: SOAP action invocation, GENA
// eventing, device/service description parsing, and the DIDL-Lite
// metadata codec.
//
// Grounded on internal/sonos/soap and internal/sonos/events, adapted
// from Sonos's fixed per-model service/port table to per-device
// descriptions discovered over SSDP + HTTP (spec §4.2).
package upnp

// ServiceDescription is one <service> entry from a device description,
// with relative URLs already rewritten absolute against the
// description's base URL.
type ServiceDescription struct {
	ServiceType string
	ServiceID   string
	ControlURL  string
	EventSubURL string
	SCPDURL     string
}

// IconDescription is one <icon> entry from a device description, with
// URL already rewritten absolute against the description's base URL
// (spec §4.2 invariant: icon_list[*].url is absolutized the same way
// service URLs are).
type IconDescription struct {
	MimeType string
	Width    int
	Height   int
	Depth    int
	URL      string
}

// DeviceDescription is the parsed root device-description document
// (spec §4.2), generalizing discovery.DeviceDescription beyond Sonos's
// fixed AVTransport/RenderingControl/ContentDirectory trio.
type DeviceDescription struct {
	FriendlyName string
	ManufacturerName string
	ModelName    string
	ModelNumber  string
	UDN          string
	DeviceType   string
	Services     []ServiceDescription
	Icons        []IconDescription
}

// ServiceByType returns the first service whose ServiceType matches
// exactly, or ok=false.
func (d *DeviceDescription) ServiceByType(serviceType string) (ServiceDescription, bool) {
	for _, svc := range d.Services {
		if svc.ServiceType == serviceType {
			return svc, true
		}
	}
	return ServiceDescription{}, false
}

// Well-known AVTransport/RenderingControl service type URNs (spec §4.2).
const (
	AVTransportServiceType      = "urn:schemas-upnp-org:service:AVTransport:1"
	RenderingControlServiceType = "urn:schemas-upnp-org:service:RenderingControl:1"
)

// StateVariableType names the decoder shape for one tracked UPnP
// state variable inside a LastChange event (spec §4.2's "runtime
// action table" design note).
type StateVariableType int

const (
	// VarScalar is a bare val="..." attribute on the element itself.
	VarScalar StateVariableType = iota
	// VarChannelScalar is a channel-qualified val (RenderingControl's
	// per-channel Volume/Mute), with only the Master channel kept.
	VarChannelScalar
)

// VarTypeTable maps a tracked state-variable name to its decode shape,
// passed into DecodeNotify so one decoder serves every service instead
// of the teacher's one-Go-struct-per-service approach.
type VarTypeTable map[string]StateVariableType

// DefaultAVTransportVars is the state-variable table for the
// AVTransport LastChange payload MusicCast devices emit.
var DefaultAVTransportVars = VarTypeTable{
	"TransportState":         VarScalar,
	"TransportStatus":        VarScalar,
	"CurrentTrackURI":        VarScalar,
	"CurrentTrackMetaData":   VarScalar,
	"CurrentTrackDuration":   VarScalar,
	"RelativeTimePosition":   VarScalar,
	"AVTransportURI":         VarScalar,
	"AVTransportURIMetaData": VarScalar,
}

// DefaultRenderingControlVars is the state-variable table for the
// RenderingControl LastChange payload.
var DefaultRenderingControlVars = VarTypeTable{
	"Volume": VarChannelScalar,
	"Mute":   VarChannelScalar,
}

// ActionArgument is one <argument> entry inside an SCPD <action> block
// (spec §4.2).
type ActionArgument struct {
	Name                 string
	Direction            string
	RelatedStateVariable string
}

// ActionDescription is one <action> entry from an SCPD document (spec
// §4.2: "action list ({name, arguments:[...]})").
type ActionDescription struct {
	Name      string
	Arguments []ActionArgument
}

// StateVariableDescription is one <stateVariable> entry from an SCPD
// document (spec §4.2: "state-variable table ({name, data_type})").
type StateVariableDescription struct {
	Name     string
	DataType string
}

// SCPDDescription is the parsed result of ParseSCPD: a service's full
// action list and state-variable table, the inputs spec §4.2's
// "runtime action table" design note recommends building at startup.
type SCPDDescription struct {
	Actions        []ActionDescription
	StateVariables []StateVariableDescription
}

package upnp

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/strefethen/musiccast-hub-go/internal/apperrors"
)

// descriptionHTTPClient is shared across FetchDescription calls,
// matching discovery.httpClient's pooled-client-for-probing pattern.
var descriptionHTTPClient = &http.Client{
	Timeout: 5 * time.Second,
}

// FetchDescription retrieves and parses the device description XML at
// location, rewriting every service URL absolute against location.
func FetchDescription(ctx context.Context, location string) (*DeviceDescription, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "build description request", err)
	}

	resp, err := descriptionHTTPClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "fetch device description", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, apperrors.New(apperrors.KindTransport, fmt.Sprintf("fetch device description: http %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "read device description", err)
	}

	return ParseDeviceDescription(body, location)
}

type rootDoc struct {
	Device deviceElem `xml:"device"`
}

type deviceElem struct {
	DeviceType   string       `xml:"deviceType"`
	FriendlyName string       `xml:"friendlyName"`
	Manufacturer string       `xml:"manufacturer"`
	ModelName    string       `xml:"modelName"`
	ModelNumber  string       `xml:"modelNumber"`
	UDN          string       `xml:"UDN"`
	IconList     iconListElem `xml:"iconList"`
	ServiceList  serviceList  `xml:"serviceList"`
	DeviceList   []deviceElem `xml:"deviceList>device"`
}

type iconListElem struct {
	Icons []iconElem `xml:"icon"`
}

type iconElem struct {
	MimeType string `xml:"mimetype"`
	Width    int    `xml:"width"`
	Height   int    `xml:"height"`
	Depth    int    `xml:"depth"`
	URL      string `xml:"url"`
}

type serviceList struct {
	Services []serviceElem `xml:"service"`
}

type serviceElem struct {
	ServiceType string `xml:"serviceType"`
	ServiceID   string `xml:"serviceId"`
	ControlURL  string `xml:"controlURL"`
	EventSubURL string `xml:"eventSubURL"`
	SCPDURL     string `xml:"SCPDURL"`
}

// ParseDeviceDescription parses a UPnP root device description document
// (spec §4.2), collecting every embedded device's service list and
// resolving all URLs absolute against baseURL.
func ParseDeviceDescription(payload []byte, baseURL string) (*DeviceDescription, error) {
	var doc rootDoc
	if err := xml.NewDecoder(bytes.NewReader(payload)).Decode(&doc); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidResponse, "parse device description", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidResponse, "parse base URL", err)
	}

	desc := &DeviceDescription{
		FriendlyName:     strings.TrimSpace(doc.Device.FriendlyName),
		ManufacturerName: strings.TrimSpace(doc.Device.Manufacturer),
		ModelName:        strings.TrimSpace(doc.Device.ModelName),
		ModelNumber:      strings.TrimSpace(doc.Device.ModelNumber),
		UDN:              strings.TrimPrefix(strings.TrimSpace(doc.Device.UDN), "uuid:"),
		DeviceType:       strings.TrimSpace(doc.Device.DeviceType),
	}

	collectServices(desc, doc.Device, base)
	desc.Icons = collectIcons(doc.Device, base)

	return desc, nil
}

func collectIcons(dev deviceElem, base *url.URL) []IconDescription {
	icons := make([]IconDescription, 0, len(dev.IconList.Icons))
	for _, ic := range dev.IconList.Icons {
		icons = append(icons, IconDescription{
			MimeType: strings.TrimSpace(ic.MimeType),
			Width:    ic.Width,
			Height:   ic.Height,
			Depth:    ic.Depth,
			URL:      resolveURL(base, ic.URL),
		})
	}
	return icons
}

func collectServices(desc *DeviceDescription, dev deviceElem, base *url.URL) {
	for _, svc := range dev.ServiceList.Services {
		desc.Services = append(desc.Services, ServiceDescription{
			ServiceType: strings.TrimSpace(svc.ServiceType),
			ServiceID:   strings.TrimSpace(svc.ServiceID),
			ControlURL:  resolveURL(base, svc.ControlURL),
			EventSubURL: resolveURL(base, svc.EventSubURL),
			SCPDURL:     resolveURL(base, svc.SCPDURL),
		})
	}
	for _, embedded := range dev.DeviceList {
		collectServices(desc, embedded, base)
	}
}

func resolveURL(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(parsed).String()
}

// FetchSCPD retrieves and parses the SCPD document at scpdURL (a
// ServiceDescription.SCPDURL), grounded on FetchDescription's
// fetch-then-parse shape and sharing its pooled http.Client.
func FetchSCPD(ctx context.Context, scpdURL string) (*SCPDDescription, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scpdURL, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "build scpd request", err)
	}

	resp, err := descriptionHTTPClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "fetch scpd", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, apperrors.New(apperrors.KindTransport, fmt.Sprintf("fetch scpd: http %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindTransport, "read scpd", err)
	}

	return ParseSCPD(body)
}

type scpdDoc struct {
	ActionList        scpdActionList        `xml:"actionList"`
	ServiceStateTable scpdServiceStateTable `xml:"serviceStateTable"`
}

type scpdActionList struct {
	Actions []scpdAction `xml:"action"`
}

type scpdAction struct {
	Name      string           `xml:"name"`
	ArgumentList scpdArgumentList `xml:"argumentList"`
}

type scpdArgumentList struct {
	Arguments []scpdArgument `xml:"argument"`
}

type scpdArgument struct {
	Name                 string `xml:"name"`
	Direction            string `xml:"direction"`
	RelatedStateVariable string `xml:"relatedStateVariable"`
}

type scpdServiceStateTable struct {
	StateVariables []scpdStateVariable `xml:"stateVariable"`
}

type scpdStateVariable struct {
	Name     string `xml:"name"`
	DataType string `xml:"dataType"`
}

// ParseSCPD parses an SCPD (Service Control Protocol Description)
// document, extracting its action list and state-variable table (spec
// §4.2: "Given an SCPD XML, extracts: action list ({name,
// arguments:[...]}) and state-variable table ({name, data_type})").
func ParseSCPD(payload []byte) (*SCPDDescription, error) {
	var doc scpdDoc
	if err := xml.NewDecoder(bytes.NewReader(payload)).Decode(&doc); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidResponse, "parse scpd", err)
	}

	scpd := &SCPDDescription{}

	for _, action := range doc.ActionList.Actions {
		parsed := ActionDescription{Name: strings.TrimSpace(action.Name)}
		for _, arg := range action.ArgumentList.Arguments {
			parsed.Arguments = append(parsed.Arguments, ActionArgument{
				Name:                 strings.TrimSpace(arg.Name),
				Direction:            strings.TrimSpace(arg.Direction),
				RelatedStateVariable: strings.TrimSpace(arg.RelatedStateVariable),
			})
		}
		scpd.Actions = append(scpd.Actions, parsed)
	}

	for _, v := range doc.ServiceStateTable.StateVariables {
		scpd.StateVariables = append(scpd.StateVariables, StateVariableDescription{
			Name:     strings.TrimSpace(v.Name),
			DataType: strings.TrimSpace(v.DataType),
		})
	}

	return scpd, nil
}

package upnp

import (
	"bytes"
	"encoding/xml"
	"html"
	"strings"

	"github.com/strefethen/musiccast-hub-go/internal/apperrors"
)

// propertyset is the outer e:propertyset/e:property/LastChange envelope
// every GENA NOTIFY body carries (spec §4.2), same shape as the
// teacher's propertyset/property pair.
type propertyset struct {
	XMLName    xml.Name   `xml:"propertyset"`
	Properties []property `xml:"property"`
}

type property struct {
	LastChange string `xml:"LastChange"`
}

// instanceElem is the generic <InstanceID> wrapper; its children are
// walked token-by-token rather than bound to per-service Go structs,
// since the set of tracked variables is supplied at call time via
// VarTypeTable (spec §4.2's "runtime action table" design note).
type instanceElem struct {
	XMLName xml.Name `xml:"InstanceID"`
	Inner   []byte   `xml:",innerxml"`
}

type eventElem struct {
	XMLName    xml.Name     `xml:"Event"`
	InstanceID instanceElem `xml:"InstanceID"`
}

// DecodeNotify decodes a GENA NOTIFY body's LastChange payload into a
// flat map of variable name -> value, restricted to the variables named
// in vars. RenderingControl's per-channel Volume/Mute keep only the
// Master channel (or an unqualified channel attribute), matching the
// teacher's parseRenderingControlLastChange behavior.
func DecodeNotify(body []byte, vars VarTypeTable) (map[string]string, error) {
	var ps propertyset
	if err := xml.Unmarshal(body, &ps); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidResponse, "parse notify propertyset", err)
	}

	result := make(map[string]string)
	for _, prop := range ps.Properties {
		if prop.LastChange == "" {
			continue
		}
		unescaped := html.UnescapeString(prop.LastChange)
		values, err := decodeLastChange([]byte(unescaped), vars)
		if err != nil {
			continue
		}
		for k, v := range values {
			result[k] = v
		}
	}

	return result, nil
}

func decodeLastChange(xmlContent []byte, vars VarTypeTable) (map[string]string, error) {
	var evt eventElem
	if err := xml.Unmarshal(xmlContent, &evt); err != nil {
		return nil, err
	}

	result := make(map[string]string)

	decoder := xml.NewDecoder(bytes.NewReader(evt.InstanceID.Inner))
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		name := se.Name.Local
		shape, tracked := vars[name]
		if !tracked {
			decoder.Skip()
			continue
		}

		val := attrValue(se, "val")
		switch shape {
		case VarChannelScalar:
			channel := attrValue(se, "channel")
			if channel == "" || strings.EqualFold(channel, "Master") {
				result[name] = val
			}
		default:
			result[name] = val
		}
	}

	return result, nil
}

func attrValue(se xml.StartElement, name string) string {
	for _, attr := range se.Attr {
		if attr.Name.Local == name {
			return attr.Value
		}
	}
	return ""
}

package upnp

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/strefethen/musiccast-hub-go/internal/apperrors"
)

// TrackMetadata is the round-trippable subset of DIDL-Lite this module
// needs: title/artist/album/art plus the one <res> element identifying
// the stream. Grounded on sonos.TrackMetadata, trimmed to the fields
// EncodeDIDL/DecodeDIDL actually exercise.
type TrackMetadata struct {
	ID          string
	Title       string
	Artist      string
	Album       string
	AlbumArtURI string
	StreamURI   string
	MimeType    string
	DurationSec int
	UpnpClass   string
}

// EncodeDIDL renders m as a single-item DIDL-Lite document, grounded on
// the navidrome sonos_cast package's BuildDIDLMetadata: html-escaped
// text nodes, one optional element per non-empty field, and a <res>
// element carrying protocolInfo + duration.
func EncodeDIDL(m TrackMetadata) string {
	var albumArtElem, creatorElem, albumElem string
	if m.AlbumArtURI != "" {
		albumArtElem = fmt.Sprintf("<upnp:albumArtURI>%s</upnp:albumArtURI>\n", html.EscapeString(m.AlbumArtURI))
	}
	if m.Artist != "" {
		creatorElem = fmt.Sprintf("<upnp:artist>%s</upnp:artist>\n", html.EscapeString(m.Artist))
	}
	if m.Album != "" {
		albumElem = fmt.Sprintf("<upnp:album>%s</upnp:album>\n", html.EscapeString(m.Album))
	}

	upnpClass := m.UpnpClass
	if upnpClass == "" {
		upnpClass = "object.item.audioItem.musicTrack"
	}

	var durationAttr string
	if m.DurationSec > 0 {
		durationAttr = fmt.Sprintf(" duration=\"%s\"", EncodeDuration(m.DurationSec))
	}
	protocolInfo := protocolInfoFor(m.MimeType)
	resElem := fmt.Sprintf("<res protocolInfo=\"%s\"%s>%s</res>\n", protocolInfo, durationAttr, html.EscapeString(m.StreamURI))

	return fmt.Sprintf(`<DIDL-Lite xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:upnp="urn:schemas-upnp-org:metadata-1-0/upnp/" xmlns="urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/">
<item id="%s" parentID="0" restricted="true">
<dc:title>%s</dc:title>
%s%s%s%s<upnp:class>%s</upnp:class>
</item>
</DIDL-Lite>`,
		html.EscapeString(m.ID),
		html.EscapeString(m.Title),
		creatorElem,
		albumElem,
		albumArtElem,
		resElem,
		upnpClass)
}

// protocolInfoFor renders the <res> protocolInfo attribute per
// spec.md:97: audio/mp4 gets the DLNA.ORG_PN AAC profile string, other
// non-empty mime types get the plain http-get form, and a null mime
// type yields an empty protocolInfo.
func protocolInfoFor(mimeType string) string {
	switch mimeType {
	case "":
		return ""
	case "audio/mp4":
		return "http-get:*:audio/mp4:DLNA.ORG_PN=AAC_ISO_320"
	default:
		return fmt.Sprintf("http-get:*:%s", mimeType)
	}
}

// didlItem is the streaming-decode accumulator, matching the teacher's
// parseDidlItem state machine.
type didlItem struct {
	id          string
	title       string
	artist      string
	album       string
	albumArtURI string
	streamURI   string
	duration    string
	upnpClass   string
}

// DecodeDIDL parses a DIDL-Lite document into TrackMetadata, mirroring
// sonos.parseDidlItem's single-pass token walk. Returns an error only
// on malformed XML; an empty/NOT_IMPLEMENTED document yields a zero
// TrackMetadata and no error.
func DecodeDIDL(didlXML string) (TrackMetadata, error) {
	trimmed := strings.TrimSpace(didlXML)
	if trimmed == "" || trimmed == "NOT_IMPLEMENTED" {
		return TrackMetadata{}, nil
	}

	decoder := xml.NewDecoder(bytes.NewReader([]byte(didlXML)))
	var current string
	var inItem bool
	item := &didlItem{}

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return TrackMetadata{}, apperrors.Wrap(apperrors.KindInvalidResponse, "parse didl-lite", err)
		}
		switch elem := tok.(type) {
		case xml.StartElement:
			local := elem.Name.Local
			if local == "item" || local == "container" {
				inItem = true
				item.id = attrValue(elem, "id")
				continue
			}
			if local == "res" && inItem {
				item.duration = attrValue(elem, "duration")
				current = "res"
				continue
			}
			if inItem {
				current = local
			}
		case xml.EndElement:
			if !inItem {
				continue
			}
			current = ""
			if elem.Name.Local == "item" || elem.Name.Local == "container" {
				inItem = false
			}
		case xml.CharData:
			if !inItem {
				continue
			}
			value := strings.TrimSpace(string(elem))
			if value == "" {
				continue
			}
			switch current {
			case "title":
				item.title = value
			case "creator", "artist":
				if item.artist == "" {
					item.artist = value
				}
			case "album":
				item.album = value
			case "albumArtURI":
				item.albumArtURI = value
			case "class":
				item.upnpClass = value
			case "res":
				item.streamURI = value
			}
		}
	}

	return TrackMetadata{
		ID:          item.id,
		Title:       item.title,
		Artist:      item.artist,
		Album:       item.album,
		AlbumArtURI: item.albumArtURI,
		StreamURI:   item.streamURI,
		DurationSec: ParseDuration(item.duration),
		UpnpClass:   item.upnpClass,
	}, nil
}

// EncodeDuration renders seconds as unpadded-hours H:MM:SS, matching
// the navidrome encoder's format.
func EncodeDuration(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
}

// ParseDuration parses an H:MM:SS (or HH:MM:SS) string into seconds,
// matching sonos.ParseDuration; malformed input yields 0.
func ParseDuration(duration string) int {
	if duration == "" || duration == "NOT_IMPLEMENTED" {
		return 0
	}
	parts := strings.Split(duration, ":")
	if len(parts) != 3 {
		return 0
	}
	hours := parseNonNegInt(parts[0])
	minutes := parseNonNegInt(parts[1])
	seconds := parseNonNegInt(parts[2])
	return hours*3600 + minutes*60 + seconds
}

func parseNonNegInt(value string) int {
	parsed := 0
	for _, ch := range value {
		if ch < '0' || ch > '9' {
			return 0
		}
		parsed = parsed*10 + int(ch-'0')
	}
	return parsed
}

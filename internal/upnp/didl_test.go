package upnp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeDIDLRoundTrip(t *testing.T) {
	meta := TrackMetadata{
		ID:          "1",
		Title:       "Here Comes the Sun",
		Artist:      "The Beatles",
		Album:       "Abbey Road",
		AlbumArtURI: "http://192.168.1.50/Av/0/art.bmp",
		StreamURI:   "http://192.168.1.50/stream",
		MimeType:    "audio/mpeg",
		DurationSec: 185,
	}

	encoded := EncodeDIDL(meta)
	decoded, err := DecodeDIDL(encoded)
	require.NoError(t, err)

	require.Equal(t, meta.Title, decoded.Title)
	require.Equal(t, meta.Artist, decoded.Artist)
	require.Equal(t, meta.Album, decoded.Album)
	require.Equal(t, meta.AlbumArtURI, decoded.AlbumArtURI)
	require.Equal(t, meta.StreamURI, decoded.StreamURI)
	require.Equal(t, meta.DurationSec, decoded.DurationSec)
}

func TestEncodeDIDLEscapesSpecialCharacters(t *testing.T) {
	meta := TrackMetadata{
		ID:        "2",
		Title:     "Rock & Roll <Live>",
		StreamURI: "http://host/stream?a=1&b=2",
	}
	encoded := EncodeDIDL(meta)
	decoded, err := DecodeDIDL(encoded)
	require.NoError(t, err)
	require.Equal(t, meta.Title, decoded.Title)
	require.Equal(t, meta.StreamURI, decoded.StreamURI)
}

func TestDecodeDIDLEmptyOrNotImplemented(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		decoded, err := DecodeDIDL("")
		require.NoError(t, err)
		require.Equal(t, TrackMetadata{}, decoded)
	})

	t.Run("not implemented sentinel", func(t *testing.T) {
		decoded, err := DecodeDIDL("NOT_IMPLEMENTED")
		require.NoError(t, err)
		require.Equal(t, TrackMetadata{}, decoded)
	})
}

func TestEncodeDIDLProtocolInfoFormat(t *testing.T) {
	t.Run("audio/mp4 gets the DLNA AAC profile string", func(t *testing.T) {
		encoded := EncodeDIDL(TrackMetadata{ID: "1", StreamURI: "http://host/s", MimeType: "audio/mp4"})
		require.Contains(t, encoded, `protocolInfo="http-get:*:audio/mp4:DLNA.ORG_PN=AAC_ISO_320"`)
	})

	t.Run("other mime types use the plain http-get form", func(t *testing.T) {
		encoded := EncodeDIDL(TrackMetadata{ID: "2", StreamURI: "http://host/s", MimeType: "audio/mpeg"})
		require.Contains(t, encoded, `protocolInfo="http-get:*:audio/mpeg"`)
		require.NotContains(t, encoded, "audio/mpeg:*")
	})

	t.Run("null mime type yields an empty protocolInfo", func(t *testing.T) {
		encoded := EncodeDIDL(TrackMetadata{ID: "3", StreamURI: "http://host/s"})
		require.Contains(t, encoded, `protocolInfo=""`)
	})
}

func TestEncodeDIDLUsesUpnpArtistTag(t *testing.T) {
	encoded := EncodeDIDL(TrackMetadata{ID: "4", Artist: "The Beatles"})
	require.True(t, strings.Contains(encoded, "<upnp:artist>The Beatles</upnp:artist>"))
	require.False(t, strings.Contains(encoded, "dc:creator"))
}

func TestDurationCodecRoundTrip(t *testing.T) {
	for seconds := 0; seconds <= 359999; seconds += 4999 {
		encoded := EncodeDuration(seconds)
		require.Equal(t, seconds, ParseDuration(encoded))
	}
}

func TestEncodeDurationFormat(t *testing.T) {
	require.Equal(t, "0:00:00", EncodeDuration(0))
	require.Equal(t, "0:03:05", EncodeDuration(185))
	require.Equal(t, "1:00:01", EncodeDuration(3601))
	require.Equal(t, "99:59:59", EncodeDuration(99*3600+59*60+59))
}

func TestParseDurationMalformed(t *testing.T) {
	require.Equal(t, 0, ParseDuration(""))
	require.Equal(t, 0, ParseDuration("NOT_IMPLEMENTED"))
	require.Equal(t, 0, ParseDuration("garbage"))
	require.Equal(t, 0, ParseDuration("1:2"))
}

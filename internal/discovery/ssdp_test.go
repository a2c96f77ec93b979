package discovery

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseResponseAcceptsMediaRendererST(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\n" +
		"LOCATION: http://192.168.1.10:49154/MediaRenderer/desc.xml\r\n" +
		"ST: urn:schemas-upnp-org:device:MediaRenderer:1\r\n" +
		"USN: uuid:test-udn::urn:schemas-upnp-org:device:MediaRenderer:1\r\n" +
		"CACHE-CONTROL: max-age=1800\r\n\r\n"

	resp, ok := parseResponse(raw)
	require.True(t, ok)
	require.Equal(t, "http://192.168.1.10:49154/MediaRenderer/desc.xml", resp.Location)
	require.Equal(t, "uuid:test-udn::urn:schemas-upnp-org:device:MediaRenderer:1", resp.USN)
}

func TestParseResponseLowercasesAndUnderscoresHeaderKeys(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\n" +
		"LOCATION: http://192.168.1.10:49154/MediaRenderer/desc.xml\r\n" +
		"ST: urn:schemas-upnp-org:device:MediaRenderer:1\r\n" +
		"USN: uuid:test\r\n" +
		"CACHE-CONTROL: max-age=1800\r\n\r\n"

	resp, ok := parseResponse(raw)
	require.True(t, ok)
	require.Contains(t, resp.Headers, "cache_control")
	require.Equal(t, "max-age=1800", resp.Headers["cache_control"])
}

func TestParseResponseRejectsNonMediaRendererST(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\n" +
		"LOCATION: http://192.168.1.10:1400/xml/device_description.xml\r\n" +
		"ST: urn:schemas-upnp-org:device:ZonePlayer:1\r\n" +
		"USN: uuid:test\r\n\r\n"

	_, ok := parseResponse(raw)
	require.False(t, ok)
}

func TestParseResponseIgnoresLoopedBackMSearch(t *testing.T) {
	raw := "M-SEARCH * HTTP/1.1\r\n" +
		"HOST: 239.255.255.250:1900\r\n" +
		"ST: urn:schemas-upnp-org:device:MediaRenderer:1\r\n\r\n"

	_, ok := parseResponse(raw)
	require.False(t, ok)
}

func TestParseResponseAcceptsNotifyWithMediaRendererNT(t *testing.T) {
	raw := "NOTIFY * HTTP/1.1\r\n" +
		"LOCATION: http://192.168.1.11:49154/MediaRenderer/desc.xml\r\n" +
		"NT: urn:schemas-upnp-org:device:MediaRenderer:1\r\n" +
		"USN: uuid:test-2\r\n\r\n"

	resp, ok := parseResponse(raw)
	require.True(t, ok)
	require.Equal(t, "uuid:test-2", resp.USN)
}

func TestParseResponseRejectsByebyeNotify(t *testing.T) {
	raw := "NOTIFY * HTTP/1.1\r\n" +
		"LOCATION: http://192.168.1.11:49154/MediaRenderer/desc.xml\r\n" +
		"NT: urn:schemas-upnp-org:device:MediaRenderer:1\r\n" +
		"NTS: ssdp:byebye\r\n" +
		"USN: uuid:test-2\r\n\r\n"

	_, ok := parseResponse(raw)
	require.False(t, ok)
}

func TestExtractHostParsesHostnameFromLocation(t *testing.T) {
	require.Equal(t, "192.168.1.10", extractHost("http://192.168.1.10:49154/MediaRenderer/desc.xml"))
	require.Equal(t, "", extractHost(""))
	require.Equal(t, "", extractHost("::not a url::"))
}

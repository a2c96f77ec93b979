package upnp

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCallActionBuildsSoapEnvelope(t *testing.T) {
	var gotBody string
	var gotSoapAction string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSoapAction = r.Header.Get("SOAPACTION")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Write([]byte(`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body></s:Body></s:Envelope>`))
	}))
	defer srv.Close()

	client := NewClient(time.Second)
	_, err := client.CallAction(context.Background(), srv.URL+"/ctrl", AVTransportServiceType, "Play", map[string]string{
		"InstanceID": "0",
		"Speed":      "1",
	})
	require.NoError(t, err)
	require.Equal(t, `"`+AVTransportServiceType+`#Play"`, gotSoapAction)
	require.True(t, strings.Contains(gotBody, "<u:Play"))
	require.True(t, strings.Contains(gotBody, "<InstanceID>0</InstanceID>"))
	require.True(t, strings.Contains(gotBody, "<Speed>1</Speed>"))
}

func TestCallActionParsesSoapFault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
<s:Body><s:Fault><detail><UPnPError><errorCode>718</errorCode><errorDescription>Invalid InstanceID</errorDescription></UPnPError></detail></s:Fault></s:Body>
</s:Envelope>`))
	}))
	defer srv.Close()

	client := NewClient(time.Second)
	_, err := client.CallAction(context.Background(), srv.URL+"/ctrl", AVTransportServiceType, "Play", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "718")
}

func TestEscapeXMLEscapesReservedCharacters(t *testing.T) {
	escaped := escapeXML(`<tag>&"'</tag>`)
	require.False(t, strings.Contains(escaped, "<tag>"))
	require.True(t, strings.Contains(escaped, "&lt;tag&gt;"))
}

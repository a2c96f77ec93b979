package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds the process-level configuration for the MusicCast hub.
type Config struct {
	Host string
	Port string

	// SSDPDiscoveryTimeoutMs/Passes/PassIntervalMs bound a single
	// discover() call (spec §4.1). SSDPRescanIntervalMs controls the
	// periodic background rescan separate from the 2s auto-discover.
	SSDPDiscoveryTimeoutMs int
	SSDPDiscoveryPasses    int
	SSDPPassIntervalMs     int
	SSDPRescanIntervalMs   int

	// StaticDeviceIPs is a fallback probe list for devices that don't
	// answer SSDP (e.g. on a segmented VLAN), mirroring the teacher's
	// STATIC_DEVICE_IPS knownIPs fallback.
	StaticDeviceIPs []string
	// StaticDeviceConfigPath optionally points at a YAML file of
	// per-IP operator nicknames (see internal/config/staticdevices.go).
	StaticDeviceConfigPath string

	// YXCTimeoutMs bounds every YXC REST call.
	YXCTimeoutMs int
	// YXCPollIntervalSec is the YXC poll/renewal interval (spec §4.3).
	YXCPollIntervalSec int

	// UPnPCallbackURL is where this process receives UPnP NOTIFY
	// events. Empty disables UPnP eventing (spec §6 Configuration
	// options).
	UPnPCallbackURL string
	// UPnPSubscriptionTimeoutSec is the GENA SUBSCRIBE TIMEOUT we request.
	UPnPSubscriptionTimeoutSec int
	// UPnPSoapTimeoutMs bounds SOAP action invocation and GENA calls.
	UPnPSoapTimeoutMs int

	// UDPEventPort is the unicast YXC event listener port (spec §4.6).
	UDPEventPort int
}

// Load reads configuration from environment variables with defaults,
// in the teacher's envString/envInt/envCSV style.
func Load() (Config, error) {
	return Config{
		Host: envString("HOST", "0.0.0.0"),
		Port: envString("PORT", "9000"),

		SSDPDiscoveryTimeoutMs: envInt("SSDP_DISCOVERY_TIMEOUT_MS", 5000),
		SSDPDiscoveryPasses:    envInt("SSDP_DISCOVERY_PASSES", 1),
		SSDPPassIntervalMs:     envInt("SSDP_PASS_INTERVAL_MS", 2000),
		SSDPRescanIntervalMs:   envInt("SSDP_RESCAN_INTERVAL_MS", 60000),

		StaticDeviceIPs:         envCSV("STATIC_DEVICE_IPS"),
		StaticDeviceConfigPath:  envString("STATIC_DEVICE_CONFIG", ""),

		YXCTimeoutMs:       envInt("YXC_TIMEOUT_MS", 5000),
		YXCPollIntervalSec: envInt("YXC_POLL_INTERVAL_SEC", 180),

		UPnPCallbackURL:            envString("UPNP_CALLBACK_URL", ""),
		UPnPSubscriptionTimeoutSec: envInt("UPNP_SUBSCRIPTION_TIMEOUT_SEC", 300),
		UPnPSoapTimeoutMs:          envInt("UPNP_SOAP_TIMEOUT_MS", 5000),

		UDPEventPort: envInt("YXC_UDP_EVENT_PORT", 41100),
	}, nil
}

func envString(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func envInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func envCSV(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return []string{}
	}
	parts := strings.Split(val, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// StaticDevice is one operator-supplied fallback probe target.
// Nicknames are cosmetic only (used in log lines) -- device identity
// always comes from YXC getDeviceInfo, never from this file.
type StaticDevice struct {
	IP       string `yaml:"ip"`
	Nickname string `yaml:"nickname"`
}

// StaticDevicesFile is the shape of the optional STATIC_DEVICE_CONFIG
// YAML file, generalizing the teacher's STATIC_DEVICE_IPS CSV fallback
// (internal/discovery/service.go's knownIPs) into a richer structure.
type StaticDevicesFile struct {
	Devices []StaticDevice `yaml:"devices"`
}

// LoadStaticDevices reads and parses a STATIC_DEVICE_CONFIG file. An
// empty path returns an empty list without error.
func LoadStaticDevices(path string) ([]StaticDevice, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read static device config: %w", err)
	}
	var parsed StaticDevicesFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse static device config: %w", err)
	}
	return parsed.Devices, nil
}

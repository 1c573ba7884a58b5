package model

import "time"

// Interface labels carried by raw reachability signals.
const (
	SignalInterfaceWiFi      = "wifi"
	SignalInterfaceCellular  = "cellular"
	SignalInterfaceEthernet  = "ethernet"
	SignalInterfaceWired     = "wired"
	SignalInterfaceBluetooth = "bluetooth"
	SignalInterfaceVPN       = "vpn"
	SignalInterfaceOther     = "other"
	SignalInterfaceLoopback  = "loopback"
)

// Signal is a raw reachability notification as delivered by a platform
// adapter. It is not validated; classification tolerates any content.
type Signal struct {
	Reachable          bool      `json:"reachable"`
	ConnectionRequired bool      `json:"connectionRequired,omitempty"`
	Interface          string    `json:"interface"`
	Expensive          bool      `json:"expensive,omitempty"`
	RadioTechnology    string    `json:"radioTechnology,omitempty"`
	CellularGeneration string    `json:"cellularGeneration,omitempty"`
	Source             string    `json:"source,omitempty"`
	ObservedAt         time.Time `json:"observedAt,omitempty"`
}

// Identifiers are the Wi-Fi network identifiers reported by the platform.
type Identifiers struct {
	SSID  string
	BSSID string
}

// Options are host-controlled switches consulted during projection.
type Options struct {
	ShouldFetchWiFiSSID bool `json:"shouldFetchWiFiSSID"`
}

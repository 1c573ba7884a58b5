package model

import "strings"

// ConnectionType is the class of the dominant reachable network interface.
type ConnectionType string

const (
	ConnectionTypeNone      ConnectionType = "none"
	ConnectionTypeWiFi      ConnectionType = "wifi"
	ConnectionTypeCellular  ConnectionType = "cellular"
	ConnectionTypeEthernet  ConnectionType = "ethernet"
	ConnectionTypeBluetooth ConnectionType = "bluetooth"
	ConnectionTypeVPN       ConnectionType = "vpn"
	ConnectionTypeOther     ConnectionType = "other"
	ConnectionTypeUnknown   ConnectionType = "unknown"
)

// ParseConnectionType resolves a host-supplied interface label.
func ParseConnectionType(raw string) (ConnectionType, bool) {
	switch ConnectionType(strings.ToLower(strings.TrimSpace(raw))) {
	case ConnectionTypeNone:
		return ConnectionTypeNone, true
	case ConnectionTypeWiFi:
		return ConnectionTypeWiFi, true
	case ConnectionTypeCellular:
		return ConnectionTypeCellular, true
	case ConnectionTypeEthernet:
		return ConnectionTypeEthernet, true
	case ConnectionTypeBluetooth:
		return ConnectionTypeBluetooth, true
	case ConnectionTypeVPN:
		return ConnectionTypeVPN, true
	case ConnectionTypeOther:
		return ConnectionTypeOther, true
	case ConnectionTypeUnknown:
		return ConnectionTypeUnknown, true
	default:
		return ConnectionTypeUnknown, false
	}
}

// CellularGeneration is the radio generation of a cellular path. The empty
// value means the generation is not applicable.
type CellularGeneration string

const (
	CellularGeneration2G      CellularGeneration = "2g"
	CellularGeneration3G      CellularGeneration = "3g"
	CellularGeneration4G      CellularGeneration = "4g"
	CellularGeneration5G      CellularGeneration = "5g"
	CellularGenerationUnknown CellularGeneration = "unknown"
)

// ConnectionState is an immutable snapshot of the classified connection.
// Values are comparable with ==.
type ConnectionState struct {
	Type               ConnectionType     `json:"type"`
	Connected          bool               `json:"connected"`
	Expensive          bool               `json:"expensive"`
	CellularGeneration CellularGeneration `json:"cellularGeneration,omitempty"`
}

// UnknownState is the state reported before any signal has been classified.
func UnknownState() ConnectionState {
	return ConnectionState{Type: ConnectionTypeUnknown}
}

// Normalize drops fields that are meaningless for the state's type and
// connectivity.
func (s ConnectionState) Normalize() ConnectionState {
	if s.Type == "" {
		s.Type = ConnectionTypeUnknown
	}
	if !s.Connected {
		s.Expensive = false
		s.CellularGeneration = ""
		return s
	}
	if s.Type != ConnectionTypeCellular {
		s.CellularGeneration = ""
	} else if s.CellularGeneration == "" {
		s.CellularGeneration = CellularGenerationUnknown
	}
	return s
}

// Equal reports field-wise equality.
func (s ConnectionState) Equal(other ConnectionState) bool {
	return s == other
}

// IsWiFiConnected reports whether the state is a connected Wi-Fi path.
func (s ConnectionState) IsWiFiConnected() bool {
	return s.Type == ConnectionTypeWiFi && s.Connected
}

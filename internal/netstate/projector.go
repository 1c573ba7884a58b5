package netstate

import "github.com/micro-ha/netstate/internal/model"

// InterfaceFacts answers live questions about the interface table.
type InterfaceFacts interface {
	IPv4Address(kind model.ConnectionType) string
	SubnetMask(kind model.ConnectionType) string
	CarrierName() *string
}

// Project maps a connection state to the externally visible record. It has
// no side effects; the same inputs always give an equal result.
func Project(
	state model.ConnectionState,
	override *model.ConnectionType,
	ids IdentifierEntry,
	facts InterfaceFacts,
	fetchSSID bool,
) model.ConnectivityResult {
	if facts == nil {
		facts = zeroFacts{}
	}
	selected := state.Type
	if override != nil {
		selected = *override
	}

	result := model.ConnectivityResult{
		Type:        selected,
		IsConnected: state.Type == selected && state.Connected,
	}

	switch selected {
	case model.ConnectionTypeCellular:
		cellular := &model.CellularDetails{Carrier: facts.CarrierName()}
		if state.Type == model.ConnectionTypeCellular && state.CellularGeneration != "" {
			generation := state.CellularGeneration
			cellular.Generation = &generation
		}
		result.Details.Cellular = cellular
	case model.ConnectionTypeWiFi, model.ConnectionTypeEthernet:
		result.Details.Network = &model.NetworkDetails{
			IPAddress: facts.IPv4Address(selected),
			Subnet:    facts.SubnetMask(selected),
		}
		if selected == model.ConnectionTypeWiFi && fetchSSID {
			result.Details.WiFi = &model.WiFiDetails{
				SSID:  copyString(ids.SSID),
				BSSID: copyString(ids.BSSID),
			}
		}
	}

	if result.IsConnected {
		expensive := state.Expensive
		result.Details.IsConnectionExpensive = &expensive
	}
	return result
}

type zeroFacts struct{}

func (zeroFacts) IPv4Address(model.ConnectionType) string { return model.DefaultAddress }
func (zeroFacts) SubnetMask(model.ConnectionType) string { return model.DefaultAddress }
func (zeroFacts) CarrierName() *string { return nil }

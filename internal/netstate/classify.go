package netstate

import (
	"strings"

	"github.com/micro-ha/netstate/internal/model"
)

var radioGenerations = map[string]model.CellularGeneration{
	"gprs":         model.CellularGeneration2G,
	"edge":         model.CellularGeneration2G,
	"cdma1x":       model.CellularGeneration2G,
	"gsm":          model.CellularGeneration2G,
	"wcdma":        model.CellularGeneration3G,
	"umts":         model.CellularGeneration3G,
	"hsdpa":        model.CellularGeneration3G,
	"hsupa":        model.CellularGeneration3G,
	"hspa":         model.CellularGeneration3G,
	"cdmaevdorev0": model.CellularGeneration3G,
	"cdmaevdoreva": model.CellularGeneration3G,
	"cdmaevdorevb": model.CellularGeneration3G,
	"ehrpd":        model.CellularGeneration3G,
	"lte":          model.CellularGeneration4G,
	"nr":           model.CellularGeneration5G,
	"nrnsa":        model.CellularGeneration5G,
	"5gnr":         model.CellularGeneration5G,
}

// GenerationForRadio maps a radio access technology name to a generation.
// Platform prefixes such as "CTRadioAccessTechnology" are ignored.
func GenerationForRadio(tech string) model.CellularGeneration {
	normalized := strings.ToLower(strings.TrimSpace(tech))
	normalized = strings.TrimPrefix(normalized, "ctradioaccesstechnology")
	normalized = strings.NewReplacer("-", "", "_", "", " ", "").Replace(normalized)
	if generation, ok := radioGenerations[normalized]; ok {
		return generation
	}
	return model.CellularGenerationUnknown
}

func parseGeneration(raw string) (model.CellularGeneration, bool) {
	switch model.CellularGeneration(strings.ToLower(strings.TrimSpace(raw))) {
	case model.CellularGeneration2G:
		return model.CellularGeneration2G, true
	case model.CellularGeneration3G:
		return model.CellularGeneration3G, true
	case model.CellularGeneration4G:
		return model.CellularGeneration4G, true
	case model.CellularGeneration5G:
		return model.CellularGeneration5G, true
	default:
		return "", false
	}
}

func interfaceType(label string) (model.ConnectionType, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case model.SignalInterfaceWiFi:
		return model.ConnectionTypeWiFi, true
	case model.SignalInterfaceCellular:
		return model.ConnectionTypeCellular, true
	case model.SignalInterfaceEthernet, model.SignalInterfaceWired:
		return model.ConnectionTypeEthernet, true
	case model.SignalInterfaceBluetooth:
		return model.ConnectionTypeBluetooth, true
	case model.SignalInterfaceVPN:
		return model.ConnectionTypeVPN, true
	case model.SignalInterfaceOther:
		return model.ConnectionTypeOther, true
	case model.SignalInterfaceLoopback:
		return model.ConnectionTypeNone, true
	default:
		return model.ConnectionTypeUnknown, false
	}
}

// Classify reduces a raw signal to a connection state. It never fails:
// signals it cannot interpret yield the unknown, disconnected state.
func Classify(sig model.Signal) model.ConnectionState {
	kind, ok := interfaceType(sig.Interface)
	if strings.TrimSpace(sig.Interface) != "" && !ok {
		return model.UnknownState()
	}
	if !sig.Reachable || sig.ConnectionRequired {
		return model.ConnectionState{Type: model.ConnectionTypeNone}
	}
	if !ok {
		return model.UnknownState()
	}
	if kind == model.ConnectionTypeNone {
		return model.ConnectionState{Type: model.ConnectionTypeNone}
	}

	state := model.ConnectionState{
		Type:      kind,
		Connected: true,
		Expensive: sig.Expensive,
	}
	if kind == model.ConnectionTypeCellular {
		if generation, ok := parseGeneration(sig.CellularGeneration); ok {
			state.CellularGeneration = generation
		} else {
			state.CellularGeneration = GenerationForRadio(sig.RadioTechnology)
		}
	}
	return state.Normalize()
}

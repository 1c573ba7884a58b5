package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// DefaultAddress is reported when no address is known for an interface.
const DefaultAddress = "0.0.0.0"

// ConnectivityResult is the externally visible connectivity record. It is
// constructed once per request or notification and never mutated.
type ConnectivityResult struct {
	Type        ConnectionType `json:"type"`
	IsConnected bool           `json:"isConnected"`
	Details     Details        `json:"details"`
}

// Details holds type-specific facts. Nil blocks are not part of the record;
// nil values inside a present block are encoded as explicit nulls.
type Details struct {
	Network               *NetworkDetails
	WiFi                  *WiFiDetails
	Cellular              *CellularDetails
	IsConnectionExpensive *bool
}

// NetworkDetails applies to Wi-Fi and Ethernet.
type NetworkDetails struct {
	IPAddress string
	Subnet    string
}

// WiFiDetails carries best-known identifiers of the current Wi-Fi network.
type WiFiDetails struct {
	SSID  *string
	BSSID *string
}

// CellularDetails applies to cellular.
type CellularDetails struct {
	Generation *CellularGeneration
	Carrier    *string
}

type detailField struct {
	key   string
	value any
}

func (d Details) fields() []detailField {
	out := make([]detailField, 0, 7)
	if d.Cellular != nil {
		out = append(out,
			detailField{key: "cellularGeneration", value: d.Cellular.Generation},
			detailField{key: "carrier", value: d.Cellular.Carrier},
		)
	}
	if d.Network != nil {
		out = append(out,
			detailField{key: "ipAddress", value: d.Network.IPAddress},
			detailField{key: "subnet", value: d.Network.Subnet},
		)
	}
	if d.WiFi != nil {
		out = append(out,
			detailField{key: "ssid", value: d.WiFi.SSID},
			detailField{key: "bssid", value: d.WiFi.BSSID},
		)
	}
	if d.IsConnectionExpensive != nil {
		out = append(out, detailField{key: "isConnectionExpensive", value: *d.IsConnectionExpensive})
	}
	return out
}

// MarshalJSON writes present keys in a fixed order so equal details always
// encode to identical bytes.
func (d Details) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range d.fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field.key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(field.value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores blocks from the flat encoding. A block is present
// when any of its keys is.
func (d *Details) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out Details
	decode := func(key string, dst any) (bool, error) {
		value, ok := raw[key]
		if !ok {
			return false, nil
		}
		return true, json.Unmarshal(value, dst)
	}

	var cellular CellularDetails
	hasGen, err := decode("cellularGeneration", &cellular.Generation)
	if err != nil {
		return err
	}
	hasCarrier, err := decode("carrier", &cellular.Carrier)
	if err != nil {
		return err
	}
	if hasGen || hasCarrier {
		out.Cellular = &cellular
	}

	var network NetworkDetails
	hasIP, err := decode("ipAddress", &network.IPAddress)
	if err != nil {
		return err
	}
	hasSubnet, err := decode("subnet", &network.Subnet)
	if err != nil {
		return err
	}
	if hasIP || hasSubnet {
		out.Network = &network
	}

	var wifi WiFiDetails
	hasSSID, err := decode("ssid", &wifi.SSID)
	if err != nil {
		return err
	}
	hasBSSID, err := decode("bssid", &wifi.BSSID)
	if err != nil {
		return err
	}
	if hasSSID || hasBSSID {
		out.WiFi = &wifi
	}

	var expensive bool
	hasExpensive, err := decode("isConnectionExpensive", &expensive)
	if err != nil {
		return err
	}
	if hasExpensive {
		out.IsConnectionExpensive = &expensive
	}

	*d = out
	return nil
}

// Transition is one notification as recorded by the journal.
type Transition struct {
	ID         string             `json:"id"`
	RecordedAt time.Time          `json:"recorded_at"`
	Delivered  bool               `json:"delivered"`
	Result     ConnectivityResult `json:"result"`
}

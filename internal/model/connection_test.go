package model

import (
	"encoding/json"
	"testing"
)

func TestParseConnectionType(t *testing.T) {
	t.Helper()

	tests := []struct {
		raw    string
		want   ConnectionType
		wantOK bool
	}{
		{raw: "wifi", want: ConnectionTypeWiFi, wantOK: true},
		{raw: " Cellular ", want: ConnectionTypeCellular, wantOK: true},
		{raw: "ETHERNET", want: ConnectionTypeEthernet, wantOK: true},
		{raw: "none", want: ConnectionTypeNone, wantOK: true},
		{raw: "wimax", want: ConnectionTypeUnknown, wantOK: false},
		{raw: "", want: ConnectionTypeUnknown, wantOK: false},
	}

	for _, tt := range tests {
		got, ok := ParseConnectionType(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Fatalf("ParseConnectionType(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestConnectionStateNormalize(t *testing.T) {
	t.Helper()

	tests := []struct {
		name string
		in   ConnectionState
		want ConnectionState
	}{
		{
			name: "disconnected drops expensive and generation",
			in:   ConnectionState{Type: ConnectionTypeCellular, Expensive: true, CellularGeneration: CellularGeneration4G},
			want: ConnectionState{Type: ConnectionTypeCellular},
		},
		{
			name: "generation only kept for cellular",
			in:   ConnectionState{Type: ConnectionTypeWiFi, Connected: true, CellularGeneration: CellularGeneration5G},
			want: ConnectionState{Type: ConnectionTypeWiFi, Connected: true},
		},
		{
			name: "connected cellular without generation becomes unknown generation",
			in:   ConnectionState{Type: ConnectionTypeCellular, Connected: true},
			want: ConnectionState{Type: ConnectionTypeCellular, Connected: true, CellularGeneration: CellularGenerationUnknown},
		},
		{
			name: "empty type is unknown",
			in:   ConnectionState{},
			want: UnknownState(),
		},
	}

	for _, tt := range tests {
		if got := tt.in.Normalize(); !got.Equal(tt.want) {
			t.Fatalf("%s: Normalize() = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestDetailsMarshalJSONWritesExplicitNulls(t *testing.T) {
	t.Helper()

	expensive := false
	result := ConnectivityResult{
		Type:        ConnectionTypeWiFi,
		IsConnected: true,
		Details: Details{
			Network:               &NetworkDetails{IPAddress: "192.168.1.20", Subnet: "255.255.255.0"},
			WiFi:                  &WiFiDetails{},
			IsConnectionExpensive: &expensive,
		},
	}

	body, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	want := `{"type":"wifi","isConnected":true,"details":{"ipAddress":"192.168.1.20","subnet":"255.255.255.0","ssid":null,"bssid":null,"isConnectionExpensive":false}}`
	if string(body) != want {
		t.Fatalf("Marshal() = %s, want %s", body, want)
	}
}

func TestDetailsMarshalJSONEmpty(t *testing.T) {
	t.Helper()

	body, err := json.Marshal(ConnectivityResult{Type: ConnectionTypeBluetooth})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	want := `{"type":"bluetooth","isConnected":false,"details":{}}`
	if string(body) != want {
		t.Fatalf("Marshal() = %s, want %s", body, want)
	}
}

func TestDetailsUnmarshalRestoresBlocks(t *testing.T) {
	var details Details
	if err := json.Unmarshal([]byte(`{"ipAddress":"10.0.0.2","subnet":"255.255.255.0","ssid":null,"bssid":"aa:bb","isConnectionExpensive":false}`), &details); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if details.Cellular != nil {
		t.Fatalf("cellular block = %+v, want nil", details.Cellular)
	}
	if details.Network == nil || details.Network.IPAddress != "10.0.0.2" {
		t.Fatalf("network block = %+v", details.Network)
	}
	if details.WiFi == nil || details.WiFi.SSID != nil || details.WiFi.BSSID == nil || *details.WiFi.BSSID != "aa:bb" {
		t.Fatalf("wifi block = %+v", details.WiFi)
	}
	if details.IsConnectionExpensive == nil || *details.IsConnectionExpensive {
		t.Fatal("isConnectionExpensive not restored as false")
	}
}

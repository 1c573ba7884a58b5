package netfacts

import (
	"context"
	"errors"
	"testing"
)

const mmcliOutput = `modem.generic.state                    : connected
modem.3gpp.imei                         : 351234567890123
modem.3gpp.operator-code                : 24001
modem.3gpp.operator-name                : Telia
modem.3gpp.registration-state           : home
`

func foundBinary(string) (string, error) { return "/usr/bin/mmcli", nil }

func TestModemCarrierReadsOperatorName(t *testing.T) {
	var gotArgs []string
	modem := NewModemCarrier(nil,
		WithModemLookPath(foundBinary),
		WithModemRunner(func(ctx context.Context, name string, args ...string) ([]byte, error) {
			gotArgs = append([]string{name}, args...)
			return []byte(mmcliOutput), nil
		}),
	)

	name, err := modem.OperatorName(context.Background())
	if err != nil {
		t.Fatalf("OperatorName() error: %v", err)
	}
	if name != "Telia" {
		t.Fatalf("OperatorName() = %q, want Telia", name)
	}
	if len(gotArgs) != 4 || gotArgs[0] != "mmcli" || gotArgs[2] != "any" {
		t.Fatalf("unexpected command %v", gotArgs)
	}
}

func TestModemCarrierUnregisteredModem(t *testing.T) {
	modem := NewModemCarrier(nil,
		WithModemLookPath(foundBinary),
		WithModemRunner(func(context.Context, string, ...string) ([]byte, error) {
			return []byte("modem.3gpp.operator-name : --\n"), nil
		}),
	)
	name, err := modem.OperatorName(context.Background())
	if err != nil || name != "" {
		t.Fatalf("OperatorName() = %q, %v, want empty", name, err)
	}
}

func TestModemCarrierWithoutMmcli(t *testing.T) {
	modem := NewModemCarrier(nil, WithModemLookPath(func(string) (string, error) {
		return "", errors.New("not found")
	}))
	if _, err := modem.OperatorName(context.Background()); !errors.Is(err, ErrNoModem) {
		t.Fatalf("OperatorName() error = %v, want ErrNoModem", err)
	}
}

func TestCarrierNamePrefersLiveLookup(t *testing.T) {
	live := ""
	facts := New(DefaultPatterns(),
		WithCarrier("Configured"),
		WithCarrierLookup(func(context.Context) (string, error) { return live, nil }, 0),
	)

	if got := facts.CarrierName(); got == nil || *got != "Configured" {
		t.Fatalf("CarrierName() with empty lookup = %v, want Configured", got)
	}
	live = "Telia"
	if got := facts.CarrierName(); got == nil || *got != "Telia" {
		t.Fatalf("CarrierName() = %v, want Telia", got)
	}
}

func TestCarrierNameFallsBackOnLookupError(t *testing.T) {
	facts := New(DefaultPatterns(), WithCarrierLookup(func(context.Context) (string, error) {
		return "", ErrNoModem
	}, 0))
	if got := facts.CarrierName(); got != nil {
		t.Fatalf("CarrierName() = %q, want nil", *got)
	}
}

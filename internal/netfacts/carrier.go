package netfacts

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const (
	mmcli                 = "mmcli"
	operatorNameKey       = "modem.3gpp.operator-name"
	defaultCarrierTimeout = 2 * time.Second
)

// ErrNoModem indicates no modem manager is available to ask.
var ErrNoModem = errors.New("no modem manager available")

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ModemCarrier reads the registered operator name from ModemManager.
type ModemCarrier struct {
	run    Runner
	lookup func(string) (string, error)
	logger *slog.Logger

	once      sync.Once
	available bool
}

type ModemOption func(*ModemCarrier)

// WithModemRunner replaces command execution.
func WithModemRunner(run Runner) ModemOption {
	return func(m *ModemCarrier) {
		m.run = run
	}
}

// WithModemLookPath replaces the binary lookup.
func WithModemLookPath(lookup func(string) (string, error)) ModemOption {
	return func(m *ModemCarrier) {
		m.lookup = lookup
	}
}

func NewModemCarrier(logger *slog.Logger, opts ...ModemOption) *ModemCarrier {
	if logger == nil {
		logger = slog.Default()
	}
	m := &ModemCarrier{
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
		lookup: exec.LookPath,
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Available reports whether mmcli is installed. The lookup happens once.
func (m *ModemCarrier) Available() bool {
	m.once.Do(func() {
		_, err := m.lookup(mmcli)
		m.available = err == nil
		if !m.available {
			m.logger.Info("carrier lookup unavailable", "binary", mmcli)
		}
	})
	return m.available
}

// OperatorName returns the operator of the first modem, or "" when the modem
// is not registered.
func (m *ModemCarrier) OperatorName(ctx context.Context) (string, error) {
	if !m.Available() {
		return "", ErrNoModem
	}
	out, err := m.run(ctx, mmcli, "-m", "any", "--output-keyvalue")
	if err != nil {
		return "", err
	}
	return parseOperatorName(out), nil
}

func parseOperatorName(out []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok || strings.TrimSpace(key) != operatorNameKey {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "--" {
			return ""
		}
		return value
	}
	return ""
}

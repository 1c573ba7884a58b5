// Package wifi reads the identifiers of the currently associated Wi-Fi network.
package wifi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"github.com/micro-ha/netstate/internal/model"
)

const iwgetid = "iwgetid"

// ErrUnsupported indicates the host has no way to read Wi-Fi identifiers.
var ErrUnsupported = errors.New("wifi identifiers unsupported on this host")

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// CommandProvider reads SSID and BSSID through iwgetid.
type CommandProvider struct {
	run    Runner
	lookup func(string) (string, error)
	logger *slog.Logger

	once      sync.Once
	supported bool
}

type Option func(*CommandProvider)

// WithRunner replaces command execution.
func WithRunner(run Runner) Option {
	return func(p *CommandProvider) {
		p.run = run
	}
}

// WithLookPath replaces the binary lookup used by Supported.
func WithLookPath(lookup func(string) (string, error)) Option {
	return func(p *CommandProvider) {
		p.lookup = lookup
	}
}

func NewCommandProvider(logger *slog.Logger, opts ...Option) *CommandProvider {
	if logger == nil {
		logger = slog.Default()
	}
	p := &CommandProvider{
		run:    execRunner,
		lookup: exec.LookPath,
		logger: logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Supported reports whether iwgetid is available. The lookup happens once.
func (p *CommandProvider) Supported() bool {
	p.once.Do(func() {
		_, err := p.lookup(iwgetid)
		p.supported = err == nil
		if !p.supported {
			p.logger.Info("wifi identifier lookup unavailable", "binary", iwgetid)
		}
	})
	return p.supported
}

// FetchCurrentIdentifiers returns the raw SSID and BSSID. Empty strings mean
// the value is unknown.
func (p *CommandProvider) FetchCurrentIdentifiers(ctx context.Context) (model.Identifiers, error) {
	if !p.Supported() {
		return model.Identifiers{}, ErrUnsupported
	}
	ssid, err := p.run(ctx, iwgetid, "-r")
	if err != nil {
		return model.Identifiers{}, fmt.Errorf("read ssid: %w", err)
	}
	ids := model.Identifiers{SSID: strings.TrimSpace(string(ssid))}

	bssid, err := p.run(ctx, iwgetid, "-a", "-r")
	if err != nil {
		p.logger.Debug("bssid lookup failed", "err", err)
		return ids, nil
	}
	ids.BSSID = normalizeBSSID(string(bssid))
	return ids, nil
}

func normalizeBSSID(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "00:00:00:00:00:00" {
		return ""
	}
	return value
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

package reachability

import (
	"context"
	"log/slog"
	"time"

	"github.com/micro-ha/netstate/internal/model"
	"github.com/micro-ha/netstate/internal/netfacts"
	"github.com/micro-ha/netstate/internal/pkg/utils"
)

const defaultPollInterval = 5 * time.Second

// InterfaceTable is the part of netfacts.Facts the poller needs.
type InterfaceTable interface {
	Interfaces() []netfacts.Interface
	Classify(name string) model.ConnectionType
}

// Preference order when several interface classes carry an address.
var dominance = []model.ConnectionType{
	model.ConnectionTypeEthernet,
	model.ConnectionTypeWiFi,
	model.ConnectionTypeCellular,
	model.ConnectionTypeBluetooth,
	model.ConnectionTypeVPN,
	model.ConnectionTypeOther,
}

var signalLabels = map[model.ConnectionType]string{
	model.ConnectionTypeEthernet:  model.SignalInterfaceEthernet,
	model.ConnectionTypeWiFi:      model.SignalInterfaceWiFi,
	model.ConnectionTypeCellular:  model.SignalInterfaceCellular,
	model.ConnectionTypeBluetooth: model.SignalInterfaceBluetooth,
	model.ConnectionTypeVPN:       model.SignalInterfaceVPN,
	model.ConnectionTypeOther:     model.SignalInterfaceOther,
}

// InterfacePoller samples the OS interface table on an interval and on
// demand. It emits every sample; deduplication is the watcher's job.
type InterfacePoller struct {
	dispatcher

	table     InterfaceTable
	interval  time.Duration
	refreshCh chan struct{}
	logger    *slog.Logger
}

func NewInterfacePoller(table InterfaceTable, interval time.Duration, logger *slog.Logger) *InterfacePoller {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &InterfacePoller{table: table, interval: interval, refreshCh: make(chan struct{}, 1), logger: logger}
}

// TriggerRefresh requests an immediate sample. Requests coalesce.
func (p *InterfacePoller) TriggerRefresh() {
	select {
	case p.refreshCh <- struct{}{}:
	default:
	}
}

// Run samples until ctx is done. The first sample is taken immediately.
func (p *InterfacePoller) Run(ctx context.Context) {
	p.emit()
	for {
		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-p.refreshCh:
			timer.Stop()
		case <-timer.C:
		}
		p.emit()
	}
}

func (p *InterfacePoller) emit() {
	sig := p.Sample()
	if !p.dispatch(sig) {
		p.logger.Debug("interface sample dropped; no handler registered")
	}
}

// Sample builds a signal from the current interface table.
func (p *InterfacePoller) Sample() model.Signal {
	sig := model.Signal{Source: "interface-poller", ObservedAt: utils.NowUTC()}

	present := map[model.ConnectionType]bool{}
	for _, iface := range p.table.Interfaces() {
		if !iface.Up || iface.Loopback {
			continue
		}
		if netfacts.FirstIPv4(iface.Networks) == nil {
			continue
		}
		present[p.table.Classify(iface.Name)] = true
	}

	for _, kind := range dominance {
		if !present[kind] {
			continue
		}
		sig.Reachable = true
		sig.Interface = signalLabels[kind]
		sig.Expensive = kind == model.ConnectionTypeCellular
		return sig
	}
	return sig
}

// Package metrics exposes Prometheus metrics for the connectivity module.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/micro-ha/netstate/internal/model"
)

var connectionTypes = []model.ConnectionType{
	model.ConnectionTypeNone,
	model.ConnectionTypeWiFi,
	model.ConnectionTypeCellular,
	model.ConnectionTypeEthernet,
	model.ConnectionTypeBluetooth,
	model.ConnectionTypeVPN,
	model.ConnectionTypeOther,
	model.ConnectionTypeUnknown,
}

// Collector bundles the module's Prometheus metrics. A nil *Collector is a
// valid no-op recorder.
type Collector struct {
	gatherer prometheus.Gatherer

	Signals           *prometheus.CounterVec
	Notifications     *prometheus.CounterVec
	IdentifierFetches *prometheus.CounterVec
	JournalDrops      prometheus.Counter
	ActiveType        *prometheus.GaugeVec
	Connected         prometheus.Gauge
}

// NewCollector registers metrics against reg, defaulting to the global
// registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	signals, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netstate_signals_total",
		Help: "Reachability signals classified, labeled by resulting type and whether the state changed.",
	}, []string{"type", "changed"}), "netstate_signals_total")
	if err != nil {
		return nil, err
	}
	notifications, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netstate_notifications_total",
		Help: "Connectivity notifications, labeled by whether they reached the host.",
	}, []string{"delivered"}), "netstate_notifications_total")
	if err != nil {
		return nil, err
	}
	fetches, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netstate_identifier_fetches_total",
		Help: "Completed Wi-Fi identifier fetches, labeled by outcome.",
	}, []string{"outcome"}), "netstate_identifier_fetches_total")
	if err != nil {
		return nil, err
	}
	drops, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netstate_journal_dropped_total",
		Help: "Transitions dropped because the journal queue was full.",
	}), "netstate_journal_dropped_total")
	if err != nil {
		return nil, err
	}
	activeType, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "netstate_connection_type",
		Help: "1 for the currently classified connection type, 0 otherwise.",
	}, []string{"type"}), "netstate_connection_type")
	if err != nil {
		return nil, err
	}
	connected, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "netstate_connected",
		Help: "1 when the current connection is usable.",
	}), "netstate_connected")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:          gatherer,
		Signals:           signals,
		Notifications:     notifications,
		IdentifierFetches: fetches,
		JournalDrops:      drops,
		ActiveType:        activeType,
		Connected:         connected,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (c *Collector) SignalClassified(state model.ConnectionState, changed bool) {
	if c == nil {
		return
	}
	c.Signals.WithLabelValues(string(state.Type), boolLabel(changed)).Inc()
	if !changed {
		return
	}
	for _, kind := range connectionTypes {
		value := 0.0
		if kind == state.Type {
			value = 1
		}
		c.ActiveType.WithLabelValues(string(kind)).Set(value)
	}
	if state.Connected {
		c.Connected.Set(1)
	} else {
		c.Connected.Set(0)
	}
}

func (c *Collector) IdentifierFetch(outcome string) {
	if c == nil {
		return
	}
	c.IdentifierFetches.WithLabelValues(outcome).Inc()
}

func (c *Collector) Notification(delivered bool) {
	if c == nil {
		return
	}
	c.Notifications.WithLabelValues(boolLabel(delivered)).Inc()
}

func (c *Collector) JournalDropped() {
	if c == nil {
		return
	}
	c.JournalDrops.Inc()
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

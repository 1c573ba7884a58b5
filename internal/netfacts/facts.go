package netfacts

import (
	"context"
	"net"
	"path"
	"strings"
	"time"

	"github.com/micro-ha/netstate/internal/model"
)

// Interface is one row of the OS interface table.
type Interface struct {
	Name     string
	Up       bool
	Loopback bool
	Networks []*net.IPNet
}

type pattern struct {
	glob string
	kind model.ConnectionType
}

// Patterns maps interface name globs to connection types. Globs are matched
// in the order given, first match wins.
type Patterns struct {
	WiFi      []string
	Ethernet  []string
	Cellular  []string
	VPN       []string
	Bluetooth []string
}

// DefaultPatterns covers common Linux and BSD interface naming.
func DefaultPatterns() Patterns {
	return Patterns{
		WiFi:      []string{"wlan*", "wlp*", "wlx*", "wl*"},
		Ethernet:  []string{"eth*", "enp*", "eno*", "ens*", "enx*", "en*"},
		Cellular:  []string{"wwan*", "rmnet*", "ccmni*", "pdp_ip*"},
		VPN:       []string{"tun*", "tap*", "wg*", "utun*", "ppp*", "ipsec*"},
		Bluetooth: []string{"bnep*", "bt-pan*"},
	}
}

func (p Patterns) ordered() []pattern {
	out := make([]pattern, 0)
	add := func(kind model.ConnectionType, globs []string) {
		for _, glob := range globs {
			glob = strings.TrimSpace(glob)
			if glob != "" {
				out = append(out, pattern{glob: glob, kind: kind})
			}
		}
	}
	// wl* and the VPN/cellular names must win over the broad en* glob.
	add(model.ConnectionTypeWiFi, p.WiFi)
	add(model.ConnectionTypeCellular, p.Cellular)
	add(model.ConnectionTypeVPN, p.VPN)
	add(model.ConnectionTypeBluetooth, p.Bluetooth)
	add(model.ConnectionTypeEthernet, p.Ethernet)
	return out
}

// Facts answers point-in-time questions about the interface table. Nothing
// is cached; every call scans the table again.
type Facts struct {
	patterns []pattern
	carrier  string
	operator func(ctx context.Context) (string, error)
	timeout  time.Duration
	list     func() ([]Interface, error)
}

// Option customizes Facts.
type Option func(*Facts)

// WithCarrier sets the carrier name reported for cellular paths.
func WithCarrier(name string) Option {
	return func(f *Facts) {
		f.carrier = strings.TrimSpace(name)
	}
}

// WithCarrierLookup queries the carrier on every call. The configured carrier
// is used when the lookup fails or returns nothing.
func WithCarrierLookup(lookup func(ctx context.Context) (string, error), timeout time.Duration) Option {
	return func(f *Facts) {
		f.operator = lookup
		if timeout > 0 {
			f.timeout = timeout
		}
	}
}

// WithLister replaces the OS interface enumeration.
func WithLister(list func() ([]Interface, error)) Option {
	return func(f *Facts) {
		if list != nil {
			f.list = list
		}
	}
}

func New(patterns Patterns, opts ...Option) *Facts {
	f := &Facts{patterns: patterns.ordered(), list: SystemInterfaces, timeout: defaultCarrierTimeout}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Classify returns the connection type implied by an interface name.
func (f *Facts) Classify(name string) model.ConnectionType {
	for _, p := range f.patterns {
		if ok, err := path.Match(p.glob, name); err == nil && ok {
			return p.kind
		}
	}
	return model.ConnectionTypeOther
}

// Interfaces returns the current interface table, or nil when enumeration
// fails.
func (f *Facts) Interfaces() []Interface {
	items, err := f.list()
	if err != nil {
		return nil
	}
	return items
}

// IPv4Address returns the first IPv4 address of the primary adapter of the
// given type, or "0.0.0.0".
func (f *Facts) IPv4Address(kind model.ConnectionType) string {
	network := f.primaryNetwork(kind)
	if network == nil {
		return model.DefaultAddress
	}
	return network.IP.To4().String()
}

// SubnetMask returns the dotted mask that goes with IPv4Address, or "0.0.0.0".
func (f *Facts) SubnetMask(kind model.ConnectionType) string {
	network := f.primaryNetwork(kind)
	if network == nil || len(network.Mask) == 0 {
		return model.DefaultAddress
	}
	mask := network.Mask
	if len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	return net.IP(mask).String()
}

// CarrierName returns the live carrier when a lookup is set, then the
// configured one, or nil when none is known.
func (f *Facts) CarrierName() *string {
	if f.operator != nil {
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		name, err := f.operator(ctx)
		cancel()
		if name = strings.TrimSpace(name); err == nil && name != "" {
			return &name
		}
	}
	if f.carrier == "" {
		return nil
	}
	name := f.carrier
	return &name
}

func (f *Facts) primaryNetwork(kind model.ConnectionType) *net.IPNet {
	for _, iface := range f.Interfaces() {
		if iface.Loopback || f.Classify(iface.Name) != kind {
			continue
		}
		if network := FirstIPv4(iface.Networks); network != nil {
			return network
		}
	}
	return nil
}

// FirstIPv4 returns the first non-loopback IPv4 network in the list.
func FirstIPv4(networks []*net.IPNet) *net.IPNet {
	for _, network := range networks {
		if network == nil {
			continue
		}
		ip := network.IP.To4()
		if ip == nil || ip.IsLoopback() {
			continue
		}
		return network
	}
	return nil
}

// SystemInterfaces reads the interface table from the operating system.
func SystemInterfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	out := make([]Interface, 0, len(ifaces))
	for _, iface := range ifaces {
		item := Interface{
			Name:     iface.Name,
			Up:       iface.Flags&net.FlagUp != 0,
			Loopback: iface.Flags&net.FlagLoopback != 0,
		}
		addrs, err := iface.Addrs()
		if err == nil {
			for _, addr := range addrs {
				if network, ok := addr.(*net.IPNet); ok {
					item.Networks = append(item.Networks, network)
				}
			}
		}
		out = append(out, item)
	}
	return out, nil
}

package netstate

import "github.com/micro-ha/netstate/internal/model"

// Identifier fetch outcomes reported to Metrics.
const (
	FetchOutcomeChanged   = "changed"
	FetchOutcomeUnchanged = "unchanged"
	FetchOutcomeError     = "error"
	FetchOutcomeDiscarded = "discarded"
)

// Metrics observes the reconciliation core. Implementations must be safe for
// concurrent use and must not block.
type Metrics interface {
	SignalClassified(state model.ConnectionState, changed bool)
	IdentifierFetch(outcome string)
}

type noopMetrics struct{}

func (noopMetrics) SignalClassified(model.ConnectionState, bool) {}
func (noopMetrics) IdentifierFetch(string) {}

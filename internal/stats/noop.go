package stats

// Noop discards all metrics.
type Noop struct{}

var _ Collector = Noop{}

// NewNoop returns a collector that records nothing.
func NewNoop() Noop { return Noop{} }

func (Noop) IncCounter(string, int64)         {}
func (Noop) SetGauge(string, int64)           {}
func (Noop) ObserveHistogram(string, float64) {}

// OrNoop returns c, or a Noop when c is nil.
func OrNoop(c Collector) Collector {
	if c == nil {
		return Noop{}
	}
	return c
}

package events

// KindMetricsUpdated identifies per-turn coaching metric updates.
const KindMetricsUpdated Kind = "metrics.updated"

// MetricsUpdated carries the post-exchange coaching metrics. Values are
// last-write-wins; smoothing and animation are presentation concerns.
type MetricsUpdated struct {
	Base

	TrustScore int
	Stage      int
	StageName  string

	EngagementLevel      int
	EngagementTrend      string
	BuyingSignalStrength int
	ReadyToClose         bool
}

// NewMetricsUpdated creates a metrics update event.
func NewMetricsUpdated(metrics MetricsUpdated) MetricsUpdated {
	metrics.Base = NewBase(KindMetricsUpdated)
	return metrics
}

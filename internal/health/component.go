// Package health reduces the pipeline's per-platform signal-quality
// components to a single composite score and classifies it into a
// trust band. Everything in this package is a pure function: scoring
// gates live automation and must never be unavailable, so bad inputs
// are clamped into range instead of rejected.
package health

// Component identifies one signal-quality input maintained by the
// external data pipeline.
type Component string

const (
	ComponentEMQ               Component = "emq"
	ComponentAPIHealth         Component = "api_health"
	ComponentEventLoss         Component = "event_loss"
	ComponentPlatformStability Component = "platform_stability"
	ComponentDataQuality       Component = "data_quality"
)

// Components returns the five component kinds in canonical order.
func Components() []Component {
	return []Component{
		ComponentEMQ,
		ComponentAPIHealth,
		ComponentEventLoss,
		ComponentPlatformStability,
		ComponentDataQuality,
	}
}

// Snapshot holds one evaluation's worth of component scores, each
// nominally in [0,100]. A Snapshot is immutable for the duration of an
// evaluation; the pipeline owns the underlying values.
type Snapshot struct {
	EMQ               float64
	APIHealth         float64
	EventLoss         float64
	PlatformStability float64
	DataQuality       float64
}

// Value returns the score for a single component kind.
func (s Snapshot) Value(c Component) float64 {
	switch c {
	case ComponentEMQ:
		return s.EMQ
	case ComponentAPIHealth:
		return s.APIHealth
	case ComponentEventLoss:
		return s.EventLoss
	case ComponentPlatformStability:
		return s.PlatformStability
	case ComponentDataQuality:
		return s.DataQuality
	}
	return 0
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

package health

import (
	"fmt"
	"math"
)

// WeightSet defines the relative importance of each signal component.
// All weights must sum to 1.0 (±0.001 tolerance). A WeightSet is fixed
// for the lifetime of the process: it is loaded from configuration at
// startup and never mutated.
type WeightSet struct {
	EMQ               float64
	APIHealth         float64
	EventLoss         float64
	PlatformStability float64
	DataQuality       float64
}

// DefaultWeights returns the canonical weight distribution.
func DefaultWeights() WeightSet {
	return WeightSet{
		EMQ:               0.35,
		APIHealth:         0.25,
		EventLoss:         0.20,
		PlatformStability: 0.10,
		DataQuality:       0.10,
	}
}

// Sum returns the total of all weights.
func (w WeightSet) Sum() float64 {
	return w.EMQ + w.APIHealth + w.EventLoss + w.PlatformStability + w.DataQuality
}

// Validate checks that weights sum to 1.0 and none are negative.
func (w WeightSet) Validate() error {
	if math.Abs(w.Sum()-1.0) > 0.001 {
		return fmt.Errorf("weights sum to %.4f, must sum to 1.0", w.Sum())
	}
	for c, v := range w.asMap() {
		if v < 0 {
			return fmt.Errorf("negative weight for %s: %f", c, v)
		}
	}
	return nil
}

// Value returns the weight for a single component kind.
func (w WeightSet) Value(c Component) float64 {
	return w.asMap()[c]
}

func (w WeightSet) asMap() map[Component]float64 {
	return map[Component]float64{
		ComponentEMQ:               w.EMQ,
		ComponentAPIHealth:         w.APIHealth,
		ComponentEventLoss:         w.EventLoss,
		ComponentPlatformStability: w.PlatformStability,
		ComponentDataQuality:       w.DataQuality,
	}
}

// WeightsFromMap builds a WeightSet from a component-name keyed map,
// as parsed from the scoring config file. Unknown component names are
// an error; missing components default to the canonical weight so a
// partial config file stays usable.
func WeightsFromMap(m map[string]float64) (WeightSet, error) {
	w := DefaultWeights()
	for name, v := range m {
		switch Component(name) {
		case ComponentEMQ:
			w.EMQ = v
		case ComponentAPIHealth:
			w.APIHealth = v
		case ComponentEventLoss:
			w.EventLoss = v
		case ComponentPlatformStability:
			w.PlatformStability = v
		case ComponentDataQuality:
			w.DataQuality = v
		default:
			return WeightSet{}, fmt.Errorf("unknown component %q in weights", name)
		}
	}
	if err := w.Validate(); err != nil {
		return WeightSet{}, err
	}
	return w, nil
}

package health

import "math"

// Aggregate combines a component snapshot into a single composite
// score in [0,100]. Out-of-range component values are clamped to the
// nearest bound, not rejected. The weighted sum is rounded half-up so
// the result is stable across reimplementations.
func Aggregate(s Snapshot, w WeightSet) int {
	sum := clamp(s.EMQ)*w.EMQ +
		clamp(s.APIHealth)*w.APIHealth +
		clamp(s.EventLoss)*w.EventLoss +
		clamp(s.PlatformStability)*w.PlatformStability +
		clamp(s.DataQuality)*w.DataQuality

	score := int(math.Floor(sum + 0.5))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

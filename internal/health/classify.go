package health

import "fmt"

// Band is the trust classification of a composite score.
type Band string

const (
	BandPass  Band = "PASS"
	BandHold  Band = "HOLD"
	BandBlock Band = "BLOCK"
)

// Thresholds are the two cut points between trust bands. Scores at or
// above Healthy classify PASS, at or above Degraded classify HOLD,
// everything below classifies BLOCK.
type Thresholds struct {
	Healthy  int
	Degraded int
}

// DefaultThresholds returns the canonical cut points.
func DefaultThresholds() Thresholds {
	return Thresholds{Healthy: 70, Degraded: 40}
}

// Validate checks threshold ordering and range.
func (t Thresholds) Validate() error {
	if t.Healthy < 0 || t.Healthy > 100 || t.Degraded < 0 || t.Degraded > 100 {
		return fmt.Errorf("thresholds out of range: healthy=%d degraded=%d", t.Healthy, t.Degraded)
	}
	if t.Degraded >= t.Healthy {
		return fmt.Errorf("degraded threshold %d must be below healthy threshold %d", t.Degraded, t.Healthy)
	}
	return nil
}

// Classify maps a composite score to a trust band. Stateless: there is
// no hysteresis, so a score oscillating around a threshold will flip
// bands on every evaluation.
func Classify(score int, t Thresholds) Band {
	switch {
	case score >= t.Healthy:
		return BandPass
	case score >= t.Degraded:
		return BandHold
	default:
		return BandBlock
	}
}

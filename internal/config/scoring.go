package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/warden/internal/health"
)

// Scoring is the validated scoring configuration: weights, band
// thresholds, and the budget-at-risk ceiling that splits frozen from
// cuts_only under a BLOCK band. Immutable after load.
type Scoring struct {
	Weights       health.WeightSet
	Thresholds    health.Thresholds
	BudgetCeiling float64
}

// scoringFile is the on-disk YAML shape.
type scoringFile struct {
	Weights    map[string]float64 `yaml:"weights"`
	Thresholds struct {
		Healthy  *int `yaml:"healthy"`
		Degraded *int `yaml:"degraded"`
	} `yaml:"thresholds"`
	BudgetCeiling *float64 `yaml:"budget_ceiling"`
}

// DefaultScoring returns the canonical scoring configuration.
func DefaultScoring() Scoring {
	return Scoring{
		Weights:       health.DefaultWeights(),
		Thresholds:    health.DefaultThresholds(),
		BudgetCeiling: 1000.0,
	}
}

// LoadScoring reads a scoring config file from the given path. An
// empty path or a missing file yields the defaults; a present file is
// validated and any bad value is a startup error, never a silent
// fallback.
func LoadScoring(path string) (Scoring, error) {
	sc := DefaultScoring()
	if path == "" {
		return sc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sc, nil
		}
		return Scoring{}, fmt.Errorf("reading scoring config: %w", err)
	}

	var f scoringFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Scoring{}, fmt.Errorf("parsing scoring config: %w", err)
	}

	if len(f.Weights) > 0 {
		w, err := health.WeightsFromMap(f.Weights)
		if err != nil {
			return Scoring{}, fmt.Errorf("scoring config weights: %w", err)
		}
		sc.Weights = w
	}
	if f.Thresholds.Healthy != nil {
		sc.Thresholds.Healthy = *f.Thresholds.Healthy
	}
	if f.Thresholds.Degraded != nil {
		sc.Thresholds.Degraded = *f.Thresholds.Degraded
	}
	if err := sc.Thresholds.Validate(); err != nil {
		return Scoring{}, fmt.Errorf("scoring config thresholds: %w", err)
	}
	if f.BudgetCeiling != nil {
		if *f.BudgetCeiling < 0 {
			return Scoring{}, fmt.Errorf("scoring config budget_ceiling must not be negative, got %f", *f.BudgetCeiling)
		}
		sc.BudgetCeiling = *f.BudgetCeiling
	}

	return sc, nil
}

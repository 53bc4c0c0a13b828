package health

import "testing"

func TestAggregate_CanonicalExample(t *testing.T) {
	// 0.35*80 + 0.25*90 + 0.20*95 + 0.10*60 + 0.10*70 = 82.5 → 83
	s := Snapshot{
		EMQ:               80,
		APIHealth:         90,
		EventLoss:         95,
		PlatformStability: 60,
		DataQuality:       70,
	}
	got := Aggregate(s, DefaultWeights())
	if got != 83 {
		t.Errorf("Aggregate() = %d, want 83", got)
	}
}

func TestAggregate_Bounds(t *testing.T) {
	tests := []struct {
		name string
		s    Snapshot
		want int
	}{
		{"all zero", Snapshot{}, 0},
		{"all hundred", Snapshot{EMQ: 100, APIHealth: 100, EventLoss: 100, PlatformStability: 100, DataQuality: 100}, 100},
		{"all fifty", Snapshot{EMQ: 50, APIHealth: 50, EventLoss: 50, PlatformStability: 50, DataQuality: 50}, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.s, DefaultWeights())
			if got != tt.want {
				t.Errorf("Aggregate() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAggregate_ClampsOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		s    Snapshot
		want int
	}{
		{"negative clamps to zero", Snapshot{EMQ: -50, APIHealth: -1, EventLoss: -999}, 0},
		{"above 100 clamps to 100", Snapshot{EMQ: 250, APIHealth: 150, EventLoss: 101, PlatformStability: 100, DataQuality: 1000}, 100},
		{"mixed garbage still scores", Snapshot{EMQ: -10, APIHealth: 200, EventLoss: 50, PlatformStability: 50, DataQuality: 50}, 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.s, DefaultWeights())
			if got != tt.want {
				t.Errorf("Aggregate() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAggregate_RoundsHalfUp(t *testing.T) {
	// EMQ 50 at weight 0.35 alone gives 17.5, which must round to 18.
	w := WeightSet{EMQ: 0.35, APIHealth: 0.65}
	got := Aggregate(Snapshot{EMQ: 50}, w)
	if got != 18 {
		t.Errorf("Aggregate() = %d, want 18 (17.5 rounds half-up)", got)
	}
}

func TestAggregate_Monotonic(t *testing.T) {
	base := Snapshot{EMQ: 40, APIHealth: 40, EventLoss: 40, PlatformStability: 40, DataQuality: 40}
	baseScore := Aggregate(base, DefaultWeights())

	bumps := map[string]Snapshot{
		"emq":                {EMQ: 90, APIHealth: 40, EventLoss: 40, PlatformStability: 40, DataQuality: 40},
		"api_health":         {EMQ: 40, APIHealth: 90, EventLoss: 40, PlatformStability: 40, DataQuality: 40},
		"event_loss":         {EMQ: 40, APIHealth: 40, EventLoss: 90, PlatformStability: 40, DataQuality: 40},
		"platform_stability": {EMQ: 40, APIHealth: 40, EventLoss: 40, PlatformStability: 90, DataQuality: 40},
		"data_quality":       {EMQ: 40, APIHealth: 40, EventLoss: 40, PlatformStability: 40, DataQuality: 90},
	}

	for name, s := range bumps {
		t.Run(name, func(t *testing.T) {
			if got := Aggregate(s, DefaultWeights()); got < baseScore {
				t.Errorf("raising %s lowered composite: %d < %d", name, got, baseScore)
			}
		})
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	s := Snapshot{EMQ: 73, APIHealth: 61, EventLoss: 88, PlatformStability: 42, DataQuality: 55}
	first := Aggregate(s, DefaultWeights())
	second := Aggregate(s, DefaultWeights())
	if first != second {
		t.Errorf("Aggregate not deterministic: %d then %d", first, second)
	}
}

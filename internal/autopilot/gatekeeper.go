package autopilot

import (
	"sync"
	"time"

	"github.com/MikeSquared-Agency/warden/internal/health"
)

// Override pins the autopilot mode until explicitly cleared.
type Override struct {
	Mode     Mode      `json:"mode"`
	Reason   string    `json:"reason"`
	Operator string    `json:"operator"`
	SetAt    time.Time `json:"set_at"`
}

// State is a point-in-time snapshot of the gate for one tenant. While
// an override is active the underlying band keeps tracking the live
// classification even though the mode is pinned.
type State struct {
	Mode              Mode        `json:"mode"`
	Band              health.Band `json:"band"`
	Override          *Override   `json:"override,omitempty"`
	BudgetAtRisk      float64     `json:"budget_at_risk"`
	AllowedActions    []Action    `json:"allowed_actions"`
	RestrictedActions []Action    `json:"restricted_actions"`
}

// Gatekeeper is the per-tenant autopilot state machine. The mutex
// serializes automatic evaluation against override mutation so an
// automatic transition can never overwrite a just-issued override.
type Gatekeeper struct {
	ceiling float64 // budget-at-risk above this under BLOCK means frozen

	mu       sync.Mutex
	mode     Mode
	band     health.Band
	budget   float64
	override *Override
}

// New returns a gatekeeper with the given budget-at-risk ceiling. The
// mode starts frozen until the first evaluation: before any signal has
// been seen, nothing runs unattended.
func New(ceiling float64) *Gatekeeper {
	return &Gatekeeper{ceiling: ceiling, mode: ModeFrozen, band: health.BandBlock}
}

// Evaluate recomputes the mode from a fresh trust band and budget
// exposure. It is level-triggered: the same band re-applied yields the
// same mode. While an override is pinned the automatic transition is
// suppressed but band and budget still update. The second return value
// is the mode before this evaluation, so callers can detect and
// announce transitions.
func (g *Gatekeeper) Evaluate(band health.Band, budgetAtRisk float64) (State, Mode) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.band = band
	g.budget = budgetAtRisk

	prev := g.mode
	if g.override == nil {
		g.mode = g.modeFor(band, budgetAtRisk)
	}
	return g.state(), prev
}

// SetOverride pins the mode regardless of the trust band. It fails
// with InvalidModeError for a mode outside the enum, leaving the state
// untouched.
func (g *Gatekeeper) SetOverride(mode Mode, reason, operator string) (State, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return State{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.override = &Override{
		Mode:     mode,
		Reason:   reason,
		Operator: operator,
		SetAt:    time.Now().UTC(),
	}
	g.mode = mode
	return g.state(), nil
}

// ClearOverride removes an active override. Clearing when none is
// active is a no-op, not an error, so callers can clear defensively.
// The mode reverts to the band-derived value immediately.
func (g *Gatekeeper) ClearOverride() State {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.override != nil {
		g.override = nil
		g.mode = g.modeFor(g.band, g.budget)
	}
	return g.state()
}

// State returns the current snapshot without re-evaluating.
func (g *Gatekeeper) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state()
}

// Allowed reports whether an action may run unattended right now.
func (g *Gatekeeper) Allowed(a Action) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return permitted(g.mode, a)
}

func (g *Gatekeeper) modeFor(band health.Band, budgetAtRisk float64) Mode {
	switch band {
	case health.BandPass:
		return ModeNormal
	case health.BandHold:
		return ModeLimited
	default: // BLOCK
		if budgetAtRisk > g.ceiling {
			return ModeFrozen
		}
		return ModeCutsOnly
	}
}

// state builds a snapshot; callers must hold g.mu.
func (g *Gatekeeper) state() State {
	allowed, restricted := Partition(g.mode)
	st := State{
		Mode:              g.mode,
		Band:              g.band,
		BudgetAtRisk:      g.budget,
		AllowedActions:    allowed,
		RestrictedActions: restricted,
	}
	if g.override != nil {
		o := *g.override
		st.Override = &o
	}
	return st
}

// Package engine orchestrates warden's evaluation pipeline: fetch a
// tenant's signal reading, aggregate it, classify it, and drive the
// tenant's autopilot gatekeeper with the result.
package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/warden/internal/autopilot"
	"github.com/MikeSquared-Agency/warden/internal/collector"
	"github.com/MikeSquared-Agency/warden/internal/health"
	"github.com/MikeSquared-Agency/warden/internal/hermes"
)

// Publisher emits swarm events. Satisfied by *hermes.Client.
type Publisher interface {
	Publish(subject string, data any) error
}

// Auditor records operator override activity. Satisfied by *store.Store.
type Auditor interface {
	RecordOverride(ctx context.Context, tenantID, action, mode, reason, operator string) error
}

// TenantLister enumerates the tenants the pipeline tracks signals for.
// Satisfied by *store.Store.
type TenantLister interface {
	Tenants(ctx context.Context) ([]string, error)
}

// HealthReport is the answer to "how trustworthy are this tenant's
// signals right now".
type HealthReport struct {
	TenantID   string                       `json:"tenant_id"`
	Composite  int                          `json:"composite_score"`
	Band       health.Band                  `json:"band"`
	Components map[health.Component]float64 `json:"components"`
	Stale      bool                         `json:"stale"`
	UpdatedAt  time.Time                    `json:"updated_at"`
}

// Engine evaluates tenants on a cadence and on pipeline events, and
// owns the per-tenant gatekeepers. Evaluations for different tenants
// run independently; the gatekeeper serializes evaluation against
// override mutation for the same tenant.
type Engine struct {
	source     collector.Source
	weights    health.WeightSet
	thresholds health.Thresholds
	ceiling    float64
	bus        Publisher
	audit      Auditor
	tenants    TenantLister
	logger     *slog.Logger

	mu    sync.Mutex
	gates map[string]*autopilot.Gatekeeper
}

// Options carries the optional collaborators. A nil bus, audit, or
// tenant lister degrades gracefully: no events, no audit trail, and
// only explicitly requested tenants respectively.
type Options struct {
	Bus     Publisher
	Audit   Auditor
	Tenants TenantLister
}

func New(src collector.Source, weights health.WeightSet, thresholds health.Thresholds, budgetCeiling float64, opts Options, logger *slog.Logger) *Engine {
	return &Engine{
		source:     src,
		weights:    weights,
		thresholds: thresholds,
		ceiling:    budgetCeiling,
		bus:        opts.Bus,
		audit:      opts.Audit,
		tenants:    opts.Tenants,
		logger:     logger,
		gates:      make(map[string]*autopilot.Gatekeeper),
	}
}

// gate returns the tenant's gatekeeper, creating it on first use.
func (e *Engine) gate(tenantID string) *autopilot.Gatekeeper {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, ok := e.gates[tenantID]
	if !ok {
		g = autopilot.New(e.ceiling)
		e.gates[tenantID] = g
	}
	return g
}

// EvaluateTenant runs one full evaluation cycle for a tenant and
// returns the resulting autopilot state. A failed read with no
// fallback evaluates against a zero reading: the gate fails closed
// into BLOCK territory rather than going unavailable.
func (e *Engine) EvaluateTenant(ctx context.Context, tenantID string) (autopilot.State, error) {
	reading, err := e.source.Read(ctx, tenantID)
	if err != nil {
		e.logger.Warn("no signal reading, evaluating conservatively",
			"tenant_id", tenantID,
			"error", err,
		)
		reading = collector.Reading{Stale: true}
	}

	composite := health.Aggregate(reading.Components, e.weights)
	band := health.Classify(composite, e.thresholds)

	st, prev := e.gate(tenantID).Evaluate(band, reading.BudgetAtRisk)
	if st.Mode != prev {
		e.logger.Info("autopilot mode changed",
			"tenant_id", tenantID,
			"from", string(prev),
			"to", string(st.Mode),
			"band", string(band),
			"composite", composite,
			"stale", reading.Stale,
		)
		e.publishModeChange(tenantID, prev, st, composite, reading.Stale)
	}
	return st, nil
}

// GetHealth evaluates the scoring pipeline for display without
// touching the gatekeeper.
func (e *Engine) GetHealth(ctx context.Context, tenantID string) (HealthReport, error) {
	reading, err := e.source.Read(ctx, tenantID)
	if err != nil {
		return HealthReport{}, err
	}

	composite := health.Aggregate(reading.Components, e.weights)
	breakdown := make(map[health.Component]float64, len(health.Components()))
	for _, c := range health.Components() {
		breakdown[c] = reading.Components.Value(c)
	}

	return HealthReport{
		TenantID:   tenantID,
		Composite:  composite,
		Band:       health.Classify(composite, e.thresholds),
		Components: breakdown,
		Stale:      reading.Stale,
		UpdatedAt:  reading.UpdatedAt,
	}, nil
}

// GetAutopilotState returns the current gate snapshot, evaluating
// first if this tenant has never been seen.
func (e *Engine) GetAutopilotState(ctx context.Context, tenantID string) (autopilot.State, error) {
	e.mu.Lock()
	_, seen := e.gates[tenantID]
	e.mu.Unlock()

	if !seen {
		return e.EvaluateTenant(ctx, tenantID)
	}
	return e.gate(tenantID).State(), nil
}

// SetOverride pins a tenant's autopilot mode. The mode string comes
// straight off the wire; anything outside the enum fails with
// autopilot.InvalidModeError and no state change.
func (e *Engine) SetOverride(ctx context.Context, tenantID, mode, reason, operator string) (autopilot.State, error) {
	parsed, err := autopilot.ParseMode(mode)
	if err != nil {
		return autopilot.State{}, err
	}

	st, err := e.gate(tenantID).SetOverride(parsed, reason, operator)
	if err != nil {
		return autopilot.State{}, err
	}

	e.logger.Info("autopilot override set",
		"tenant_id", tenantID,
		"mode", mode,
		"operator", operator,
		"reason", reason,
	)
	e.recordAudit(ctx, tenantID, "set", mode, reason, operator)
	e.publish(hermes.SubjectOverrideSet, hermes.OverrideEvent{
		TenantID: tenantID,
		Mode:     mode,
		Reason:   reason,
		Operator: operator,
		At:       time.Now().UTC().Format(time.RFC3339),
	})
	return st, nil
}

// ClearOverride lifts any pinned mode and immediately re-evaluates so
// the returned state reflects the current trust band. Idempotent.
func (e *Engine) ClearOverride(ctx context.Context, tenantID string) (autopilot.State, error) {
	g := e.gate(tenantID)
	hadOverride := g.State().Override != nil
	g.ClearOverride()

	if hadOverride {
		e.logger.Info("autopilot override cleared", "tenant_id", tenantID)
		e.recordAudit(ctx, tenantID, "cleared", "", "", "")
		e.publish(hermes.SubjectOverrideCleared, hermes.OverrideEvent{
			TenantID: tenantID,
			At:       time.Now().UTC().Format(time.RFC3339),
		})
	}
	return e.EvaluateTenant(ctx, tenantID)
}

// Run re-evaluates every known tenant on the given cadence until the
// context is cancelled.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.evaluateAll(ctx)
		}
	}
}

func (e *Engine) evaluateAll(ctx context.Context) {
	for _, tenantID := range e.knownTenants(ctx) {
		if _, err := e.EvaluateTenant(ctx, tenantID); err != nil {
			e.logger.Error("evaluation failed", "tenant_id", tenantID, "error", err)
		}
	}
}

// knownTenants merges the pipeline's tenant list with any tenant that
// already has a gatekeeper (e.g. one created via the API before the
// pipeline listed it).
func (e *Engine) knownTenants(ctx context.Context) []string {
	seen := make(map[string]bool)
	var out []string

	if e.tenants != nil {
		ids, err := e.tenants.Tenants(ctx)
		if err != nil {
			e.logger.Error("failed to list tenants", "error", err)
		}
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}

	e.mu.Lock()
	for id := range e.gates {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	e.mu.Unlock()
	return out
}

// HandleComponentUpdate is the NATS handler for
// swarm.signals.component.updated: a pipeline refresh triggers an
// out-of-cadence re-evaluation of the affected tenant.
func (e *Engine) HandleComponentUpdate(subject string, data []byte) {
	var evt hermes.ComponentUpdateEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		e.logger.Warn("failed to parse component update", "error", err)
		return
	}
	if evt.TenantID == "" {
		e.logger.Warn("component update without tenant_id")
		return
	}

	if _, err := e.EvaluateTenant(context.Background(), evt.TenantID); err != nil {
		e.logger.Error("event-triggered evaluation failed",
			"tenant_id", evt.TenantID,
			"component", evt.Component,
			"error", err,
		)
	}
}

func (e *Engine) publishModeChange(tenantID string, prev autopilot.Mode, st autopilot.State, composite int, stale bool) {
	e.publish(hermes.SubjectModeChanged, hermes.ModeChangeEvent{
		TenantID:  tenantID,
		From:      string(prev),
		To:        string(st.Mode),
		Band:      string(st.Band),
		Composite: composite,
		Stale:     stale,
		At:        time.Now().UTC().Format(time.RFC3339),
	})
}

func (e *Engine) publish(subject string, evt any) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Publish(subject, evt); err != nil {
		e.logger.Error("failed to publish event", "subject", subject, "error", err)
	}
}

func (e *Engine) recordAudit(ctx context.Context, tenantID, action, mode, reason, operator string) {
	if e.audit == nil {
		return
	}
	if err := e.audit.RecordOverride(ctx, tenantID, action, mode, reason, operator); err != nil {
		e.logger.Error("failed to record override audit", "tenant_id", tenantID, "error", err)
	}
}

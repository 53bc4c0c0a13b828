// Package collector defines the signal source the engine consumes and
// a guard that keeps evaluations alive when the source is slow. The
// component scores themselves are computed and refreshed by the
// external data pipeline; this package only fetches them.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/warden/internal/health"
)

// Reading is one tenant's current signal snapshot plus the budget
// exposure used to pick frozen vs cuts_only under a BLOCK band.
type Reading struct {
	Components   health.Snapshot
	BudgetAtRisk float64
	UpdatedAt    time.Time
	Stale        bool
}

// Source supplies the current reading for a tenant. Implementations
// are expected to block on I/O; callers bound them with a context.
type Source interface {
	Read(ctx context.Context, tenantID string) (Reading, error)
}

// ErrNoReading is returned when a source has failed and no prior
// reading exists to fall back on.
var ErrNoReading = errors.New("no signal reading available")

// Guarded wraps a Source with a per-call timeout and falls back to the
// last reading seen for the tenant when the source fails or times out.
// Staleness is preferred over unavailability: an unavailable score
// would force a conservative freeze and halt automation unnecessarily.
type Guarded struct {
	src     Source
	timeout time.Duration
	logger  *slog.Logger

	mu   sync.Mutex
	last map[string]Reading
}

func NewGuarded(src Source, timeout time.Duration, logger *slog.Logger) *Guarded {
	return &Guarded{
		src:     src,
		timeout: timeout,
		logger:  logger,
		last:    make(map[string]Reading),
	}
}

// Read fetches the current reading, remembering it as last-known-good.
// On failure it returns the previous reading flagged stale; with no
// previous reading it returns ErrNoReading wrapped around the cause.
func (g *Guarded) Read(ctx context.Context, tenantID string) (Reading, error) {
	rctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	r, err := g.src.Read(rctx, tenantID)
	if err != nil {
		g.mu.Lock()
		prev, ok := g.last[tenantID]
		g.mu.Unlock()

		if ok {
			g.logger.Warn("signal source failed, using last known reading",
				"tenant_id", tenantID,
				"age", time.Since(prev.UpdatedAt).String(),
				"error", err,
			)
			prev.Stale = true
			return prev, nil
		}
		return Reading{}, fmt.Errorf("%w for tenant %s: %w", ErrNoReading, tenantID, err)
	}

	g.mu.Lock()
	g.last[tenantID] = r
	g.mu.Unlock()
	return r, nil
}

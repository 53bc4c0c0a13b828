package store

import (
	"context"
	"fmt"

	"github.com/MikeSquared-Agency/warden/internal/collector"
	"github.com/MikeSquared-Agency/warden/internal/health"
)

// Read fetches the latest component scores and budget exposure for a
// tenant from the pipeline's tenant_signals table. Implements
// collector.Source.
func (s *Store) Read(ctx context.Context, tenantID string) (collector.Reading, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT emq, api_health, event_loss, platform_stability, data_quality, budget_at_risk, updated_at
		FROM tenant_signals
		WHERE tenant_id = $1`,
		tenantID,
	)

	var r collector.Reading
	var c health.Snapshot
	err := row.Scan(
		&c.EMQ, &c.APIHealth, &c.EventLoss, &c.PlatformStability, &c.DataQuality,
		&r.BudgetAtRisk, &r.UpdatedAt,
	)
	if err != nil {
		return collector.Reading{}, fmt.Errorf("read signals for tenant %s: %w", tenantID, err)
	}
	r.Components = c
	return r, nil
}

// Tenants lists every tenant the pipeline currently tracks signals for.
func (s *Store) Tenants(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT tenant_id FROM tenant_signals ORDER BY tenant_id`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenants: %w", err)
	}
	return tenants, nil
}

package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// RecordOverride appends one row to the override audit trail. action
// is "set" or "cleared"; mode and reason are empty for clears.
func (s *Store) RecordOverride(ctx context.Context, tenantID, action, mode, reason, operator string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO autopilot_override_audit (id, tenant_id, action, mode, reason, operator, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())`,
		uuid.New(), tenantID, action, mode, reason, operator,
	)
	if err != nil {
		return fmt.Errorf("record override audit: %w", err)
	}
	return nil
}

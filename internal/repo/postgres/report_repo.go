package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReportRepo struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

// Create appends a report for the external moderation pipeline. The engine
// never reads these back; review tooling owns the status lifecycle.
func (r *ReportRepo) Create(ctx context.Context, tx pgx.Tx, reporterUserID, targetUserID int64, reason, details string) error {
	if reporterUserID <= 0 || targetUserID <= 0 || reason == "" {
		return fmt.Errorf("invalid report payload")
	}
	if tx == nil {
		return fmt.Errorf("transaction is required")
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO reports (
	reporter_user_id,
	target_user_id,
	reason,
	details,
	status,
	created_at
) VALUES ($1, $2, $3, $4, 'pending', NOW())
`, reporterUserID, targetUserID, reason, details); err != nil {
		return fmt.Errorf("create report: %w", err)
	}

	return nil
}

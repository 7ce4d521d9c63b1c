package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sparkmatch/backend/internal/domain/enums"
	"github.com/sparkmatch/backend/internal/domain/model"
)

var ErrDuplicateSwipe = errors.New("swipe already recorded for this pair")

const uniqueViolationCode = "23505"

type SwipeRepo struct {
	pool *pgxpool.Pool
}

func NewSwipeRepo(pool *pgxpool.Pool) *SwipeRepo {
	return &SwipeRepo{pool: pool}
}

// Create appends one immutable ledger row. The unique index on
// (actor_user_id, target_user_id) is the write-once guarantee: a second
// swipe on the same ordered pair surfaces as ErrDuplicateSwipe.
func (r *SwipeRepo) Create(ctx context.Context, tx pgx.Tx, actorUserID, targetUserID int64, decision enums.SwipeDecision, now time.Time) (model.Swipe, error) {
	if actorUserID <= 0 || targetUserID <= 0 || decision == "" {
		return model.Swipe{}, fmt.Errorf("invalid swipe payload")
	}
	if tx == nil {
		return model.Swipe{}, fmt.Errorf("transaction is required")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var rec model.Swipe
	err := tx.QueryRow(ctx, `
INSERT INTO swipes (
	actor_user_id,
	target_user_id,
	decision,
	created_at
) VALUES ($1, $2, $3, $4)
RETURNING id, actor_user_id, target_user_id, decision, created_at
`, actorUserID, targetUserID, string(decision), now.UTC()).Scan(
		&rec.ID,
		&rec.ActorUserID,
		&rec.TargetUserID,
		&rec.Decision,
		&rec.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return model.Swipe{}, ErrDuplicateSwipe
		}
		return model.Swipe{}, fmt.Errorf("create swipe: %w", err)
	}

	return rec, nil
}

// HasLike reports whether fromUserID recorded a LIKE on toUserID.
func (r *SwipeRepo) HasLike(ctx context.Context, tx pgx.Tx, fromUserID, toUserID int64) (bool, error) {
	if fromUserID <= 0 || toUserID <= 0 {
		return false, fmt.Errorf("invalid like lookup payload")
	}
	if tx == nil {
		return false, fmt.Errorf("transaction is required")
	}

	var one int
	err := tx.QueryRow(ctx, `
SELECT 1
FROM swipes
WHERE actor_user_id = $1 AND target_user_id = $2 AND decision = $3
LIMIT 1
`, fromUserID, toUserID, string(enums.SwipeDecisionLike)).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup reciprocal like: %w", err)
	}

	return true, nil
}

package swipes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sparkmatch/backend/internal/domain/enums"
	"github.com/sparkmatch/backend/internal/domain/model"
	pgrepo "github.com/sparkmatch/backend/internal/repo/postgres"
	ratesvc "github.com/sparkmatch/backend/internal/services/rate"
)

const rateKindSwipe = "swipes"

var (
	ErrValidation          = errors.New("validation error")
	ErrSelfSwipe           = errors.New("cannot swipe on yourself")
	ErrUnsupportedDecision = errors.New("unsupported decision")
	ErrDuplicateSwipe      = errors.New("swipe already recorded for this pair")
)

type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type SwipeStore interface {
	Create(ctx context.Context, tx pgx.Tx, actorUserID, targetUserID int64, decision enums.SwipeDecision, now time.Time) (model.Swipe, error)
	HasLike(ctx context.Context, tx pgx.Tx, fromUserID, toUserID int64) (bool, error)
}

type MatchStore interface {
	CreateIfAbsent(ctx context.Context, tx pgx.Tx, userID, targetID int64, now time.Time) (bool, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, userID int64, kind string) (int64, bool, error)
}

type Service struct {
	tx          TxRunner
	swipeStore  SwipeStore
	matchStore  MatchStore
	rateLimiter RateLimiter
	now         func() time.Time
}

type Dependencies struct {
	Tx          TxRunner
	SwipeStore  SwipeStore
	MatchStore  MatchStore
	RateLimiter RateLimiter
}

type SwipeResult struct {
	Swipe        model.Swipe
	MatchCreated bool
}

func NewService(deps Dependencies) *Service {
	return &Service{
		tx:          deps.Tx,
		swipeStore:  deps.SwipeStore,
		matchStore:  deps.MatchStore,
		rateLimiter: deps.RateLimiter,
		now:         time.Now,
	}
}

// Swipe appends one ledger row and, on a mutual like, materializes the
// match in the same transaction. The duplicate-pair and already-matched
// races both resolve inside the store layer, so concurrent swipes from
// either side of a pair can never produce a second swipe row or a second
// match row.
func (s *Service) Swipe(ctx context.Context, userID, targetID int64, decision string) (SwipeResult, error) {
	if userID <= 0 || targetID <= 0 {
		return SwipeResult{}, ErrValidation
	}
	if userID == targetID {
		return SwipeResult{}, ErrSelfSwipe
	}

	normalized, err := normalizeDecision(decision)
	if err != nil {
		return SwipeResult{}, err
	}

	if s.tx == nil || s.swipeStore == nil || s.matchStore == nil {
		return SwipeResult{}, fmt.Errorf("swipe dependencies are not configured")
	}

	if s.rateLimiter != nil {
		retryAfter, allowed, err := s.rateLimiter.Allow(ctx, userID, rateKindSwipe)
		if err != nil {
			return SwipeResult{}, fmt.Errorf("apply swipe rate limiter: %w", err)
		}
		if !allowed {
			return SwipeResult{}, ratesvc.TooFastError{RetryAfterSec: retryAfter}
		}
	}

	now := s.now().UTC()

	var result SwipeResult
	if err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		rec, err := s.swipeStore.Create(txCtx, tx, userID, targetID, normalized, now)
		if err != nil {
			if errors.Is(err, pgrepo.ErrDuplicateSwipe) {
				return ErrDuplicateSwipe
			}
			return err
		}
		result.Swipe = rec

		if normalized != enums.SwipeDecisionLike {
			return nil
		}

		reciprocal, err := s.swipeStore.HasLike(txCtx, tx, targetID, userID)
		if err != nil {
			return err
		}
		if !reciprocal {
			return nil
		}

		created, err := s.matchStore.CreateIfAbsent(txCtx, tx, userID, targetID, now)
		if err != nil {
			return err
		}
		result.MatchCreated = created
		return nil
	}); err != nil {
		return SwipeResult{}, err
	}

	return result, nil
}

func normalizeDecision(input string) (enums.SwipeDecision, error) {
	value := strings.ToUpper(strings.TrimSpace(input))
	switch enums.SwipeDecision(value) {
	case enums.SwipeDecisionLike:
		return enums.SwipeDecisionLike, nil
	case enums.SwipeDecisionDislike:
		return enums.SwipeDecisionDislike, nil
	default:
		return "", ErrUnsupportedDecision
	}
}

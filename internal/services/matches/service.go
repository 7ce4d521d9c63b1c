package matches

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
)

var (
	ErrValidation          = errors.New("validation error")
	ErrInvalidReportReason = errors.New("invalid report reason")
)

type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type MatchStore interface {
	ListConversationsForUser(ctx context.Context, userID int64, limit int) ([]pgrepo.ConversationRecord, error)
	DeactivateByUsers(ctx context.Context, tx pgx.Tx, userID, targetID int64) (bool, error)
}

type BlockStore interface {
	Upsert(ctx context.Context, tx pgx.Tx, actorUserID, targetUserID int64, reason string) error
}

type ReportStore interface {
	Create(ctx context.Context, tx pgx.Tx, reporterUserID, targetUserID int64, reason, details string) error
}

type PhotoResolver interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Service struct {
	tx          TxRunner
	matchStore  MatchStore
	blockStore  BlockStore
	reportStore ReportStore
	photos      PhotoResolver
}

type Dependencies struct {
	Tx          TxRunner
	MatchStore  MatchStore
	BlockStore  BlockStore
	ReportStore ReportStore
	Photos      PhotoResolver
}

type MatchItem struct {
	ID           int64
	TargetUserID int64
	DisplayName  string
	Age          int
	Intent       string
	PhotoURL     string
	CreatedAt    time.Time
	HasMessages  bool
	LastMessage  *model.Message
}

func NewService(deps Dependencies) *Service {
	return &Service{
		tx:          deps.Tx,
		matchStore:  deps.MatchStore,
		blockStore:  deps.BlockStore,
		reportStore: deps.ReportStore,
		photos:      deps.Photos,
	}
}

// List returns the user's active matches, newest first, denormalized with
// the counterpart profile and last-message preview.
func (s *Service) List(ctx context.Context, userID int64, limit int) ([]MatchItem, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	if s.matchStore == nil {
		return nil, fmt.Errorf("match store is nil")
	}

	rows, err := s.matchStore.ListConversationsForUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	items := make([]MatchItem, 0, len(rows))
	for _, row := range rows {
		item := MatchItem{
			ID:           row.Match.ID,
			TargetUserID: row.Counterpart.UserID,
			DisplayName:  row.Counterpart.DisplayName,
			Age:          row.Counterpart.Age,
			Intent:       row.Counterpart.Intent,
			CreatedAt:    row.Match.CreatedAt,
			HasMessages:  row.LastMessage != nil,
			LastMessage:  row.LastMessage,
		}
		item.PhotoURL = s.resolvePhoto(ctx, row.Counterpart.PhotoKey)
		items = append(items, item)
	}
	return items, nil
}

// Unmatch deactivates the pair's match. The row is kept, so the pair can
// never re-match later.
func (s *Service) Unmatch(ctx context.Context, userID, targetID int64) (bool, error) {
	if userID <= 0 || targetID <= 0 || userID == targetID {
		return false, ErrValidation
	}
	if s.tx == nil || s.matchStore == nil {
		return false, fmt.Errorf("unmatch dependencies are not configured")
	}

	var deactivated bool
	if err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		ok, err := s.matchStore.DeactivateByUsers(txCtx, tx, userID, targetID)
		if err != nil {
			return err
		}
		deactivated = ok
		return nil
	}); err != nil {
		return false, err
	}

	return deactivated, nil
}

// Block records the block and freezes any match between the pair in one
// transaction.
func (s *Service) Block(ctx context.Context, userID, targetID int64, reason string) error {
	if userID <= 0 || targetID <= 0 || userID == targetID {
		return ErrValidation
	}
	if s.tx == nil || s.blockStore == nil || s.matchStore == nil {
		return fmt.Errorf("block dependencies are not configured")
	}

	return s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		if err := s.blockStore.Upsert(txCtx, tx, userID, targetID, reason); err != nil {
			return err
		}
		_, err := s.matchStore.DeactivateByUsers(txCtx, tx, userID, targetID)
		return err
	})
}

func (s *Service) Report(ctx context.Context, userID, targetID int64, reason, details string) error {
	if userID <= 0 || targetID <= 0 || userID == targetID {
		return ErrValidation
	}
	if !isAllowedReason(reason) {
		return ErrInvalidReportReason
	}
	if s.tx == nil || s.reportStore == nil {
		return fmt.Errorf("report dependencies are not configured")
	}

	return s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		return s.reportStore.Create(txCtx, tx, userID, targetID, strings.ToLower(strings.TrimSpace(reason)), details)
	})
}

// resolvePhoto is best effort: a presign failure degrades to an empty URL.
func (s *Service) resolvePhoto(ctx context.Context, key string) string {
	if s.photos == nil || key == "" {
		return ""
	}
	url, err := s.photos.PresignGet(ctx, key, 0)
	if err != nil {
		return ""
	}
	return url
}

func isAllowedReason(reason string) bool {
	switch enums.ReportReason(strings.ToLower(strings.TrimSpace(reason))) {
	case enums.ReportReasonSpam,
		enums.ReportReasonFake,
		enums.ReportReasonAbusive,
		enums.ReportReasonOther:
		return true
	default:
		return false
	}
}

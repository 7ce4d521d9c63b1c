package messages

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

const (
	rateKindMessage = "messages"

	defaultFetchLimit = 50
	maxContentLength  = 4000
)

var (
	ErrValidation      = errors.New("validation error")
	ErrUnsupportedKind = errors.New("unsupported message kind")
	ErrMatchNotFound   = errors.New("match not found")
	ErrMatchInactive   = errors.New("match is not active")
	ErrNotParticipant  = errors.New("sender is not a participant of the match")
)

type TxRunner interface {
	WithTx(ctx context.Context, fn func(context.Context, pgx.Tx) error) error
}

type MatchStore interface {
	GetByID(ctx context.Context, matchID int64) (model.Match, error)
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, matchID int64) (model.Match, error)
}

type MessageStore interface {
	Create(ctx context.Context, tx pgx.Tx, matchID, senderID, recipientID int64, kind enums.MessageKind, content, attachmentKey string) (model.Message, error)
	ListRecent(ctx context.Context, matchID int64, limit int) ([]model.Message, error)
	MarkRead(ctx context.Context, matchID, recipientID int64) (int64, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, userID int64, kind string) (int64, bool, error)
}

type URLResolver interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Service struct {
	tx           TxRunner
	matchStore   MatchStore
	messageStore MessageStore
	rateLimiter  RateLimiter
	attachments  URLResolver
}

type Dependencies struct {
	Tx           TxRunner
	MatchStore   MatchStore
	MessageStore MessageStore
	RateLimiter  RateLimiter
	Attachments  URLResolver
}

type SendInput struct {
	MatchID       int64
	SenderID      int64
	Kind          string
	Content       string
	AttachmentKey string
}

// MessageView is a message plus the resolved attachment URL for display.
type MessageView struct {
	model.Message
	AttachmentURL string
}

func NewService(deps Dependencies) *Service {
	return &Service{
		tx:           deps.Tx,
		matchStore:   deps.MatchStore,
		messageStore: deps.MessageStore,
		rateLimiter:  deps.RateLimiter,
		attachments:  deps.Attachments,
	}
}

// Send appends a message to an active match. The match row is locked for
// the participant/active check, which serializes sends per match and keeps
// accepted timestamps non-decreasing. The recipient is always the other
// participant; no content inspection happens here.
func (s *Service) Send(ctx context.Context, input SendInput) (model.Message, error) {
	if input.MatchID <= 0 || input.SenderID <= 0 {
		return model.Message{}, ErrValidation
	}

	kind, err := normalizeKind(input.Kind)
	if err != nil {
		return model.Message{}, err
	}

	content := strings.TrimSpace(input.Content)
	if content == "" && input.AttachmentKey == "" {
		return model.Message{}, ErrValidation
	}
	if len(content) > maxContentLength {
		return model.Message{}, ErrValidation
	}

	if s.tx == nil || s.matchStore == nil || s.messageStore == nil {
		return model.Message{}, fmt.Errorf("message dependencies are not configured")
	}

	if s.rateLimiter != nil {
		retryAfter, allowed, err := s.rateLimiter.Allow(ctx, input.SenderID, rateKindMessage)
		if err != nil {
			return model.Message{}, fmt.Errorf("apply message rate limiter: %w", err)
		}
		if !allowed {
			return model.Message{}, ratesvc.TooFastError{RetryAfterSec: retryAfter}
		}
	}

	var msg model.Message
	if err := s.tx.WithTx(ctx, func(txCtx context.Context, tx pgx.Tx) error {
		match, err := s.matchStore.GetByIDForUpdate(txCtx, tx, input.MatchID)
		if err != nil {
			if errors.Is(err, pgrepo.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}
		if !match.HasParticipant(input.SenderID) {
			return ErrNotParticipant
		}
		if !match.Active {
			return ErrMatchInactive
		}

		recipientID := match.OtherUser(input.SenderID)
		created, err := s.messageStore.Create(txCtx, tx, match.ID, input.SenderID, recipientID, kind, content, input.AttachmentKey)
		if err != nil {
			return err
		}
		msg = created
		return nil
	}); err != nil {
		return model.Message{}, err
	}

	return msg, nil
}

// Fetch returns up to limit newest messages re-ordered ascending for
// display. Unknown matches and non-participants get an empty slice, never
// an error, so match existence does not leak.
func (s *Service) Fetch(ctx context.Context, matchID, requesterID int64, limit int) ([]MessageView, error) {
	if matchID <= 0 || requesterID <= 0 {
		return []MessageView{}, nil
	}
	if s.matchStore == nil || s.messageStore == nil {
		return nil, fmt.Errorf("message dependencies are not configured")
	}
	if limit <= 0 {
		limit = defaultFetchLimit
	}

	match, err := s.matchStore.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrMatchNotFound) {
			return []MessageView{}, nil
		}
		return nil, err
	}
	if !match.HasParticipant(requesterID) {
		return []MessageView{}, nil
	}

	recent, err := s.messageStore.ListRecent(ctx, matchID, limit)
	if err != nil {
		return nil, err
	}

	views := make([]MessageView, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		view := MessageView{Message: recent[i]}
		view.AttachmentURL = s.resolveAttachment(ctx, recent[i].AttachmentKey)
		views = append(views, view)
	}

	return views, nil
}

// MarkRead flips every unread message addressed to the requester within
// the match. Idempotent; non-participants are a silent no-op.
func (s *Service) MarkRead(ctx context.Context, matchID, requesterID int64) (int64, error) {
	if matchID <= 0 || requesterID <= 0 {
		return 0, ErrValidation
	}
	if s.matchStore == nil || s.messageStore == nil {
		return 0, fmt.Errorf("message dependencies are not configured")
	}

	match, err := s.matchStore.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrMatchNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if !match.HasParticipant(requesterID) {
		return 0, nil
	}

	return s.messageStore.MarkRead(ctx, matchID, requesterID)
}

// resolveAttachment is best effort: presign failures degrade to an empty URL.
func (s *Service) resolveAttachment(ctx context.Context, key string) string {
	if s.attachments == nil || key == "" {
		return ""
	}
	url, err := s.attachments.PresignGet(ctx, key, 0)
	if err != nil {
		return ""
	}
	return url
}

func normalizeKind(input string) (enums.MessageKind, error) {
	value := strings.ToLower(strings.TrimSpace(input))
	if value == "" {
		return enums.MessageKindText, nil
	}
	switch enums.MessageKind(value) {
	case enums.MessageKindText, enums.MessageKindImage, enums.MessageKindEmoji:
		return enums.MessageKind(value), nil
	default:
		return "", ErrUnsupportedKind
	}
}

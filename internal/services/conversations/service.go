package conversations

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sparkmatch/backend/internal/domain/model"
	pgrepo "github.com/sparkmatch/backend/internal/repo/postgres"
)

const defaultListLimit = 200

type MatchStore interface {
	ListConversationsForUser(ctx context.Context, userID int64, limit int) ([]pgrepo.ConversationRecord, error)
}

type PhotoResolver interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Service struct {
	matchStore MatchStore
	photos     PhotoResolver
}

type Dependencies struct {
	MatchStore MatchStore
	Photos     PhotoResolver
}

// Conversation is one inbox entry: the match, the counterpart profile card
// and the last-message preview with the viewer's unread count.
type Conversation struct {
	MatchID        int64          `json:"match_id"`
	TargetUserID   int64          `json:"target_user_id"`
	DisplayName    string         `json:"display_name"`
	Age            int            `json:"age"`
	Intent         string         `json:"intent,omitempty"`
	PhotoURL       string         `json:"photo_url,omitempty"`
	MatchCreatedAt time.Time      `json:"match_created_at"`
	LastMessage    *model.Message `json:"last_message,omitempty"`
	UnreadCount    int            `json:"unread_count"`
}

// Inbox splits conversations into the two screens the client renders: new
// matches that have no messages yet, and active threads ordered by recency.
type Inbox struct {
	WithMessages    []Conversation `json:"with_messages"`
	WithoutMessages []Conversation `json:"without_messages"`
	TotalUnread     int            `json:"total_unread"`
}

func NewService(deps Dependencies) *Service {
	return &Service{
		matchStore: deps.MatchStore,
		photos:     deps.Photos,
	}
}

// List builds the user's inbox. Threads with messages sort by last-message
// time descending; message-less matches sort by match creation descending.
func (s *Service) List(ctx context.Context, userID int64) (Inbox, error) {
	inbox := Inbox{
		WithMessages:    []Conversation{},
		WithoutMessages: []Conversation{},
	}
	if userID <= 0 {
		return inbox, nil
	}
	if s.matchStore == nil {
		return inbox, fmt.Errorf("match store is nil")
	}

	rows, err := s.matchStore.ListConversationsForUser(ctx, userID, defaultListLimit)
	if err != nil {
		return inbox, err
	}

	for _, row := range rows {
		conv := Conversation{
			MatchID:        row.Match.ID,
			TargetUserID:   row.Counterpart.UserID,
			DisplayName:    row.Counterpart.DisplayName,
			Age:            row.Counterpart.Age,
			Intent:         row.Counterpart.Intent,
			MatchCreatedAt: row.Match.CreatedAt,
			LastMessage:    row.LastMessage,
			UnreadCount:    row.UnreadCount,
		}
		conv.PhotoURL = s.resolvePhoto(ctx, row.Counterpart.PhotoKey)
		inbox.TotalUnread += row.UnreadCount

		if row.LastMessage != nil {
			inbox.WithMessages = append(inbox.WithMessages, conv)
		} else {
			inbox.WithoutMessages = append(inbox.WithoutMessages, conv)
		}
	}

	sort.SliceStable(inbox.WithMessages, func(i, j int) bool {
		return inbox.WithMessages[i].LastMessage.CreatedAt.After(inbox.WithMessages[j].LastMessage.CreatedAt)
	})
	sort.SliceStable(inbox.WithoutMessages, func(i, j int) bool {
		return inbox.WithoutMessages[i].MatchCreatedAt.After(inbox.WithoutMessages[j].MatchCreatedAt)
	})

	return inbox, nil
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

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sparkmatch/backend/internal/domain/model"
	pgrepo "github.com/sparkmatch/backend/internal/repo/postgres"
	convsvc "github.com/sparkmatch/backend/internal/services/conversations"
)

type conversationStoreStub struct {
	rows []pgrepo.ConversationRecord
}

func (s conversationStoreStub) ListConversationsForUser(context.Context, int64, int) ([]pgrepo.ConversationRecord, error) {
	return s.rows, nil
}

func TestConversationsHandlerAnonymousGetsEmptyShape(t *testing.T) {
	svc := convsvc.NewService(convsvc.Dependencies{MatchStore: conversationStoreStub{}})
	h := NewConversationsHandler(svc)

	rr := httptest.NewRecorder()
	h.Handle(rr, httptest.NewRequest(http.MethodGet, "/conversations", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var payload struct {
		WithMessages    []json.RawMessage `json:"with_messages"`
		WithoutMessages []json.RawMessage `json:"without_messages"`
		TotalUnread     int               `json:"total_unread"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.WithMessages == nil || payload.WithoutMessages == nil {
		t.Fatalf("buckets must serialize as empty arrays, got %s", rr.Body.String())
	}
	if payload.TotalUnread != 0 {
		t.Fatalf("unexpected total unread: %d", payload.TotalUnread)
	}
}

func TestConversationsHandlerReturnsInbox(t *testing.T) {
	now := time.Now()
	svc := convsvc.NewService(convsvc.Dependencies{MatchStore: conversationStoreStub{
		rows: []pgrepo.ConversationRecord{
			{
				Match:       model.Match{ID: 5, UserAID: 1, UserBID: 9, Active: true, CreatedAt: now},
				Counterpart: model.ProfileSummary{UserID: 9, DisplayName: "alex", Age: 24},
				LastMessage: &model.Message{ID: 2, MatchID: 5, Content: "see you", CreatedAt: now},
				UnreadCount: 2,
			},
			{
				Match:       model.Match{ID: 6, UserAID: 1, UserBID: 4, Active: true, CreatedAt: now},
				Counterpart: model.ProfileSummary{UserID: 4, DisplayName: "kim", Age: 29},
			},
		},
	}})
	h := NewConversationsHandler(svc)

	rr := httptest.NewRecorder()
	h.Handle(rr, authedRequest(t, http.MethodGet, "/conversations", 1, nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var payload struct {
		WithMessages []struct {
			MatchID     int64 `json:"match_id"`
			UnreadCount int   `json:"unread_count"`
		} `json:"with_messages"`
		WithoutMessages []struct {
			MatchID int64 `json:"match_id"`
		} `json:"without_messages"`
		TotalUnread int `json:"total_unread"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.WithMessages) != 1 || payload.WithMessages[0].MatchID != 5 {
		t.Fatalf("unexpected with_messages: %+v", payload.WithMessages)
	}
	if len(payload.WithoutMessages) != 1 || payload.WithoutMessages[0].MatchID != 6 {
		t.Fatalf("unexpected without_messages: %+v", payload.WithoutMessages)
	}
	if payload.TotalUnread != 2 {
		t.Fatalf("unexpected total unread: got %d want 2", payload.TotalUnread)
	}
}

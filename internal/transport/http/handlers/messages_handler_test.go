package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/sparkmatch/backend/internal/domain/enums"
	"github.com/sparkmatch/backend/internal/domain/model"
	pgrepo "github.com/sparkmatch/backend/internal/repo/postgres"
	authsvc "github.com/sparkmatch/backend/internal/services/auth"
	messagessvc "github.com/sparkmatch/backend/internal/services/messages"
)

type messageMatchStoreStub struct {
	match model.Match
	err   error
}

func (s messageMatchStoreStub) GetByID(context.Context, int64) (model.Match, error) {
	return s.match, s.err
}

func (s messageMatchStoreStub) GetByIDForUpdate(context.Context, pgx.Tx, int64) (model.Match, error) {
	return s.match, s.err
}

type messageStoreStub struct {
	recent []model.Message
	marked int64
}

func (s messageStoreStub) Create(_ context.Context, _ pgx.Tx, matchID, senderID, recipientID int64, kind enums.MessageKind, content, attachmentKey string) (model.Message, error) {
	return model.Message{
		ID:            1,
		MatchID:       matchID,
		SenderID:      senderID,
		RecipientID:   recipientID,
		Kind:          kind,
		Content:       content,
		AttachmentKey: attachmentKey,
		CreatedAt:     time.Now(),
	}, nil
}

func (s messageStoreStub) ListRecent(context.Context, int64, int) ([]model.Message, error) {
	return s.recent, nil
}

func (s messageStoreStub) MarkRead(context.Context, int64, int64) (int64, error) {
	return s.marked, nil
}

func newMessagesRouter(svc *messagessvc.Service) chi.Router {
	h := NewMessagesHandler(svc)
	r := chi.NewRouter()
	r.Post("/matches/{id}/messages", h.Send)
	r.Get("/matches/{id}/messages", h.List)
	r.Post("/matches/{id}/messages/read", h.MarkRead)
	return r
}

func newMessagesService(matchStore messageMatchStoreStub, messageStore messageStoreStub) *messagessvc.Service {
	return messagessvc.NewService(messagessvc.Dependencies{
		Tx:           txRunnerStub{},
		MatchStore:   matchStore,
		MessageStore: messageStore,
	})
}

func authedRequest(t *testing.T, method, target string, userID int64, body any) *http.Request {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if userID > 0 {
		req = req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
			UserID: userID,
			SID:    "sid-test",
			Role:   "user",
		}))
	}
	return req
}

func TestSendMessageHappyPath(t *testing.T) {
	router := newMessagesRouter(newMessagesService(
		messageMatchStoreStub{match: model.Match{ID: 10, UserAID: 1, UserBID: 2, Active: true}},
		messageStoreStub{},
	))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/matches/10/messages", 1, map[string]any{"content": "hi"}))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d body=%s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var payload struct {
		RecipientID int64  `json:"recipient_id"`
		Kind        string `json:"kind"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.RecipientID != 2 || payload.Kind != "text" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestSendMessageNonParticipantReturns403(t *testing.T) {
	router := newMessagesRouter(newMessagesService(
		messageMatchStoreStub{match: model.Match{ID: 10, UserAID: 1, UserBID: 2, Active: true}},
		messageStoreStub{},
	))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/matches/10/messages", 99, map[string]any{"content": "hi"}))

	if rr.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusForbidden)
	}

	var payload struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "NOT_PARTICIPANT" {
		t.Fatalf("unexpected error code: got %q want %q", payload.Code, "NOT_PARTICIPANT")
	}
}

func TestSendMessageInactiveMatchReturns409(t *testing.T) {
	router := newMessagesRouter(newMessagesService(
		messageMatchStoreStub{match: model.Match{ID: 10, UserAID: 1, UserBID: 2, Active: false}},
		messageStoreStub{},
	))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/matches/10/messages", 1, map[string]any{"content": "hi"}))

	if rr.Code != http.StatusConflict {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusConflict)
	}

	var payload struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Code != "MATCH_INACTIVE" {
		t.Fatalf("unexpected error code: got %q want %q", payload.Code, "MATCH_INACTIVE")
	}
}

func TestSendMessageUnknownMatchReturns404(t *testing.T) {
	router := newMessagesRouter(newMessagesService(
		messageMatchStoreStub{err: pgrepo.ErrMatchNotFound},
		messageStoreStub{},
	))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/matches/10/messages", 1, map[string]any{"content": "hi"}))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNotFound)
	}
}

func TestListMessagesAnonymousReturnsEmpty(t *testing.T) {
	router := newMessagesRouter(newMessagesService(
		messageMatchStoreStub{match: model.Match{ID: 10, UserAID: 1, UserBID: 2, Active: true}},
		messageStoreStub{recent: []model.Message{{ID: 1, MatchID: 10}}},
	))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/matches/10/messages", 0, nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var payload struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Items) != 0 {
		t.Fatalf("anonymous caller must get an empty list, got %d items", len(payload.Items))
	}
}

func TestMarkReadReturnsCount(t *testing.T) {
	router := newMessagesRouter(newMessagesService(
		messageMatchStoreStub{match: model.Match{ID: 10, UserAID: 1, UserBID: 2, Active: true}},
		messageStoreStub{marked: 3},
	))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/matches/10/messages/read", 1, nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var payload struct {
		OK         bool  `json:"ok"`
		MarkedRead int64 `json:"marked_read"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.OK || payload.MarkedRead != 3 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestSendMessageInvalidMatchIDReturns400(t *testing.T) {
	router := newMessagesRouter(newMessagesService(messageMatchStoreStub{}, messageStoreStub{}))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/matches/abc/messages", 1, map[string]any{"content": "hi"}))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}

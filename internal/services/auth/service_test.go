package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

type sessionStoreStub struct {
	sessions  map[string]SessionRecord
	refreshes map[string]string
}

func newSessionStoreStub() *sessionStoreStub {
	return &sessionStoreStub{
		sessions:  map[string]SessionRecord{},
		refreshes: map[string]string{},
	}
}

func (s *sessionStoreStub) Create(_ context.Context, session SessionRecord, refreshToken string) error {
	s.sessions[session.SID] = session
	s.refreshes[refreshToken] = session.SID
	return nil
}

func (s *sessionStoreStub) GetSession(_ context.Context, sid string) (SessionRecord, error) {
	session, ok := s.sessions[sid]
	if !ok {
		return SessionRecord{}, ErrSessionNotFound
	}
	return session, nil
}

func (s *sessionStoreStub) GetByRefreshToken(_ context.Context, refreshToken string) (SessionRecord, error) {
	sid, ok := s.refreshes[refreshToken]
	if !ok {
		return SessionRecord{}, ErrRefreshNotFound
	}
	return s.GetSession(context.Background(), sid)
}

func (s *sessionStoreStub) RotateRefresh(_ context.Context, sid, oldRefreshToken, newRefreshToken string, expiresAt time.Time) error {
	storedSID, ok := s.refreshes[oldRefreshToken]
	if !ok || storedSID != sid {
		return ErrRefreshNotFound
	}
	delete(s.refreshes, oldRefreshToken)
	s.refreshes[newRefreshToken] = sid

	session := s.sessions[sid]
	session.ExpiresAt = expiresAt
	s.sessions[sid] = session
	return nil
}

func (s *sessionStoreStub) DeleteSession(_ context.Context, sid string) error {
	delete(s.sessions, sid)
	for token, storedSID := range s.refreshes {
		if storedSID == sid {
			delete(s.refreshes, token)
		}
	}
	return nil
}

func newTestService(store SessionStore) *Service {
	jwtManager := NewJWTManager("test-secret", 15*time.Minute)
	return NewService(jwtManager, store, MinRefreshTTL)
}

func TestIssueSessionAndValidate(t *testing.T) {
	store := newSessionStoreStub()
	svc := newTestService(store)

	res, err := svc.IssueSession(context.Background(), 42, "")
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatalf("missing tokens in auth result: %+v", res)
	}
	if res.Role != RoleUser {
		t.Fatalf("empty role must default to user, got %q", res.Role)
	}

	claims, err := svc.ValidateAccessToken(context.Background(), res.AccessToken)
	if err != nil {
		t.Fatalf("validate access token: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("unexpected user id in claims: %d", claims.UserID)
	}
}

func TestValidateRejectsDeletedSession(t *testing.T) {
	store := newSessionStoreStub()
	svc := newTestService(store)

	res, err := svc.IssueSession(context.Background(), 42, RoleUser)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}

	claims, err := svc.ValidateAccessToken(context.Background(), res.AccessToken)
	if err != nil {
		t.Fatalf("validate before logout: %v", err)
	}
	if err := svc.Logout(context.Background(), claims.SID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := svc.ValidateAccessToken(context.Background(), res.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized after logout, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	store := newSessionStoreStub()
	svc := newTestService(store)

	res, err := svc.IssueSession(context.Background(), 42, RoleUser)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}

	rotated, err := svc.Refresh(context.Background(), res.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == res.RefreshToken {
		t.Fatalf("refresh token must rotate")
	}

	// Old token is single use.
	if _, err := svc.Refresh(context.Background(), res.RefreshToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for replayed refresh token, got %v", err)
	}

	if _, err := svc.Refresh(context.Background(), rotated.RefreshToken); err != nil {
		t.Fatalf("refresh with rotated token: %v", err)
	}
}

func TestRefreshUnknownToken(t *testing.T) {
	svc := newTestService(newSessionStoreStub())

	if _, err := svc.Refresh(context.Background(), "missing"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

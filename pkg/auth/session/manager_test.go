package session

import (
	"context"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type fakeStore struct {
	values map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}}
}

func (s *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	s.values[key] = value.(string)
	return nil
}

func (s *fakeStore) Get(_ context.Context, key string) (string, error) {
	v, ok := s.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (s *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

type fakeKeyer struct{}

func (fakeKeyer) AccessSessionKey(accessID string) string {
	return "test:session:access:" + accessID
}

func newTestManager() (*Manager, *fakeStore) {
	store := newFakeStore()
	return &Manager{store: store, keyer: fakeKeyer{}, ttl: time.Hour}, store
}

func TestGenerateStoresToken(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	token, err := m.Generate(ctx, "access-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if token == "" {
		t.Fatal("empty refresh token")
	}
	if store.values["test:session:access:access-1"] != token {
		t.Fatal("token not stored under access key")
	}
}

func TestRotateIssuesNewSessionAndDropsOld(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	token, err := m.Generate(ctx, "access-1")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	newAccessID, newToken, err := m.Rotate(ctx, "access-1", token)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if newAccessID == "access-1" {
		t.Fatal("access id not rotated")
	}
	if newToken == token {
		t.Fatal("refresh token not rotated")
	}
	if _, ok := store.values["test:session:access:access-1"]; ok {
		t.Fatal("old session still present")
	}
	if store.values["test:session:access:"+newAccessID] != newToken {
		t.Fatal("new session not stored")
	}
}

func TestRotateRejectsWrongToken(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	if _, err := m.Generate(ctx, "access-1"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, _, err := m.Rotate(ctx, "access-1", "forged"); err != ErrInvalidRefreshToken {
		t.Fatalf("err = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestRotateRejectsUnknownSession(t *testing.T) {
	m, _ := newTestManager()
	if _, _, err := m.Rotate(context.Background(), "ghost", "anything"); err != ErrInvalidRefreshToken {
		t.Fatalf("err = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestRevokeAndHasSession(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	if _, err := m.Generate(ctx, "access-1"); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	active, err := m.HasSession(ctx, "access-1")
	if err != nil {
		t.Fatalf("HasSession: %v", err)
	}
	if !active {
		t.Fatal("expected active session")
	}

	if err := m.Revoke(ctx, "access-1"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	active, err = m.HasSession(ctx, "access-1")
	if err != nil {
		t.Fatalf("HasSession after revoke: %v", err)
	}
	if active {
		t.Fatal("session survived revoke")
	}
}

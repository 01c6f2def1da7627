package auth

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/videotube/backend/internal/apperror"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

type memoryUserStore struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemoryUserStore() *memoryUserStore {
	return &memoryUserStore{users: make(map[string]*models.User)}
}

func (s *memoryUserStore) add(user models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := user
	s.users[user.ID] = &u
}

func (s *memoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return *u, nil
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *memoryUserStore) FindByIdentifier(_ context.Context, identifier string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.UserName == identifier || u.Email == identifier {
			return *u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *memoryUserStore) SetRefreshToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.RefreshToken = token
	return nil
}

func (s *memoryUserStore) RotateRefreshToken(_ context.Context, userID, old, new string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.RefreshToken != old {
		return false, nil
	}
	u.RefreshToken = new
	return true, nil
}

func (s *memoryUserStore) ClearRefreshToken(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.RefreshToken = ""
	}
	return nil
}

func (s *memoryUserStore) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Password = passwordHash
	return nil
}

func newTestManager(t *testing.T) (*Manager, *memoryUserStore, models.User) {
	t.Helper()

	store := newMemoryUserStore()
	manager := NewManager(newTestTokenService(t), store)

	hash, err := HashPassword("correct-horse-battery")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	user := models.User{
		ID:       "u1",
		UserName: "alice",
		Email:    "alice@example.com",
		FullName: "Alice Example",
		Password: hash,
	}
	store.add(user)

	return manager, store, user
}

func TestAuthenticateSuccess(t *testing.T) {
	manager, store, _ := newTestManager(t)
	ctx := context.Background()

	user, tokens, err := manager.Authenticate(ctx, "Alice", "correct-horse-battery")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.Password != "" || user.RefreshToken != "" {
		t.Fatal("authenticated user must not carry secrets")
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}

	stored, _ := store.FindByID(ctx, "u1")
	if stored.RefreshToken != tokens.RefreshToken {
		t.Fatal("expected issued refresh token to be persisted")
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	manager, _, _ := newTestManager(t)

	_, _, err := manager.Authenticate(context.Background(), "alice", "wrong")
	if !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateUnknownUser(t *testing.T) {
	manager, _, _ := newTestManager(t)

	_, _, err := manager.Authenticate(context.Background(), "nobody", "whatever")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	manager, store, user := newTestManager(t)
	ctx := context.Background()

	tokens, err := manager.IssueTokenPair(ctx, user)
	if err != nil {
		t.Fatalf("IssueTokenPair: %v", err)
	}

	next, err := manager.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if next.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected a new refresh token")
	}

	stored, _ := store.FindByID(ctx, user.ID)
	if stored.RefreshToken != next.RefreshToken {
		t.Fatal("expected rotated token to be persisted")
	}
}

func TestRefreshRejectsSupersededToken(t *testing.T) {
	manager, _, user := newTestManager(t)
	ctx := context.Background()

	tokens, err := manager.IssueTokenPair(ctx, user)
	if err != nil {
		t.Fatalf("IssueTokenPair: %v", err)
	}

	if _, err := manager.Refresh(ctx, tokens.RefreshToken); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	if _, err := manager.Refresh(ctx, tokens.RefreshToken); !errors.Is(err, apperror.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for superseded token, got %v", err)
	}
}

func TestConcurrentRefreshSingleWinner(t *testing.T) {
	manager, _, user := newTestManager(t)
	ctx := context.Background()

	tokens, err := manager.IssueTokenPair(ctx, user)
	if err != nil {
		t.Fatalf("IssueTokenPair: %v", err)
	}

	const racers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func() {
			defer wg.Done()
			if _, err := manager.Refresh(ctx, tokens.RefreshToken); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one refresh to win, got %d", wins)
	}
}

func TestVerifyAccessSanitizes(t *testing.T) {
	manager, _, user := newTestManager(t)
	ctx := context.Background()

	tokens, err := manager.IssueTokenPair(ctx, user)
	if err != nil {
		t.Fatalf("IssueTokenPair: %v", err)
	}

	verified, err := manager.VerifyAccess(ctx, tokens.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if verified.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, verified.ID)
	}
	if verified.Password != "" || verified.RefreshToken != "" {
		t.Fatal("verified user must not carry secrets")
	}

	if _, err := manager.VerifyAccess(ctx, "garbage"); !errors.Is(err, apperror.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestRevokeClearsToken(t *testing.T) {
	manager, store, user := newTestManager(t)
	ctx := context.Background()

	tokens, err := manager.IssueTokenPair(ctx, user)
	if err != nil {
		t.Fatalf("IssueTokenPair: %v", err)
	}

	if err := manager.Revoke(ctx, user.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	stored, _ := store.FindByID(ctx, user.ID)
	if stored.RefreshToken != "" {
		t.Fatal("expected refresh token to be cleared")
	}

	if _, err := manager.Refresh(ctx, tokens.RefreshToken); !errors.Is(err, apperror.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after revoke, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	manager, _, user := newTestManager(t)
	ctx := context.Background()

	if err := manager.ChangePassword(ctx, user.ID, "wrong", "new-password-123"); !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if err := manager.ChangePassword(ctx, user.ID, "correct-horse-battery", "short"); !errors.Is(err, apperror.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for short password, got %v", err)
	}

	if err := manager.ChangePassword(ctx, user.ID, "correct-horse-battery", "new-password-123"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, _, err := manager.Authenticate(ctx, "alice", "new-password-123"); err != nil {
		t.Fatalf("authenticate with new password: %v", err)
	}

	if _, _, err := manager.Authenticate(ctx, "alice", "correct-horse-battery"); !errors.Is(err, apperror.ErrInvalidCredentials) {
		t.Fatalf("expected old password to be rejected, got %v", err)
	}
}

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/videotube/backend/internal/models"
)

const (
	testAccessSecret  = "access-secret-0123456789"
	testRefreshSecret = "refresh-secret-0123456789"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService(testAccessSecret, testRefreshSecret, 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return svc
}

func TestNewTokenServiceRejectsBadSecrets(t *testing.T) {
	if _, err := NewTokenService("short", testRefreshSecret, 0, 0); err == nil {
		t.Fatal("expected error for short access secret")
	}
	if _, err := NewTokenService(testAccessSecret, testAccessSecret, 0, 0); err == nil {
		t.Fatal("expected error for identical secrets")
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService(t)

	user := models.User{ID: "u1", UserName: "alice", Email: "alice@example.com", FullName: "Alice"}
	token, err := svc.SignAccess(user)
	if err != nil {
		t.Fatalf("SignAccess: %v", err)
	}

	claims, err := svc.VerifyAccess(token)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.Subject != "u1" || claims.UserName != "alice" || claims.Email != "alice@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.SignRefresh("u1")
	if err != nil {
		t.Fatalf("SignRefresh: %v", err)
	}

	userID, err := svc.VerifyRefresh(token)
	if err != nil {
		t.Fatalf("VerifyRefresh: %v", err)
	}
	if userID != "u1" {
		t.Fatalf("expected subject u1, got %q", userID)
	}
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	svc := newTestTokenService(t)

	refresh, err := svc.SignRefresh("u1")
	if err != nil {
		t.Fatalf("SignRefresh: %v", err)
	}
	if _, err := svc.VerifyAccess(refresh); err == nil {
		t.Fatal("refresh token must not verify as access token")
	}

	access, err := svc.SignAccess(models.User{ID: "u1"})
	if err != nil {
		t.Fatalf("SignAccess: %v", err)
	}
	if _, err := svc.VerifyRefresh(access); err == nil {
		t.Fatal("access token must not verify as refresh token")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := newTestTokenService(t)

	issued := time.Now().UTC()
	svc.now = func() time.Time { return issued }

	token, err := svc.SignAccess(models.User{ID: "u1"})
	if err != nil {
		t.Fatalf("SignAccess: %v", err)
	}

	svc.now = func() time.Time { return issued.Add(16 * time.Minute) }
	if _, err := svc.VerifyAccess(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.SignAccess(models.User{ID: "u1"})
	if err != nil {
		t.Fatalf("SignAccess: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := svc.VerifyAccess(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

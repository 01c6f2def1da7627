package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/videotube/backend/internal/apperror"
	"github.com/videotube/backend/internal/models"
)

type fakeVerifier struct {
	token string
	user  models.User
}

func (v *fakeVerifier) VerifyAccess(_ context.Context, token string) (models.User, error) {
	if token != v.token {
		return models.User{}, apperror.Unauthenticated("invalid or expired access token")
	}
	return v.user, nil
}

func newAuthProbe() (http.Handler, *models.User) {
	var seen models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := CurrentUser(r.Context()); ok {
			seen = user
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return next, &seen
}

func TestRequireAuthMissingToken(t *testing.T) {
	next, _ := newAuthProbe()
	protected := RequireAuth(&fakeVerifier{token: "valid"})(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	rec := httptest.NewRecorder()

	protected.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	next, _ := newAuthProbe()
	protected := RequireAuth(&fakeVerifier{token: "valid"})(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.Header.Set("Authorization", "Bearer forged")
	rec := httptest.NewRecorder()

	protected.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireAuthBearerHeader(t *testing.T) {
	next, seen := newAuthProbe()
	protected := RequireAuth(&fakeVerifier{token: "valid", user: models.User{ID: "u1"}})(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.Header.Set("Authorization", "Bearer valid")
	rec := httptest.NewRecorder()

	protected.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d got %d", http.StatusNoContent, rec.Code)
	}
	if seen.ID != "u1" {
		t.Fatalf("expected user on context, got %+v", seen)
	}
}

func TestRequireAuthCookie(t *testing.T) {
	next, seen := newAuthProbe()
	protected := RequireAuth(&fakeVerifier{token: "valid", user: models.User{ID: "u1"}})(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "valid"})
	rec := httptest.NewRecorder()

	protected.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d got %d", http.StatusNoContent, rec.Code)
	}
	if seen.ID != "u1" {
		t.Fatalf("expected user on context, got %+v", seen)
	}
}

func TestRequireAuthCookieWinsOverHeader(t *testing.T) {
	next, _ := newAuthProbe()
	protected := RequireAuth(&fakeVerifier{token: "cookie-token"})(next)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: "cookie-token"})
	req.Header.Set("Authorization", "Bearer header-token")
	rec := httptest.NewRecorder()

	protected.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected cookie token to be used, got status %d", rec.Code)
	}
}

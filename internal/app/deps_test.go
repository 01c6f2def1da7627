package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/videotube/backend/internal/config"
)

type fakePool struct{}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) Close() {}

func TestBuildDependencies(t *testing.T) {
	cfg := config.Config{
		AccessTokenSecret:  "test-access-secret-0123456789",
		RefreshTokenSecret: "test-refresh-secret-0123456789",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    24 * time.Hour,
		MaxUploadBytes:     1 << 20,
		MaxPageSize:        100,
		ObjectStore:        config.ObjectStoreConfig{Bucket: "test-bucket", Endpoint: "http://localhost:9000", Region: "us-east-1"},
	}

	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	deps, cleanup, err := buildDependencies(context.Background(), fakePool{}, cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleanup == nil {
		t.Fatal("expected cleanup function")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		cleanup(ctx)
	}()

	if deps.Users == nil {
		t.Fatal("expected user repository to be configured")
	}
	if deps.Sessions == nil {
		t.Fatal("expected session manager to be configured")
	}
	if deps.Verifier == nil {
		t.Fatal("expected access verifier to be configured")
	}
	if deps.Videos == nil {
		t.Fatal("expected video repository to be configured")
	}
	if deps.Comments == nil || deps.Tweets == nil || deps.Likes == nil {
		t.Fatal("expected engagement repositories to be configured")
	}
	if deps.Subscriptions == nil || deps.Playlists == nil {
		t.Fatal("expected subscription and playlist repositories to be configured")
	}
	if deps.ReadModel == nil {
		t.Fatal("expected read model to be configured")
	}
	if deps.Media == nil {
		t.Fatal("expected media store to be configured")
	}
	if deps.Prober == nil {
		t.Fatal("expected duration prober to be configured")
	}
	if deps.Mail == nil {
		t.Fatal("expected mailer to be configured")
	}
	if deps.AuthLimiter == nil {
		t.Fatal("expected auth rate limiter to be configured")
	}
}

func TestBuildDependenciesRejectsWeakSecrets(t *testing.T) {
	cfg := config.Config{
		AccessTokenSecret:  "short",
		RefreshTokenSecret: "also-short",
	}

	if _, _, err := buildDependencies(context.Background(), fakePool{}, cfg, nil); err == nil {
		t.Fatal("expected error for weak token secrets")
	}
}

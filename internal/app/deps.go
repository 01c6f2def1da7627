package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/config"
	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/handlers"
	"github.com/videotube/backend/internal/media"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/notify"
	"github.com/videotube/backend/internal/repositories"
)

// buildDependencies wires together the concrete implementations used by the
// HTTP handlers. The returned cleanup drains background workers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(context.Context), error) {
	if logger == nil {
		logger = slog.Default()
	}

	tokens, err := auth.NewTokenService(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	users := repositories.NewPostgresUserRepository(pool)
	manager := auth.NewManager(tokens, users)

	var store handlers.MediaStore
	if cfg.ObjectStore.Bucket != "" {
		s3Store, err := media.NewS3Store(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, nil, err
		}
		store = s3Store
	}

	mailer := notify.NewMailer(cfg.Mail, logger)
	cleanup := func(shutdownCtx context.Context) {
		drainCtx, cancel := context.WithTimeout(shutdownCtx, 10*time.Second)
		defer cancel()
		if err := mailer.Shutdown(drainCtx); err != nil {
			logger.Warn("mailer shutdown", "error", err)
		}
	}

	deps := handlers.Dependencies{
		Users:          users,
		Sessions:       manager,
		Verifier:       manager,
		Videos:         repositories.NewPostgresVideoRepository(pool),
		Comments:       repositories.NewPostgresCommentRepository(pool),
		Tweets:         repositories.NewPostgresTweetRepository(pool),
		Likes:          repositories.NewPostgresLikeRepository(pool),
		Subscriptions:  repositories.NewPostgresSubscriptionRepository(pool),
		Playlists:      repositories.NewPostgresPlaylistRepository(pool),
		ReadModel:      repositories.NewPostgresReadModel(pool),
		Media:          store,
		Prober:         media.NewFFProbe("", 0),
		Mail:           mailer,
		AuthLimiter:    middleware.NewAuthRateLimiter(cfg.AuthRateLimit),
		MaxUploadBytes: cfg.MaxUploadBytes,
		MaxPageSize:    cfg.MaxPageSize,
	}

	if pinger, ok := pool.(handlers.Pinger); ok {
		deps.DB = pinger
	}

	return deps, cleanup, nil
}

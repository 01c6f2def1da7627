package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
)

// PostgresReadModel answers the composite queries that join several entity
// tables and derive counts: channel statistics, public channel profiles,
// watch history, and channel video listings. Each query runs as one SQL
// statement, so it reads a single point-in-time snapshot; nothing here spans
// multiple round trips or offers cross-query consistency.
type PostgresReadModel struct {
	pool db.Pool
}

// NewPostgresReadModel constructs the read model over the shared pool.
func NewPostgresReadModel(pool db.Pool) *PostgresReadModel {
	return &PostgresReadModel{pool: pool}
}

// ChannelStats builds the dashboard summary for a channel owner: per-video
// like counts plus totals for videos, subscribers, followed channels, and
// playlists. Sensitive user columns never enter the projection.
func (r *PostgresReadModel) ChannelStats(ctx context.Context, userID string) (models.ChannelStats, error) {
	ctx, span := logging.StartSpan(ctx, "readmodel.channel_stats")
	defer span.End()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelStats{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	// Two statements feed this summary; a read-only repeatable-read
	// transaction pins them to one snapshot.
	tx, err := conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return models.ChannelStats{}, fmt.Errorf("begin stats transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
        SELECT u.user_name, u.full_name, u.avatar_url,
               (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id),
               (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id),
               (SELECT COUNT(*) FROM playlists p WHERE p.owner_id = u.id)
        FROM users u
        WHERE u.id = $1
    `, userID)

	var stats models.ChannelStats
	if err := row.Scan(&stats.UserName, &stats.FullName, &stats.Avatar,
		&stats.TotalSubscribers, &stats.TotalChannlesSubscribedTo, &stats.TotalPlaylists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ChannelStats{}, ErrNotFound
		}
		return models.ChannelStats{}, fmt.Errorf("select channel stats: %w", err)
	}

	rows, err := tx.Query(ctx, `
        SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
               v.duration, v.is_published, v.created_at, v.updated_at,
               COUNT(l.id) AS total_likes
        FROM videos v
        LEFT JOIN likes l ON l.video_id = v.id
        WHERE v.owner_id = $1
        GROUP BY v.id
        ORDER BY v.created_at DESC, v.id DESC
    `, userID)
	if err != nil {
		return models.ChannelStats{}, fmt.Errorf("query channel videos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.VideoWithLikes
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Title, &item.Description, &item.VideoFile,
			&item.Thumbnail, &item.Duration, &item.IsPublished, &item.CreatedAt, &item.UpdatedAt,
			&item.TotalLikes); err != nil {
			return models.ChannelStats{}, fmt.Errorf("scan channel video: %w", err)
		}
		stats.Videos = append(stats.Videos, item)
	}
	if err := rows.Err(); err != nil {
		return models.ChannelStats{}, fmt.Errorf("iterate channel videos: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.ChannelStats{}, fmt.Errorf("commit stats transaction: %w", err)
	}

	stats.TotalVideos = len(stats.Videos)
	return stats, nil
}

// ChannelProfile resolves a channel's public profile by username, including
// subscription counts and whether viewerID is among the subscribers.
func (r *PostgresReadModel) ChannelProfile(ctx context.Context, userName, viewerID string) (models.ChannelProfile, error) {
	ctx, span := logging.StartSpan(ctx, "readmodel.channel_profile")
	defer span.End()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT u.id, u.user_name, u.full_name, u.email, u.avatar_url, u.cover_image_url,
               (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id),
               (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id),
               EXISTS (SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = $2)
        FROM users u
        WHERE u.user_name = lower($1)
    `, userName, viewerID)

	var (
		profile    models.ChannelProfile
		coverImage sql.NullString
	)
	if err := row.Scan(&profile.ID, &profile.UserName, &profile.FullName, &profile.Email,
		&profile.Avatar, &coverImage, &profile.SubscribersCount,
		&profile.ChannelsSubscribedToCount, &profile.IsSubscribed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ChannelProfile{}, ErrNotFound
		}
		return models.ChannelProfile{}, fmt.Errorf("select channel profile: %w", err)
	}

	profile.CoverImage = coverImage.String
	return profile, nil
}

// WatchHistory resolves the user's watched videos, most recent first, each
// joined with the owner's public profile.
func (r *PostgresReadModel) WatchHistory(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error) {
	ctx, span := logging.StartSpan(ctx, "readmodel.watch_history")
	defer span.End()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
               v.duration, v.is_published, v.created_at, v.updated_at,
               u.id, u.user_name, u.full_name, u.avatar_url,
               wh.watched_at
        FROM watch_history wh
        JOIN videos v ON v.id = wh.video_id
        JOIN users u ON u.id = v.owner_id
        WHERE wh.user_id = $1
        ORDER BY wh.watched_at DESC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query watch history: %w", err)
	}
	defer rows.Close()

	var entries []models.WatchHistoryEntry
	for rows.Next() {
		var entry models.WatchHistoryEntry
		if err := rows.Scan(&entry.ID, &entry.OwnerID, &entry.Title, &entry.Description, &entry.VideoFile,
			&entry.Thumbnail, &entry.Duration, &entry.IsPublished, &entry.CreatedAt, &entry.UpdatedAt,
			&entry.Owner.ID, &entry.Owner.UserName, &entry.Owner.FullName, &entry.Owner.Avatar,
			&entry.WatchedAt); err != nil {
			return nil, fmt.Errorf("scan watch history entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watch history: %w", err)
	}

	return entries, nil
}

// VideosForOwner lists every video of a channel, published or not, joined
// with the owner projection. Used by the owner-facing dashboard.
func (r *PostgresReadModel) VideosForOwner(ctx context.Context, ownerID string) ([]models.VideoWithOwner, error) {
	ctx, span := logging.StartSpan(ctx, "readmodel.videos_for_owner")
	defer span.End()

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
               v.duration, v.is_published, v.created_at, v.updated_at,
               u.id, u.user_name, u.full_name, u.avatar_url
        FROM videos v
        JOIN users u ON u.id = v.owner_id
        WHERE v.owner_id = $1
        ORDER BY v.created_at DESC, v.id DESC
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query owner videos: %w", err)
	}
	defer rows.Close()

	var videos []models.VideoWithOwner
	for rows.Next() {
		var item models.VideoWithOwner
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Title, &item.Description, &item.VideoFile,
			&item.Thumbnail, &item.Duration, &item.IsPublished, &item.CreatedAt, &item.UpdatedAt,
			&item.Owner.ID, &item.Owner.UserName, &item.Owner.FullName, &item.Owner.Avatar); err != nil {
			return nil, fmt.Errorf("scan owner video: %w", err)
		}
		videos = append(videos, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owner videos: %w", err)
	}

	return videos, nil
}

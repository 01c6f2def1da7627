package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/xid"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
)

// PostgresLikeRepository provides PostgreSQL-backed persistence for likes.
type PostgresLikeRepository struct {
	pool db.Pool
}

// NewPostgresLikeRepository constructs a like repository backed by PostgreSQL.
func NewPostgresLikeRepository(pool db.Pool) *PostgresLikeRepository {
	return &PostgresLikeRepository{pool: pool}
}

var likeTargetColumns = map[models.LikeTarget]string{
	models.LikeTargetVideo:   "video_id",
	models.LikeTargetComment: "comment_id",
	models.LikeTargetTweet:   "tweet_id",
}

// Toggle flips the like state for (actorID, target). It returns the created
// row, or nil when an existing like was removed. Both arms are single atomic
// statements: the conditional DELETE and the conflict-tolerant INSERT cannot
// leave two rows for the same pair no matter how calls interleave.
func (r *PostgresLikeRepository) Toggle(ctx context.Context, actorID string, target models.LikeTarget, targetID string) (*models.Like, error) {
	column, ok := likeTargetColumns[target]
	if !ok {
		return nil, fmt.Errorf("unknown like target %q", target)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, fmt.Sprintf(`
        DELETE FROM likes WHERE liked_by = $1 AND %s = $2
    `, column), actorID, targetID)
	if err != nil {
		return nil, fmt.Errorf("delete like: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil, nil
	}

	like := models.Like{
		ID:        xid.New().String(),
		LikedBy:   actorID,
		CreatedAt: time.Now().UTC(),
	}
	row := conn.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO likes (id, liked_by, %[1]s, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (liked_by, %[1]s) WHERE %[1]s IS NOT NULL DO NOTHING
        RETURNING id, created_at
    `, column), like.ID, actorID, targetID, like.CreatedAt)

	switch err := row.Scan(&like.ID, &like.CreatedAt); {
	case err == nil:
	case errors.Is(err, pgx.ErrNoRows):
		// A concurrent toggle inserted first; the pair is liked either way.
		existing := conn.QueryRow(ctx, fmt.Sprintf(`
            SELECT id, created_at FROM likes WHERE liked_by = $1 AND %s = $2
        `, column), actorID, targetID)
		if scanErr := existing.Scan(&like.ID, &like.CreatedAt); scanErr != nil {
			if errors.Is(scanErr, pgx.ErrNoRows) {
				return nil, nil
			}
			return nil, fmt.Errorf("reload like: %w", scanErr)
		}
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, ErrInvalidReference
		}
		return nil, fmt.Errorf("insert like: %w", err)
	}

	switch target {
	case models.LikeTargetVideo:
		like.VideoID = targetID
	case models.LikeTargetComment:
		like.CommentID = targetID
	case models.LikeTargetTweet:
		like.TweetID = targetID
	}

	return &like, nil
}

// LikedVideos returns the published videos the user has liked, plus the count.
func (r *PostgresLikeRepository) LikedVideos(ctx context.Context, userID string) ([]models.Video, int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+prefixed("v", videoColumns)+`
        FROM likes l
        JOIN videos v ON v.id = l.video_id
        WHERE l.liked_by = $1 AND v.is_published
        ORDER BY l.created_at DESC
    `, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("query liked videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var video models.Video
		if err := rows.Scan(&video.ID, &video.OwnerID, &video.Title, &video.Description, &video.VideoFile,
			&video.Thumbnail, &video.Duration, &video.IsPublished, &video.CreatedAt, &video.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan liked video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate liked videos: %w", err)
	}

	return videos, len(videos), nil
}

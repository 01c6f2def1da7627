package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pagination"
)

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

const commentColumns = `id, video_id, owner_id, content, created_at, updated_at`

// Create stores a new comment.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, video_id, owner_id, content, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, comment.ID, comment.VideoID, comment.OwnerID, comment.Content, comment.CreatedAt, comment.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrInvalidReference
		}
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// ForVideo returns one page of a video's comments, newest first, plus the
// total comment count for the video.
func (r *PostgresCommentRepository) ForVideo(ctx context.Context, videoID string, page pagination.Page) (pagination.Result[models.Comment], error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return pagination.Result[models.Comment]{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	// The total is counted separately from the page query so a page past the
	// last row still reports how many rows match.
	var result pagination.Result[models.Comment]
	if err := conn.QueryRow(ctx, `
        SELECT COUNT(*) FROM comments WHERE video_id = $1
    `, videoID).Scan(&result.TotalCount); err != nil {
		return pagination.Result[models.Comment]{}, fmt.Errorf("count comments: %w", err)
	}

	rows, err := conn.Query(ctx, `
        SELECT `+commentColumns+`
        FROM comments
        WHERE video_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2 OFFSET $3
    `, videoID, page.Limit, page.Offset())
	if err != nil {
		return pagination.Result[models.Comment]{}, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var comment models.Comment
		if err := rows.Scan(&comment.ID, &comment.VideoID, &comment.OwnerID, &comment.Content,
			&comment.CreatedAt, &comment.UpdatedAt); err != nil {
			return pagination.Result[models.Comment]{}, fmt.Errorf("scan comment: %w", err)
		}
		result.Items = append(result.Items, comment)
	}
	if err := rows.Err(); err != nil {
		return pagination.Result[models.Comment]{}, fmt.Errorf("iterate comments: %w", err)
	}

	return result, nil
}

// Update replaces the content of a comment owned by ownerID.
func (r *PostgresCommentRepository) Update(ctx context.Context, commentID, ownerID, content string) (models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Comment{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE comments
        SET content = $3, updated_at = now()
        WHERE id = $1 AND owner_id = $2
        RETURNING `+commentColumns+`
    `, commentID, ownerID, content)

	var comment models.Comment
	if err := row.Scan(&comment.ID, &comment.VideoID, &comment.OwnerID, &comment.Content,
		&comment.CreatedAt, &comment.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Comment{}, ErrNotFound
		}
		return models.Comment{}, fmt.Errorf("update comment: %w", err)
	}

	return comment, nil
}

// Delete removes a comment owned by ownerID.
func (r *PostgresCommentRepository) Delete(ctx context.Context, commentID, ownerID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM comments WHERE id = $1 AND owner_id = $2
    `, commentID, ownerID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

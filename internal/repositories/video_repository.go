package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pagination"
)

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const videoColumns = `id, owner_id, title, description, video_url, thumbnail_url, duration, is_published, created_at, updated_at`

// VideoListFilter narrows and orders the paginated video listing.
type VideoListFilter struct {
	// Query matches title or description, case-insensitively.
	Query string
	// OwnerID restricts results to a single channel.
	OwnerID string
	// SortBy is one of createdAt, title, duration. Empty means createdAt.
	SortBy string
	// Ascending flips the default newest-first ordering.
	Ascending bool
	// PublishedOnly excludes unpublished videos; the public listing sets it.
	PublishedOnly bool
}

var videoSortColumns = map[string]string{
	"":          "created_at",
	"createdAt": "created_at",
	"title":     "title",
	"duration":  "duration",
}

// ErrUnknownSortKey reports a sort key outside the whitelist.
var ErrUnknownSortKey = errors.New("unknown sort key")

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, description, video_url, thumbnail_url, duration, is_published, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, video.ID, video.OwnerID, video.Title, video.Description, video.VideoFile, video.Thumbnail,
		video.Duration, video.IsPublished, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrInvalidReference
			}
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a single video.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id)

	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video: %w", err)
	}
	return video, nil
}

// UpdateMetadata modifies title, description, and optionally the thumbnail of
// a video owned by ownerID. It returns the previous thumbnail URL so the
// caller can delete the superseded asset when a new one was set.
func (r *PostgresVideoRepository) UpdateMetadata(ctx context.Context, videoID, ownerID, title, description, thumbnailURL string) (models.Video, string, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, "", fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE videos
        SET title = COALESCE(NULLIF($3, ''), title),
            description = COALESCE(NULLIF($4, ''), description),
            thumbnail_url = COALESCE(NULLIF($5, ''), thumbnail_url),
            updated_at = now()
        FROM (SELECT id, thumbnail_url AS previous FROM videos WHERE id = $1 AND owner_id = $2) AS prev
        WHERE videos.id = prev.id
        RETURNING `+prefixed("videos", videoColumns)+`, prev.previous
    `, videoID, ownerID, title, description, thumbnailURL)

	var (
		video    models.Video
		previous string
	)
	if err := row.Scan(&video.ID, &video.OwnerID, &video.Title, &video.Description, &video.VideoFile,
		&video.Thumbnail, &video.Duration, &video.IsPublished, &video.CreatedAt, &video.UpdatedAt, &previous); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, "", ErrNotFound
		}
		return models.Video{}, "", fmt.Errorf("update video: %w", err)
	}

	return video, previous, nil
}

// TogglePublish flips the published flag of a video owned by ownerID.
func (r *PostgresVideoRepository) TogglePublish(ctx context.Context, videoID, ownerID string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        UPDATE videos
        SET is_published = NOT is_published, updated_at = now()
        WHERE id = $1 AND owner_id = $2
        RETURNING `+videoColumns+`
    `, videoID, ownerID)

	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("toggle publish: %w", err)
	}
	return video, nil
}

// Delete removes a video owned by ownerID and returns the deleted row so the
// caller can drop its media assets. Comments, likes, playlist entries, and
// watch history rows go with it via ON DELETE CASCADE.
func (r *PostgresVideoRepository) Delete(ctx context.Context, videoID, ownerID string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        DELETE FROM videos WHERE id = $1 AND owner_id = $2
        RETURNING `+videoColumns+`
    `, videoID, ownerID)

	video, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("delete video: %w", err)
	}
	return video, nil
}

// List returns one page of videos matching the filter together with the total
// match count. The count ignores pagination by definition.
func (r *PostgresVideoRepository) List(ctx context.Context, filter VideoListFilter, page pagination.Page) (pagination.Result[models.VideoWithOwner], error) {
	sortColumn, ok := videoSortColumns[filter.SortBy]
	if !ok {
		return pagination.Result[models.VideoWithOwner]{}, fmt.Errorf("%w: %q", ErrUnknownSortKey, filter.SortBy)
	}
	direction := "DESC"
	if filter.Ascending {
		direction = "ASC"
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return pagination.Result[models.VideoWithOwner]{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	// The total is counted separately from the page query so a page past the
	// last row still reports how many rows match.
	var result pagination.Result[models.VideoWithOwner]
	if err := conn.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM videos v
        WHERE ($1 = '' OR v.title ILIKE '%' || $1 || '%' OR v.description ILIKE '%' || $1 || '%')
          AND ($2 = '' OR v.owner_id = $2)
          AND (NOT $3::bool OR v.is_published)
    `, filter.Query, filter.OwnerID, filter.PublishedOnly).Scan(&result.TotalCount); err != nil {
		return pagination.Result[models.VideoWithOwner]{}, fmt.Errorf("count videos: %w", err)
	}

	rows, err := conn.Query(ctx, fmt.Sprintf(`
        SELECT v.id, v.owner_id, v.title, v.description, v.video_url, v.thumbnail_url,
               v.duration, v.is_published, v.created_at, v.updated_at,
               u.id, u.user_name, u.full_name, u.avatar_url
        FROM videos v
        JOIN users u ON u.id = v.owner_id
        WHERE ($1 = '' OR v.title ILIKE '%%' || $1 || '%%' OR v.description ILIKE '%%' || $1 || '%%')
          AND ($2 = '' OR v.owner_id = $2)
          AND (NOT $3::bool OR v.is_published)
        ORDER BY v.%s %s, v.id DESC
        LIMIT $4 OFFSET $5
    `, sortColumn, direction), filter.Query, filter.OwnerID, filter.PublishedOnly, page.Limit, page.Offset())
	if err != nil {
		return pagination.Result[models.VideoWithOwner]{}, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.VideoWithOwner
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Title, &item.Description, &item.VideoFile,
			&item.Thumbnail, &item.Duration, &item.IsPublished, &item.CreatedAt, &item.UpdatedAt,
			&item.Owner.ID, &item.Owner.UserName, &item.Owner.FullName, &item.Owner.Avatar); err != nil {
			return pagination.Result[models.VideoWithOwner]{}, fmt.Errorf("scan video row: %w", err)
		}
		result.Items = append(result.Items, item)
	}
	if err := rows.Err(); err != nil {
		return pagination.Result[models.VideoWithOwner]{}, fmt.Errorf("iterate videos: %w", err)
	}

	return result, nil
}

func scanVideo(row pgx.Row) (models.Video, error) {
	var video models.Video
	err := row.Scan(&video.ID, &video.OwnerID, &video.Title, &video.Description, &video.VideoFile,
		&video.Thumbnail, &video.Duration, &video.IsPublished, &video.CreatedAt, &video.UpdatedAt)
	return video, err
}

func prefixed(alias, columns string) string {
	cols := strings.Split(columns, ",")
	for i, col := range cols {
		cols[i] = alias + "." + strings.TrimSpace(col)
	}
	return strings.Join(cols, ", ")
}

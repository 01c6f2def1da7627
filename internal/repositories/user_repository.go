package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, user_name, email, full_name, password_hash, avatar_url, cover_image_url, refresh_token, created_at, updated_at`

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, user_name, email, full_name, password_hash, avatar_url, cover_image_url, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `, user.ID, user.UserName, user.Email, user.FullName, user.Password, user.Avatar, nullable(user.CoverImage), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by primary key.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

// FindByUserName fetches a user by their case-normalized username.
func (r *PostgresUserRepository) FindByUserName(ctx context.Context, userName string) (models.User, error) {
	return r.findOne(ctx, `WHERE user_name = lower($1)`, userName)
}

// FindByIdentifier fetches a user by username or email, whichever matches.
func (r *PostgresUserRepository) FindByIdentifier(ctx context.Context, identifier string) (models.User, error) {
	return r.findOne(ctx, `WHERE user_name = lower($1) OR email = lower($1)`, identifier)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, where string, args ...any) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users `+where, args...)

	var (
		user         models.User
		coverImage   sql.NullString
		refreshToken sql.NullString
	)
	if err := row.Scan(&user.ID, &user.UserName, &user.Email, &user.FullName, &user.Password,
		&user.Avatar, &coverImage, &refreshToken, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}

	user.CoverImage = coverImage.String
	user.RefreshToken = refreshToken.String
	return user, nil
}

// UpdateDetails modifies the mutable profile fields of a user.
func (r *PostgresUserRepository) UpdateDetails(ctx context.Context, userID, fullName, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET full_name = COALESCE(NULLIF($2, ''), full_name),
            email = COALESCE(NULLIF(lower($3), ''), email),
            updated_at = now()
        WHERE id = $1
    `, userID, fullName, email)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.User{}, ErrConflict
		}
		return models.User{}, fmt.Errorf("update user details: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.User{}, ErrNotFound
	}

	return r.FindByID(ctx, userID)
}

// UpdateAvatar replaces the avatar URL and returns the previous one so the
// caller can delete the superseded asset.
func (r *PostgresUserRepository) UpdateAvatar(ctx context.Context, userID, avatarURL string) (string, error) {
	return r.swapImage(ctx, `avatar_url`, userID, avatarURL)
}

// UpdateCoverImage replaces the cover image URL and returns the previous one.
func (r *PostgresUserRepository) UpdateCoverImage(ctx context.Context, userID, coverURL string) (string, error) {
	return r.swapImage(ctx, `cover_image_url`, userID, coverURL)
}

func (r *PostgresUserRepository) swapImage(ctx context.Context, column, userID, url string) (string, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	// Column name comes from the two callers above, never from input. The
	// self-join exposes the pre-update URL so the caller can delete the old
	// asset from the media store.
	row := conn.QueryRow(ctx, fmt.Sprintf(`
        UPDATE users
        SET %[1]s = $2, updated_at = now()
        FROM (SELECT id, %[1]s AS previous FROM users WHERE id = $1) AS prev
        WHERE users.id = prev.id
        RETURNING prev.previous
    `, column), userID, url)

	var previous sql.NullString
	if err := row.Scan(&previous); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("update user %s: %w", column, err)
	}

	return previous.String, nil
}

// UpdatePassword stores a new password hash.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1
    `, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRefreshToken overwrites the stored refresh token, invalidating any
// previously issued session.
func (r *PostgresUserRepository) SetRefreshToken(ctx context.Context, userID, token string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users SET refresh_token = $2, updated_at = now() WHERE id = $1
    `, userID, token)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RotateRefreshToken swaps old for new only if old is still the stored value.
// The single conditional UPDATE is what serializes concurrent refreshes.
func (r *PostgresUserRepository) RotateRefreshToken(ctx context.Context, userID, old, new string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users SET refresh_token = $3, updated_at = now()
        WHERE id = $1 AND refresh_token = $2
    `, userID, old, new)
	if err != nil {
		return false, fmt.Errorf("rotate refresh token: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// ClearRefreshToken removes the stored refresh token (logout).
func (r *PostgresUserRepository) ClearRefreshToken(ctx context.Context, userID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        UPDATE users SET refresh_token = NULL, updated_at = now() WHERE id = $1
    `, userID)
	if err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// RecordWatch upserts a watch-history entry, bumping watched_at on re-watch
// so the history stays ordered by most recent view.
func (r *PostgresUserRepository) RecordWatch(ctx context.Context, userID, videoID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO watch_history (user_id, video_id, watched_at)
        VALUES ($1, $2, now())
        ON CONFLICT (user_id, video_id)
        DO UPDATE SET watched_at = now()
    `, userID, videoID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrInvalidReference
		}
		return fmt.Errorf("record watch: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

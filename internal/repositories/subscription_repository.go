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

// ErrSelfSubscription indicates a user attempted to subscribe to themselves.
var ErrSelfSubscription = errors.New("cannot subscribe to own channel")

// PostgresSubscriptionRepository provides PostgreSQL-backed persistence for subscriptions.
type PostgresSubscriptionRepository struct {
	pool db.Pool
}

// NewPostgresSubscriptionRepository constructs a subscription repository backed by PostgreSQL.
func NewPostgresSubscriptionRepository(pool db.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

// Toggle flips the subscription state for (subscriberID, channelID). It
// returns the created row, or nil when an existing subscription was removed.
// Same atomic delete-then-conflict-tolerant-insert shape as like toggling.
func (r *PostgresSubscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID string) (*models.Subscription, error) {
	if subscriberID == channelID {
		return nil, ErrSelfSubscription
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2
    `, subscriberID, channelID)
	if err != nil {
		return nil, fmt.Errorf("delete subscription: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil, nil
	}

	sub := models.Subscription{
		ID:           xid.New().String(),
		SubscriberID: subscriberID,
		ChannelID:    channelID,
		CreatedAt:    time.Now().UTC(),
	}
	row := conn.QueryRow(ctx, `
        INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (subscriber_id, channel_id) DO NOTHING
        RETURNING id, created_at
    `, sub.ID, sub.SubscriberID, sub.ChannelID, sub.CreatedAt)

	switch err := row.Scan(&sub.ID, &sub.CreatedAt); {
	case err == nil:
	case errors.Is(err, pgx.ErrNoRows):
		existing := conn.QueryRow(ctx, `
            SELECT id, created_at FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2
        `, subscriberID, channelID)
		if scanErr := existing.Scan(&sub.ID, &sub.CreatedAt); scanErr != nil {
			if errors.Is(scanErr, pgx.ErrNoRows) {
				return nil, nil
			}
			return nil, fmt.Errorf("reload subscription: %w", scanErr)
		}
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23503":
				return nil, ErrInvalidReference
			case "23514":
				return nil, ErrSelfSubscription
			}
		}
		return nil, fmt.Errorf("insert subscription: %w", err)
	}

	return &sub, nil
}

// Subscribers lists the public profiles subscribed to the channel, plus the count.
func (r *PostgresSubscriptionRepository) Subscribers(ctx context.Context, channelID string) ([]models.Profile, int, error) {
	return r.listProfiles(ctx, `
        SELECT u.id, u.user_name, u.full_name, u.avatar_url
        FROM subscriptions s
        JOIN users u ON u.id = s.subscriber_id
        WHERE s.channel_id = $1
        ORDER BY s.created_at DESC
    `, channelID)
}

// SubscribedChannels lists the channels the user follows, plus the count.
func (r *PostgresSubscriptionRepository) SubscribedChannels(ctx context.Context, subscriberID string) ([]models.Profile, int, error) {
	return r.listProfiles(ctx, `
        SELECT u.id, u.user_name, u.full_name, u.avatar_url
        FROM subscriptions s
        JOIN users u ON u.id = s.channel_id
        WHERE s.subscriber_id = $1
        ORDER BY s.created_at DESC
    `, subscriberID)
}

func (r *PostgresSubscriptionRepository) listProfiles(ctx context.Context, query, id string) ([]models.Profile, int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, id)
	if err != nil {
		return nil, 0, fmt.Errorf("query subscription profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.Profile
	for rows.Next() {
		var profile models.Profile
		if err := rows.Scan(&profile.ID, &profile.UserName, &profile.FullName, &profile.Avatar); err != nil {
			return nil, 0, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate profiles: %w", err)
	}

	return profiles, len(profiles), nil
}

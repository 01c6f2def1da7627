package handlers

import (
	"context"
	"io"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/notify"
	"github.com/videotube/backend/internal/pagination"
	"github.com/videotube/backend/internal/repositories"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUserName(ctx context.Context, userName string) (models.User, error)
	UpdateDetails(ctx context.Context, userID, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, userID, avatarURL string) (string, error)
	UpdateCoverImage(ctx context.Context, userID, coverURL string) (string, error)
	RecordWatch(ctx context.Context, userID, videoID string) error
}

// SessionManager authenticates users and manages their token pairs.
type SessionManager interface {
	Authenticate(ctx context.Context, identifier, password string) (models.User, models.SessionTokens, error)
	IssueTokenPair(ctx context.Context, user models.User) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}

// AccessVerifier validates access tokens for the auth middleware.
type AccessVerifier interface {
	VerifyAccess(ctx context.Context, token string) (models.User, error)
}

// VideoStore captures persistence for video management.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	UpdateMetadata(ctx context.Context, videoID, ownerID, title, description, thumbnailURL string) (models.Video, string, error)
	TogglePublish(ctx context.Context, videoID, ownerID string) (models.Video, error)
	Delete(ctx context.Context, videoID, ownerID string) (models.Video, error)
	List(ctx context.Context, filter repositories.VideoListFilter, page pagination.Page) (pagination.Result[models.VideoWithOwner], error)
}

// CommentStore captures persistence for video comments.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	ForVideo(ctx context.Context, videoID string, page pagination.Page) (pagination.Result[models.Comment], error)
	Update(ctx context.Context, commentID, ownerID, content string) (models.Comment, error)
	Delete(ctx context.Context, commentID, ownerID string) error
}

// TweetStore captures persistence for tweets.
type TweetStore interface {
	Create(ctx context.Context, tweet models.Tweet) error
	ForOwner(ctx context.Context, ownerID string) ([]models.Tweet, error)
	Update(ctx context.Context, tweetID, ownerID, content string) (models.Tweet, error)
	Delete(ctx context.Context, tweetID, ownerID string) error
}

// LikeStore toggles likes and lists liked videos.
type LikeStore interface {
	Toggle(ctx context.Context, actorID string, target models.LikeTarget, targetID string) (*models.Like, error)
	LikedVideos(ctx context.Context, userID string) ([]models.Video, int, error)
}

// SubscriptionStore toggles subscriptions and lists both directions.
type SubscriptionStore interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (*models.Subscription, error)
	Subscribers(ctx context.Context, channelID string) ([]models.Profile, int, error)
	SubscribedChannels(ctx context.Context, subscriberID string) ([]models.Profile, int, error)
}

// PlaylistStore captures persistence for playlists.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.Playlist, error)
	ForOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	Update(ctx context.Context, playlistID, ownerID, name, description string) (models.Playlist, error)
	Delete(ctx context.Context, playlistID, ownerID string) error
	AddVideo(ctx context.Context, playlistID, ownerID, videoID string) (models.Playlist, error)
	RemoveVideo(ctx context.Context, playlistID, ownerID, videoID string) (models.Playlist, error)
}

// ReadModel serves the aggregated channel and history queries.
type ReadModel interface {
	ChannelStats(ctx context.Context, userID string) (models.ChannelStats, error)
	ChannelProfile(ctx context.Context, userName, viewerID string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error)
	VideosForOwner(ctx context.Context, ownerID string) ([]models.VideoWithOwner, error)
}

// MediaStore persists uploaded files and deletes replaced ones.
type MediaStore interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// Notifier schedules fire-and-forget outbound mail.
type Notifier interface {
	Enqueue(ctx context.Context, msg notify.Message) error
}

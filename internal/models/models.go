package models

import "time"

// User represents an account within the VideoTube platform. The password hash
// and the currently active refresh token never leave the process boundary.
type User struct {
	ID           string    `json:"id"`
	UserName     string    `json:"userName"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	Password     string    `json:"-"`
	Avatar       string    `json:"avatar"`
	CoverImage   string    `json:"coverImage,omitempty"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the minimal public projection of a user embedded in composite
// read results.
type Profile struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

// Profile returns the public projection of the user.
func (u User) Profile() Profile {
	return Profile{ID: u.ID, UserName: u.UserName, FullName: u.FullName, Avatar: u.Avatar}
}

// Video is an uploaded video with its hosted media locations.
type Video struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Duration    float64   `json:"duration"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// VideoWithOwner decorates a video with the owner's public profile.
type VideoWithOwner struct {
	Video
	Owner Profile `json:"ownerDetails"`
}

// VideoWithLikes decorates a video with its derived like count.
type VideoWithLikes struct {
	Video
	TotalLikes int `json:"totalLikes"`
}

// Comment is a user comment attached to a video.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"video"`
	OwnerID   string    `json:"owner"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LikeTarget identifies the kind of entity a like row points at.
type LikeTarget string

const (
	LikeTargetVideo   LikeTarget = "video"
	LikeTargetComment LikeTarget = "comment"
	LikeTargetTweet   LikeTarget = "tweet"
)

// Like records that a user liked exactly one of a video, comment, or tweet.
// At most one row exists per (LikedBy, target) pair.
type Like struct {
	ID        string    `json:"id"`
	LikedBy   string    `json:"likedBy"`
	VideoID   string    `json:"video,omitempty"`
	CommentID string    `json:"comment,omitempty"`
	TweetID   string    `json:"tweet,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Tweet is a short text post owned by a user.
type Tweet struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Playlist is a named, ordered set of videos. Adding a video that is already
// present is a no-op.
type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VideoIDs    []string  `json:"videos"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Subscription records that a subscriber follows a channel (another user).
// At most one row exists per (SubscriberID, ChannelID) pair.
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriber"`
	ChannelID    string    `json:"channel"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ChannelStats is the aggregate dashboard summary for a channel owner. The
// misspelled totalChannlesSubscribedTo key is part of the public contract.
type ChannelStats struct {
	UserName                  string           `json:"userName"`
	FullName                  string           `json:"fullName"`
	Avatar                    string           `json:"avatar"`
	Videos                    []VideoWithLikes `json:"videos"`
	TotalVideos               int              `json:"totalVideos"`
	TotalSubscribers          int              `json:"totalSubscribers"`
	TotalChannlesSubscribedTo int              `json:"totalChannlesSubscribedTo"`
	TotalPlaylists            int              `json:"totalPlaylists"`
}

// ChannelProfile is the public view of a channel resolved by username,
// including subscription counts relative to the requesting viewer.
type ChannelProfile struct {
	ID                        string `json:"id"`
	UserName                  string `json:"userName"`
	FullName                  string `json:"fullName"`
	Email                     string `json:"email"`
	Avatar                    string `json:"avatar"`
	CoverImage                string `json:"coverImage,omitempty"`
	SubscribersCount          int    `json:"subscribersCount"`
	ChannelsSubscribedToCount int    `json:"channlesSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}

// WatchHistoryEntry is a watched video joined with its owner's profile.
type WatchHistoryEntry struct {
	Video
	Owner     Profile   `json:"ownerDetails"`
	WatchedAt time.Time `json:"watchedAt"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

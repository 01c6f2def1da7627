package handlers

import (
	"net/http"

	"github.com/videotube/backend/internal/media"
	"github.com/videotube/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Verifier      AccessVerifier
	Videos        VideoStore
	Comments      CommentStore
	Tweets        TweetStore
	Likes         LikeStore
	Subscriptions SubscriptionStore
	Playlists     PlaylistStore
	ReadModel     ReadModel
	Media         MediaStore
	Prober        media.DurationProber
	Mail          Notifier
	DB            Pinger
	AuthLimiter   middleware.RateLimiter

	MaxUploadBytes int64
	MaxPageSize    int
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{DB: deps.DB}
	users := UserHandler{
		Users:          deps.Users,
		Sessions:       deps.Sessions,
		ReadModel:      deps.ReadModel,
		Media:          deps.Media,
		Mail:           deps.Mail,
		MaxUploadBytes: deps.MaxUploadBytes,
	}
	videos := VideoHandler{
		Videos:         deps.Videos,
		Users:          deps.Users,
		Media:          deps.Media,
		Prober:         deps.Prober,
		MaxUploadBytes: deps.MaxUploadBytes,
		MaxPageSize:    deps.MaxPageSize,
	}
	comments := CommentHandler{Comments: deps.Comments, MaxPageSize: deps.MaxPageSize}
	likes := LikeHandler{Likes: deps.Likes}
	tweets := TweetHandler{Tweets: deps.Tweets}
	playlists := PlaylistHandler{Playlists: deps.Playlists}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions}
	dashboard := DashboardHandler{ReadModel: deps.ReadModel}

	authed := RequireAuth(deps.Verifier)
	throttled := middleware.Throttle(deps.AuthLimiter)

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.Handle("POST /api/v1/users/register", throttled(http.HandlerFunc(users.Register)))
	mux.Handle("POST /api/v1/users/login", throttled(http.HandlerFunc(users.Login)))
	mux.Handle("POST /api/v1/users/refresh-token", throttled(http.HandlerFunc(users.RefreshToken)))
	mux.Handle("POST /api/v1/users/logout", authed(http.HandlerFunc(users.Logout)))
	mux.Handle("POST /api/v1/users/change-password", authed(http.HandlerFunc(users.ChangePassword)))
	mux.Handle("GET /api/v1/users/current-user", authed(http.HandlerFunc(users.CurrentUser)))
	mux.Handle("PATCH /api/v1/users/update-user-details", authed(http.HandlerFunc(users.UpdateDetails)))
	mux.Handle("PATCH /api/v1/users/avatar", authed(http.HandlerFunc(users.UpdateAvatar)))
	mux.Handle("PATCH /api/v1/users/cover-image", authed(http.HandlerFunc(users.UpdateCoverImage)))
	mux.Handle("GET /api/v1/users/channel/{userName}", authed(http.HandlerFunc(users.Channel)))
	mux.Handle("GET /api/v1/users/watch-history", authed(http.HandlerFunc(users.WatchHistory)))

	mux.HandleFunc("GET /api/v1/videos", videos.List)
	mux.Handle("POST /api/v1/videos", authed(http.HandlerFunc(videos.Publish)))
	mux.Handle("GET /api/v1/videos/{videoId}", authed(http.HandlerFunc(videos.Get)))
	mux.Handle("PATCH /api/v1/videos/{videoId}", authed(http.HandlerFunc(videos.Update)))
	mux.Handle("DELETE /api/v1/videos/{videoId}", authed(http.HandlerFunc(videos.Delete)))
	mux.Handle("PATCH /api/v1/videos/toggle/publish/{videoId}", authed(http.HandlerFunc(videos.TogglePublish)))

	mux.HandleFunc("GET /api/v1/comments/{videoId}", comments.ForVideo)
	mux.Handle("POST /api/v1/comments/{videoId}", authed(http.HandlerFunc(comments.Create)))
	mux.Handle("PATCH /api/v1/comments/c/{commentId}", authed(http.HandlerFunc(comments.Update)))
	mux.Handle("DELETE /api/v1/comments/c/{commentId}", authed(http.HandlerFunc(comments.Delete)))

	mux.Handle("POST /api/v1/likes/toggle/v/{videoId}", authed(http.HandlerFunc(likes.ToggleVideo)))
	mux.Handle("POST /api/v1/likes/toggle/c/{commentId}", authed(http.HandlerFunc(likes.ToggleComment)))
	mux.Handle("POST /api/v1/likes/toggle/t/{tweetId}", authed(http.HandlerFunc(likes.ToggleTweet)))
	mux.Handle("GET /api/v1/likes/videos", authed(http.HandlerFunc(likes.LikedVideos)))

	mux.Handle("POST /api/v1/tweets", authed(http.HandlerFunc(tweets.Create)))
	mux.Handle("GET /api/v1/tweets/user/{userId}", authed(http.HandlerFunc(tweets.ForUser)))
	mux.Handle("PATCH /api/v1/tweets/{tweetId}", authed(http.HandlerFunc(tweets.Update)))
	mux.Handle("DELETE /api/v1/tweets/{tweetId}", authed(http.HandlerFunc(tweets.Delete)))

	mux.Handle("POST /api/v1/playlist", authed(http.HandlerFunc(playlists.Create)))
	mux.Handle("GET /api/v1/playlist/{playlistId}", authed(http.HandlerFunc(playlists.Get)))
	mux.Handle("PATCH /api/v1/playlist/{playlistId}", authed(http.HandlerFunc(playlists.Update)))
	mux.Handle("DELETE /api/v1/playlist/{playlistId}", authed(http.HandlerFunc(playlists.Delete)))
	mux.Handle("PATCH /api/v1/playlist/add/{videoId}/{playlistId}", authed(http.HandlerFunc(playlists.AddVideo)))
	mux.Handle("PATCH /api/v1/playlist/remove/{videoId}/{playlistId}", authed(http.HandlerFunc(playlists.RemoveVideo)))
	mux.Handle("GET /api/v1/playlist/user/{userId}", authed(http.HandlerFunc(playlists.ForUser)))

	mux.Handle("POST /api/v1/subscriptions/c/{channelId}", authed(http.HandlerFunc(subscriptions.Toggle)))
	mux.HandleFunc("GET /api/v1/subscriptions/c/{channelId}", subscriptions.Subscribers)
	mux.HandleFunc("GET /api/v1/subscriptions/u/{subscriberId}", subscriptions.SubscribedChannels)

	mux.Handle("GET /api/v1/dashboard/stats", authed(http.HandlerFunc(dashboard.Stats)))
	mux.Handle("GET /api/v1/dashboard/videos", authed(http.HandlerFunc(dashboard.Videos)))
}

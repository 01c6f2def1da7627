package handlers

import (
	"net/http"

	"github.com/videotube/backend/internal/apperror"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pagination"
)

// LikeHandler implements like toggling endpoints for videos, comments, and
// tweets.
type LikeHandler struct {
	Likes LikeStore
}

// ToggleVideo handles POST /api/v1/likes/toggle/v/{videoId} requests.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetVideo, r.PathValue("videoId"))
}

// ToggleComment handles POST /api/v1/likes/toggle/c/{commentId} requests.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetComment, r.PathValue("commentId"))
}

// ToggleTweet handles POST /api/v1/likes/toggle/t/{tweetId} requests.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.LikeTargetTweet, r.PathValue("tweetId"))
}

// LikedVideos handles GET /api/v1/likes/videos requests.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := mustCurrentUser(ctx, w)
	if !ok {
		return
	}

	videos, total, err := h.Likes.LikedVideos(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusOK, pagination.Result[models.Video]{
		Items:      videos,
		TotalCount: total,
	}, "liked videos fetched successfully")
}

// toggle flips the like state: the created row on like, an empty object on
// unlike.
func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, target models.LikeTarget, targetID string) {
	ctx := r.Context()

	user, ok := mustCurrentUser(ctx, w)
	if !ok {
		return
	}

	if targetID == "" {
		respondError(ctx, w, apperror.BadRequest("target id is required"))
		return
	}

	like, err := h.Likes.Toggle(ctx, user.ID, target, targetID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if like == nil {
		respondData(ctx, w, http.StatusOK, struct{}{}, "like removed")
		return
	}
	respondData(ctx, w, http.StatusOK, like, "like added")
}

package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/videotube/backend/internal/apperror"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pagination"
	"github.com/videotube/backend/internal/repositories"
)

// CommentHandler implements video comment endpoints.
type CommentHandler struct {
	Comments    CommentStore
	MaxPageSize int
	NowFunc     func() time.Time
}

// ForVideo handles GET /api/v1/comments/{videoId} requests.
func (h CommentHandler) ForVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID := r.PathValue("videoId")
	page := pagination.FromQuery(r.URL.Query(), h.MaxPageSize)

	result, err := h.Comments.ForVideo(ctx, videoID, page)
	if err != nil {
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusOK, result, "comments fetched successfully")
}

// Create handles POST /api/v1/comments/{videoId} requests.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := mustCurrentUser(ctx, w)
	if !ok {
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondError(ctx, w, apperror.ValidationFailed("content", "content is required"))
		return
	}

	now := h.now()
	comment := models.Comment{
		ID:        xid.New().String(),
		VideoID:   r.PathValue("videoId"),
		OwnerID:   user.ID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		if errors.Is(err, repositories.ErrInvalidReference) {
			respondError(ctx, w, apperror.NotFound("video"))
			return
		}
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusCreated, comment, "comment added successfully")
}

// Update handles PATCH /api/v1/comments/c/{commentId} requests.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := mustCurrentUser(ctx, w)
	if !ok {
		return
	}

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		respondError(ctx, w, apperror.ValidationFailed("content", "content is required"))
		return
	}

	comment, err := h.Comments.Update(ctx, r.PathValue("commentId"), user.ID, content)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperror.NotFound("comment"))
			return
		}
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusOK, comment, "comment updated successfully")
}

// Delete handles DELETE /api/v1/comments/c/{commentId} requests.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := mustCurrentUser(ctx, w)
	if !ok {
		return
	}

	if err := h.Comments.Delete(ctx, r.PathValue("commentId"), user.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperror.NotFound("comment"))
			return
		}
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "comment deleted successfully")
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type commentRequest struct {
	Content string `json:"content"`
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/videotube/backend/internal/apperror"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// PlaylistHandler implements playlist endpoints.
type PlaylistHandler struct {
	Playlists PlaylistStore
	NowFunc   func() time.Time
}

// Create handles POST /api/v1/playlist requests.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := mustCurrentUser(ctx, w)
	if !ok {
		return
	}

	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondError(ctx, w, apperror.ValidationFailed("name", "name is required"))
		return
	}

	now := h.now()
	playlist := models.Playlist{
		ID:          xid.New().String(),
		OwnerID:     user.ID,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		VideoIDs:    []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusCreated, playlist, "playlist created successfully")
}

// Get handles GET /api/v1/playlist/{playlistId} requests.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := mustCurrentUser(ctx, w); !ok {
		return
	}

	playlist, err := h.Playlists.FindByID(ctx, r.PathValue("playlistId"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperror.NotFound("playlist"))
			return
		}
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusOK, playlist, "playlist fetched successfully")
}

// ForUser handles GET /api/v1/playlist/user/{userId} requests.
func (h PlaylistHandler) ForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, ok := mustCurrentUser(ctx, w); !ok {
		return
	}

	playlists, err := h.Playlists.ForOwner(ctx, r.PathValue("userId"))
	if err != nil {
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusOK, playlists, "playlists fetched successfully")
}

// Update handles PATCH /api/v1/playlist/{playlistId} requests.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := mustCurrentUser(ctx, w)
	if !ok {
		return
	}

	var req playlistRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	name := strings.TrimSpace(req.Name)
	description := strings.TrimSpace(req.Description)
	if name == "" && description == "" {
		respondError(ctx, w, apperror.BadRequest("name or description is required"))
		return
	}

	playlist, err := h.Playlists.Update(ctx, r.PathValue("playlistId"), user.ID, name, description)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperror.NotFound("playlist"))
			return
		}
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusOK, playlist, "playlist updated successfully")
}

// Delete handles DELETE /api/v1/playlist/{playlistId} requests.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := mustCurrentUser(ctx, w)
	if !ok {
		return
	}

	if err := h.Playlists.Delete(ctx, r.PathValue("playlistId"), user.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperror.NotFound("playlist"))
			return
		}
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "playlist deleted successfully")
}

// AddVideo handles PATCH /api/v1/playlist/add/{videoId}/{playlistId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	h.mutateVideos(w, r, h.Playlists.AddVideo, "video added to playlist")
}

// RemoveVideo handles PATCH /api/v1/playlist/remove/{videoId}/{playlistId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	h.mutateVideos(w, r, h.Playlists.RemoveVideo, "video removed from playlist")
}

func (h PlaylistHandler) mutateVideos(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, playlistID, ownerID, videoID string) (models.Playlist, error), message string) {
	ctx := r.Context()

	user, ok := mustCurrentUser(ctx, w)
	if !ok {
		return
	}

	playlist, err := op(ctx, r.PathValue("playlistId"), user.ID, r.PathValue("videoId"))
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			respondError(ctx, w, apperror.NotFound("playlist"))
		case errors.Is(err, repositories.ErrInvalidReference):
			respondError(ctx, w, apperror.NotFound("video"))
		default:
			respondError(ctx, w, apperror.Internal(err))
		}
		return
	}

	respondData(ctx, w, http.StatusOK, playlist, message)
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

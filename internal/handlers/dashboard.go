package handlers

import (
	"net/http"

	"github.com/videotube/backend/internal/apperror"
)

// DashboardHandler implements the channel owner's dashboard endpoints.
type DashboardHandler struct {
	ReadModel ReadModel
}

// Stats handles GET /api/v1/dashboard/stats requests.
func (h DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := mustCurrentUser(ctx, w)
	if !ok {
		return
	}

	stats, err := h.ReadModel.ChannelStats(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusOK, stats, "channel stats fetched successfully")
}

// Videos handles GET /api/v1/dashboard/videos requests.
func (h DashboardHandler) Videos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := mustCurrentUser(ctx, w)
	if !ok {
		return
	}

	videos, err := h.ReadModel.VideosForOwner(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusOK, videos, "channel videos fetched successfully")
}

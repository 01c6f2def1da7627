package handlers

import (
	"net/http"

	"github.com/videotube/backend/internal/apperror"
)

// SubscriptionHandler implements channel subscription endpoints.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
}

// Toggle handles POST /api/v1/subscriptions/c/{channelId} requests.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := mustCurrentUser(ctx, w)
	if !ok {
		return
	}

	channelID := r.PathValue("channelId")
	if channelID == "" {
		respondError(ctx, w, apperror.BadRequest("channel id is required"))
		return
	}

	subscription, err := h.Subscriptions.Toggle(ctx, user.ID, channelID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if subscription == nil {
		respondData(ctx, w, http.StatusOK, struct{}{}, "unsubscribed")
		return
	}
	respondData(ctx, w, http.StatusOK, subscription, "subscribed")
}

// Subscribers handles GET /api/v1/subscriptions/c/{channelId} requests.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profiles, total, err := h.Subscriptions.Subscribers(ctx, r.PathValue("channelId"))
	if err != nil {
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusOK, listResponse{Items: profiles, TotalCount: total}, "subscribers fetched successfully")
}

// SubscribedChannels handles GET /api/v1/subscriptions/u/{subscriberId}.
func (h SubscriptionHandler) SubscribedChannels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profiles, total, err := h.Subscriptions.SubscribedChannels(ctx, r.PathValue("subscriberId"))
	if err != nil {
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusOK, listResponse{Items: profiles, TotalCount: total}, "subscribed channels fetched successfully")
}

type listResponse struct {
	Items      any `json:"items"`
	TotalCount int `json:"totalCount"`
}

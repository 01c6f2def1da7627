package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/xid"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

type fakeSubscriptionStore struct {
	subscriptions map[string]models.Subscription
}

func newFakeSubscriptionStore() *fakeSubscriptionStore {
	return &fakeSubscriptionStore{subscriptions: make(map[string]models.Subscription)}
}

func (s *fakeSubscriptionStore) Toggle(_ context.Context, subscriberID, channelID string) (*models.Subscription, error) {
	if subscriberID == channelID {
		return nil, repositories.ErrSelfSubscription
	}
	key := subscriberID + ":" + channelID
	if _, exists := s.subscriptions[key]; exists {
		delete(s.subscriptions, key)
		return nil, nil
	}
	sub := models.Subscription{ID: xid.New().String(), SubscriberID: subscriberID, ChannelID: channelID}
	s.subscriptions[key] = sub
	return &sub, nil
}

func (s *fakeSubscriptionStore) Subscribers(_ context.Context, channelID string) ([]models.Profile, int, error) {
	var profiles []models.Profile
	for _, sub := range s.subscriptions {
		if sub.ChannelID == channelID {
			profiles = append(profiles, models.Profile{ID: sub.SubscriberID})
		}
	}
	return profiles, len(profiles), nil
}

func (s *fakeSubscriptionStore) SubscribedChannels(_ context.Context, subscriberID string) ([]models.Profile, int, error) {
	var profiles []models.Profile
	for _, sub := range s.subscriptions {
		if sub.SubscriberID == subscriberID {
			profiles = append(profiles, models.Profile{ID: sub.ChannelID})
		}
	}
	return profiles, len(profiles), nil
}

func toggleSubscriptionRequest(channelID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/c/"+channelID, nil)
	req.SetPathValue("channelId", channelID)
	return asUser(req, models.User{ID: "u1"})
}

func TestSubscriptionToggle(t *testing.T) {
	store := newFakeSubscriptionStore()
	handler := SubscriptionHandler{Subscriptions: store}

	rec := httptest.NewRecorder()
	handler.Toggle(rec, toggleSubscriptionRequest("u2"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"message":"subscribed"`) {
		t.Fatalf("expected subscribed message, got %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.Toggle(rec, toggleSubscriptionRequest("u2"))

	if !strings.Contains(rec.Body.String(), `"message":"unsubscribed"`) {
		t.Fatalf("expected unsubscribed message, got %s", rec.Body.String())
	}
	if len(store.subscriptions) != 0 {
		t.Fatalf("expected no subscription rows after double toggle, got %d", len(store.subscriptions))
	}
}

func TestSubscriptionToggleSelf(t *testing.T) {
	handler := SubscriptionHandler{Subscriptions: newFakeSubscriptionStore()}

	rec := httptest.NewRecorder()
	handler.Toggle(rec, toggleSubscriptionRequest("u1"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "own channel") {
		t.Fatalf("expected self-subscription message, got %s", rec.Body.String())
	}
}

func TestSubscriptionSubscribers(t *testing.T) {
	store := newFakeSubscriptionStore()
	store.subscriptions["u1:u2"] = models.Subscription{ID: "s1", SubscriberID: "u1", ChannelID: "u2"}
	handler := SubscriptionHandler{Subscriptions: store}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions/c/u2", nil)
	req.SetPathValue("channelId", "u2")
	rec := httptest.NewRecorder()

	handler.Subscribers(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"totalCount":1`) {
		t.Fatalf("expected one subscriber, got %s", rec.Body.String())
	}
}

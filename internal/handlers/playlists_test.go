package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

type fakePlaylistStore struct {
	playlists   map[string]models.Playlist
	knownVideos map[string]bool
}

func newFakePlaylistStore() *fakePlaylistStore {
	return &fakePlaylistStore{playlists: make(map[string]models.Playlist), knownVideos: make(map[string]bool)}
}

func (s *fakePlaylistStore) Create(_ context.Context, playlist models.Playlist) error {
	s.playlists[playlist.ID] = playlist
	return nil
}

func (s *fakePlaylistStore) FindByID(_ context.Context, id string) (models.Playlist, error) {
	if playlist, ok := s.playlists[id]; ok {
		return playlist, nil
	}
	return models.Playlist{}, repositories.ErrNotFound
}

func (s *fakePlaylistStore) ForOwner(_ context.Context, ownerID string) ([]models.Playlist, error) {
	var owned []models.Playlist
	for _, playlist := range s.playlists {
		if playlist.OwnerID == ownerID {
			owned = append(owned, playlist)
		}
	}
	return owned, nil
}

func (s *fakePlaylistStore) Update(_ context.Context, playlistID, ownerID, name, description string) (models.Playlist, error) {
	playlist, ok := s.playlists[playlistID]
	if !ok || playlist.OwnerID != ownerID {
		return models.Playlist{}, repositories.ErrNotFound
	}
	if name != "" {
		playlist.Name = name
	}
	if description != "" {
		playlist.Description = description
	}
	s.playlists[playlistID] = playlist
	return playlist, nil
}

func (s *fakePlaylistStore) Delete(_ context.Context, playlistID, ownerID string) error {
	playlist, ok := s.playlists[playlistID]
	if !ok || playlist.OwnerID != ownerID {
		return repositories.ErrNotFound
	}
	delete(s.playlists, playlistID)
	return nil
}

func (s *fakePlaylistStore) AddVideo(_ context.Context, playlistID, ownerID, videoID string) (models.Playlist, error) {
	playlist, ok := s.playlists[playlistID]
	if !ok || playlist.OwnerID != ownerID {
		return models.Playlist{}, repositories.ErrNotFound
	}
	if !s.knownVideos[videoID] {
		return models.Playlist{}, repositories.ErrInvalidReference
	}
	if !slices.Contains(playlist.VideoIDs, videoID) {
		playlist.VideoIDs = append(playlist.VideoIDs, videoID)
	}
	s.playlists[playlistID] = playlist
	return playlist, nil
}

func (s *fakePlaylistStore) RemoveVideo(_ context.Context, playlistID, ownerID, videoID string) (models.Playlist, error) {
	playlist, ok := s.playlists[playlistID]
	if !ok || playlist.OwnerID != ownerID {
		return models.Playlist{}, repositories.ErrNotFound
	}
	playlist.VideoIDs = slices.DeleteFunc(playlist.VideoIDs, func(id string) bool { return id == videoID })
	s.playlists[playlistID] = playlist
	return playlist, nil
}

func TestPlaylistCreate(t *testing.T) {
	store := newFakePlaylistStore()
	handler := PlaylistHandler{Playlists: store}

	body, _ := json.Marshal(playlistRequest{Name: "Favourites", Description: "best of"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/playlist", bytes.NewReader(body))
	req = asUser(req, models.User{ID: "u1"})
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"videos":[]`) {
		t.Fatalf("expected empty videos array, got %s", rec.Body.String())
	}
}

func TestPlaylistCreateRequiresName(t *testing.T) {
	handler := PlaylistHandler{Playlists: newFakePlaylistStore()}

	body, _ := json.Marshal(playlistRequest{Description: "no name"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/playlist", bytes.NewReader(body))
	req = asUser(req, models.User{ID: "u1"})
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestPlaylistAddVideo(t *testing.T) {
	store := newFakePlaylistStore()
	store.playlists["p1"] = models.Playlist{ID: "p1", OwnerID: "u1", Name: "Mix", VideoIDs: []string{}}
	store.knownVideos["v1"] = true
	handler := PlaylistHandler{Playlists: store}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/playlist/add/v1/p1", nil)
	req.SetPathValue("videoId", "v1")
	req.SetPathValue("playlistId", "p1")
	req = asUser(req, models.User{ID: "u1"})
	rec := httptest.NewRecorder()

	handler.AddVideo(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if got := store.playlists["p1"].VideoIDs; len(got) != 1 || got[0] != "v1" {
		t.Fatalf("expected video added, got %v", got)
	}
}

func TestPlaylistAddUnknownVideo(t *testing.T) {
	store := newFakePlaylistStore()
	store.playlists["p1"] = models.Playlist{ID: "p1", OwnerID: "u1", Name: "Mix"}
	handler := PlaylistHandler{Playlists: store}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/playlist/add/missing/p1", nil)
	req.SetPathValue("videoId", "missing")
	req.SetPathValue("playlistId", "p1")
	req = asUser(req, models.User{ID: "u1"})
	rec := httptest.NewRecorder()

	handler.AddVideo(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "video not found") {
		t.Fatalf("expected video not found, got %s", rec.Body.String())
	}
}

func TestPlaylistRemoveVideo(t *testing.T) {
	store := newFakePlaylistStore()
	store.playlists["p1"] = models.Playlist{ID: "p1", OwnerID: "u1", Name: "Mix", VideoIDs: []string{"v1", "v2"}}
	handler := PlaylistHandler{Playlists: store}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/playlist/remove/v1/p1", nil)
	req.SetPathValue("videoId", "v1")
	req.SetPathValue("playlistId", "p1")
	req = asUser(req, models.User{ID: "u1"})
	rec := httptest.NewRecorder()

	handler.RemoveVideo(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if got := store.playlists["p1"].VideoIDs; len(got) != 1 || got[0] != "v2" {
		t.Fatalf("expected v1 removed, got %v", got)
	}
}

func TestPlaylistUpdateRequiresChange(t *testing.T) {
	handler := PlaylistHandler{Playlists: newFakePlaylistStore()}

	body, _ := json.Marshal(playlistRequest{})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/playlist/p1", bytes.NewReader(body))
	req.SetPathValue("playlistId", "p1")
	req = asUser(req, models.User{ID: "u1"})
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d", http.StatusBadRequest, rec.Code)
	}
}

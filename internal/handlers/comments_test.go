package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pagination"
	"github.com/videotube/backend/internal/repositories"
)

type fakeCommentStore struct {
	comments    map[string]models.Comment
	knownVideos map[string]bool
	lastPage    pagination.Page
}

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{comments: make(map[string]models.Comment), knownVideos: make(map[string]bool)}
}

func (s *fakeCommentStore) Create(_ context.Context, comment models.Comment) error {
	if !s.knownVideos[comment.VideoID] {
		return repositories.ErrInvalidReference
	}
	s.comments[comment.ID] = comment
	return nil
}

func (s *fakeCommentStore) ForVideo(_ context.Context, videoID string, page pagination.Page) (pagination.Result[models.Comment], error) {
	s.lastPage = page
	var items []models.Comment
	for _, comment := range s.comments {
		if comment.VideoID == videoID {
			items = append(items, comment)
		}
	}
	return pagination.Result[models.Comment]{Items: items, TotalCount: len(items)}, nil
}

func (s *fakeCommentStore) Update(_ context.Context, commentID, ownerID, content string) (models.Comment, error) {
	comment, ok := s.comments[commentID]
	if !ok || comment.OwnerID != ownerID {
		return models.Comment{}, repositories.ErrNotFound
	}
	comment.Content = content
	s.comments[commentID] = comment
	return comment, nil
}

func (s *fakeCommentStore) Delete(_ context.Context, commentID, ownerID string) error {
	comment, ok := s.comments[commentID]
	if !ok || comment.OwnerID != ownerID {
		return repositories.ErrNotFound
	}
	delete(s.comments, commentID)
	return nil
}

func TestCommentCreate(t *testing.T) {
	store := newFakeCommentStore()
	store.knownVideos["v1"] = true
	handler := CommentHandler{Comments: store}

	body, _ := json.Marshal(commentRequest{Content: "great video"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/comments/v1", bytes.NewReader(body))
	req.SetPathValue("videoId", "v1")
	req = asUser(req, models.User{ID: "u1"})
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	if len(store.comments) != 1 {
		t.Fatalf("expected one stored comment, got %d", len(store.comments))
	}
}

func TestCommentCreateUnknownVideo(t *testing.T) {
	handler := CommentHandler{Comments: newFakeCommentStore()}

	body, _ := json.Marshal(commentRequest{Content: "orphan"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/comments/missing", bytes.NewReader(body))
	req.SetPathValue("videoId", "missing")
	req = asUser(req, models.User{ID: "u1"})
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
}

func TestCommentForVideoClampsLimit(t *testing.T) {
	store := newFakeCommentStore()
	handler := CommentHandler{Comments: store, MaxPageSize: 50}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/comments/v1?limit=9999", nil)
	req.SetPathValue("videoId", "v1")
	rec := httptest.NewRecorder()

	handler.ForVideo(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if store.lastPage.Limit != 50 {
		t.Fatalf("expected limit clamped to 50, got %d", store.lastPage.Limit)
	}
}

func TestCommentUpdateScopedToOwner(t *testing.T) {
	store := newFakeCommentStore()
	store.comments["c1"] = models.Comment{ID: "c1", VideoID: "v1", OwnerID: "u2", Content: "original"}
	handler := CommentHandler{Comments: store}

	body, _ := json.Marshal(commentRequest{Content: "hijacked"})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/comments/c/c1", bytes.NewReader(body))
	req.SetPathValue("commentId", "c1")
	req = asUser(req, models.User{ID: "u1"})
	rec := httptest.NewRecorder()

	handler.Update(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d", http.StatusNotFound, rec.Code)
	}
	if store.comments["c1"].Content != "original" {
		t.Fatal("non-owner update must not change the comment")
	}
}

func TestCommentDelete(t *testing.T) {
	store := newFakeCommentStore()
	store.comments["c1"] = models.Comment{ID: "c1", VideoID: "v1", OwnerID: "u1"}
	handler := CommentHandler{Comments: store}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/comments/c/c1", nil)
	req.SetPathValue("commentId", "c1")
	req = asUser(req, models.User{ID: "u1"})
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if len(store.comments) != 0 {
		t.Fatal("expected comment removed")
	}
}

package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/videotube/backend/internal/apperror"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/media"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/pagination"
	"github.com/videotube/backend/internal/repositories"
)

// VideoHandler implements video publishing and management endpoints.
type VideoHandler struct {
	Videos         VideoStore
	Users          UserStore
	Media          MediaStore
	Prober         media.DurationProber
	MaxUploadBytes int64
	MaxPageSize    int
	NowFunc        func() time.Time
}

// List handles GET /api/v1/videos requests. Only published videos are
// returned.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	filter := repositories.VideoListFilter{
		Query:         strings.TrimSpace(query.Get("query")),
		OwnerID:       strings.TrimSpace(query.Get("userId")),
		SortBy:        strings.TrimSpace(query.Get("sortBy")),
		Ascending:     strings.EqualFold(query.Get("sortType"), "asc"),
		PublishedOnly: true,
	}
	page := pagination.FromQuery(query, h.MaxPageSize)

	result, err := h.Videos.List(ctx, filter, page)
	if err != nil {
		if errors.Is(err, repositories.ErrUnknownSortKey) {
			respondError(ctx, w, apperror.ValidationFailed("sortBy", "unknown sort key"))
			return
		}
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusOK, result, "videos fetched successfully")
}

// Publish handles POST /api/v1/videos requests: multipart upload of the
// video file and its thumbnail.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := mustCurrentUser(ctx, w)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(h.maxUpload()); err != nil {
		respondError(ctx, w, apperror.BadRequest("invalid multipart form"))
		return
	}
	defer cleanupMultipart(r)

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" {
		respondError(ctx, w, apperror.ValidationFailed("title", "title is required"))
		return
	}

	videoFile, videoHeader, err := r.FormFile("videoFile")
	if err != nil {
		respondError(ctx, w, apperror.ValidationFailed("videoFile", "video file is required"))
		return
	}
	defer videoFile.Close()

	thumbFile, thumbHeader, err := r.FormFile("thumbnail")
	if err != nil {
		respondError(ctx, w, apperror.ValidationFailed("thumbnail", "thumbnail file is required"))
		return
	}
	defer thumbFile.Close()

	duration, err := h.probeDuration(ctx, videoFile)
	if err != nil {
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	videoURL, err := h.saveUpload(ctx, media.PrefixVideos, videoHeader, videoFile)
	if err != nil {
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	thumbURL, err := h.saveUpload(ctx, media.PrefixThumbnails, thumbHeader, thumbFile)
	if err != nil {
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	now := h.now()
	video := models.Video{
		ID:          xid.New().String(),
		OwnerID:     user.ID,
		Title:       title,
		Description: description,
		VideoFile:   videoURL,
		Thumbnail:   thumbURL,
		Duration:    duration,
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusCreated, video, "video published successfully")
}

// Get handles GET /api/v1/videos/{videoId} requests and records the view in
// the caller's watch history.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := mustCurrentUser(ctx, w)
	if !ok {
		return
	}

	videoID := r.PathValue("videoId")
	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperror.NotFound("video"))
			return
		}
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	if !video.IsPublished && video.OwnerID != user.ID {
		respondError(ctx, w, apperror.NotFound("video"))
		return
	}

	if err := h.Users.RecordWatch(ctx, user.ID, video.ID); err != nil {
		logging.FromContext(ctx).Warn("record watch history", "videoId", video.ID, "error", err)
	}

	respondData(ctx, w, http.StatusOK, video, "video fetched successfully")
}

// Update handles PATCH /api/v1/videos/{videoId} requests. Title and
// description come as form fields; a replacement thumbnail is optional.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := mustCurrentUser(ctx, w)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(h.maxUpload()); err != nil {
		respondError(ctx, w, apperror.BadRequest("invalid multipart form"))
		return
	}
	defer cleanupMultipart(r)

	videoID := r.PathValue("videoId")
	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))

	var thumbURL string
	if thumbFile, thumbHeader, err := r.FormFile("thumbnail"); err == nil {
		defer thumbFile.Close()
		thumbURL, err = h.saveUpload(ctx, media.PrefixThumbnails, thumbHeader, thumbFile)
		if err != nil {
			respondError(ctx, w, apperror.Internal(err))
			return
		}
	}

	if title == "" && description == "" && thumbURL == "" {
		respondError(ctx, w, apperror.BadRequest("title, description, or thumbnail is required"))
		return
	}

	video, previousThumb, err := h.Videos.UpdateMetadata(ctx, videoID, user.ID, title, description, thumbURL)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperror.NotFound("video"))
			return
		}
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	if thumbURL != "" && previousThumb != "" && h.Media != nil {
		if err := h.Media.Delete(ctx, previousThumb); err != nil {
			logging.FromContext(ctx).Warn("delete replaced thumbnail", "url", previousThumb, "error", err)
		}
	}

	respondData(ctx, w, http.StatusOK, video, "video updated successfully")
}

// Delete handles DELETE /api/v1/videos/{videoId} requests, removing the
// hosted media assets along with the record.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := mustCurrentUser(ctx, w)
	if !ok {
		return
	}

	videoID := r.PathValue("videoId")
	video, err := h.Videos.Delete(ctx, videoID, user.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperror.NotFound("video"))
			return
		}
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	if h.Media != nil {
		for _, url := range []string{video.VideoFile, video.Thumbnail} {
			if url == "" {
				continue
			}
			if err := h.Media.Delete(ctx, url); err != nil {
				logging.FromContext(ctx).Warn("delete video asset", "url", url, "error", err)
			}
		}
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "video deleted successfully")
}

// TogglePublish handles PATCH /api/v1/videos/toggle/publish/{videoId}.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := mustCurrentUser(ctx, w)
	if !ok {
		return
	}

	videoID := r.PathValue("videoId")
	video, err := h.Videos.TogglePublish(ctx, videoID, user.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperror.NotFound("video"))
			return
		}
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusOK, video, "publish status toggled")
}

// probeDuration spools the upload to a temp file and asks ffprobe for its
// length. Probe failures degrade to a zero duration. A spool or rewind
// failure is returned instead: the upload stream is no longer positioned at
// the start, so saving it would store a truncated object.
func (h VideoHandler) probeDuration(ctx context.Context, file multipart.File) (float64, error) {
	if h.Prober == nil {
		return 0, nil
	}
	logger := logging.FromContext(ctx)

	tmp, err := os.CreateTemp("", "videotube-upload-*")
	if err != nil {
		logger.Warn("create probe temp file", "error", err)
		return 0, nil
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, file); err != nil {
		return 0, fmt.Errorf("spool upload for probe: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewind upload after probe: %w", err)
	}

	duration, err := h.Prober.Probe(ctx, tmp.Name())
	if err != nil {
		logger.Warn("probe video duration", "error", err)
		return 0, nil
	}
	return duration, nil
}

func (h VideoHandler) saveUpload(ctx context.Context, prefix string, header *multipart.FileHeader, file multipart.File) (string, error) {
	if h.Media == nil {
		return "", media.ErrStoreUnavailable
	}
	key := fmt.Sprintf("%s/%s%s", prefix, xid.New().String(), strings.ToLower(filepath.Ext(header.Filename)))
	return h.Media.Save(ctx, key, header.Header.Get("Content-Type"), file)
}

func (h VideoHandler) maxUpload() int64 {
	if h.MaxUploadBytes > 0 {
		return h.MaxUploadBytes
	}
	return 256 << 20
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

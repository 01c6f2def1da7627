package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/mail"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/videotube/backend/internal/apperror"
	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/media"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/notify"
	"github.com/videotube/backend/internal/repositories"
)

// UserHandler implements registration, session, and profile endpoints.
type UserHandler struct {
	Users          UserStore
	Sessions       SessionManager
	ReadModel      ReadModel
	Media          MediaStore
	Mail           Notifier
	MaxUploadBytes int64
	NowFunc        func() time.Time
}

// Register handles POST /api/v1/users/register requests. The avatar file is
// required, the cover image optional.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if err := r.ParseMultipartForm(h.maxUpload()); err != nil {
		respondError(ctx, w, apperror.BadRequest("invalid multipart form"))
		return
	}
	defer cleanupMultipart(r)

	fullName := strings.TrimSpace(r.FormValue("fullName"))
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	userName := strings.TrimSpace(strings.ToLower(r.FormValue("userName")))
	password := r.FormValue("password")

	switch {
	case fullName == "":
		respondError(ctx, w, apperror.ValidationFailed("fullName", "full name is required"))
		return
	case userName == "":
		respondError(ctx, w, apperror.ValidationFailed("userName", "username is required"))
		return
	case email == "":
		respondError(ctx, w, apperror.ValidationFailed("email", "email is required"))
		return
	case len(password) < 8:
		respondError(ctx, w, apperror.ValidationFailed("password", "password must be at least 8 characters"))
		return
	}

	if _, err := mail.ParseAddress(email); err != nil {
		respondError(ctx, w, apperror.ValidationFailed("email", "invalid email address"))
		return
	}

	avatarFile, avatarHeader, err := r.FormFile("avatar")
	if err != nil {
		respondError(ctx, w, apperror.ValidationFailed("avatar", "avatar file is required"))
		return
	}
	defer avatarFile.Close()

	avatarURL, err := h.saveUpload(ctx, media.PrefixAvatars, avatarHeader, avatarFile)
	if err != nil {
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	var coverURL string
	if coverFile, coverHeader, err := r.FormFile("coverImage"); err == nil {
		defer coverFile.Close()
		coverURL, err = h.saveUpload(ctx, media.PrefixCovers, coverHeader, coverFile)
		if err != nil {
			respondError(ctx, w, apperror.Internal(err))
			return
		}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	now := h.now()
	user := models.User{
		ID:         xid.New().String(),
		UserName:   userName,
		Email:      email,
		FullName:   fullName,
		Password:   hash,
		Avatar:     avatarURL,
		CoverImage: coverURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, apperror.Conflict("user with email or username already exists"))
			return
		}
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	if h.Mail != nil {
		msg := notify.Message{
			To:      user.Email,
			Subject: "Welcome to VideoTube",
			Body:    fmt.Sprintf("Hi %s,\n\nYour channel @%s is ready.\n", user.FullName, user.UserName),
		}
		if err := h.Mail.Enqueue(ctx, msg); err != nil {
			logger.Warn("enqueue welcome mail", "userId", user.ID, "error", err)
		}
	}

	user.Password = ""
	respondData(ctx, w, http.StatusCreated, user, "user registered successfully")
}

// Login handles POST /api/v1/users/login requests and sets the session
// cookies on success.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	identifier := req.UserName
	if identifier == "" {
		identifier = req.Email
	}

	user, tokens, err := h.Sessions.Authenticate(ctx, identifier, req.Password)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	setSessionCookies(w, tokens)
	respondData(ctx, w, http.StatusOK, loginResponse{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, "user logged in successfully")
}

// Logout handles POST /api/v1/users/logout requests.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := mustCurrentUser(ctx, w)
	if !ok {
		return
	}

	if err := h.Sessions.Revoke(ctx, user.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	clearSessionCookies(w)
	respondData(ctx, w, http.StatusOK, struct{}{}, "user logged out")
}

// RefreshToken handles POST /api/v1/users/refresh-token requests. The token
// is read from the refreshToken cookie or the request body.
func (h UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	presented := ""
	if cookie, err := r.Cookie("refreshToken"); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req refreshRequest
		if err := decodeJSON(r, &req); err == nil {
			presented = req.RefreshToken
		}
	}

	tokens, err := h.Sessions.Refresh(ctx, presented)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	setSessionCookies(w, tokens)
	respondData(ctx, w, http.StatusOK, tokens, "access token refreshed")
}

// ChangePassword handles POST /api/v1/users/change-password requests.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := mustCurrentUser(ctx, w)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Sessions.ChangePassword(ctx, user.ID, req.OldPassword, req.NewPassword); err != nil {
		respondError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "password changed successfully")
}

// CurrentUser handles GET /api/v1/users/current-user requests.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := mustCurrentUser(ctx, w)
	if !ok {
		return
	}

	respondData(ctx, w, http.StatusOK, user, "current user fetched successfully")
}

// UpdateDetails handles PATCH /api/v1/users/update-user-details requests.
func (h UserHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := mustCurrentUser(ctx, w)
	if !ok {
		return
	}

	var req updateDetailsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.FullName == "" && req.Email == "" {
		respondError(ctx, w, apperror.BadRequest("fullName or email is required"))
		return
	}
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			respondError(ctx, w, apperror.ValidationFailed("email", "invalid email address"))
			return
		}
	}

	updated, err := h.Users.UpdateDetails(ctx, user.ID, req.FullName, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, apperror.Conflict("email already in use"))
			return
		}
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	updated.Password = ""
	updated.RefreshToken = ""
	respondData(ctx, w, http.StatusOK, updated, "account details updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar requests.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", media.PrefixAvatars, h.Users.UpdateAvatar, "avatar updated successfully")
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image requests.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", media.PrefixCovers, h.Users.UpdateCoverImage, "cover image updated successfully")
}

// Channel handles GET /api/v1/users/channel/{userName} requests.
func (h UserHandler) Channel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	viewer, ok := mustCurrentUser(ctx, w)
	if !ok {
		return
	}

	userName := strings.TrimSpace(r.PathValue("userName"))
	if userName == "" {
		respondError(ctx, w, apperror.BadRequest("username is required"))
		return
	}

	profile, err := h.ReadModel.ChannelProfile(ctx, userName, viewer.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, apperror.NotFound("channel"))
			return
		}
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusOK, profile, "channel fetched successfully")
}

// WatchHistory handles GET /api/v1/users/watch-history requests.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := mustCurrentUser(ctx, w)
	if !ok {
		return
	}

	history, err := h.ReadModel.WatchHistory(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	respondData(ctx, w, http.StatusOK, history, "watch history fetched successfully")
}

func (h UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field, prefix string, update func(ctx context.Context, userID, url string) (string, error), message string) {
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

	file, header, err := r.FormFile(field)
	if err != nil {
		respondError(ctx, w, apperror.ValidationFailed(field, field+" file is required"))
		return
	}
	defer file.Close()

	url, err := h.saveUpload(ctx, prefix, header, file)
	if err != nil {
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	previous, err := update(ctx, user.ID, url)
	if err != nil {
		respondError(ctx, w, apperror.Internal(err))
		return
	}

	if previous != "" && h.Media != nil {
		if err := h.Media.Delete(ctx, previous); err != nil {
			logging.FromContext(ctx).Warn("delete replaced image", "url", previous, "error", err)
		}
	}

	respondData(ctx, w, http.StatusOK, map[string]string{field: url}, message)
}

func (h UserHandler) saveUpload(ctx context.Context, prefix string, header *multipart.FileHeader, file multipart.File) (string, error) {
	if h.Media == nil {
		return "", media.ErrStoreUnavailable
	}
	key := fmt.Sprintf("%s/%s%s", prefix, xid.New().String(), strings.ToLower(filepath.Ext(header.Filename)))
	return h.Media.Save(ctx, key, header.Header.Get("Content-Type"), file)
}

func (h UserHandler) maxUpload() int64 {
	if h.MaxUploadBytes > 0 {
		return h.MaxUploadBytes
	}
	return 32 << 20
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

func cleanupMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

func setSessionCookies(w http.ResponseWriter, tokens models.SessionTokens) {
	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    tokens.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refreshToken",
		Value:    tokens.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{"accessToken", "refreshToken"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

type loginRequest struct {
	UserName string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User         models.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type updateDetailsRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

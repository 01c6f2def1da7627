package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/videotube/backend/internal/apperror"
	"github.com/videotube/backend/internal/logging"
	"github.com/videotube/backend/internal/models"
)

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the authenticated user stored by RequireAuth.
func CurrentUser(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(currentUserKey).(models.User)
	return user, ok
}

// RequireAuth validates the access token from the accessToken cookie or the
// Authorization header and stores the sanitized user on the context.
func RequireAuth(verifier AccessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token := accessTokenFromRequest(r)
			if token == "" {
				respondError(ctx, w, apperror.Unauthenticated("access token is required"))
				return
			}

			user, err := verifier.VerifyAccess(ctx, token)
			if err != nil {
				respondError(ctx, w, err)
				return
			}

			ctx = context.WithValue(ctx, currentUserKey, user)
			ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With("user_id", user.ID))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func accessTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

// mustCurrentUser is for handlers that sit behind RequireAuth. A missing user
// means the route was wired without the middleware.
func mustCurrentUser(ctx context.Context, w http.ResponseWriter) (models.User, bool) {
	user, ok := CurrentUser(ctx)
	if !ok {
		respondError(ctx, w, apperror.Unauthenticated("authentication required"))
		return models.User{}, false
	}
	return user, true
}

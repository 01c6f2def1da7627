package auth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/videotube/backend/internal/apperror"
	"github.com/videotube/backend/internal/models"
	"github.com/videotube/backend/internal/repositories"
)

// UserStore captures the user persistence operations the credential manager
// relies on. Only this component may write the refresh-token column.
type UserStore interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (models.User, error)
	SetRefreshToken(ctx context.Context, userID, token string) error
	// RotateRefreshToken swaps old for new in a single conditional update and
	// reports whether the swap happened. Zero rows means the presented token
	// was already superseded.
	RotateRefreshToken(ctx context.Context, userID, old, new string) (bool, error)
	ClearRefreshToken(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// Manager verifies passwords and manages the single active refresh token per
// user. Every protected request passes through VerifyAccess.
type Manager struct {
	tokens *TokenService
	users  UserStore
}

// NewManager constructs a Manager over the provided token service and store.
func NewManager(tokens *TokenService, users UserStore) *Manager {
	if tokens == nil || users == nil {
		panic("auth: token service and user store must not be nil")
	}
	return &Manager{tokens: tokens, users: users}
}

// Authenticate verifies the identifier (username or email) and password, and
// issues a fresh token pair on success.
func (m *Manager) Authenticate(ctx context.Context, identifier, password string) (models.User, models.SessionTokens, error) {
	identifier = strings.TrimSpace(strings.ToLower(identifier))
	if identifier == "" || password == "" {
		return models.User{}, models.SessionTokens{}, apperror.BadRequest("username or email and password are required")
	}

	user, err := m.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, models.SessionTokens{}, apperror.NotFound("user")
		}
		return models.User{}, models.SessionTokens{}, apperror.Internal(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return models.User{}, models.SessionTokens{}, apperror.InvalidCredentials()
	}

	tokens, err := m.IssueTokenPair(ctx, user)
	if err != nil {
		return models.User{}, models.SessionTokens{}, err
	}

	return sanitize(user), tokens, nil
}

// IssueTokenPair signs a new access/refresh pair and persists the refresh
// token on the user record, invalidating any previously issued pair.
func (m *Manager) IssueTokenPair(ctx context.Context, user models.User) (models.SessionTokens, error) {
	access, err := m.tokens.SignAccess(user)
	if err != nil {
		return models.SessionTokens{}, apperror.Internal(err)
	}

	refresh, err := m.tokens.SignRefresh(user.ID)
	if err != nil {
		return models.SessionTokens{}, apperror.Internal(err)
	}

	if err := m.users.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return models.SessionTokens{}, apperror.Internal(err)
	}

	return models.SessionTokens{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a presented refresh token for a new pair. The rotation is
// a single conditional update, so of two concurrent refreshes presenting the
// same token exactly one wins and the other gets InvalidToken.
func (m *Manager) Refresh(ctx context.Context, presented string) (models.SessionTokens, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return models.SessionTokens{}, apperror.InvalidToken("refresh token is required")
	}

	userID, err := m.tokens.VerifyRefresh(presented)
	if err != nil {
		return models.SessionTokens{}, apperror.InvalidToken("invalid or expired refresh token")
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, apperror.InvalidToken("invalid refresh token")
		}
		return models.SessionTokens{}, apperror.Internal(err)
	}

	access, err := m.tokens.SignAccess(user)
	if err != nil {
		return models.SessionTokens{}, apperror.Internal(err)
	}
	refresh, err := m.tokens.SignRefresh(user.ID)
	if err != nil {
		return models.SessionTokens{}, apperror.Internal(err)
	}

	rotated, err := m.users.RotateRefreshToken(ctx, user.ID, presented, refresh)
	if err != nil {
		return models.SessionTokens{}, apperror.Internal(err)
	}
	if !rotated {
		return models.SessionTokens{}, apperror.InvalidToken("refresh token has been superseded")
	}

	return models.SessionTokens{AccessToken: access, RefreshToken: refresh}, nil
}

// Revoke clears the stored refresh token, terminating the user's session.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if err := m.users.ClearRefreshToken(ctx, userID); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// VerifyAccess validates an access token and loads the sanitized user it
// belongs to. This is the gate in front of every protected operation.
func (m *Manager) VerifyAccess(ctx context.Context, token string) (models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.User{}, apperror.Unauthenticated("access token is required")
	}

	claims, err := m.tokens.VerifyAccess(token)
	if err != nil {
		return models.User{}, apperror.Unauthenticated("invalid or expired access token")
	}

	user, err := m.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, apperror.Unauthenticated("invalid access token")
		}
		return models.User{}, apperror.Internal(err)
	}

	return sanitize(user), nil
}

// ChangePassword verifies the old password before storing a new hash.
func (m *Manager) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperror.BadRequest("old password and new password are required")
	}
	if len(newPassword) < 8 {
		return apperror.ValidationFailed("newPassword", "password must be at least 8 characters")
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return apperror.NotFound("user")
		}
		return apperror.Internal(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return apperror.InvalidCredentials()
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return apperror.Internal(err)
	}

	if err := m.users.UpdatePassword(ctx, userID, hash); err != nil {
		return apperror.Internal(err)
	}
	return nil
}

// HashPassword produces a salted bcrypt hash of the plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func sanitize(user models.User) models.User {
	user.Password = ""
	user.RefreshToken = ""
	return user
}

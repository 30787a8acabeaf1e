package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lethanhdatit/bocmenh/internal/apperror"
	"github.com/lethanhdatit/bocmenh/internal/backend"
	"github.com/lethanhdatit/bocmenh/internal/sanitize"
)

// Backend endpoints.
const (
	pathLogin          = "/auth/login"
	pathRegister       = "/auth/register"
	pathProfile        = "/users/profile"
	pathForgotPassword = "/auth/forgot-password"
	pathResetPassword  = "/auth/reset-password"
)

// AuthService defines the business logic contract for authentication.
// meta carries the caller's token, language, and time zone to the backend.
type AuthService interface {
	Login(ctx context.Context, meta backend.Call, input LoginInput) (*Account, error)
	Register(ctx context.Context, meta backend.Call, input RegisterInput) (*Account, error)
	UpdateProfile(ctx context.Context, meta backend.Call, input ProfileInput) (*User, error)

	// Password reset.
	ForgotPassword(ctx context.Context, meta backend.Call, email string) error
	ValidateResetToken(ctx context.Context, token string) (*TokenValidation, error)
	MarkTokenAsUsed(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, meta backend.Call, token, password string) error
}

// ServiceConfig holds the settings AuthService needs beyond its stores.
type ServiceConfig struct {
	// BaseURL is the public site origin used to build reset links.
	BaseURL string

	// DefaultLocale is served without a path prefix.
	DefaultLocale string

	// ResetTokenTTL is how long a reset link stays valid.
	ResetTokenTTL time.Duration
}

// authService implements AuthService on top of the backend and a reset
// token store.
type authService struct {
	backend backend.Service
	tokens  ResetTokenStore
	cfg     ServiceConfig
	now     func() time.Time
}

// NewAuthService creates a new auth service with the given dependencies.
func NewAuthService(be backend.Service, tokens ResetTokenStore, cfg ServiceConfig) AuthService {
	return &authService{
		backend: be,
		tokens:  tokens,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Login authenticates against the backend.
func (s *authService) Login(ctx context.Context, meta backend.Call, input LoginInput) (*Account, error) {
	res, err := s.backend.Do(ctx, meta.With(http.MethodPost, pathLogin, map[string]string{
		"email":    normalizeEmail(input.Email),
		"password": input.Password,
	}))
	if be, ok := backend.AsError(err); ok && be.Status == http.StatusUnauthorized {
		// Wrong credentials, not an expired session.
		return nil, apperror.NewBadRequest("auth.invalidCredentials")
	}
	if err != nil {
		return nil, err
	}

	var acct Account
	if err := res.Decode(&acct); err != nil {
		return nil, apperror.NewInternal(err)
	}
	if acct.AccessToken == "" {
		return nil, apperror.NewInternal(errors.New("backend login returned no access token"))
	}

	slog.Info("user logged in",
		slog.String("user_id", acct.User.ID),
		slog.String("email", acct.User.Email),
	)
	return &acct, nil
}

// Register creates an account in the backend.
func (s *authService) Register(ctx context.Context, meta backend.Call, input RegisterInput) (*Account, error) {
	res, err := s.backend.Do(ctx, meta.With(http.MethodPost, pathRegister, map[string]string{
		"name":     sanitize.Name(input.Name),
		"email":    normalizeEmail(input.Email),
		"password": input.Password,
	}))
	if err != nil {
		return nil, err
	}

	var acct Account
	if err := res.Decode(&acct); err != nil {
		return nil, apperror.NewInternal(err)
	}

	slog.Info("user registered",
		slog.String("user_id", acct.User.ID),
		slog.String("email", acct.User.Email),
	)
	return &acct, nil
}

// UpdateProfile pushes a sanitized display name and avatar to the backend.
func (s *authService) UpdateProfile(ctx context.Context, meta backend.Call, input ProfileInput) (*User, error) {
	res, err := s.backend.Do(ctx, meta.With(http.MethodPut, pathProfile, map[string]string{
		"name":   sanitize.Name(input.Name),
		"avatar": strings.TrimSpace(input.Avatar),
	}))
	if err != nil {
		return nil, err
	}

	var user User
	if err := res.Decode(&user); err != nil {
		return nil, apperror.NewInternal(err)
	}
	return &user, nil
}

// ForgotPassword issues a reset token and asks the backend to email the
// link. Unknown emails are not reported, so the endpoint cannot be used to
// probe for accounts.
func (s *authService) ForgotPassword(ctx context.Context, meta backend.Call, email string) error {
	email = normalizeEmail(email)
	token := uuid.NewString()
	now := s.now()

	rt := &ResetToken{
		TokenHash: hashToken(token),
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.ResetTokenTTL),
	}
	if err := s.tokens.Create(ctx, rt); err != nil {
		return apperror.NewInternal(fmt.Errorf("storing reset token: %w", err))
	}

	_, err := s.backend.Do(ctx, meta.With(http.MethodPost, pathForgotPassword, map[string]string{
		"email":    email,
		"resetUrl": s.resetURL(meta.Language, token),
	}))
	if be, ok := backend.AsError(err); ok && be.Status >= 400 && be.Status < 500 {
		slog.Info("password reset requested for unknown account", slog.Int("status", be.Status))
		return nil
	}
	if err != nil {
		return err
	}

	slog.Info("password reset requested", slog.String("email", email))
	return nil
}

// ValidateResetToken checks a plaintext token. Store failures are the only
// errors; every token problem is reported through the result.
func (s *authService) ValidateResetToken(ctx context.Context, token string) (*TokenValidation, error) {
	if token == "" {
		return &TokenValidation{Error: errTokenInvalid}, nil
	}

	rt, err := s.tokens.FindByHash(ctx, hashToken(token))
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == http.StatusNotFound {
			return &TokenValidation{Error: errTokenInvalid}, nil
		}
		return nil, apperror.NewInternal(err)
	}

	switch {
	case rt.UsedAt != nil:
		return &TokenValidation{Error: errTokenUsed}, nil
	case !s.now().Before(rt.ExpiresAt):
		return &TokenValidation{Error: errTokenExpired}, nil
	}
	return &TokenValidation{IsValid: true, Email: rt.Email}, nil
}

// MarkTokenAsUsed consumes a token. Consuming a token twice is a 400.
func (s *authService) MarkTokenAsUsed(ctx context.Context, token string) error {
	ok, err := s.tokens.MarkUsed(ctx, hashToken(token), s.now())
	if err != nil {
		return apperror.NewInternal(err)
	}
	if !ok {
		return apperror.NewBadRequest(errTokenUsed)
	}
	return nil
}

// ResetPassword validates and consumes the token, then sets the new
// password in the backend. The token is consumed first so that two
// concurrent submissions cannot both succeed.
func (s *authService) ResetPassword(ctx context.Context, meta backend.Call, token, password string) error {
	v, err := s.ValidateResetToken(ctx, token)
	if err != nil {
		return err
	}
	if !v.IsValid {
		return apperror.NewBadRequest(v.Error)
	}
	if err := s.MarkTokenAsUsed(ctx, token); err != nil {
		return err
	}

	if _, err := s.backend.Do(ctx, meta.With(http.MethodPost, pathResetPassword, map[string]string{
		"email":    v.Email,
		"password": password,
	})); err != nil {
		return err
	}

	slog.Info("password reset completed", slog.String("email", v.Email))
	return nil
}

// CleanupExpiredTokens deletes expired reset tokens every interval until
// ctx is done.
func CleanupExpiredTokens(ctx context.Context, store ResetTokenStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.DeleteExpired(ctx, time.Now())
			if err != nil {
				slog.Warn("reset token cleanup failed", slog.Any("error", err))
				continue
			}
			if n > 0 {
				slog.Debug("reset tokens cleaned up", slog.Int64("deleted", n))
			}
		}
	}
}

// resetURL builds the emailed link, prefixed with the locale unless it is
// the default.
func (s *authService) resetURL(locale, token string) string {
	prefix := ""
	if locale != "" && locale != s.cfg.DefaultLocale {
		prefix = "/" + locale
	}
	return strings.TrimRight(s.cfg.BaseURL, "/") + prefix + "/reset-password?token=" + url.QueryEscape(token)
}

// hashToken returns the hex SHA-256 of a plaintext token.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-app/internal/dto"
	"github.com/noah-isme/attendance-app/internal/models"
	appErrors "github.com/noah-isme/attendance-app/pkg/errors"
	"github.com/noah-isme/attendance-app/pkg/logger"
	"github.com/noah-isme/attendance-app/pkg/storage"
)

type authRepository interface {
	Login(ctx context.Context, req models.LoginRequest) (*dto.LoginResponse, error)
	Check(ctx context.Context, token string) (*models.UserProfile, error)
	ResetPassword(ctx context.Context, req models.ResetPasswordRequest) (string, error)
}

type cacheRecorder interface {
	RecordCacheOperation(hit bool, duration time.Duration)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	SessionCacheTTL time.Duration
}

// AuthService logs users in against the attendance backend and keeps the
// resulting session in the state store.
type AuthService struct {
	repo      authRepository
	store     storage.Store
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	metrics   cacheRecorder
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance. metrics may be nil.
func NewAuthService(repo authRepository, store storage.Store, validate *validator.Validate, logger *zap.Logger, config AuthConfig, metrics cacheRecorder) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if store == nil {
		store = storage.NewMemoryStore()
	}
	return &AuthService{repo: repo, store: store, validator: validate, logger: logger, config: config, metrics: metrics, now: time.Now}
}

// Login exchanges credentials for a backend token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.SessionContext, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	resp, err := s.repo.Login(ctx, req)
	if err != nil {
		if errors.Is(err, appErrors.ErrUnauthorized) || errors.Is(err, appErrors.ErrValidation) || errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, appErrors.FromError(err).Message)
		}
		return nil, err
	}
	if resp.Token == "" {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "login response did not include a token")
	}

	profile := resp.User
	if profile.ID == "" {
		profile.ID = req.UserID
	}
	if profile.Role == "" {
		profile.Role = req.Role
	}
	sess := &models.SessionContext{Token: resp.Token, User: &profile, ExpiresAt: s.tokenExpiry(resp.Token)}
	s.cacheSession(ctx, sess)

	logger.ForContext(ctx, s.logger).Info("user logged in", zap.String("user_id", profile.ID), zap.String("role", string(profile.Role)))
	return sess, nil
}

// Authenticate resolves a bearer token into a session, consulting the
// session cache before asking the backend.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.SessionContext, error) {
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "missing bearer token")
	}
	expiresAt := s.tokenExpiry(token)
	if expiresAt != nil && !s.now().Before(*expiresAt) {
		return nil, appErrors.ErrSessionExpired
	}

	start := time.Now()
	var profile models.UserProfile
	err := s.store.Get(ctx, sessionKey(token), &profile)
	s.recordCache(err == nil, time.Since(start))
	if err == nil {
		return &models.SessionContext{Token: token, User: &profile, ExpiresAt: expiresAt}, nil
	}
	if !errors.Is(err, appErrors.ErrCacheMiss) {
		logger.ForContext(ctx, s.logger).Warn("session cache lookup failed", zap.Error(err))
	}

	user, err := s.repo.Check(ctx, token)
	if err != nil {
		if errors.Is(err, appErrors.ErrUnauthorized) {
			return nil, appErrors.ErrSessionExpired
		}
		return nil, err
	}
	sess := &models.SessionContext{Token: token, User: user, ExpiresAt: expiresAt}
	s.cacheSession(ctx, sess)
	return sess, nil
}

// Logout drops the cached session for token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.Delete(ctx, sessionKey(token)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear session")
	}
	return nil
}

// ResetPassword changes a password through the backend.
func (s *AuthService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reset password payload")
	}
	msg, err := s.repo.ResetPassword(ctx, req)
	if err != nil {
		return "", err
	}
	if msg == "" {
		msg = "password updated"
	}
	logger.ForContext(ctx, s.logger).Info("password reset", zap.String("identifier", req.Identifier))
	return msg, nil
}

// Remember persists the device session: token and profile.
func (s *AuthService) Remember(ctx context.Context, sess *models.SessionContext) error {
	if !sess.Authenticated() {
		return appErrors.Clone(appErrors.ErrUnauthorized, "no session to remember")
	}
	var ttl time.Duration
	if sess.ExpiresAt != nil {
		ttl = sess.ExpiresAt.Sub(s.now())
	}
	if err := s.store.Set(ctx, storage.KeyToken, sess.Token, ttl); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store token")
	}
	if sess.User != nil {
		if err := s.store.Set(ctx, storage.KeyUserData, sess.User, ttl); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store profile")
		}
	}
	return nil
}

// Restore reloads the device session and confirms it with the backend.
func (s *AuthService) Restore(ctx context.Context) (*models.SessionContext, error) {
	var token string
	if err := s.store.Get(ctx, storage.KeyToken, &token); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "not logged in")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read token")
	}
	sess, err := s.Authenticate(ctx, token)
	if err != nil {
		if errors.Is(err, appErrors.ErrSessionExpired) {
			_ = s.Forget(ctx)
		}
		return nil, err
	}
	return sess, nil
}

// CachedProfile returns the profile stored at login without contacting the backend.
func (s *AuthService) CachedProfile(ctx context.Context) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.store.Get(ctx, storage.KeyUserData, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Forget removes the device session.
func (s *AuthService) Forget(ctx context.Context) error {
	var token string
	if err := s.store.Get(ctx, storage.KeyToken, &token); err == nil {
		_ = s.Logout(ctx, token)
	}
	for _, key := range []string{storage.KeyToken, storage.KeyUserData} {
		if err := s.store.Delete(ctx, key); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear local session")
		}
	}
	return nil
}

func (s *AuthService) cacheSession(ctx context.Context, sess *models.SessionContext) {
	if sess.User == nil || s.config.SessionCacheTTL <= 0 {
		return
	}
	ttl := s.config.SessionCacheTTL
	if sess.ExpiresAt != nil {
		if remaining := sess.ExpiresAt.Sub(s.now()); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl <= 0 {
		return
	}
	if err := s.store.Set(ctx, sessionKey(sess.Token), sess.User, ttl); err != nil {
		logger.ForContext(ctx, s.logger).Warn("failed to cache session", zap.Error(err))
	}
}

func (s *AuthService) recordCache(hit bool, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(hit, d)
	}
}

// tokenExpiry reads the exp claim without verifying the signature; the
// backend remains the authority on validity.
func (s *AuthService) tokenExpiry(token string) *time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == nil {
		return nil
	}
	exp := claims.ExpiresAt.Time
	return &exp
}

func sessionKey(token string) string {
	return "session:" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(token)).String()
}

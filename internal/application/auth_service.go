package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/salon-scheduler/internal/persistence"
)

// DefaultSessionTTL keeps users signed in for a week.
const DefaultSessionTTL = 7 * 24 * time.Hour

// CredentialStore exposes the account lookups required by the auth service.
type CredentialStore interface {
	GetUser(ctx context.Context, id string) (persistence.User, error)
	GetUserByUsername(ctx context.Context, username string) (persistence.User, error)
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthServiceConfig holds the optional collaborators of an AuthService.
type AuthServiceConfig struct {
	SessionTTL     time.Duration
	CacheSize      int
	CacheTTL       time.Duration
	TokenGenerator func() string
	IDGenerator    func() string
	Now            func() time.Time
	Verify         PasswordVerifier
	Logger         *slog.Logger
}

// AuthService coordinates login, session validation and logout.
type AuthService struct {
	credentials    CredentialStore
	sessions       persistence.SessionRepository
	verifyPassword PasswordVerifier
	tokenGenerator func() string
	idGenerator    func() string
	now            func() time.Time
	sessionTTL     time.Duration
	cache          *principalCache
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(credentials CredentialStore, sessions persistence.SessionRepository, cfg AuthServiceConfig) *AuthService {
	if cfg.Verify == nil {
		cfg.Verify = VerifyPassword
	}
	if cfg.IDGenerator == nil {
		cfg.IDGenerator = uuid.NewString
	}
	if cfg.TokenGenerator == nil {
		cfg.TokenGenerator = uuid.NewString
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	return &AuthService{
		credentials:    credentials,
		sessions:       sessions,
		verifyPassword: cfg.Verify,
		tokenGenerator: cfg.TokenGenerator,
		idGenerator:    cfg.IDGenerator,
		now:            cfg.Now,
		sessionTTL:     cfg.SessionTTL,
		cache:          newPrincipalCache(cfg.CacheSize, cfg.CacheTTL),
		logger:         defaultLogger(cfg.Logger),
	}
}

// SessionTTL reports how long issued sessions stay valid.
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessionTTL
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Authenticate validates credentials and issues a new session token.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil || s.sessions == nil {
		err = fmt.Errorf("auth service not configured")
		return
	}

	username := normalizeUsername(params.Username)
	logger := s.loggerWith(ctx, "Authenticate", "username", username)
	defer func() {
		logOutcome(ctx, logger, err, "authentication succeeded", "user_id", result.User.ID, "session_id", result.Session.ID)
	}()

	if username == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	var user persistence.User
	user, err = s.credentials.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}

	if verr := s.verifyPassword(user.PasswordHash, params.Password); verr != nil {
		if !errors.Is(verr, ErrInvalidCredentials) {
			logger.WarnContext(ctx, "stored password hash unusable", "error", verr)
		}
		err = ErrInvalidCredentials
		return
	}

	now := s.now()
	if _, perr := s.sessions.DeleteExpiredSessions(ctx, now); perr != nil {
		logger.WarnContext(ctx, "failed to prune expired sessions", "error", perr)
	}

	var session persistence.Session
	session, err = s.sessions.CreateSession(ctx, persistence.Session{
		ID:        s.idGenerator(),
		UserID:    user.ID,
		Token:     s.tokenGenerator(),
		ExpiresAt: now.Add(s.sessionTTL),
	})
	if err != nil {
		return
	}

	result = AuthenticateResult{User: toUser(user), Session: toSession(session)}
	return
}

// ValidateSession verifies that the token belongs to an active session and returns its principal.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	token = strings.TrimSpace(token)
	if token == "" {
		err = ErrUnauthorized
		return
	}

	now := s.now()
	if p, ok := s.cache.get(token, now); ok {
		return p, nil
	}

	logger := s.loggerWith(ctx, "ValidateSession")
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "")
		}
	}()

	var session persistence.Session
	session, err = s.sessions.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrUnauthorized
		}
		return
	}
	if session.RevokedAt != nil {
		err = ErrSessionRevoked
		return
	}
	if !session.ExpiresAt.After(now) {
		err = ErrSessionExpired
		return
	}

	var user persistence.User
	user, err = s.credentials.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrUnauthorized
		}
		return
	}

	principal = Principal{UserID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin}
	s.cache.put(token, principal, session.ExpiresAt)
	return
}

// RevokeSession logs a session out. Unknown tokens are ignored.
func (s *AuthService) RevokeSession(ctx context.Context, token string) (err error) {
	if s == nil {
		return fmt.Errorf("AuthService is nil")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	s.cache.remove(token)

	logger := s.loggerWith(ctx, "RevokeSession")
	defer func() {
		logOutcome(ctx, logger, err, "session revoked")
	}()

	if _, err = s.sessions.RevokeSession(ctx, token, s.now()); errors.Is(err, persistence.ErrNotFound) {
		err = nil
	}
	return err
}

// RefreshSession pushes the expiry of an active session one full TTL past now.
func (s *AuthService) RefreshSession(ctx context.Context, token string) (session Session, err error) {
	if s == nil {
		return Session{}, fmt.Errorf("AuthService is nil")
	}
	principal, err := s.ValidateSession(ctx, token)
	if err != nil {
		return Session{}, err
	}

	logger := s.loggerWith(ctx, "RefreshSession", "user_id", principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "session refreshed", "session_id", session.ID)
	}()

	record, err := s.sessions.GetSession(ctx, strings.TrimSpace(token))
	if err != nil {
		return Session{}, mapRepoError(err)
	}
	record.ExpiresAt = s.now().Add(s.sessionTTL)
	record, err = s.sessions.UpdateSession(ctx, record)
	if err != nil {
		return Session{}, mapRepoError(err)
	}
	s.cache.put(record.Token, principal, record.ExpiresAt)
	return toSession(record), nil
}

// CurrentUser loads the account behind principal.
func (s *AuthService) CurrentUser(ctx context.Context, principal Principal) (User, error) {
	if s == nil {
		return User{}, fmt.Errorf("AuthService is nil")
	}
	if principal.UserID == "" {
		return User{}, ErrUnauthorized
	}
	user, err := s.credentials.GetUser(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return User{}, ErrUnauthorized
		}
		return User{}, err
	}
	return toUser(user), nil
}

func toUser(u persistence.User) User {
	return User{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin, CreatedAt: u.CreatedAt}
}

func toSession(s persistence.Session) Session {
	return Session{ID: s.ID, UserID: s.UserID, Token: s.Token, ExpiresAt: s.ExpiresAt}
}

func normalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

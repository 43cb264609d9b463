package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/salon-scheduler/internal/persistence"
)

// UserService manages accounts from the command line and at startup.
type UserService struct {
	users       persistence.UserRepository
	hash        func(string) (string, error)
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users persistence.UserRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{users: users, hash: HashPassword, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

// CreateUser validates input and stores a new account.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (user User, err error) {
	if s == nil {
		return User{}, fmt.Errorf("UserService is nil")
	}
	username := normalizeUsername(params.Username)
	logger := serviceLogger(ctx, s.logger, "UserService", "CreateUser", "username", username)
	defer func() {
		logOutcome(ctx, logger, err, "user created", "user_id", user.ID)
	}()

	if vErr := validateCredentials(username, params.Password); vErr != nil {
		return User{}, vErr
	}

	hash, err := s.hash(params.Password)
	if err != nil {
		return User{}, err
	}

	now := s.now()
	record := persistence.User{
		ID:           s.idGenerator(),
		Username:     username,
		PasswordHash: hash,
		IsAdmin:      params.IsAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err = s.users.CreateUser(ctx, record); err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			err = ErrAlreadyExists
		}
		return User{}, err
	}
	return toUser(record), nil
}

// EnsureUser creates the account unless the username is already taken. It
// reports whether a new account was created.
func (s *UserService) EnsureUser(ctx context.Context, params CreateUserParams) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("UserService is nil")
	}
	_, err := s.users.GetUserByUsername(ctx, normalizeUsername(params.Username))
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, persistence.ErrNotFound):
		return false, err
	}
	if _, err := s.CreateUser(ctx, params); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SetPassword replaces the password of an existing account.
func (s *UserService) SetPassword(ctx context.Context, username, password string) (err error) {
	if s == nil {
		return fmt.Errorf("UserService is nil")
	}
	username = normalizeUsername(username)
	logger := serviceLogger(ctx, s.logger, "UserService", "SetPassword", "username", username)
	defer func() {
		logOutcome(ctx, logger, err, "password changed")
	}()

	if vErr := validateCredentials(username, password); vErr != nil {
		return vErr
	}
	record, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrNotFound
		}
		return err
	}
	if record.PasswordHash, err = s.hash(password); err != nil {
		return err
	}
	record.UpdatedAt = s.now()
	return s.users.UpdateUser(ctx, record)
}

// ListUsers returns every account.
func (s *UserService) ListUsers(ctx context.Context) ([]User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	records, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]User, 0, len(records))
	for _, r := range records {
		users = append(users, toUser(r))
	}
	return users, nil
}

func validateCredentials(username, password string) error {
	vErr := &ValidationError{}
	if username == "" {
		vErr.add("username", "username is required")
	} else if len(username) > 64 {
		vErr.add("username", "username must be at most 64 characters")
	}
	if len(password) < MinPasswordLength {
		vErr.add("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	return vErr.orNil()
}

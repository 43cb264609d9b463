package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/example/salon-scheduler/internal/persistence"
)

var userColumns = []string{"id", "username", "password_hash", "is_admin", "created_at", "updated_at"}

// UserRepository implements persistence.UserRepository.
type UserRepository struct {
	store *Store
}

// NewUserRepository returns a user repository backed by store.
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

// CreateUser inserts a new account. Usernames are unique case-insensitively.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || strings.TrimSpace(user.Username) == "" || user.PasswordHash == "" {
		return persistence.ErrConstraintViolation
	}
	now := r.store.timestamp()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}
	_, err := r.store.exec(ctx, r.store.db, r.store.sb.Insert("users").
		Columns(userColumns...).
		Values(user.ID, normalizeUsername(user.Username), user.PasswordHash, boolInt(user.IsAdmin),
			formatTime(user.CreatedAt), formatTime(user.UpdatedAt)))
	return err
}

// UpdateUser replaces the mutable fields of an account.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = r.store.timestamp()
	}
	return r.store.execOne(ctx, r.store.db, r.store.sb.Update("users").
		Set("username", normalizeUsername(user.Username)).
		Set("password_hash", user.PasswordHash).
		Set("is_admin", boolInt(user.IsAdmin)).
		Set("updated_at", formatTime(user.UpdatedAt)).
		Where(sq.Eq{"id": user.ID}))
}

// GetUser loads an account by id.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

// GetUserByUsername loads an account by its login name.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (persistence.User, error) {
	name := normalizeUsername(username)
	if name == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return r.getOne(ctx, sq.Eq{"username": name})
}

// ListUsers returns all accounts ordered by creation.
func (r *UserRepository) ListUsers(ctx context.Context) ([]persistence.User, error) {
	rows, err := r.store.query(ctx, r.store.db, r.store.sb.Select(userColumns...).From("users").OrderBy("created_at ASC", "id ASC"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) getOne(ctx context.Context, where sq.Sqlizer) (persistence.User, error) {
	row, err := r.store.queryRow(ctx, r.store.db, r.store.sb.Select(userColumns...).From("users").Where(where))
	if err != nil {
		return persistence.User{}, err
	}
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.User{}, persistence.ErrNotFound
	}
	return u, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (persistence.User, error) {
	var (
		u                    persistence.User
		admin                int
		createdAt, updatedAt string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &admin, &createdAt, &updatedAt); err != nil {
		return persistence.User{}, err
	}
	u.IsAdmin = admin != 0
	var err error
	if u.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.User{}, err
	}
	if u.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.User{}, err
	}
	return u, nil
}

func normalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

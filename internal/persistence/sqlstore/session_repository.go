package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/example/salon-scheduler/internal/persistence"
)

var sessionColumns = []string{"id", "user_id", "token", "expires_at", "revoked_at", "created_at", "updated_at"}

// SessionRepository implements persistence.SessionRepository.
type SessionRepository struct {
	store *Store
}

// NewSessionRepository returns a session repository backed by store.
func NewSessionRepository(store *Store) *SessionRepository {
	return &SessionRepository{store: store}
}

// CreateSession stores a new session token for a user.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	session.Token = strings.TrimSpace(session.Token)
	if session.ID == "" || session.UserID == "" || session.Token == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	now := r.store.timestamp()
	session.CreatedAt = now
	session.UpdatedAt = now

	_, err := r.store.exec(ctx, r.store.db, r.store.sb.Insert("sessions").
		Columns(sessionColumns...).
		Values(session.ID, session.UserID, session.Token, formatTime(session.ExpiresAt),
			nullTime(session.RevokedAt), formatTime(session.CreatedAt), formatTime(session.UpdatedAt)))
	if err != nil {
		return persistence.Session{}, err
	}
	return session, nil
}

// GetSession retrieves a session by its token value.
func (r *SessionRepository) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}
	row, err := r.store.queryRow(ctx, r.store.db, r.store.sb.Select(sessionColumns...).From("sessions").Where(sq.Eq{"token": token}))
	if err != nil {
		return persistence.Session{}, err
	}
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return s, err
}

// UpdateSession updates the expiry and revocation of an existing session.
func (r *SessionRepository) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	if session.ID == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	session.UpdatedAt = r.store.timestamp()
	err := r.store.execOne(ctx, r.store.db, r.store.sb.Update("sessions").
		Set("expires_at", formatTime(session.ExpiresAt)).
		Set("revoked_at", nullTime(session.RevokedAt)).
		Set("updated_at", formatTime(session.UpdatedAt)).
		Where(sq.Eq{"id": session.ID}))
	if err != nil {
		return persistence.Session{}, err
	}
	return r.GetSession(ctx, session.Token)
}

// RevokeSession marks the session as revoked at the given instant.
func (r *SessionRepository) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	token = strings.TrimSpace(token)
	err := r.store.execOne(ctx, r.store.db, r.store.sb.Update("sessions").
		Set("revoked_at", formatTime(revokedAt)).
		Set("updated_at", formatTime(r.store.timestamp())).
		Where(sq.Eq{"token": token}))
	if err != nil {
		return persistence.Session{}, err
	}
	return r.GetSession(ctx, token)
}

// DeleteExpiredSessions removes sessions that expired before reference.
func (r *SessionRepository) DeleteExpiredSessions(ctx context.Context, reference time.Time) (int64, error) {
	res, err := r.store.exec(ctx, r.store.db, r.store.sb.Delete("sessions").
		Where(sq.Lt{"expires_at": formatTime(reference)}))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanSession(row scanner) (persistence.Session, error) {
	var (
		s                               persistence.Session
		expiresAt, createdAt, updatedAt string
		revokedAt                       sql.NullString
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.Token, &expiresAt, &revokedAt, &createdAt, &updatedAt); err != nil {
		return persistence.Session{}, err
	}
	var err error
	if s.ExpiresAt, err = parseTime("expires_at", expiresAt); err != nil {
		return persistence.Session{}, err
	}
	if s.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Session{}, err
	}
	if s.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Session{}, err
	}
	if revokedAt.Valid {
		t, err := parseTime("revoked_at", revokedAt.String)
		if err != nil {
			return persistence.Session{}, err
		}
		s.RevokedAt = &t
	}
	return s, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

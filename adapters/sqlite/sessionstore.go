package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/artpar/newsdemo/domain/auth"
	"github.com/artpar/newsdemo/ports"
)

type sessionRow struct {
	ID        string         `db:"id"`
	UserID    string         `db:"user_id"`
	Email     string         `db:"email"`
	IPAddress sql.NullString `db:"ip_address"`
	UserAgent sql.NullString `db:"user_agent"`
	ExpiresAt time.Time      `db:"expires_at"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r sessionRow) record() auth.Record {
	return auth.Record{
		ID:        r.ID,
		UserID:    r.UserID,
		Email:     r.Email,
		IPAddress: r.IPAddress.String,
		UserAgent: r.UserAgent.String,
		ExpiresAt: r.ExpiresAt,
		CreatedAt: r.CreatedAt,
	}
}

// SessionStore implements ports.SessionStore on the user_sessions table.
type SessionStore struct {
	db *DB
}

func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Create(ctx context.Context, r auth.Record) error {
	row := sessionRow{
		ID:        r.ID,
		UserID:    r.UserID,
		Email:     r.Email,
		IPAddress: nullString(r.IPAddress),
		UserAgent: nullString(r.UserAgent),
		ExpiresAt: r.ExpiresAt,
		CreatedAt: r.CreatedAt,
	}
	_, err := s.db.X.NamedExecContext(ctx, `
		INSERT INTO user_sessions (id, user_id, email, ip_address, user_agent, expires_at, created_at)
		VALUES (:id, :user_id, :email, :ip_address, :user_agent, :expires_at, :created_at)
	`, row)
	if isUniqueConstraintError(err) {
		return ErrDuplicate
	}
	return err
}

// Get returns ErrNotFound for unknown ids. Expired records are returned
// as stored; callers check IsExpired.
func (s *SessionStore) Get(ctx context.Context, id string) (auth.Record, error) {
	var row sessionRow
	err := s.db.X.GetContext(ctx, &row, `SELECT * FROM user_sessions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Record{}, ErrNotFound
	}
	if err != nil {
		return auth.Record{}, err
	}
	return row.record(), nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.X.ExecContext(ctx, `DELETE FROM user_sessions WHERE id = ?`, id)
	return oneRow(result, err)
}

// DeleteByUser signs a user out everywhere.
func (s *SessionStore) DeleteByUser(ctx context.Context, userID string) error {
	_, err := s.db.X.ExecContext(ctx, `DELETE FROM user_sessions WHERE user_id = ?`, userID)
	return err
}

// DeleteExpired reports how many records it removed.
func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.db.X.ExecContext(ctx, `DELETE FROM user_sessions WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

var _ ports.SessionStore = (*SessionStore)(nil)

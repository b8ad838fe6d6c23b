package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/artpar/newsdemo/ports"
)

type accountRow struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	Name         string    `db:"name"`
	PasswordHash []byte    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// UserStore implements ports.UserStore on the users table. Emails compare
// case-insensitively through the column collation.
type UserStore struct {
	db *DB
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Get(ctx context.Context, id string) (ports.Account, error) {
	return s.one(ctx, "id", id)
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (ports.Account, error) {
	return s.one(ctx, "email", email)
}

// one looks up a single account by a unique column.
func (s *UserStore) one(ctx context.Context, column, value string) (ports.Account, error) {
	var row accountRow
	err := s.db.X.GetContext(ctx, &row, `SELECT * FROM users WHERE `+column+` = ?`, value)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.Account{}, ErrNotFound
	}
	if err != nil {
		return ports.Account{}, err
	}
	return ports.Account(row), nil
}

// Create fills in CreatedAt when unset. A taken email is ErrDuplicate.
func (s *UserStore) Create(ctx context.Context, a ports.Account) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.X.NamedExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, created_at)
		VALUES (:id, :email, :name, :password_hash, :created_at)
	`, accountRow(a))
	if isUniqueConstraintError(err) {
		return ErrDuplicate
	}
	return err
}

func (s *UserStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.X.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}

var _ ports.UserStore = (*UserStore)(nil)

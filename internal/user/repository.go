package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avdeevdm/auth-service/internal/db"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type Repository struct {
	db db.DBTX
}

func NewRepository(db db.DBTX) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, u *User) (*User, error) {
	query := `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, u.Username, u.Email, u.PasswordHash).
		Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return u, nil
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.findBy(ctx, "email", email)
}

func (r *Repository) FindByUsername(ctx context.Context, username string) (*User, error) {
	return r.findBy(ctx, "username", username)
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT id, username, email, password_hash, created_at FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *Repository) findBy(ctx context.Context, column, value string) (*User, error) {
	query := fmt.Sprintf(
		`SELECT id, username, email, password_hash, created_at FROM users WHERE %s = $1`, column,
	)
	return r.scanOne(r.db.QueryRowContext(ctx, query, value))
}

func (r *Repository) scanOne(row *sql.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

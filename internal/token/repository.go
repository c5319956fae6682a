package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avdeevdm/auth-service/internal/db"
)

const selectColumns = `id, token, user_id, expires_at, revoked, created_at`

// Repository persists refresh tokens. It works over db.DBTX so the same code
// runs standalone or inside a rotation transaction.
type Repository struct {
	db db.DBTX
}

func NewRepository(db db.DBTX) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, rt *RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, token, user_id, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		rt.ID, rt.Token, rt.UserID, rt.ExpiresAt, rt.Revoked, rt.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *Repository) FindByValue(ctx context.Context, value string) (*RefreshToken, error) {
	query := fmt.Sprintf(`SELECT %s FROM refresh_tokens WHERE token = $1`, selectColumns)
	return r.scanOne(r.db.QueryRowContext(ctx, query, value))
}

// FindByValueForUpdate locks the row for the rest of the transaction.
// Concurrent rotations of the same value serialize here: the loser resumes
// after commit and sees the row already gone.
func (r *Repository) FindByValueForUpdate(ctx context.Context, value string) (*RefreshToken, error) {
	query := fmt.Sprintf(`SELECT %s FROM refresh_tokens WHERE token = $1 FOR UPDATE`, selectColumns)
	return r.scanOne(r.db.QueryRowContext(ctx, query, value))
}

func (r *Repository) DeleteByValue(ctx context.Context, value string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = $1`, value)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// MarkRevoked flags the row instead of deleting it; the retained row is what
// makes a later replay detectable. Revoking an absent value is a no-op.
func (r *Repository) MarkRevoked(ctx context.Context, value string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1`, value)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *Repository) scanOne(row *sql.Row) (*RefreshToken, error) {
	rt := &RefreshToken{}
	err := row.Scan(&rt.ID, &rt.Token, &rt.UserID, &rt.ExpiresAt, &rt.Revoked, &rt.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rt, nil
}

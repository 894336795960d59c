package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ResetToken is a stored password-reset token.
type ResetToken struct {
	ID        int64
	Email     string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// ResetTokenRepo provides password-reset token persistence. At most one live
// token exists per email: Insert callers delete priors first.
type ResetTokenRepo interface {
	DeleteByEmail(ctx context.Context, email string) error
	Insert(ctx context.Context, email, token string, expiresAt time.Time) error
	GetValid(ctx context.Context, token string, now time.Time) (ResetToken, error)
	DeleteByToken(ctx context.Context, token string) error
}

// PGResetTokenRepo implements ResetTokenRepo with Postgres.
type PGResetTokenRepo struct {
	db *pgxpool.Pool
}

// NewPGResetTokenRepo returns a new PGResetTokenRepo.
func NewPGResetTokenRepo(db *pgxpool.Pool) *PGResetTokenRepo {
	return &PGResetTokenRepo{db: db}
}

// DeleteByEmail removes all tokens issued for the email.
func (r *PGResetTokenRepo) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM password_reset_tokens WHERE email = $1`, email)
	return err
}

// Insert stores a new token.
func (r *PGResetTokenRepo) Insert(ctx context.Context, email, token string, expiresAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO password_reset_tokens (email, token, expires_at) VALUES ($1, $2, $3)`,
		email, token, expiresAt,
	)
	return err
}

// GetValid returns the token row if it matches and has not expired.
func (r *PGResetTokenRepo) GetValid(ctx context.Context, token string, now time.Time) (ResetToken, error) {
	var t ResetToken
	err := r.db.QueryRow(ctx,
		`SELECT id, email, token, expires_at, created_at
		 FROM password_reset_tokens WHERE token = $1 AND expires_at > $2`,
		token, now,
	).Scan(&t.ID, &t.Email, &t.Token, &t.ExpiresAt, &t.CreatedAt)
	return t, err
}

// DeleteByToken removes a token after use.
func (r *PGResetTokenRepo) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM password_reset_tokens WHERE token = $1`, token)
	return err
}

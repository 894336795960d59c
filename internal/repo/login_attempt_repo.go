package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LoginAttemptRepo tracks failed login attempts per client IP.
type LoginAttemptRepo interface {
	// PurgeOlderThan deletes rows whose last attempt predates cutoff.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) error
	// Attempts returns the current attempt count for the IP; 0 if no row.
	Attempts(ctx context.Context, ip string) (int, error)
	// RecordFailure inserts the IP with count 1 or increments the existing row.
	RecordFailure(ctx context.Context, ip string, at time.Time) error
	// Clear removes the IP's row.
	Clear(ctx context.Context, ip string) error
}

// PGLoginAttemptRepo implements LoginAttemptRepo with Postgres.
type PGLoginAttemptRepo struct {
	db *pgxpool.Pool
}

// NewPGLoginAttemptRepo returns a new PGLoginAttemptRepo.
func NewPGLoginAttemptRepo(db *pgxpool.Pool) *PGLoginAttemptRepo {
	return &PGLoginAttemptRepo{db: db}
}

func (r *PGLoginAttemptRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.Exec(ctx, `DELETE FROM login_attempts WHERE last_attempt < $1`, cutoff)
	return err
}

func (r *PGLoginAttemptRepo) Attempts(ctx context.Context, ip string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT attempts FROM login_attempts WHERE ip_address = $1`, ip,
	).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return n, err
}

func (r *PGLoginAttemptRepo) RecordFailure(ctx context.Context, ip string, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO login_attempts (ip_address, attempts, last_attempt)
		VALUES ($1, 1, $2)
		ON CONFLICT (ip_address) DO UPDATE SET
			attempts = login_attempts.attempts + 1,
			last_attempt = EXCLUDED.last_attempt`,
		ip, at,
	)
	return err
}

func (r *PGLoginAttemptRepo) Clear(ctx context.Context, ip string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM login_attempts WHERE ip_address = $1`, ip)
	return err
}

package repo

import (
	"context"

	dom "github.com/Trust-Mwendabai/CDIMS/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `user_id, username, email, password_hash, full_name, role, is_active, last_login, created_at, updated_at`

// UserRepo provides user persistence.
type UserRepo interface {
	GetActiveByID(ctx context.Context, userID int64) (dom.User, error)
	GetActiveByUsername(ctx context.Context, username string) (dom.User, error)
	GetActiveByEmail(ctx context.Context, email string) (dom.User, error)
	GetByEmail(ctx context.Context, email string) (dom.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	Create(ctx context.Context, username, email, passwordHash, fullName string, role dom.Role) (dom.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error
	UpdateLastLogin(ctx context.Context, userID int64) error
	CountByRole(ctx context.Context, role dom.Role) (int, error)
}

// PGUserRepo implements UserRepo with Postgres.
type PGUserRepo struct {
	db *pgxpool.Pool
}

// NewPGUserRepo returns a new PGUserRepo.
func NewPGUserRepo(db *pgxpool.Pool) *PGUserRepo {
	return &PGUserRepo{db: db}
}

func (r *PGUserRepo) scanUser(row interface{ Scan(...any) error }) (dom.User, error) {
	var u dom.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName,
		&u.Role, &u.IsActive, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

// GetActiveByID returns the active user with the given ID.
func (r *PGUserRepo) GetActiveByID(ctx context.Context, userID int64) (dom.User, error) {
	return r.scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = $1 AND is_active`,
		userID,
	))
}

// GetActiveByUsername returns the active user with the given username.
func (r *PGUserRepo) GetActiveByUsername(ctx context.Context, username string) (dom.User, error) {
	return r.scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 AND is_active`,
		username,
	))
}

// GetActiveByEmail returns the active user with the given email.
func (r *PGUserRepo) GetActiveByEmail(ctx context.Context, email string) (dom.User, error) {
	return r.scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 AND is_active`,
		email,
	))
}

// GetByEmail returns the user with the given email regardless of active flag.
// Used by the password-reset flow.
func (r *PGUserRepo) GetByEmail(ctx context.Context, email string) (dom.User, error) {
	return r.scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	))
}

// ExistsByUsernameOrEmail reports whether any row (active or not) holds the
// username or the email.
func (r *PGUserRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)`,
		username, email,
	).Scan(&exists)
	return exists, err
}

// Create inserts a new user and returns it.
func (r *PGUserRepo) Create(ctx context.Context, username, email, passwordHash, fullName string, role dom.Role) (dom.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, full_name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	return r.scanUser(r.db.QueryRow(ctx, query, username, email, passwordHash, fullName, role))
}

// UpdatePassword stores a new password hash for the user.
func (r *PGUserRepo) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE user_id = $1`,
		userID, passwordHash,
	)
	return err
}

// UpdatePasswordByEmail stores a new password hash for the account owning email.
func (r *PGUserRepo) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE email = $1`,
		email, passwordHash,
	)
	return err
}

// UpdateLastLogin stamps the user's last_login.
func (r *PGUserRepo) UpdateLastLogin(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET last_login = NOW() WHERE user_id = $1`,
		userID,
	)
	return err
}

// CountByRole counts users holding the given role. Used by first-run admin
// provisioning.
func (r *PGUserRepo) CountByRole(ctx context.Context, role dom.Role) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&n)
	return n, err
}

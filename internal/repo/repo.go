package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sladosa/diary-multiuser/internal/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicate     = errors.New("already exists")
	ErrHasDependents = errors.New("has dependent rows")
)

type Repo struct {
	Pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repo {
	return &Repo{Pool: pool}
}

// pgErrCode extracts the Postgres error class, "" for non-pg errors.
func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

const (
	codeUniqueViolation = "23505"
	codeFKViolation     = "23503"
)

func (r *Repo) CreateUser(ctx context.Context, email, passwordHash, displayName string) (string, error) {
	var id string
	err := r.Pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, display_name) VALUES ($1, $2, $3) RETURNING id`,
		email, passwordHash, displayName).Scan(&id)
	if pgErrCode(err) == codeUniqueViolation {
		return "", ErrDuplicate
	}
	return id, err
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u := &models.User{}
	err := r.Pool.QueryRow(ctx,
		`SELECT id, email, password_hash, display_name, email_confirmed, created_at, updated_at
		 FROM users WHERE email=$1`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.EmailConfirmed, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func (r *Repo) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	u := &models.User{}
	err := r.Pool.QueryRow(ctx,
		`SELECT id, email, password_hash, display_name, email_confirmed, created_at, updated_at
		 FROM users WHERE id=$1`, userID).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.EmailConfirmed, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func (r *Repo) CreateSession(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.Pool.Exec(ctx,
		`INSERT INTO sessions (user_id, token, expires_at) VALUES ($1, $2, $3)`,
		userID, token, expiresAt)
	return err
}

// DeleteSession revokes one session by its refresh token, scoped to the
// owner so a leaked token cannot log someone else out.
func (r *Repo) DeleteSession(ctx context.Context, userID, token string) error {
	cmd, err := r.Pool.Exec(ctx, `DELETE FROM sessions WHERE user_id=$1 AND token=$2`, userID, token)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) DeleteUserSessions(ctx context.Context, userID string) error {
	_, err := r.Pool.Exec(ctx, `DELETE FROM sessions WHERE user_id=$1`, userID)
	return err
}

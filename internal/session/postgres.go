package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"dealerhub/internal/models"
)

// DB is the subset of *pgxpool.Pool the Postgres backends use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresBackend persists sessions in the user_sessions table. Expired rows
// stay until DeleteExpired runs.
type PostgresBackend struct {
	db DB
}

func NewPostgresBackend(db DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

func (r *PostgresBackend) Insert(ctx context.Context, s models.Session) error {
	const query = `
		INSERT INTO user_sessions (id, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`
	cmd, err := r.db.Exec(ctx, query, s.ID, s.UserID, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrExists
	}
	return nil
}

func (r *PostgresBackend) Get(ctx context.Context, id string) (models.Session, error) {
	const query = `
		SELECT id, user_id, created_at, expires_at
		FROM user_sessions
		WHERE id = $1
	`

	var s models.Session
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.UserID,
		&s.CreatedAt,
		&s.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, ErrNotFound
		}
		return models.Session{}, err
	}
	return s, nil
}

func (r *PostgresBackend) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM user_sessions WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *PostgresBackend) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM user_sessions WHERE expires_at <= $1`
	cmd, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealerhub/internal/models"
)

type execDB struct {
	err  error
	tag  pgconn.CommandTag
	sqls []string
}

func (d *execDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	d.sqls = append(d.sqls, sql)
	return d.tag, d.err
}

func (d *execDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return nil
}

func TestCreateMapsDuplicateEmail(t *testing.T) {
	db := &execDB{err: &pgconn.PgError{Code: "23505", ConstraintName: "users_email_unique"}}
	repo := NewUserRepository(db)

	err := repo.Create(context.Background(), models.User{ID: "u1", Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrEmailExists)
	require.Len(t, db.sqls, 1)
}

func TestCreateKeepsOtherErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"other constraint", &pgconn.PgError{Code: "23505", ConstraintName: "users_pkey"}},
		{"not null", &pgconn.PgError{Code: "23502", ConstraintName: "users_email_unique"}},
		{"connection", errors.New("conn closed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewUserRepository(&execDB{err: tt.err})
			err := repo.Create(context.Background(), models.User{ID: "u1"})
			assert.ErrorIs(t, err, tt.err)
			assert.NotErrorIs(t, err, ErrEmailExists)
		})
	}
}

func TestUpdateStatusUnknownUser(t *testing.T) {
	repo := NewUserRepository(&execDB{tag: pgconn.NewCommandTag("UPDATE 0")})
	err := repo.UpdateStatus(context.Background(), "missing", models.UserStatusSuspended)
	assert.ErrorIs(t, err, ErrUserNotFound)

	repo = NewUserRepository(&execDB{tag: pgconn.NewCommandTag("UPDATE 1")})
	assert.NoError(t, repo.UpdateStatus(context.Background(), "u1", models.UserStatusSuspended))
}

package featureflag

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"dealerhub/internal/models"
)

// DB is the subset of *pgxpool.Pool used here.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore keeps flags in feature_flags. Dashboard defaults use an empty
// tenant_id so (dashboard, feature_key, tenant_id) stays a plain primary key.
type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, key Key) (Flag, error) {
	const query = `
		SELECT dashboard, feature_key, tenant_id, enabled, updated_at
		FROM feature_flags
		WHERE dashboard = $1 AND feature_key = $2 AND tenant_id = $3
	`

	var (
		f         Flag
		dashboard string
	)
	if err := s.db.QueryRow(ctx, query, string(key.Dashboard), key.Feature, key.TenantID).Scan(
		&dashboard,
		&f.Feature,
		&f.TenantID,
		&f.Enabled,
		&f.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Flag{}, ErrNotFound
		}
		return Flag{}, err
	}
	f.Dashboard = models.Dashboard(dashboard)
	return f, nil
}

func (s *PostgresStore) Set(ctx context.Context, flag Flag) error {
	const query = `
		INSERT INTO feature_flags (dashboard, feature_key, tenant_id, enabled, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (dashboard, feature_key, tenant_id)
		DO UPDATE SET
			enabled = EXCLUDED.enabled,
			updated_at = NOW()
	`
	_, err := s.db.Exec(ctx, query, string(flag.Dashboard), flag.Feature, flag.TenantID, flag.Enabled)
	return err
}

func (s *PostgresStore) Delete(ctx context.Context, key Key) error {
	const query = `DELETE FROM feature_flags WHERE dashboard = $1 AND feature_key = $2 AND tenant_id = $3`
	_, err := s.db.Exec(ctx, query, string(key.Dashboard), key.Feature, key.TenantID)
	return err
}

func (s *PostgresStore) List(ctx context.Context, dashboard models.Dashboard) ([]Flag, error) {
	const query = `
		SELECT feature_key, tenant_id, enabled, updated_at
		FROM feature_flags
		WHERE dashboard = $1
		ORDER BY feature_key, tenant_id
	`

	rows, err := s.db.Query(ctx, query, string(dashboard))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flags []Flag
	for rows.Next() {
		f := Flag{Key: Key{Dashboard: dashboard}}
		if err := rows.Scan(&f.Feature, &f.TenantID, &f.Enabled, &f.UpdatedAt); err != nil {
			return nil, err
		}
		flags = append(flags, f)
	}
	return flags, rows.Err()
}

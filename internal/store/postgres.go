package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/devscout/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}

	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool creates a PostgresStore over an existing pool.
// Used by tests to inject pgxmock.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS requests (
	id         TEXT PRIMARY KEY,
	query      TEXT NOT NULL,
	page_count INTEGER NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	results    JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status);
CREATE INDEX IF NOT EXISTS idx_requests_created_at ON requests(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) RecordRequest(ctx context.Context, query string, pageCount int) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO requests (id, query, page_count, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, query, pageCount, string(model.RequestStatusPending), now, now,
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert request")
	}

	return id, nil
}

func (s *PostgresStore) RecordResult(ctx context.Context, requestID string, records []model.ProfileRecord) error {
	resultsJSON, err := json.Marshal(records)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal results")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE requests SET results = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultsJSON, string(model.RequestStatusComplete), time.Now().UTC(), requestID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update request %s", requestID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: request not found: %s", requestID)
	}
	return nil
}

func (s *PostgresStore) ListRequests(ctx context.Context, limit int) ([]model.RequestRecord, error) {
	q := `SELECT id, query, page_count, status, results, created_at, updated_at FROM requests ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list requests")
	}
	defer rows.Close()

	var out []model.RequestRecord
	for rows.Next() {
		var (
			rec     model.RequestRecord
			status  string
			results []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Query, &rec.PageCount, &status, &results, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan request")
		}
		rec.Status = model.RequestStatus(status)
		if len(results) > 0 {
			if err := json.Unmarshal(results, &rec.Results); err != nil {
				return nil, eris.Wrapf(err, "postgres: unmarshal results for %s", rec.ID)
			}
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate requests")
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/devscout/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS requests (
	id         TEXT PRIMARY KEY,
	query      TEXT NOT NULL,
	page_count INTEGER NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	results    TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_requests_status ON requests(status);
CREATE INDEX IF NOT EXISTS idx_requests_created_at ON requests(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RecordRequest(ctx context.Context, query string, pageCount int) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO requests (id, query, page_count, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, query, pageCount, string(model.RequestStatusPending), now, now,
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert request")
	}

	return id, nil
}

func (s *SQLiteStore) RecordResult(ctx context.Context, requestID string, records []model.ProfileRecord) error {
	resultsJSON, err := json.Marshal(records)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal results")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE requests SET results = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(resultsJSON), string(model.RequestStatusComplete), time.Now().UTC(), requestID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update request %s", requestID)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: request not found: %s", requestID)
	}
	return nil
}

func (s *SQLiteStore) ListRequests(ctx context.Context, limit int) ([]model.RequestRecord, error) {
	q := `SELECT id, query, page_count, status, results, created_at, updated_at FROM requests ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list requests")
	}
	defer rows.Close()

	var out []model.RequestRecord
	for rows.Next() {
		var (
			rec     model.RequestRecord
			status  string
			results sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Query, &rec.PageCount, &status, &results, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan request")
		}
		rec.Status = model.RequestStatus(status)
		if results.Valid && results.String != "" {
			if err := json.Unmarshal([]byte(results.String), &rec.Results); err != nil {
				return nil, eris.Wrapf(err, "sqlite: unmarshal results for %s", rec.ID)
			}
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate requests")
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"adaptlyAPI/internal/apperr"
)

const localSchema = `
CREATE TABLE IF NOT EXISTS records (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	bucket     TEXT NOT NULL,
	record_id  TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at TEXT NOT NULL,
	UNIQUE (bucket, record_id)
);
CREATE INDEX IF NOT EXISTS idx_records_bucket ON records (bucket, seq);
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

type LocalConfig struct {
	Path     string
	InMemory bool
}

// LocalStore is the device-local key-value store, kept in one SQLite file.
type LocalStore struct {
	db   *sql.DB
	path string
}

func OpenLocal(ctx context.Context, cfg LocalConfig) (*LocalStore, error) {
	dsn := ":memory:"
	if !cfg.InMemory {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		dsn = cfg.Path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes writers and keeps an in-memory database alive.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, localSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate local schema: %w", err)
	}

	return &LocalStore{db: db, path: cfg.Path}, nil
}

func (s *LocalStore) Path() string { return s.path }

func (s *LocalStore) Append(ctx context.Context, bucket Key, rec Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO records (bucket, record_id, payload, created_at)
		VALUES (?, ?, ?, ?)`,
		bucket.String(), rec.ID, string(rec.Payload), formatTime(rec.CreatedAt))
	if err != nil {
		return apperr.Unavailable("append record", err)
	}
	return nil
}

func (s *LocalStore) AppendAll(ctx context.Context, bucket Key, recs []Record) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO records (bucket, record_id, payload, created_at)
			VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, rec := range recs {
			if _, err := stmt.ExecContext(ctx, bucket.String(), rec.ID, string(rec.Payload), formatTime(rec.CreatedAt)); err != nil {
				return err
			}
		}
		return nil
	}, "append records")
}

func (s *LocalStore) List(ctx context.Context, bucket Key) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_id, payload, created_at
		FROM records
		WHERE bucket = ?
		ORDER BY seq ASC`, bucket.String())
	if err != nil {
		return nil, apperr.Unavailable("list records", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		var payload, createdAt string
		if err := rows.Scan(&rec.ID, &payload, &createdAt); err != nil {
			return nil, apperr.Unavailable("scan record", err)
		}
		rec.Payload = json.RawMessage(payload)
		rec.CreatedAt = parseTime(createdAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Unavailable("list records", err)
	}
	return records, nil
}

func (s *LocalStore) Replace(ctx context.Context, bucket Key, rec Record) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE records SET payload = ?
		WHERE bucket = ? AND record_id = ?`,
		string(rec.Payload), bucket.String(), rec.ID)
	if err != nil {
		return apperr.Unavailable("replace record", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Unavailable("replace record", err)
	}
	if n == 0 {
		return apperr.NotFound("record %s in %s", rec.ID, bucket)
	}
	return nil
}

func (s *LocalStore) Get(ctx context.Context, key Key) (json.RawMessage, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key.String()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("key %s", key)
	}
	if err != nil {
		return nil, apperr.Unavailable("get value", err)
	}
	return json.RawMessage(value), nil
}

func (s *LocalStore) Put(ctx context.Context, key Key, value json.RawMessage) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key.String(), string(value), formatTime(time.Now()))
	if err != nil {
		return apperr.Unavailable("put value", err)
	}
	return nil
}

func (s *LocalStore) Delete(ctx context.Context, key Key) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE bucket = ?`, key.String()); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key.String())
		return err
	}, "delete key")
}

func (s *LocalStore) TopByXP(ctx context.Context, limit int) ([]RankRow, int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv WHERE key LIKE 'userStats\_%' ESCAPE '\'`).Scan(&total)
	if err != nil {
		return nil, 0, apperr.Unavailable("count ledgers", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT substr(s.key, 11),
		       COALESCE(json_extract(p.value, '$.username'), ''),
		       COALESCE(CAST(json_extract(s.value, '$.xp') AS INTEGER), 0) AS xp,
		       COALESCE(CAST(json_extract(s.value, '$.level') AS INTEGER), 1)
		FROM kv s
		LEFT JOIN kv p ON p.key = 'userSettings_' || substr(s.key, 11)
		WHERE s.key LIKE 'userStats\_%' ESCAPE '\'
		ORDER BY xp DESC, s.key ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, 0, apperr.Unavailable("rank ledgers", err)
	}
	defer rows.Close()

	var out []RankRow
	for rows.Next() {
		var r RankRow
		if err := rows.Scan(&r.OwnerID, &r.Username, &r.XP, &r.Level); err != nil {
			return nil, 0, apperr.Unavailable("scan rank", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Unavailable("rank ledgers", err)
	}
	return out, total, nil
}

func (s *LocalStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperr.Unavailable("ping local store", err)
	}
	return nil
}

func (s *LocalStore) Close() error {
	return s.db.Close()
}

func (s *LocalStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error, op string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Unavailable(op, err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return apperr.Unavailable(op, err)
	}
	if err := tx.Commit(); err != nil {
		return apperr.Unavailable(op, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

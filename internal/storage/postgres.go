package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"adaptlyAPI/internal/apperr"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS activity_records (
		seq        BIGSERIAL PRIMARY KEY,
		bucket     TEXT NOT NULL,
		record_id  TEXT NOT NULL,
		payload    JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (bucket, record_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_records_bucket ON activity_records (bucket, seq)`,
	`CREATE TABLE IF NOT EXISTS kv_entries (
		key        TEXT PRIMARY KEY,
		value      JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// PostgresStore is the remote relational store shared by every account.
type PostgresStore struct {
	db *pgxpool.Pool
}

// OpenPostgres connects, pings and migrates.
func OpenPostgres(ctx context.Context, dbURL string) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := NewPostgresStore(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range postgresSchema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate remote schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, bucket Key, rec Record) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO activity_records (bucket, record_id, payload, created_at)
		VALUES ($1, $2, $3::jsonb, $4)
		ON CONFLICT (bucket, record_id) DO NOTHING`,
		bucket.String(), rec.ID, string(rec.Payload), rec.CreatedAt)
	if err != nil {
		return apperr.Unavailable("append record", err)
	}
	return nil
}

func (s *PostgresStore) AppendAll(ctx context.Context, bucket Key, recs []Record) error {
	return s.withTx(ctx, "append records", func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rec := range recs {
			batch.Queue(`
				INSERT INTO activity_records (bucket, record_id, payload, created_at)
				VALUES ($1, $2, $3::jsonb, $4)
				ON CONFLICT (bucket, record_id) DO NOTHING`,
				bucket.String(), rec.ID, string(rec.Payload), rec.CreatedAt)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (s *PostgresStore) List(ctx context.Context, bucket Key) ([]Record, error) {
	rows, err := s.db.Query(ctx, `
		SELECT record_id, payload, created_at
		FROM activity_records
		WHERE bucket = $1
		ORDER BY seq ASC`, bucket.String())
	if err != nil {
		return nil, apperr.Unavailable("list records", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var rec Record
		var payload []byte
		if err := rows.Scan(&rec.ID, &payload, &rec.CreatedAt); err != nil {
			return nil, apperr.Unavailable("scan record", err)
		}
		rec.Payload = json.RawMessage(payload)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Unavailable("list records", err)
	}
	return records, nil
}

func (s *PostgresStore) Replace(ctx context.Context, bucket Key, rec Record) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE activity_records SET payload = $3::jsonb
		WHERE bucket = $1 AND record_id = $2`,
		bucket.String(), rec.ID, string(rec.Payload))
	if err != nil {
		return apperr.Unavailable("replace record", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("record %s in %s", rec.ID, bucket)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key Key) (json.RawMessage, error) {
	var value []byte
	err := s.db.QueryRow(ctx, `SELECT value FROM kv_entries WHERE key = $1`, key.String()).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("key %s", key)
	}
	if err != nil {
		return nil, apperr.Unavailable("get value", err)
	}
	return json.RawMessage(value), nil
}

func (s *PostgresStore) Put(ctx context.Context, key Key, value json.RawMessage) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO kv_entries (key, value, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key.String(), string(value))
	if err != nil {
		return apperr.Unavailable("put value", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key Key) error {
	return s.withTx(ctx, "delete key", func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM activity_records WHERE bucket = $1`, key.String()); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM kv_entries WHERE key = $1`, key.String())
		return err
	})
}

func (s *PostgresStore) TopByXP(ctx context.Context, limit int) ([]RankRow, int, error) {
	var total int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM kv_entries WHERE key LIKE 'userStats\_%'`).Scan(&total)
	if err != nil {
		return nil, 0, apperr.Unavailable("count ledgers", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT substring(s.key from 11) AS owner_id,
		       COALESCE(p.value->>'username', '') AS username,
		       COALESCE((s.value->>'xp')::bigint, 0) AS xp,
		       COALESCE((s.value->>'level')::int, 1) AS level
		FROM kv_entries s
		LEFT JOIN kv_entries p ON p.key = 'userSettings_' || substring(s.key from 11)
		WHERE s.key LIKE 'userStats\_%'
		ORDER BY xp DESC, s.key ASC
		LIMIT $1`, limit)
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

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return apperr.Unavailable("ping remote store", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

func (s *PostgresStore) withTx(ctx context.Context, op string, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return apperr.Unavailable(op, err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return apperr.Unavailable(op, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return apperr.Unavailable(op, err)
	}
	return nil
}

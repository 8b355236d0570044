package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"pickup-route-service/internal/domain"
)

// SQLMatrixCache is the Postgres variant of the matrix cache.
type SQLMatrixCache struct {
	DB *sql.DB
}

func NewSQLMatrixCache(db *sql.DB) *SQLMatrixCache {
	return &SQLMatrixCache{DB: db}
}

// InitSQLSchema creates the cache table on Postgres when missing.
func InitSQLSchema(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS matrix_cache (
		cache_key  TEXT PRIMARY KEY,
		payload    BYTEA NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`)
	if err != nil {
		return fmt.Errorf("init matrix cache schema: %w", err)
	}
	return nil
}

func (s *SQLMatrixCache) Get(ctx context.Context, key string) (*domain.Matrix, bool, error) {
	if s.DB == nil {
		return nil, false, errors.New("matrix cache: db is nil")
	}
	if key == "" {
		return nil, false, errors.New("get matrix cache: key must not be empty")
	}

	var payload []byte
	err := s.DB.QueryRowContext(ctx, `
	SELECT payload
	FROM matrix_cache
	WHERE cache_key = $1;
	`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get matrix cache: query matrix_cache table: %w", err)
	}

	var m domain.Matrix
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, false, fmt.Errorf("get matrix cache: decode payload: %w", err)
	}

	return &m, true, nil
}

func (s *SQLMatrixCache) Put(ctx context.Context, key string, m *domain.Matrix) error {
	if s.DB == nil {
		return errors.New("matrix cache: db is nil")
	}
	if key == "" {
		return errors.New("insert matrix cache: key must not be empty")
	}

	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("insert matrix cache: encode payload: %w", err)
	}

	if _, err := s.DB.ExecContext(ctx, `
	INSERT INTO matrix_cache (cache_key, payload)
	VALUES ($1, $2)
	ON CONFLICT (cache_key) DO UPDATE
	SET payload = EXCLUDED.payload;
	`, key, payload); err != nil {
		return fmt.Errorf("insert matrix cache key=%q: %w", key, err)
	}

	return nil
}

package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"pickup-route-service/internal/domain"
)

// SQLite backed cache for computed unique-coordinate matrices. Keys are
// expected to be stable coordinate-set identities produced by the caller.
type SqliteMatrixCache struct {
	DB *sql.DB
}

func NewSqliteMatrixCache(db *sql.DB) *SqliteMatrixCache {
	return &SqliteMatrixCache{DB: db}
}

// InitSchema creates the cache table when missing.
func InitSchema(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS matrix_cache (
		cache_key  TEXT PRIMARY KEY,
		payload    BLOB NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`)
	if err != nil {
		return fmt.Errorf("init matrix cache schema: %w", err)
	}
	return nil
}

// Fetch a cached matrix by coordinate-set key.
func (s *SqliteMatrixCache) Get(ctx context.Context, key string) (*domain.Matrix, bool, error) {
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
	WHERE cache_key = ?;
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

// Store a computed matrix under its coordinate-set key.
func (s *SqliteMatrixCache) Put(ctx context.Context, key string, m *domain.Matrix) error {
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
	INSERT OR REPLACE INTO matrix_cache (cache_key, payload)
	VALUES (?, ?);
	`, key, payload); err != nil {
		return fmt.Errorf("insert matrix cache key=%q: %w", key, err)
	}

	return nil
}

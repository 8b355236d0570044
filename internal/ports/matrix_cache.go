package ports

import (
	"context"

	"pickup-route-service/internal/domain"
)

// MatrixCache stores computed unique-coordinate matrices keyed by coordinate
// set identity. A miss is (nil, false, nil); storage failures on Put are the
// caller's to log, never to fail a solve over.
type MatrixCache interface {
	Get(ctx context.Context, key string) (*domain.Matrix, bool, error)
	Put(ctx context.Context, key string, m *domain.Matrix) error
}

package ports

import (
	"context"

	"pickup-route-service/internal/domain"
)

// Contract for acquiring full travel-time and travel-distance matrices over an
// ordered coordinate list. Implementations deduplicate identical coordinates
// and bound the size of individual backend requests; the returned matrix is
// always len(coords) x len(coords).
type MatrixProvider interface {
	ComputeMatrices(ctx context.Context, coords []domain.Coordinates) (*domain.Matrix, error)
}

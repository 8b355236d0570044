package distance

import (
	"context"
	"fmt"

	"pickup-route-service/internal/domain"
)

type MockPair struct {
	From, To domain.Coordinates
	Minutes  int
	Meters   int
}

// MockMatrixProvider serves matrices from a fixed pair table. Self pairs are
// always zero; any other missing pair is an error so tests fail loudly.
type MockMatrixProvider struct {
	m map[[2]domain.Coordinates]MockPair
}

func NewMockMatrixProvider(pairs []MockPair) *MockMatrixProvider {
	m := make(map[[2]domain.Coordinates]MockPair, len(pairs))
	for _, p := range pairs {
		m[[2]domain.Coordinates{p.From, p.To}] = p
	}
	return &MockMatrixProvider{m: m}
}

func (p *MockMatrixProvider) ComputeMatrices(_ context.Context, coords []domain.Coordinates) (*domain.Matrix, error) {
	out := domain.NewMatrix(len(coords))
	for i, from := range coords {
		for j, to := range coords {
			if from == to {
				continue
			}
			pair, ok := p.m[[2]domain.Coordinates{from, to}]
			if !ok {
				return nil, fmt.Errorf("mock matrix: missing pair %v -> %v", from, to)
			}
			out.TimeMin[i][j] = pair.Minutes
			out.DistM[i][j] = pair.Meters
		}
	}
	return out, nil
}

package distance

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"golang.org/x/time/rate"

	"pickup-route-service/internal/domain"
)

// fakeFetcher computes travel from latitude deltas so full and chunked
// assembly can be compared cell for cell. It records every sub-request.
type fakeFetcher struct {
	mu       sync.Mutex
	requests int
	maxSize  int
	fail     error
}

func (f *fakeFetcher) name() string { return "fake" }

func (f *fakeFetcher) fetchSubMatrix(_ context.Context, coords []domain.Coordinates, sources, destinations []int) ([][]int, [][]int, error) {
	f.mu.Lock()
	f.requests++
	if len(coords) > f.maxSize {
		f.maxSize = len(coords)
	}
	err := f.fail
	f.mu.Unlock()
	if err != nil {
		return nil, nil, err
	}

	timeMin := make([][]int, len(sources))
	distM := make([][]int, len(sources))
	for i, s := range sources {
		timeMin[i] = make([]int, len(destinations))
		distM[i] = make([]int, len(destinations))
		for j, d := range destinations {
			minutes := int(math.Abs(coords[s].Lat - coords[d].Lat))
			timeMin[i][j] = minutes
			distM[i][j] = minutes * 1000
		}
	}
	return timeMin, distM, nil
}

func newTestProvider(f subMatrixFetcher, cache *memCache, chunkSize int) *Provider {
	p := &Provider{
		fetcher:     f,
		limiter:     rate.NewLimiter(rate.Inf, 1),
		chunkSize:   chunkSize,
		maxParallel: 4,
	}
	// Assign only a non-nil cache: storing a nil *memCache in the
	// interface-typed field would defeat the provider's nil check.
	if cache != nil {
		p.cache = cache
	}
	return p
}

// memCache is an in-process MatrixCache for provider tests.
type memCache struct {
	mu   sync.Mutex
	data map[string]*domain.Matrix
	gets int
	puts int
}

func newMemCache() *memCache { return &memCache{data: map[string]*domain.Matrix{}} }

func (c *memCache) Get(_ context.Context, key string) (*domain.Matrix, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	m, ok := c.data[key]
	return m, ok, nil
}

func (c *memCache) Put(_ context.Context, key string, m *domain.Matrix) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	c.data[key] = m
	return nil
}

func latCoords(n int) []domain.Coordinates {
	coords := make([]domain.Coordinates, n)
	for i := range coords {
		coords[i] = domain.Coordinates{Lat: float64(i), Lon: 7}
	}
	return coords
}

func TestComputeMatricesSingleRequestUnderThreshold(t *testing.T) {
	f := &fakeFetcher{}
	p := newTestProvider(f, nil, 25)

	coords := latCoords(10)
	m, err := p.ComputeMatrices(context.Background(), coords)
	if err != nil {
		t.Fatalf("ComputeMatrices: %v", err)
	}
	if f.requests != 1 {
		t.Errorf("requests = %d, want 1", f.requests)
	}
	if m.Size() != 10 {
		t.Fatalf("size = %d, want 10", m.Size())
	}
	if m.TimeMin[2][7] != 5 || m.DistM[2][7] != 5000 {
		t.Errorf("cell (2,7) = %d/%d, want 5/5000", m.TimeMin[2][7], m.DistM[2][7])
	}
}

func TestComputeMatricesChunkedMatchesWhole(t *testing.T) {
	coords := latCoords(30)

	whole, err := newTestProvider(&fakeFetcher{}, nil, 100).ComputeMatrices(context.Background(), coords)
	if err != nil {
		t.Fatalf("whole: %v", err)
	}

	f := &fakeFetcher{}
	chunked, err := newTestProvider(f, nil, 25).ComputeMatrices(context.Background(), coords)
	if err != nil {
		t.Fatalf("chunked: %v", err)
	}

	// 30 coords with chunk size 25 gives two chunks, so four chunk pairs.
	if f.requests != 4 {
		t.Errorf("requests = %d, want 4", f.requests)
	}
	if f.maxSize > 50 {
		t.Errorf("largest request carried %d coords, want at most 2*chunk", f.maxSize)
	}

	for i := 0; i < 30; i++ {
		for j := 0; j < 30; j++ {
			if whole.TimeMin[i][j] != chunked.TimeMin[i][j] {
				t.Fatalf("time cell (%d,%d): whole=%d chunked=%d", i, j, whole.TimeMin[i][j], chunked.TimeMin[i][j])
			}
			if whole.DistM[i][j] != chunked.DistM[i][j] {
				t.Fatalf("dist cell (%d,%d): whole=%d chunked=%d", i, j, whole.DistM[i][j], chunked.DistM[i][j])
			}
		}
	}
}

func TestComputeMatricesDeduplicatesCoordinates(t *testing.T) {
	f := &fakeFetcher{}
	p := newTestProvider(f, nil, 25)

	// 6 nodes, 3 unique coordinates
	coords := []domain.Coordinates{
		{Lat: 0, Lon: 7}, {Lat: 1, Lon: 7}, {Lat: 0, Lon: 7},
		{Lat: 2, Lon: 7}, {Lat: 1, Lon: 7}, {Lat: 0, Lon: 7},
	}
	m, err := p.ComputeMatrices(context.Background(), coords)
	if err != nil {
		t.Fatalf("ComputeMatrices: %v", err)
	}

	if f.maxSize != 3 {
		t.Errorf("backend saw %d coords, want 3 unique", f.maxSize)
	}
	if m.Size() != 6 {
		t.Fatalf("size = %d, want full 6", m.Size())
	}
	if m.TimeMin[0][2] != 0 {
		t.Errorf("duplicate pair time = %d, want 0", m.TimeMin[0][2])
	}
	if m.TimeMin[0][3] != 2 || m.TimeMin[5][3] != 2 {
		t.Errorf("expanded cells wrong: %d, %d", m.TimeMin[0][3], m.TimeMin[5][3])
	}
}

func TestComputeMatricesUsesCache(t *testing.T) {
	f := &fakeFetcher{}
	c := newMemCache()
	p := newTestProvider(f, c, 25)

	coords := latCoords(5)
	if _, err := p.ComputeMatrices(context.Background(), coords); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := p.ComputeMatrices(context.Background(), coords); err != nil {
		t.Fatalf("second call: %v", err)
	}

	if f.requests != 1 {
		t.Errorf("backend requests = %d, want 1 (second call served from cache)", f.requests)
	}
	if c.puts != 1 {
		t.Errorf("cache puts = %d, want 1", c.puts)
	}

	// A different coordinate set must miss.
	if _, err := p.ComputeMatrices(context.Background(), latCoords(6)); err != nil {
		t.Fatalf("third call: %v", err)
	}
	if f.requests != 2 {
		t.Errorf("backend requests = %d, want 2 after a new coordinate set", f.requests)
	}
}

func TestComputeMatricesPropagatesBackendErrors(t *testing.T) {
	provErr := &ProviderError{Provider: "fake", Status: 500, Detail: "boom"}
	f := &fakeFetcher{fail: provErr}
	p := newTestProvider(f, nil, 25)

	_, err := p.ComputeMatrices(context.Background(), latCoords(30))
	if err == nil {
		t.Fatal("expected an error")
	}
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("got %T, want ProviderError", err)
	}
}

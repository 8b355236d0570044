package distance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/time/rate"

	"pickup-route-service/internal/config"
	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/metrics"
	"pickup-route-service/internal/ports"
)

// subMatrixFetcher issues one backend request for the travel times and
// distances from the coordinate positions listed in sources to those listed in
// destinations. Returned matrices are len(sources) x len(destinations);
// unreachable pairs carry the domain sentinels, never a missing cell.
type subMatrixFetcher interface {
	name() string
	fetchSubMatrix(ctx context.Context, coords []domain.Coordinates, sources, destinations []int) (timeMin, distM [][]int, err error)
}

// Provider implements ports.MatrixProvider on top of a concrete backend.
//
// It coordinates:
//   - coordinate deduplication (first-seen order)
//   - an optional persistent cache keyed by coordinate-set identity
//   - chunked sub-requests bounding each backend call's coordinate count
//   - outbound rate limiting
//
// The provider is safe for concurrent use.
type Provider struct {
	fetcher     subMatrixFetcher
	cache       ports.MatrixCache
	limiter     *rate.Limiter
	chunkSize   int
	maxParallel int
}

// NewProvider builds the matrix provider selected by cfg. The API key is
// passed explicitly by the composition root; adapters never read the process
// environment themselves.
func NewProvider(cfg config.MatrixConfig, apiKey string, cache ports.MatrixCache) (*Provider, error) {
	var fetcher subMatrixFetcher
	switch cfg.Provider {
	case "osrm":
		fetcher = newOSRMFetcher(cfg.BaseURL, cfg.Profile)
	case "google":
		if apiKey == "" {
			return nil, errors.New("new matrix provider: google provider requires an API key")
		}
		fetcher = newGoogleFetcher(cfg.BaseURL, apiKey)
	default:
		return nil, fmt.Errorf("new matrix provider: unknown provider %q", cfg.Provider)
	}

	chunk := cfg.ChunkSize
	if chunk < 2 {
		chunk = 25
	}
	parallel := cfg.MaxParallel
	if parallel < 1 {
		parallel = 1
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}

	return &Provider{
		fetcher:     fetcher,
		cache:       cache,
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
		chunkSize:   chunk,
		maxParallel: parallel,
	}, nil
}

// ComputeMatrices returns full len(coords) x len(coords) travel matrices.
func (p *Provider) ComputeMatrices(ctx context.Context, coords []domain.Coordinates) (*domain.Matrix, error) {
	if len(coords) == 0 {
		return domain.NewMatrix(0), nil
	}

	uniq, lookup := dedupCoords(coords)
	key := cacheKey(p.fetcher.name(), uniq)

	if p.cache != nil {
		cached, ok, err := p.cache.Get(ctx, key)
		if err != nil {
			log.Printf("matrix cache read failed key=%s err=%v", key, err)
		} else if ok && cached.Size() == len(uniq) {
			return expand(cached, lookup), nil
		}
	}

	var (
		um  *domain.Matrix
		err error
	)
	if len(uniq) <= p.chunkSize {
		um, err = p.fetchWhole(ctx, uniq)
	} else {
		um, err = p.fetchChunked(ctx, uniq)
	}
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if err := p.cache.Put(ctx, key, um); err != nil {
			log.Printf("matrix cache write failed key=%s err=%v", key, err)
		}
	}

	return expand(um, lookup), nil
}

// fetchWhole issues a single unique x unique request.
func (p *Provider) fetchWhole(ctx context.Context, uniq []domain.Coordinates) (*domain.Matrix, error) {
	all := make([]int, len(uniq))
	for i := range all {
		all[i] = i
	}

	t, d, err := p.fetchLimited(ctx, uniq, all, all)
	if err != nil {
		return nil, err
	}
	return &domain.Matrix{TimeMin: t, DistM: d}, nil
}

type chunkPair struct {
	src []int // unique-coordinate indices acting as sources
	dst []int // unique-coordinate indices acting as destinations
}

type chunkResult struct {
	pair    int
	timeMin [][]int
	distM   [][]int
	err     error
}

// fetchChunked partitions the unique coordinates into fixed-size chunks and
// issues one sub-request per (source chunk, destination chunk) pair. Each
// request carries at most 2*chunkSize coordinates regardless of fleet size,
// trading request count for bounded request size. Requests run in parallel;
// results are written back by chunk-pair identity so the assembled matrix is
// deterministic regardless of completion order.
func (p *Provider) fetchChunked(ctx context.Context, uniq []domain.Coordinates) (*domain.Matrix, error) {
	chunks := splitIndices(len(uniq), p.chunkSize)

	pairs := make([]chunkPair, 0, len(chunks)*len(chunks))
	for _, src := range chunks {
		for _, dst := range chunks {
			pairs = append(pairs, chunkPair{src: src, dst: dst})
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, p.maxParallel)
	results := make(chan chunkResult, len(pairs))
	var wg sync.WaitGroup

	for i, pair := range pairs {
		wg.Add(1)
		go func(i int, pair chunkPair) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			combined, src, dst := pairCoordinates(uniq, pair)
			t, d, err := p.fetchLimited(ctx, combined, src, dst)
			if err != nil {
				results <- chunkResult{pair: i, err: err}
				cancel()
				return
			}
			results <- chunkResult{pair: i, timeMin: t, distM: d}
		}(i, pair)
	}

	wg.Wait()
	close(results)

	out := domain.NewMatrix(len(uniq))
	var firstErr error
	for res := range results {
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		pair := pairs[res.pair]
		for si, s := range pair.src {
			for di, d := range pair.dst {
				out.TimeMin[s][d] = res.timeMin[si][di]
				out.DistM[s][d] = res.distM[si][di]
			}
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}

	return out, nil
}

// fetchLimited applies the outbound rate limit around one backend request.
func (p *Provider) fetchLimited(ctx context.Context, coords []domain.Coordinates, src, dst []int) ([][]int, [][]int, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	metrics.MatrixChunkRequests.Inc()
	t, d, err := p.fetcher.fetchSubMatrix(ctx, coords, src, dst)
	if err != nil {
		metrics.MatrixRequests.WithLabelValues(p.fetcher.name(), "error").Inc()
		return nil, nil, err
	}
	metrics.MatrixRequests.WithLabelValues(p.fetcher.name(), "ok").Inc()
	return t, d, nil
}

// dedupCoords maps each coordinate to a unique id in first-seen order and
// returns the unique list plus the node-index -> unique-id lookup.
func dedupCoords(coords []domain.Coordinates) ([]domain.Coordinates, []int) {
	seen := make(map[domain.Coordinates]int, len(coords))
	uniq := make([]domain.Coordinates, 0, len(coords))
	lookup := make([]int, len(coords))

	for i, c := range coords {
		id, ok := seen[c]
		if !ok {
			id = len(uniq)
			seen[c] = id
			uniq = append(uniq, c)
		}
		lookup[i] = id
	}

	return uniq, lookup
}

// splitIndices partitions [0,n) into consecutive chunks of at most size.
func splitIndices(n, size int) [][]int {
	chunks := make([][]int, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		chunk := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			chunk = append(chunk, i)
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// pairCoordinates builds the minimal combined coordinate list for one chunk
// pair (deduplicated within the pair) and the source/destination positions
// into that list.
func pairCoordinates(uniq []domain.Coordinates, pair chunkPair) ([]domain.Coordinates, []int, []int) {
	pos := make(map[int]int, len(pair.src)+len(pair.dst))
	combined := make([]domain.Coordinates, 0, len(pair.src)+len(pair.dst))

	add := func(id int) int {
		if p, ok := pos[id]; ok {
			return p
		}
		p := len(combined)
		pos[id] = p
		combined = append(combined, uniq[id])
		return p
	}

	src := make([]int, len(pair.src))
	for i, id := range pair.src {
		src[i] = add(id)
	}
	dst := make([]int, len(pair.dst))
	for i, id := range pair.dst {
		dst[i] = add(id)
	}

	return combined, src, dst
}

// expand blows the unique x unique matrix back up to the full node x node
// matrix; duplicate coordinates reuse the same unique row and column.
func expand(um *domain.Matrix, lookup []int) *domain.Matrix {
	n := len(lookup)
	out := domain.NewMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.TimeMin[i][j] = um.TimeMin[lookup[i]][lookup[j]]
			out.DistM[i][j] = um.DistM[lookup[i]][lookup[j]]
		}
	}
	return out
}

// cacheKey derives a stable identity for an ordered unique coordinate list.
func cacheKey(provider string, uniq []domain.Coordinates) string {
	h := sha256.New()
	h.Write([]byte(provider))
	for _, c := range uniq {
		h.Write([]byte{';'})
		h.Write([]byte(c.PathSegment()))
	}
	return hex.EncodeToString(h.Sum(nil))
}

package domain

import "fmt"

// Sentinel values standing in for "no path". They are reserved markers, not
// real travel costs: a cell at or above these bounds must never be summed into
// a route.
const (
	UnreachableTimeMin = 1_000_000
	UnreachableDistM   = 1_000_000_000
)

// Matrix holds square travel-time (minutes) and travel-distance (meters)
// matrices indexed by node position.
type Matrix struct {
	TimeMin [][]int `json:"time_min"`
	DistM   [][]int `json:"dist_m"`
}

// Size returns the matrix dimension.
func (m *Matrix) Size() int { return len(m.TimeMin) }

// Reachable reports whether a finite path exists from i to j.
func (m *Matrix) Reachable(i, j int) bool {
	return m.TimeMin[i][j] < UnreachableTimeMin
}

// Validate checks squareness against the expected node count and rejects
// negative entries. Mismatched dimensions are configuration errors surfaced
// before any search begins.
func (m *Matrix) Validate(nodes int) error {
	if len(m.TimeMin) != nodes || len(m.DistM) != nodes {
		return &ConfigError{
			Field:  "matrix",
			Detail: fmt.Sprintf("matrix size %dx%d does not match node count %d", len(m.TimeMin), len(m.DistM), nodes),
		}
	}

	for i := range m.TimeMin {
		if len(m.TimeMin[i]) != nodes || len(m.DistM[i]) != nodes {
			return &ConfigError{
				Field:  "matrix",
				Detail: fmt.Sprintf("row %d is not of length %d", i, nodes),
			}
		}
		for j := range m.TimeMin[i] {
			if m.TimeMin[i][j] < 0 || m.DistM[i][j] < 0 {
				return &ConfigError{
					Field:  "matrix",
					Detail: fmt.Sprintf("negative entry at (%d,%d)", i, j),
				}
			}
		}
	}

	return nil
}

// NewMatrix allocates zeroed n x n time and distance matrices.
func NewMatrix(n int) *Matrix {
	t := make([][]int, n)
	d := make([][]int, n)
	for i := 0; i < n; i++ {
		t[i] = make([]int, n)
		d[i] = make([]int, n)
	}
	return &Matrix{TimeMin: t, DistM: d}
}

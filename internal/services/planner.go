package services

import (
	"context"
	"fmt"
	"time"

	"pickup-route-service/internal/config"
	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/platform/obs"
	"pickup-route-service/internal/ports"
)

// Planner is the end-to-end pickup planning use case: raw stops in,
// finalized routes out. It owns the pipeline order — node building, matrix
// acquisition, prechecks, two-phase solve.
type Planner struct {
	provider ports.MatrixProvider
	depot    config.DepotConfig
	solve    config.SolveConfig
}

func NewPlanner(provider ports.MatrixProvider, depot config.DepotConfig, solve config.SolveConfig) *Planner {
	return &Planner{provider: provider, depot: depot, solve: solve}
}

// PlanResult carries the solution together with the diagnostic context that
// produced it. Prechecks are populated even when the solve fails, so callers
// can explain a no-solution outcome. Day is the reference day all window
// minutes count from.
type PlanResult struct {
	Solution  *Solution
	Summary   InputSummary
	Day       time.Time
	Prechecks []string
	Nodes     []domain.Node
	Matrix    *domain.Matrix
}

// Plan runs the full pipeline for one request. vehicles overrides the
// configured fleet size when positive. On ErrNoSolution the returned result
// still holds nodes and prechecks.
func (pl *Planner) Plan(ctx context.Context, stops []Stop, vehicles int) (res *PlanResult, err error) {
	defer obs.Time(ctx, "plan")(&err)

	if len(stops) == 0 {
		return nil, &domain.ConfigError{Field: "stops", Detail: "no stops supplied"}
	}

	day, err := pl.solve.ReferenceDay()
	if err != nil {
		return nil, &domain.ConfigError{Field: "reference_date", Detail: err.Error()}
	}

	nodes, admission, err := BuildNodes(pl.depot, stops, pl.solve)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 1 {
		return nil, &domain.ConfigError{Field: "stops", Detail: "no stop carries a pickup window"}
	}
	summary := SummarizeInput(stops, nodes)

	coords := make([]domain.Coordinates, len(nodes))
	for i, n := range nodes {
		coords[i] = n.Coord
	}
	matrix, err := pl.provider.ComputeMatrices(ctx, coords)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}
	if err := matrix.Validate(len(nodes)); err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	checks := Precheck(nodes, matrix, admission)

	params := ParamsFromConfig(pl.solve)
	if vehicles > 0 {
		params.Vehicles = vehicles
	}

	sol, err := Solve(ctx, nodes, matrix, admission, params)
	if err != nil {
		return &PlanResult{Summary: summary, Day: day, Prechecks: checks, Nodes: nodes, Matrix: matrix}, err
	}

	return &PlanResult{
		Solution:  sol,
		Summary:   summary,
		Day:       day,
		Prechecks: checks,
		Nodes:     nodes,
		Matrix:    matrix,
	}, nil
}

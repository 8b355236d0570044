package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"pickup-route-service/internal/config"
	"pickup-route-service/internal/domain"
	"pickup-route-service/internal/metrics"
)

// ErrInfeasible marks a failed hard-window phase. It is a normal outcome,
// not a fault: the caller falls back to the relaxed phase.
var ErrInfeasible = errors.New("no assignment satisfies all pickup windows")

// ErrNoSolution marks a failed relaxed phase. Even with windows soft, some
// stop could not be placed within the horizon, wait cap and depot admission.
var ErrNoSolution = errors.New("no solution even with relaxed pickup windows")

// SolveParams are the knobs of a single solve run, typically derived from
// config.SolveConfig.
type SolveParams struct {
	Vehicles            int
	MaxWaitMin          int
	MaxRouteDurationMin int
	SoftPenaltyPerMin   int
	HardBudget          time.Duration
	RelaxedBudget       time.Duration
	Seed                int64
}

// ParamsFromConfig lifts the configured solve settings into SolveParams.
func ParamsFromConfig(cfg config.SolveConfig) SolveParams {
	return SolveParams{
		Vehicles:            cfg.Vehicles,
		MaxWaitMin:          cfg.MaxWaitMin,
		MaxRouteDurationMin: cfg.MaxRouteDurationMin,
		SoftPenaltyPerMin:   cfg.SoftPenaltyPerMin,
		HardBudget:          cfg.HardBudget(),
		RelaxedBudget:       cfg.RelaxedBudget(),
		Seed:                cfg.Seed,
	}
}

// Solution is a complete solve result: finalized routes with repaired
// departures and waits, per-route totals, and, when the relaxed phase
// produced it, the window violations sorted worst-first.
type Solution struct {
	Relaxed    bool
	Routes     []domain.Route
	Totals     []domain.RouteTotals
	Violations []domain.Violation
}

// Solve runs the two-phase search: hard windows first, then, only when the
// hard phase leaves stops unassigned, a relaxed retry with penalized
// windows. A relaxed failure is terminal and returns ErrNoSolution.
func Solve(ctx context.Context, nodes []domain.Node, m *domain.Matrix, admission domain.IntervalSet, params SolveParams) (*Solution, error) {
	start := time.Now()
	defer func() { metrics.SolveDuration.Observe(time.Since(start).Seconds()) }()

	if err := validateInput(nodes, m, admission, params); err != nil {
		return nil, err
	}
	if len(nodes) == 1 {
		return &Solution{}, nil
	}

	hard := &problem{
		nodes:     nodes,
		m:         m,
		admission: admission,
		vehicles:  params.Vehicles,
		maxWait:   params.MaxWaitMin,
		maxDur:    params.MaxRouteDurationMin,
	}
	st := runSearch(ctx, hard, params.HardBudget, params.Seed)
	if len(st.unassigned) == 0 {
		metrics.Solves.WithLabelValues("hard", "ok").Inc()
		return buildSolution(hard, st, false)
	}
	metrics.Solves.WithLabelValues("hard", "infeasible").Inc()
	log.Printf("solve: %v (%d unassigned), retrying with relaxed windows", ErrInfeasible, len(st.unassigned))

	soft := &problem{
		nodes:     nodes,
		m:         m,
		admission: admission,
		vehicles:  params.Vehicles,
		maxWait:   params.MaxWaitMin,
		maxDur:    params.MaxRouteDurationMin,
		soft:      true,
		penalty:   params.SoftPenaltyPerMin,
	}
	st = runSearch(ctx, soft, params.RelaxedBudget, params.Seed)
	if len(st.unassigned) > 0 {
		metrics.Solves.WithLabelValues("relaxed", "no_solution").Inc()
		return nil, fmt.Errorf("%d stop(s) unplaceable (e.g. %s): %w",
			len(st.unassigned), nodes[st.unassigned[0]].Label, ErrNoSolution)
	}
	metrics.Solves.WithLabelValues("relaxed", "ok").Inc()
	return buildSolution(soft, st, true)
}

func validateInput(nodes []domain.Node, m *domain.Matrix, admission domain.IntervalSet, params SolveParams) error {
	if len(nodes) == 0 || !nodes[0].IsDepot() {
		return &domain.ConfigError{Field: "nodes", Detail: "node 0 must be the depot"}
	}
	for _, n := range nodes[1:] {
		if n.Window == nil {
			return &domain.ConfigError{Field: n.Label, Detail: "pickup node without a time window"}
		}
		if !n.Window.Valid() {
			return &domain.ConfigError{Field: n.Label, Detail: fmt.Sprintf("invalid window %s", n.Window)}
		}
	}
	if admission.Len() == 0 {
		return &domain.ConfigError{Field: "depot", Detail: "empty admission domain"}
	}
	if params.Vehicles < 1 {
		return &domain.ConfigError{Field: "vehicles", Detail: "at least one vehicle required"}
	}
	return m.Validate(len(nodes))
}

// buildSolution turns the search state into finalized routes. Raw depot
// start times are left at zero here; FinalizeRoutes repairs them from the
// first customer arrival.
func buildSolution(p *problem, st *searchState, relaxed bool) (*Solution, error) {
	routes := make([]domain.Route, 0, len(st.plans))
	var violations []domain.Violation

	vehicle := 0
	for _, plan := range st.plans {
		if len(plan) == 0 {
			continue
		}
		sched, ok := scheduleRoute(p, plan)
		if !ok {
			return nil, fmt.Errorf("internal: accepted plan failed scheduling")
		}

		visits := make([]domain.Visit, 0, len(plan)+2)
		visits = append(visits, domain.Visit{Node: domain.DepotIndex})
		for k, c := range plan {
			visits = append(visits, domain.Visit{Node: c, ArrivalMin: sched.arrivals[k]})
			if relaxed {
				if v, bad := violationAt(p, c, sched.arrivals[k]); bad {
					violations = append(violations, v)
				}
			}
		}
		visits = append(visits, domain.Visit{Node: domain.DepotIndex, ArrivalMin: sched.endArrival})

		routes = append(routes, domain.Route{Vehicle: vehicle, Visits: visits})
		vehicle++
	}

	sort.Slice(violations, func(a, b int) bool {
		if violations[a].LateMin != violations[b].LateMin {
			return violations[a].LateMin > violations[b].LateMin
		}
		return violations[a].EarlyMin > violations[b].EarlyMin
	})

	final, totals := FinalizeRoutes(routes, p.nodes, p.m)
	return &Solution{
		Relaxed:    relaxed,
		Routes:     final,
		Totals:     totals,
		Violations: violations,
	}, nil
}

func violationAt(p *problem, node, arrival int) (domain.Violation, bool) {
	w := p.window(node)
	v := domain.Violation{
		Node:       node,
		Label:      p.nodes[node].Label,
		ArrivalMin: arrival,
		Window:     w,
	}
	switch {
	case arrival < w.Start:
		v.EarlyMin = w.Start - arrival
	case arrival > w.End:
		v.LateMin = arrival - w.End
	default:
		return domain.Violation{}, false
	}
	return v, true
}

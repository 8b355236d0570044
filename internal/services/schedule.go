package services

import (
	"pickup-route-service/internal/domain"
)

// problem bundles everything the search needs to evaluate a candidate
// assignment. soft toggles the relaxed phase: pickup windows become
// penalized preferences instead of hard constraints, while the horizon,
// wait cap and depot admission stay hard.
type problem struct {
	nodes     []domain.Node
	m         *domain.Matrix
	admission domain.IntervalSet
	vehicles  int
	maxWait   int
	maxDur    int
	soft      bool
	penalty   int
}

func (p *problem) travel(i, j int) int { return p.m.TimeMin[i][j] }
func (p *problem) service(i int) int   { return p.nodes[i].ServiceMin }
func (p *problem) customerCount() int  { return len(p.nodes) - 1 }

func (p *problem) window(i int) domain.TimeWindow {
	return *p.nodes[i].Window
}

// arc is the edge cost used by the search objective: travel time plus the
// service duration charged at the destination. The depot has zero service,
// so return arcs cost pure travel.
func (p *problem) arc(i, j int) int { return p.travel(i, j) + p.service(j) }

// schedule is the timing of one route under the clock model where the value
// at a node is the completion of its service. The depot departure is free;
// it is derived from the first arrival rather than propagated forward.
type schedule struct {
	departure  int
	arrivals   []int
	endArrival int
	penaltyMin int
}

// scheduleRoute propagates clocks along order (customer node indices,
// depot excluded) and reports whether the route is admissible. In hard mode
// any window miss fails the route; in soft mode misses accrue penaltyMin
// minutes instead. Horizon, per-visit wait cap, depot admission and the
// optional duration cap are enforced in both modes.
func scheduleRoute(p *problem, order []int) (schedule, bool) {
	if len(order) == 0 {
		return schedule{}, true
	}

	first := order[0]
	if !p.m.Reachable(domain.DepotIndex, first) {
		return schedule{}, false
	}

	arrivals := make([]int, len(order))
	pen := 0

	// Free departure: leave the depot exactly late enough to hit the first
	// window open, so no wait is ever charged at the first stop.
	t := p.travel(domain.DepotIndex, first) + p.service(first)
	w := p.window(first)
	if t < w.Start {
		t = w.Start
	}
	if t > w.End {
		if !p.soft {
			return schedule{}, false
		}
		pen += t - w.End
	}
	if t > domain.HorizonMin {
		return schedule{}, false
	}
	arrivals[0] = t

	for k := 1; k < len(order); k++ {
		i, j := order[k-1], order[k]
		if !p.m.Reachable(i, j) {
			return schedule{}, false
		}
		tj := t + p.travel(i, j) + p.service(j)
		wj := p.window(j)
		if tj < wj.Start {
			wait := wj.Start - tj
			if wait > p.maxWait {
				if !p.soft {
					return schedule{}, false
				}
				// Wait as long as the cap allows, penalize the rest
				// as earliness.
				tj += p.maxWait
				pen += wj.Start - tj
			} else {
				tj = wj.Start
			}
		} else if tj > wj.End {
			if !p.soft {
				return schedule{}, false
			}
			pen += tj - wj.End
		}
		if tj > domain.HorizonMin {
			return schedule{}, false
		}
		arrivals[k] = tj
		t = tj
	}

	last := order[len(order)-1]
	if !p.m.Reachable(last, domain.DepotIndex) {
		return schedule{}, false
	}
	end := t + p.travel(last, domain.DepotIndex)
	adm, ok := p.admission.NextAdmission(end)
	if !ok {
		return schedule{}, false
	}
	if adm-end > p.maxWait {
		return schedule{}, false
	}
	end = adm
	if end > domain.HorizonMin {
		return schedule{}, false
	}

	departure := arrivals[0] - p.travel(domain.DepotIndex, first) - p.service(first)
	if departure < 0 {
		departure = 0
	}
	if p.maxDur > 0 && end-departure > p.maxDur {
		return schedule{}, false
	}

	return schedule{departure: departure, arrivals: arrivals, endArrival: end, penaltyMin: pen}, true
}

// routeArcCost sums arc costs depot -> order... -> depot.
func routeArcCost(p *problem, order []int) int {
	if len(order) == 0 {
		return 0
	}
	cost := p.arc(domain.DepotIndex, order[0])
	for k := 1; k < len(order); k++ {
		cost += p.arc(order[k-1], order[k])
	}
	cost += p.arc(order[len(order)-1], domain.DepotIndex)
	return cost
}

package services

import (
	"pickup-route-service/internal/domain"
)

// FinalizeRoutes repairs depot departure times and derives per-visit waits
// and per-route totals from the raw arrival clocks.
//
// The search reports the depot start with a zero clock because the departure
// is free. The repaired departure is the latest leave time that still makes
// the first arrival: first arrival minus travel minus the first stop's
// service, floored at minute zero. Waits are the slack between consecutive
// clocks once travel and service are accounted for.
func FinalizeRoutes(routes []domain.Route, nodes []domain.Node, m *domain.Matrix) ([]domain.Route, []domain.RouteTotals) {
	totals := make([]domain.RouteTotals, 0, len(routes))

	for ri := range routes {
		visits := routes[ri].Visits
		if len(visits) < 3 {
			continue
		}

		first := visits[1]
		dep := first.ArrivalMin - m.TimeMin[domain.DepotIndex][first.Node] - nodes[first.Node].ServiceMin
		if dep < 0 {
			dep = 0
		}
		visits[0].ArrivalMin = dep
		visits[0].WaitMin = 0

		t := domain.RouteTotals{Vehicle: routes[ri].Vehicle, Stops: len(visits) - 2}
		for i := 1; i < len(visits); i++ {
			prev, cur := visits[i-1], visits[i]
			travel := m.TimeMin[prev.Node][cur.Node]
			service := nodes[cur.Node].ServiceMin

			wait := cur.ArrivalMin - prev.ArrivalMin - travel - service
			if wait < 0 {
				wait = 0
			}
			visits[i].WaitMin = wait

			t.TotalDriveMin += travel
			t.TotalWaitMin += wait
			t.TotalServiceMin += service
			t.TotalDistM += m.DistM[prev.Node][cur.Node]
		}
		t.TotalMin = t.TotalDriveMin + t.TotalWaitMin + t.TotalServiceMin
		totals = append(totals, t)
	}

	return routes, totals
}

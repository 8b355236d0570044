package domain

// Visit is one scheduled stop on a route: the node, the realized clock minute
// of arrival, and the waiting inserted before that arrival.
type Visit struct {
	Node       int
	ArrivalMin int
	WaitMin    int
}

// Route is the ordered visit sequence of one vehicle. The first and last
// visits are always the depot (node 0). Routes are immutable once returned.
type Route struct {
	Vehicle int
	Visits  []Visit
}

// Customers returns the number of non-depot visits.
func (r Route) Customers() int {
	n := 0
	for _, v := range r.Visits {
		if v.Node != DepotIndex {
			n++
		}
	}
	return n
}

// RouteTotals aggregates per-route figures for downstream reporting.
type RouteTotals struct {
	Vehicle         int
	Stops           int
	TotalDistM      int
	TotalDriveMin   int
	TotalWaitMin    int
	TotalServiceMin int
	TotalMin        int
}

// Violation records one soft-window breach from a relaxed solve. It is a
// diagnostic value only; hard solves never produce violations.
type Violation struct {
	Node       int
	Label      string
	ArrivalMin int
	Window     TimeWindow
	EarlyMin   int
	LateMin    int
}

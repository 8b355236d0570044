package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"pickup-route-service/internal/domain"
)

func uniformMatrix(n, travelMin int) *domain.Matrix {
	m := domain.NewMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			m.TimeMin[i][j] = travelMin
			m.DistM[i][j] = travelMin * 1000
		}
	}
	return m
}

func window(start, end int) *domain.TimeWindow {
	return &domain.TimeWindow{Start: start, End: end}
}

func mustAdmission(t *testing.T, windows ...domain.TimeWindow) domain.IntervalSet {
	t.Helper()
	set, err := domain.MergeWindows(windows)
	if err != nil {
		t.Fatalf("MergeWindows: %v", err)
	}
	return set
}

func testSolveParams() SolveParams {
	return SolveParams{
		Vehicles:          2,
		MaxWaitMin:        240,
		SoftPenaltyPerMin: 1000,
		HardBudget:        500 * time.Millisecond,
		RelaxedBudget:     500 * time.Millisecond,
		Seed:              1,
	}
}

func depotNode() domain.Node {
	return domain.Node{Index: 0, Label: "DEPOT"}
}

// visitedCustomers collects every non-depot node across all routes.
func visitedCustomers(t *testing.T, sol *Solution) map[int]int {
	t.Helper()
	seen := map[int]int{}
	for _, r := range sol.Routes {
		if r.Visits[0].Node != domain.DepotIndex || r.Visits[len(r.Visits)-1].Node != domain.DepotIndex {
			t.Fatalf("route %d does not start and end at the depot: %v", r.Vehicle, r.Visits)
		}
		for _, v := range r.Visits[1 : len(r.Visits)-1] {
			seen[v.Node]++
		}
	}
	return seen
}

func TestSolveHardCoversEveryPickup(t *testing.T) {
	nodes := []domain.Node{
		depotNode(),
		{Index: 1, Coord: domain.Coordinates{Lat: 1}, Window: window(30, 400), ServiceMin: 5, Label: "A"},
		{Index: 2, Coord: domain.Coordinates{Lat: 2}, Window: window(30, 400), ServiceMin: 5, Label: "B"},
		{Index: 3, Coord: domain.Coordinates{Lat: 3}, Window: window(30, 400), ServiceMin: 5, Label: "C"},
	}
	m := uniformMatrix(4, 10)
	adm := mustAdmission(t, domain.TimeWindow{Start: 0, End: 1440})

	sol, err := Solve(context.Background(), nodes, m, adm, testSolveParams())
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if sol.Relaxed {
		t.Fatal("expected a hard-window solution")
	}
	if len(sol.Violations) != 0 {
		t.Fatalf("hard solution reported violations: %v", sol.Violations)
	}

	seen := visitedCustomers(t, sol)
	for c := 1; c <= 3; c++ {
		if seen[c] != 1 {
			t.Errorf("customer %d visited %d times, want exactly once", c, seen[c])
		}
	}

	for _, r := range sol.Routes {
		for _, v := range r.Visits[1 : len(r.Visits)-1] {
			w := nodes[v.Node].Window
			if !w.Contains(v.ArrivalMin) {
				t.Errorf("%s: arrival %d outside window %s", nodes[v.Node].Label, v.ArrivalMin, w)
			}
		}
		end := r.Visits[len(r.Visits)-1].ArrivalMin
		if !adm.Contains(end) {
			t.Errorf("route %d ends at %d outside the admission domain", r.Vehicle, end)
		}
	}
}

func TestSolveSequencesSameCoordinateWindows(t *testing.T) {
	// One physical stop, two mandatory windows, zero travel between the two
	// nodes. The only hard-feasible order is the earlier window first with a
	// 95 minute wait before the second.
	coord := domain.Coordinates{Lat: 52.5, Lon: 13.4}
	nodes := []domain.Node{
		depotNode(),
		{Index: 1, Coord: coord, Window: window(600, 620), ServiceMin: 5, Label: "S (pickup 1)"},
		{Index: 2, Coord: coord, Window: window(700, 720), ServiceMin: 5, Label: "S (pickup 2)"},
	}
	m := domain.NewMatrix(3)
	for _, c := range []int{1, 2} {
		m.TimeMin[0][c], m.TimeMin[c][0] = 10, 10
		m.DistM[0][c], m.DistM[c][0] = 10000, 10000
	}

	params := testSolveParams()
	params.Vehicles = 1
	adm := mustAdmission(t, domain.TimeWindow{Start: 600, End: 800})

	sol, err := Solve(context.Background(), nodes, m, adm, params)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if sol.Relaxed {
		t.Fatal("expected a hard-window solution")
	}
	if len(sol.Routes) != 1 {
		t.Fatalf("got %d routes, want 1", len(sol.Routes))
	}

	visits := sol.Routes[0].Visits
	if len(visits) != 4 {
		t.Fatalf("got %d visits, want 4: %v", len(visits), visits)
	}
	if visits[1].Node != 1 || visits[2].Node != 2 {
		t.Fatalf("visit order = %d,%d, want 1,2", visits[1].Node, visits[2].Node)
	}
	if visits[1].ArrivalMin != 600 {
		t.Errorf("first arrival = %d, want 600", visits[1].ArrivalMin)
	}
	if visits[2].ArrivalMin != 700 {
		t.Errorf("second arrival = %d, want 700", visits[2].ArrivalMin)
	}
	if visits[2].WaitMin != 95 {
		t.Errorf("wait before second pickup = %d, want 95", visits[2].WaitMin)
	}
	// Departure is repaired backwards from the first arrival.
	if visits[0].ArrivalMin != 585 {
		t.Errorf("depot departure = %d, want 585", visits[0].ArrivalMin)
	}
	if visits[3].ArrivalMin != 710 {
		t.Errorf("route end = %d, want 710", visits[3].ArrivalMin)
	}

	if len(sol.Totals) != 1 {
		t.Fatalf("got %d totals, want 1", len(sol.Totals))
	}
	tt := sol.Totals[0]
	if tt.TotalDriveMin != 20 || tt.TotalServiceMin != 10 || tt.TotalWaitMin != 95 {
		t.Errorf("totals drive/service/wait = %d/%d/%d, want 20/10/95",
			tt.TotalDriveMin, tt.TotalServiceMin, tt.TotalWaitMin)
	}
	if tt.TotalMin != tt.TotalDriveMin+tt.TotalServiceMin+tt.TotalWaitMin {
		t.Errorf("TotalMin = %d is not the component sum", tt.TotalMin)
	}
}

func TestSolveFallsBackToRelaxed(t *testing.T) {
	// Both windows close before any vehicle can physically arrive, so the
	// hard phase must fail and the relaxed phase reports lateness,
	// worst first.
	nodes := []domain.Node{
		depotNode(),
		{Index: 1, Coord: domain.Coordinates{Lat: 1}, Window: window(100, 110), Label: "Far"},
		{Index: 2, Coord: domain.Coordinates{Lat: 2}, Window: window(100, 110), Label: "Near"},
	}
	m := domain.NewMatrix(3)
	m.TimeMin[0][1], m.TimeMin[1][0] = 200, 200
	m.TimeMin[0][2], m.TimeMin[2][0] = 160, 160
	m.TimeMin[1][2], m.TimeMin[2][1] = 300, 300
	for i := range m.DistM {
		for j := range m.DistM[i] {
			m.DistM[i][j] = m.TimeMin[i][j] * 1000
		}
	}
	adm := mustAdmission(t, domain.TimeWindow{Start: 0, End: 1440})

	sol, err := Solve(context.Background(), nodes, m, adm, testSolveParams())
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if !sol.Relaxed {
		t.Fatal("expected a relaxed solution")
	}

	seen := visitedCustomers(t, sol)
	if seen[1] != 1 || seen[2] != 1 {
		t.Fatalf("coverage = %v, want both customers once", seen)
	}

	if len(sol.Violations) != 2 {
		t.Fatalf("got %d violations, want 2: %v", len(sol.Violations), sol.Violations)
	}
	if sol.Violations[0].LateMin != 90 || sol.Violations[0].Label != "Far" {
		t.Errorf("worst violation = %+v, want Far late by 90", sol.Violations[0])
	}
	if sol.Violations[1].LateMin != 50 || sol.Violations[1].Label != "Near" {
		t.Errorf("second violation = %+v, want Near late by 50", sol.Violations[1])
	}
}

func TestSolveNoSolution(t *testing.T) {
	nodes := []domain.Node{
		depotNode(),
		{Index: 1, Coord: domain.Coordinates{Lat: 1}, Window: window(100, 200), Label: "Island"},
	}
	m := uniformMatrix(2, 10)
	m.TimeMin[0][1] = domain.UnreachableTimeMin
	m.DistM[0][1] = domain.UnreachableDistM
	adm := mustAdmission(t, domain.TimeWindow{Start: 0, End: 1440})

	_, err := Solve(context.Background(), nodes, m, adm, testSolveParams())
	if !errors.Is(err, ErrNoSolution) {
		t.Fatalf("got %v, want ErrNoSolution", err)
	}
}

func TestSolveWaitsForDepotAdmission(t *testing.T) {
	nodes := []domain.Node{
		depotNode(),
		{Index: 1, Coord: domain.Coordinates{Lat: 1}, Window: window(0, 1440), ServiceMin: 5, Label: "Quick"},
	}
	m := uniformMatrix(2, 10)

	params := testSolveParams()
	params.Vehicles = 1
	adm := mustAdmission(t, domain.TimeWindow{Start: 200, End: 210})

	sol, err := Solve(context.Background(), nodes, m, adm, params)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if sol.Relaxed {
		t.Fatal("expected a hard-window solution")
	}

	visits := sol.Routes[0].Visits
	end := visits[len(visits)-1]
	if end.ArrivalMin != 200 {
		t.Errorf("route end = %d, want clamped to admission open 200", end.ArrivalMin)
	}
	if end.WaitMin != 200-visits[1].ArrivalMin-10 {
		t.Errorf("depot wait = %d, want the full admission slack", end.WaitMin)
	}
}

func TestSolveRejectsBadInput(t *testing.T) {
	adm := mustAdmission(t, domain.TimeWindow{Start: 0, End: 1440})
	m := uniformMatrix(2, 10)

	var cfgErr *domain.ConfigError

	// customer without a window
	nodes := []domain.Node{depotNode(), {Index: 1, Label: "NoWindow"}}
	if _, err := Solve(context.Background(), nodes, m, adm, testSolveParams()); !errors.As(err, &cfgErr) {
		t.Errorf("missing window: got %v, want ConfigError", err)
	}

	// zero vehicles
	nodes = []domain.Node{depotNode(), {Index: 1, Window: window(0, 100), Label: "A"}}
	params := testSolveParams()
	params.Vehicles = 0
	if _, err := Solve(context.Background(), nodes, m, adm, params); !errors.As(err, &cfgErr) {
		t.Errorf("zero vehicles: got %v, want ConfigError", err)
	}
}

func TestSolveDeterministicUnderSeed(t *testing.T) {
	nodes := []domain.Node{
		depotNode(),
		{Index: 1, Coord: domain.Coordinates{Lat: 1}, Window: window(30, 400), ServiceMin: 5, Label: "A"},
		{Index: 2, Coord: domain.Coordinates{Lat: 2}, Window: window(60, 500), ServiceMin: 5, Label: "B"},
		{Index: 3, Coord: domain.Coordinates{Lat: 3}, Window: window(90, 600), ServiceMin: 5, Label: "C"},
		{Index: 4, Coord: domain.Coordinates{Lat: 4}, Window: window(120, 700), ServiceMin: 5, Label: "D"},
	}
	m := uniformMatrix(5, 15)
	adm := mustAdmission(t, domain.TimeWindow{Start: 0, End: 1440})

	params := testSolveParams()
	params.HardBudget = 2 * time.Second

	first, err := Solve(context.Background(), nodes, m, adm, params)
	if err != nil {
		t.Fatalf("first Solve: %v", err)
	}
	second, err := Solve(context.Background(), nodes, m, adm, params)
	if err != nil {
		t.Fatalf("second Solve: %v", err)
	}

	if !reflect.DeepEqual(first.Routes, second.Routes) {
		t.Errorf("same seed produced different routes:\n%v\n%v", first.Routes, second.Routes)
	}
}

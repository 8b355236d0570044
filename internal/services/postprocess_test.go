package services

import (
	"strings"
	"testing"

	"pickup-route-service/internal/domain"
)

func TestFinalizeRoutesRepairsDepartureAndWaits(t *testing.T) {
	nodes := []domain.Node{
		{Index: 0, Label: "DEPOT"},
		{Index: 1, Window: window(600, 620), ServiceMin: 5, Label: "A"},
		{Index: 2, Window: window(700, 720), ServiceMin: 5, Label: "B"},
	}
	m := domain.NewMatrix(3)
	m.TimeMin[0][1], m.TimeMin[1][2], m.TimeMin[2][0] = 10, 0, 10
	m.DistM[0][1], m.DistM[1][2], m.DistM[2][0] = 9000, 0, 9000

	routes := []domain.Route{{
		Vehicle: 0,
		Visits: []domain.Visit{
			{Node: 0},                      // raw start, clock unknown
			{Node: 1, ArrivalMin: 600},
			{Node: 2, ArrivalMin: 700},
			{Node: 0, ArrivalMin: 710},
		},
	}}

	final, totals := FinalizeRoutes(routes, nodes, m)
	if len(final) != 1 || len(totals) != 1 {
		t.Fatalf("got %d routes / %d totals, want 1/1", len(final), len(totals))
	}

	visits := final[0].Visits
	if visits[0].ArrivalMin != 585 {
		t.Errorf("departure = %d, want 600 - 10 travel - 5 service = 585", visits[0].ArrivalMin)
	}
	wantWaits := []int{0, 0, 95, 0}
	for i, v := range visits {
		if v.WaitMin != wantWaits[i] {
			t.Errorf("visit %d wait = %d, want %d", i, v.WaitMin, wantWaits[i])
		}
	}

	tt := totals[0]
	if tt.Stops != 2 {
		t.Errorf("stops = %d, want 2", tt.Stops)
	}
	if tt.TotalDriveMin != 20 {
		t.Errorf("drive = %d, want 20", tt.TotalDriveMin)
	}
	if tt.TotalServiceMin != 10 {
		t.Errorf("service = %d, want 10", tt.TotalServiceMin)
	}
	if tt.TotalWaitMin != 95 {
		t.Errorf("wait = %d, want 95", tt.TotalWaitMin)
	}
	if tt.TotalDistM != 18000 {
		t.Errorf("dist = %d, want 18000", tt.TotalDistM)
	}
	if tt.TotalMin != 125 {
		t.Errorf("total = %d, want 125", tt.TotalMin)
	}
}

func TestFinalizeRoutesFloorsDepartureAtMidnight(t *testing.T) {
	nodes := []domain.Node{
		{Index: 0, Label: "DEPOT"},
		{Index: 1, Window: window(0, 60), ServiceMin: 5, Label: "A"},
	}
	m := domain.NewMatrix(2)
	m.TimeMin[0][1], m.TimeMin[1][0] = 10, 10

	routes := []domain.Route{{
		Visits: []domain.Visit{
			{Node: 0},
			{Node: 1, ArrivalMin: 15}, // leave-at-midnight arrival
			{Node: 0, ArrivalMin: 25},
		},
	}}

	final, _ := FinalizeRoutes(routes, nodes, m)
	if got := final[0].Visits[0].ArrivalMin; got != 0 {
		t.Errorf("departure = %d, want floored to 0", got)
	}
}

func TestPrecheckFlagsHopelessStops(t *testing.T) {
	nodes := []domain.Node{
		{Index: 0, Label: "DEPOT"},
		{Index: 1, Window: window(100, 200), ServiceMin: 5, Label: "Fine"},
		{Index: 2, Window: window(100, 200), ServiceMin: 5, Label: "Cutoff"},
		{Index: 3, Window: window(1300, 1400), ServiceMin: 5, Label: "TooLate"},
	}
	m := uniformMatrix(4, 10)
	m.TimeMin[0][2] = domain.UnreachableTimeMin // depot cannot reach Cutoff
	adm := mustAdmission(t, domain.TimeWindow{Start: 200, End: 400})

	findings := Precheck(nodes, m, adm)
	if len(findings) == 0 {
		t.Fatal("expected findings")
	}

	var unreachable, missesDepot bool
	for _, f := range findings {
		switch {
		case strings.Contains(f, "Cutoff") && strings.Contains(f, "unreachable"):
			unreachable = true
		case strings.Contains(f, "TooLate"):
			missesDepot = true
		case strings.Contains(f, "Fine"):
			t.Errorf("unexpected finding for a healthy stop: %s", f)
		}
	}
	if !unreachable {
		t.Errorf("missing unreachable finding: %v", findings)
	}
	if !missesDepot {
		t.Errorf("missing depot-window finding: %v", findings)
	}
}

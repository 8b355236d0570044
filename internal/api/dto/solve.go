package dto

import (
	"pickup-route-service/internal/services"
)

// StopRequest is one pickup location in the wire format. A stop carries one
// or two "HH:MM" pickup windows; the second pair may be left empty.
type StopRequest struct {
	ID          string  `json:"id"`
	Name        string  `json:"name,omitempty"`
	Address     string  `json:"address,omitempty"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	ServiceMin  *int    `json:"service_min,omitempty"`
	Pickup1From string  `json:"pickup1_from"`
	Pickup1To   string  `json:"pickup1_to"`
	Pickup2From string  `json:"pickup2_from,omitempty"`
	Pickup2To   string  `json:"pickup2_to,omitempty"`
}

type SolveRequest struct {
	Stops    []StopRequest `json:"stops"`
	Vehicles int           `json:"vehicles,omitempty"`
}

// ToStops maps the wire stops onto the planner's input model.
func (r SolveRequest) ToStops() []services.Stop {
	stops := make([]services.Stop, 0, len(r.Stops))
	for _, s := range r.Stops {
		stops = append(stops, services.Stop{
			ID:         s.ID,
			Name:       s.Name,
			Address:    s.Address,
			Lat:        s.Lat,
			Lon:        s.Lon,
			ServiceMin: s.ServiceMin,
			Windows: []services.RawWindow{
				{From: s.Pickup1From, To: s.Pickup1To},
				{From: s.Pickup2From, To: s.Pickup2To},
			},
		})
	}
	return stops
}

type VisitResponse struct {
	Label      string  `json:"label"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	ArrivalMin int     `json:"arrival_min"`
	Arrival    string  `json:"arrival"`
	WaitMin    int     `json:"wait_min"`
	Window     string  `json:"window,omitempty"`
}

type TotalsResponse struct {
	Stops           int `json:"stops"`
	TotalDistM      int `json:"total_dist_m"`
	TotalDriveMin   int `json:"total_drive_min"`
	TotalWaitMin    int `json:"total_wait_min"`
	TotalServiceMin int `json:"total_service_min"`
	TotalMin        int `json:"total_min"`
}

type RouteResponse struct {
	Vehicle int             `json:"vehicle"`
	Visits  []VisitResponse `json:"visits"`
	Totals  TotalsResponse  `json:"totals"`
}

type ViolationResponse struct {
	Label    string `json:"label"`
	Arrival  string `json:"arrival"`
	Window   string `json:"window"`
	EarlyMin int    `json:"early_min"`
	LateMin  int    `json:"late_min"`
}

type SummaryResponse struct {
	Stops              int `json:"stops"`
	Nodes              int `json:"nodes"`
	EmptyFirstWindows  int `json:"empty_first_windows"`
	EmptySecondWindows int `json:"empty_second_windows"`
}

// SolveResponse is the full wire result. Status is "ok" for a hard-window
// solution and "relaxed" when windows had to be softened. Date is the
// reference day all minute clocks count from.
type SolveResponse struct {
	Status     string              `json:"status"`
	Date       string              `json:"date"`
	Summary    SummaryResponse     `json:"summary"`
	Prechecks  []string            `json:"prechecks,omitempty"`
	Routes     []RouteResponse     `json:"routes"`
	Violations []ViolationResponse `json:"violations,omitempty"`
}

// FromPlanResult maps a finished plan onto the wire format.
func FromPlanResult(res *services.PlanResult) SolveResponse {
	sol := res.Solution

	status := "ok"
	if sol.Relaxed {
		status = "relaxed"
	}

	out := SolveResponse{
		Status: status,
		Date:   res.Day.Format("2006-01-02"),
		Summary: SummaryResponse{
			Stops:              res.Summary.StopRows,
			Nodes:              res.Summary.Nodes,
			EmptyFirstWindows:  res.Summary.EmptyFirstWindows,
			EmptySecondWindows: res.Summary.EmptySecondWindows,
		},
		Prechecks: res.Prechecks,
		Routes:    make([]RouteResponse, 0, len(sol.Routes)),
	}

	for i, route := range sol.Routes {
		rr := RouteResponse{Vehicle: route.Vehicle, Visits: make([]VisitResponse, 0, len(route.Visits))}
		for _, v := range route.Visits {
			n := res.Nodes[v.Node]
			vr := VisitResponse{
				Label:      n.Label,
				Lat:        n.Coord.Lat,
				Lon:        n.Coord.Lon,
				ArrivalMin: v.ArrivalMin,
				Arrival:    services.FormatClock(v.ArrivalMin),
				WaitMin:    v.WaitMin,
			}
			if n.Window != nil {
				vr.Window = n.Window.String()
			}
			rr.Visits = append(rr.Visits, vr)
		}
		if i < len(sol.Totals) {
			t := sol.Totals[i]
			rr.Totals = TotalsResponse{
				Stops:           t.Stops,
				TotalDistM:      t.TotalDistM,
				TotalDriveMin:   t.TotalDriveMin,
				TotalWaitMin:    t.TotalWaitMin,
				TotalServiceMin: t.TotalServiceMin,
				TotalMin:        t.TotalMin,
			}
		}
		out.Routes = append(out.Routes, rr)
	}

	for _, v := range sol.Violations {
		out.Violations = append(out.Violations, ViolationResponse{
			Label:    v.Label,
			Arrival:  services.FormatClock(v.ArrivalMin),
			Window:   v.Window.String(),
			EarlyMin: v.EarlyMin,
			LateMin:  v.LateMin,
		})
	}

	return out
}

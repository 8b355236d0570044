package services

import (
	"fmt"
	"strconv"
	"strings"

	"pickup-route-service/internal/config"
	"pickup-route-service/internal/domain"
)

// RawWindow is an unparsed "HH:MM" pickup window pair.
type RawWindow struct {
	From string
	To   string
}

func (w RawWindow) empty() bool { return w.From == "" && w.To == "" }

// Stop is one raw pickup location as supplied by the caller. A stop may carry
// one or two independent pickup windows; when both are present, both are
// mandatory and the node model emits two separate nodes at the same
// coordinate.
type Stop struct {
	ID         string
	Name       string
	Address    string
	Lat        float64
	Lon        float64
	ServiceMin *int
	Windows    []RawWindow
}

func (s Stop) label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

// InputSummary describes how the raw stop rows mapped onto nodes: how many
// rows came in, how many pickup nodes they produced, and how many window
// slots were left blank.
type InputSummary struct {
	StopRows           int
	Nodes              int
	EmptyFirstWindows  int
	EmptySecondWindows int
}

// SummarizeInput counts stop rows, created nodes and blank window slots.
func SummarizeInput(stops []Stop, nodes []domain.Node) InputSummary {
	s := InputSummary{StopRows: len(stops), Nodes: len(nodes) - 1}
	for _, stop := range stops {
		if len(stop.Windows) < 1 || stop.Windows[0].empty() {
			s.EmptyFirstWindows++
		}
		if len(stop.Windows) < 2 || stop.Windows[1].empty() {
			s.EmptySecondWindows++
		}
	}
	return s
}

// BuildNodes flattens raw stops into the canonical node list (depot at index
// 0 plus one node per mandatory pickup window) and computes the depot's
// admission domain from the configured windows. It is a pure transformation;
// malformed windows surface as ConfigError before any matrix or search work
// begins.
func BuildNodes(depot config.DepotConfig, stops []Stop, cfg config.SolveConfig) ([]domain.Node, domain.IntervalSet, error) {
	nodes := []domain.Node{{
		Index: domain.DepotIndex,
		Coord: domain.Coordinates{Lat: depot.Lat, Lon: depot.Lon},
		Label: "DEPOT",
	}}

	for _, s := range stops {
		service := cfg.DefaultServiceMin
		if s.ServiceMin != nil {
			service = *s.ServiceMin
		}
		if service < 0 {
			return nil, domain.IntervalSet{}, &domain.ConfigError{
				Field:  fmt.Sprintf("stop %s", s.label()),
				Detail: fmt.Sprintf("negative service duration %d", service),
			}
		}
		if len(s.Windows) > 2 {
			return nil, domain.IntervalSet{}, &domain.ConfigError{
				Field:  fmt.Sprintf("stop %s", s.label()),
				Detail: fmt.Sprintf("at most two pickup windows are supported, got %d", len(s.Windows)),
			}
		}

		type parsed struct {
			no int
			w  domain.TimeWindow
		}
		active := make([]parsed, 0, 2)
		for wi, rw := range s.Windows {
			if rw.empty() {
				continue
			}
			w, err := ParseWindow(rw.From, rw.To)
			if err != nil {
				return nil, domain.IntervalSet{}, &domain.ConfigError{
					Field:  fmt.Sprintf("stop %s pickup %d", s.label(), wi+1),
					Detail: err.Error(),
				}
			}
			active = append(active, parsed{no: wi + 1, w: w})
		}

		for _, p := range active {
			label := s.label()
			if len(active) > 1 {
				label = fmt.Sprintf("%s (pickup %d)", label, p.no)
			}

			w := p.w
			nodes = append(nodes, domain.Node{
				Index:      len(nodes),
				Coord:      domain.Coordinates{Lat: s.Lat, Lon: s.Lon},
				Window:     &w,
				ServiceMin: service,
				Label:      label,
			})
		}
	}

	admission, err := depotAdmission(depot)
	if err != nil {
		return nil, domain.IntervalSet{}, err
	}

	return nodes, admission, nil
}

func depotAdmission(depot config.DepotConfig) (domain.IntervalSet, error) {
	windows := make([]domain.TimeWindow, 0, len(depot.Windows))
	for i, cw := range depot.Windows {
		if cw.From == "" && cw.To == "" {
			continue
		}
		w, err := ParseWindow(cw.From, cw.To)
		if err != nil {
			return domain.IntervalSet{}, &domain.ConfigError{
				Field:  fmt.Sprintf("depot window %d", i+1),
				Detail: err.Error(),
			}
		}
		windows = append(windows, w)
	}

	return domain.MergeWindows(windows)
}

// ParseWindow parses a "HH:MM"-"HH:MM" pair into a minute window on the
// reference day. Windows ending before they start are rejected.
func ParseWindow(from, to string) (domain.TimeWindow, error) {
	start, err := ParseClock(from)
	if err != nil {
		return domain.TimeWindow{}, err
	}
	end, err := ParseClock(to)
	if err != nil {
		return domain.TimeWindow{}, err
	}
	if end < start {
		return domain.TimeWindow{}, fmt.Errorf("window ends before it starts: %s-%s", from, to)
	}
	return domain.TimeWindow{Start: start, End: end}, nil
}

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed clock value %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("malformed clock value %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed clock value %q", s)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || h*60+m > domain.HorizonMin {
		return 0, fmt.Errorf("clock value %q out of range", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(mins int) string {
	if mins < 0 {
		mins = 0
	}
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}

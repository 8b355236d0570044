package services

import (
	"fmt"

	"pickup-route-service/internal/domain"
)

// Precheck inspects the built problem before any search runs and returns
// human-readable findings: stops the depot can never reach, windows no
// admission interval can follow, suspicious matrix cells. Findings are
// advisory; they explain a later infeasibility rather than block the solve.
func Precheck(nodes []domain.Node, m *domain.Matrix, admission domain.IntervalSet) []string {
	var findings []string

	if admission.Len() == 0 {
		findings = append(findings, "depot has no admission windows; no route can end")
	}

	for _, n := range nodes[1:] {
		if n.Window == nil || !n.Window.Valid() {
			findings = append(findings, fmt.Sprintf("%s: missing or invalid pickup window", n.Label))
			continue
		}

		if !m.Reachable(domain.DepotIndex, n.Index) {
			findings = append(findings, fmt.Sprintf("%s: unreachable from the depot", n.Label))
		}
		if !m.Reachable(n.Index, domain.DepotIndex) {
			findings = append(findings, fmt.Sprintf("%s: cannot return to the depot", n.Label))
			continue
		}

		// Even serving this stop at the last admissible moment, the truck
		// must land inside some admission interval.
		latestReturn := n.Window.End + m.TimeMin[n.Index][domain.DepotIndex]
		if _, ok := admission.NextAdmission(latestReturn); !ok {
			findings = append(findings, fmt.Sprintf(
				"%s: window %s ends too late, return at %s misses every depot window",
				n.Label, n.Window, FormatClock(latestReturn)))
		}

		direct := m.TimeMin[domain.DepotIndex][n.Index] + n.ServiceMin
		if direct > n.Window.End {
			findings = append(findings, fmt.Sprintf(
				"%s: direct drive from depot finishes at %s, after window %s",
				n.Label, FormatClock(direct), n.Window))
		}
	}

	suspicious := 0
	for i := range m.TimeMin {
		for j := range m.TimeMin[i] {
			if i != j && m.TimeMin[i][j] > domain.HorizonMin && m.TimeMin[i][j] != domain.UnreachableTimeMin {
				suspicious++
			}
		}
	}
	if suspicious > 0 {
		findings = append(findings, fmt.Sprintf("%d matrix cell(s) exceed the planning horizon", suspicious))
	}

	return findings
}

package services

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"

	"pickup-route-service/internal/domain"
)

// Cost charged per customer the search fails to place. Dwarfs any realistic
// arc or penalty cost so coverage always dominates the objective.
const unassignedCost = 1_000_000

const (
	startTemperature = 1000.0
	coolingRate      = 0.997
	stallLimit       = 500
)

// searchState is one candidate assignment: a visit order per vehicle plus
// the customers no vehicle could take. Insertion and improvement only ever
// produce schedule-feasible plans; removal may break a residual plan, which
// repairPlans pulls apart and totalCost prices out. cost is the cached
// objective value.
type searchState struct {
	plans      [][]int
	unassigned []int
	cost       int
}

func (s *searchState) clone() *searchState {
	c := &searchState{
		plans:      make([][]int, len(s.plans)),
		unassigned: append([]int(nil), s.unassigned...),
		cost:       s.cost,
	}
	for i, plan := range s.plans {
		c.plans[i] = append([]int(nil), plan...)
	}
	return c
}

func (s *searchState) assignedCount() int {
	n := 0
	for _, plan := range s.plans {
		n += len(plan)
	}
	return n
}

func totalCost(p *problem, s *searchState) int {
	cost := len(s.unassigned) * unassignedCost
	for _, plan := range s.plans {
		if len(plan) == 0 {
			continue
		}
		sched, ok := scheduleRoute(p, plan)
		if !ok {
			// A plan that no longer schedules must never look cheap: price
			// its customers like unplaced ones so the search abandons it.
			cost += unassignedCost * len(plan)
			continue
		}
		cost += routeArcCost(p, plan)
		if p.soft {
			cost += p.penalty * sched.penaltyMin
		}
	}
	return cost
}

// runSearch builds a seed assignment and improves it with a
// removal/reinsertion loop under simulated-annealing acceptance until the
// wall-clock budget runs out. The result is the best state observed; the
// caller decides whether leftover unassigned customers are fatal.
func runSearch(ctx context.Context, p *problem, budget time.Duration, seed int64) *searchState {
	rng := rand.New(rand.NewSource(seed))
	deadline := time.Now().Add(budget)

	cur := constructSeed(p)
	improve(p, cur)
	cur.cost = totalCost(p, cur)
	best := cur.clone()

	temp := startTemperature
	stall := 0

	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			break
		}
		if len(best.unassigned) == 0 && stall >= stallLimit {
			break
		}

		cand := cur.clone()

		k := 1 + rng.Intn(3)
		if k > cand.assignedCount() {
			k = cand.assignedCount()
		}
		var removed []int
		if rng.Intn(2) == 0 {
			removed = removeRandom(cand, k, rng)
		} else {
			removed = removeRelated(p, cand, k, rng)
		}

		pool := append(removed, repairPlans(p, cand)...)
		pool = append(pool, cand.unassigned...)
		cand.unassigned = nil
		if rng.Intn(2) == 0 {
			greedyInsertAll(p, cand, pool)
		} else {
			regretInsertAll(p, cand, pool)
		}
		improve(p, cand)
		cand.cost = totalCost(p, cand)

		if better(cand, best) {
			best = cand.clone()
			stall = 0
		} else {
			stall++
		}

		delta := float64(cand.cost - cur.cost)
		if delta <= 0 || rng.Float64() < math.Exp(-delta/temp) {
			cur = cand
		}
		if temp > 1 {
			temp *= coolingRate
		}
	}

	return best
}

// better orders states lexicographically: fewer unassigned customers first,
// then lower cost.
func better(a, b *searchState) bool {
	if len(a.unassigned) != len(b.unassigned) {
		return len(a.unassigned) < len(b.unassigned)
	}
	return a.cost < b.cost
}

// constructSeed assigns customers one by one, tightest window first, each to
// its cheapest feasible insertion point across all vehicles.
func constructSeed(p *problem) *searchState {
	st := &searchState{plans: make([][]int, p.vehicles)}

	customers := make([]int, 0, p.customerCount())
	for i := 1; i < len(p.nodes); i++ {
		customers = append(customers, i)
	}
	sort.Slice(customers, func(a, b int) bool {
		wa, wb := p.window(customers[a]), p.window(customers[b])
		if wa.Start != wb.Start {
			return wa.Start < wb.Start
		}
		return customers[a] < customers[b]
	})

	greedyInsertAll(p, st, customers)
	st.cost = totalCost(p, st)
	return st
}

type insertion struct {
	vehicle int
	pos     int
	delta   int
}

// bestInsertion finds the cheapest feasible position for node c across all
// plans. ok is false when no plan can take it.
func bestInsertion(p *problem, st *searchState, c int) (insertion, bool) {
	best := insertion{delta: math.MaxInt}
	found := false
	for vi, plan := range st.plans {
		for pos := 0; pos <= len(plan); pos++ {
			cand := insertAt(plan, pos, c)
			if _, ok := scheduleRoute(p, cand); !ok {
				continue
			}
			d := insertionDelta(p, plan, pos, c)
			if p.soft {
				d += softDelta(p, plan, cand)
			}
			if d < best.delta || (d == best.delta && (vi < best.vehicle || (vi == best.vehicle && pos < best.pos))) {
				best = insertion{vehicle: vi, pos: pos, delta: d}
				found = true
			}
		}
	}
	return best, found
}

// secondBestDelta is the cheapest feasible delta excluding one vehicle, used
// by regret insertion.
func secondBestDelta(p *problem, st *searchState, c, skipVehicle int) (int, bool) {
	best := math.MaxInt
	found := false
	for vi, plan := range st.plans {
		if vi == skipVehicle {
			continue
		}
		for pos := 0; pos <= len(plan); pos++ {
			cand := insertAt(plan, pos, c)
			if _, ok := scheduleRoute(p, cand); !ok {
				continue
			}
			d := insertionDelta(p, plan, pos, c)
			if p.soft {
				d += softDelta(p, plan, cand)
			}
			if d < best {
				best = d
				found = true
			}
		}
	}
	return best, found
}

func insertAt(plan []int, pos, c int) []int {
	out := make([]int, 0, len(plan)+1)
	out = append(out, plan[:pos]...)
	out = append(out, c)
	out = append(out, plan[pos:]...)
	return out
}

// insertionDelta is the arc-cost change of splicing c into plan at pos.
func insertionDelta(p *problem, plan []int, pos, c int) int {
	prev := domain.DepotIndex
	if pos > 0 {
		prev = plan[pos-1]
	}
	next := domain.DepotIndex
	if pos < len(plan) {
		next = plan[pos]
	}
	return p.arc(prev, c) + p.arc(c, next) - p.arc(prev, next)
}

// softDelta is the penalty-cost change between plan and its candidate
// replacement; only meaningful in the relaxed phase.
func softDelta(p *problem, oldPlan, newPlan []int) int {
	oldPen := 0
	if len(oldPlan) > 0 {
		if sched, ok := scheduleRoute(p, oldPlan); ok {
			oldPen = sched.penaltyMin
		}
	}
	newSched, ok := scheduleRoute(p, newPlan)
	if !ok {
		return math.MaxInt / 2
	}
	return p.penalty * (newSched.penaltyMin - oldPen)
}

// greedyInsertAll repeatedly inserts the pool customer with the globally
// cheapest feasible insertion; anything that fits nowhere lands in
// unassigned.
func greedyInsertAll(p *problem, st *searchState, pool []int) {
	remaining := append([]int(nil), pool...)
	for len(remaining) > 0 {
		bestIdx := -1
		var bestIns insertion
		bestIns.delta = math.MaxInt
		for i, c := range remaining {
			ins, ok := bestInsertion(p, st, c)
			if !ok {
				continue
			}
			if ins.delta < bestIns.delta {
				bestIns = ins
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			st.unassigned = append(st.unassigned, remaining...)
			return
		}
		c := remaining[bestIdx]
		st.plans[bestIns.vehicle] = insertAt(st.plans[bestIns.vehicle], bestIns.pos, c)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
}

// regretInsertAll prefers the customer with the largest regret: the gap
// between its best and second-best insertion cost. Customers that would be
// expensive to defer are placed first.
func regretInsertAll(p *problem, st *searchState, pool []int) {
	remaining := append([]int(nil), pool...)
	for len(remaining) > 0 {
		bestIdx := -1
		bestRegret := -1
		var bestIns insertion
		for i, c := range remaining {
			ins, ok := bestInsertion(p, st, c)
			if !ok {
				continue
			}
			second, hasSecond := secondBestDelta(p, st, c, ins.vehicle)
			regret := math.MaxInt
			if hasSecond {
				regret = second - ins.delta
			}
			if regret > bestRegret {
				bestRegret = regret
				bestIns = ins
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			st.unassigned = append(st.unassigned, remaining...)
			return
		}
		c := remaining[bestIdx]
		st.plans[bestIns.vehicle] = insertAt(st.plans[bestIns.vehicle], bestIns.pos, c)
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
}

// repairPlans empties any plan that no longer schedules and returns its
// customers for reinsertion. Removing a mid-route customer can stretch the
// wait before its successor past the cap, so the residual plan is not
// guaranteed to stay feasible.
func repairPlans(p *problem, st *searchState) []int {
	var pulled []int
	for vi, plan := range st.plans {
		if len(plan) == 0 {
			continue
		}
		if _, ok := scheduleRoute(p, plan); !ok {
			pulled = append(pulled, plan...)
			st.plans[vi] = plan[:0]
		}
	}
	return pulled
}

// removeRandom drops k randomly chosen assigned customers from the state and
// returns them.
func removeRandom(st *searchState, k int, rng *rand.Rand) []int {
	removed := make([]int, 0, k)
	for len(removed) < k {
		vi := rng.Intn(len(st.plans))
		plan := st.plans[vi]
		if len(plan) == 0 {
			continue
		}
		pos := rng.Intn(len(plan))
		removed = append(removed, plan[pos])
		st.plans[vi] = append(plan[:pos], plan[pos+1:]...)
	}
	return removed
}

// removeRelated seeds on a random assigned customer and removes the k
// customers most similar to it, where similarity mixes travel time and
// window-start proximity.
func removeRelated(p *problem, st *searchState, k int, rng *rand.Rand) []int {
	assigned := make([]int, 0, st.assignedCount())
	for _, plan := range st.plans {
		assigned = append(assigned, plan...)
	}
	if len(assigned) == 0 {
		return nil
	}

	seed := assigned[rng.Intn(len(assigned))]
	sw := p.window(seed)
	sort.Slice(assigned, func(a, b int) bool {
		return relatedScore(p, seed, sw, assigned[a]) < relatedScore(p, seed, sw, assigned[b])
	})

	if k > len(assigned) {
		k = len(assigned)
	}
	targets := make(map[int]bool, k)
	for _, c := range assigned[:k] {
		targets[c] = true
	}

	removed := make([]int, 0, k)
	for vi, plan := range st.plans {
		kept := plan[:0]
		for _, c := range plan {
			if targets[c] {
				removed = append(removed, c)
			} else {
				kept = append(kept, c)
			}
		}
		st.plans[vi] = kept
	}
	return removed
}

func relatedScore(p *problem, seed int, sw domain.TimeWindow, c int) int {
	if c == seed {
		return -1
	}
	d := p.travel(seed, c)
	if t := p.travel(c, seed); t < d {
		d = t
	}
	gap := p.window(c).Start - sw.Start
	if gap < 0 {
		gap = -gap
	}
	return d + gap/2
}

// improve runs cheap first-improvement passes (within-route two-opt,
// single-node relocation, inter-route swap) until a full pass yields
// nothing.
func improve(p *problem, st *searchState) {
	for pass := 0; pass < 20; pass++ {
		changed := false
		if twoOptPass(p, st) {
			changed = true
		}
		if relocatePass(p, st) {
			changed = true
		}
		if swapPass(p, st) {
			changed = true
		}
		if !changed {
			break
		}
	}
}

func planCost(p *problem, plan []int) (int, bool) {
	sched, ok := scheduleRoute(p, plan)
	if !ok {
		return 0, false
	}
	cost := routeArcCost(p, plan)
	if p.soft {
		cost += p.penalty * sched.penaltyMin
	}
	return cost, true
}

func twoOptPass(p *problem, st *searchState) bool {
	changed := false
	for vi, plan := range st.plans {
		if len(plan) < 3 {
			continue
		}
		base, ok := planCost(p, plan)
		if !ok {
			continue
		}
		for i := 0; i < len(plan)-1; i++ {
			for j := i + 1; j < len(plan); j++ {
				cand := append([]int(nil), plan...)
				for a, b := i, j; a < b; a, b = a+1, b-1 {
					cand[a], cand[b] = cand[b], cand[a]
				}
				if cost, ok := planCost(p, cand); ok && cost < base {
					st.plans[vi] = cand
					plan = cand
					base = cost
					changed = true
				}
			}
		}
	}
	return changed
}

func relocatePass(p *problem, st *searchState) bool {
	for vi, plan := range st.plans {
		for pos, c := range plan {
			srcWithout := append(append([]int(nil), plan[:pos]...), plan[pos+1:]...)
			srcOld, okOld := planCost(p, plan)
			srcNew, okNew := planCost(p, srcWithout)
			if !okOld || !okNew {
				continue
			}
			for vj := range st.plans {
				dst := st.plans[vj]
				if vj == vi {
					dst = srcWithout
				}
				dstOld, ok := planCost(p, dst)
				if !ok {
					continue
				}
				for dpos := 0; dpos <= len(dst); dpos++ {
					if vj == vi && dpos == pos {
						continue
					}
					cand := insertAt(dst, dpos, c)
					dstNew, ok := planCost(p, cand)
					if !ok {
						continue
					}
					var delta int
					if vj == vi {
						delta = dstNew - srcOld
					} else {
						delta = (srcNew - srcOld) + (dstNew - dstOld)
					}
					if delta < 0 {
						if vj == vi {
							st.plans[vi] = cand
						} else {
							st.plans[vi] = srcWithout
							st.plans[vj] = cand
						}
						return true
					}
				}
			}
		}
	}
	return false
}

func swapPass(p *problem, st *searchState) bool {
	for vi := 0; vi < len(st.plans); vi++ {
		for vj := vi + 1; vj < len(st.plans); vj++ {
			pa, pb := st.plans[vi], st.plans[vj]
			oldA, okA := planCost(p, pa)
			oldB, okB := planCost(p, pb)
			if !okA || !okB {
				continue
			}
			for ia := range pa {
				for ib := range pb {
					ca := append([]int(nil), pa...)
					cb := append([]int(nil), pb...)
					ca[ia], cb[ib] = pb[ib], pa[ia]
					newA, ok := planCost(p, ca)
					if !ok {
						continue
					}
					newB, ok := planCost(p, cb)
					if !ok {
						continue
					}
					if newA+newB < oldA+oldB {
						st.plans[vi] = ca
						st.plans[vj] = cb
						return true
					}
				}
			}
		}
	}
	return false
}

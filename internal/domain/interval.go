package domain

import "sort"

// IntervalSet is an ordered union of disjoint closed minute intervals.
// It models the depot admission domain: the minutes at which a route may
// legally end. Instances are built through MergeWindows and are immutable.
type IntervalSet struct {
	intervals []TimeWindow
}

// MergeWindows builds an IntervalSet from raw windows.
//
// Windows are sorted by start and any pair whose gap is at most one minute is
// merged, so "11:00-11:30" and "11:31-12:00" become one interval. Windows with
// end < start and empty input are configuration errors.
func MergeWindows(windows []TimeWindow) (IntervalSet, error) {
	if len(windows) == 0 {
		return IntervalSet{}, &ConfigError{Field: "depot windows", Detail: "no valid window configured"}
	}

	for _, w := range windows {
		if !w.Valid() {
			return IntervalSet{}, &ConfigError{
				Field:  "depot windows",
				Detail: "window ends before it starts: " + w.String(),
			}
		}
	}

	sorted := make([]TimeWindow, len(windows))
	copy(sorted, windows)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	merged := make([]TimeWindow, 0, len(sorted))
	for _, w := range sorted {
		if len(merged) == 0 {
			merged = append(merged, w)
			continue
		}

		prev := &merged[len(merged)-1]
		if w.Start <= prev.End+1 {
			if w.End > prev.End {
				prev.End = w.End
			}
			continue
		}
		merged = append(merged, w)
	}

	return IntervalSet{intervals: merged}, nil
}

// Intervals returns a copy of the underlying sorted, disjoint intervals.
func (s IntervalSet) Intervals() []TimeWindow {
	out := make([]TimeWindow, len(s.intervals))
	copy(out, s.intervals)
	return out
}

func (s IntervalSet) Len() int { return len(s.intervals) }

// Contains reports whether minute t falls inside any interval.
func (s IntervalSet) Contains(t int) bool {
	for _, w := range s.intervals {
		if t < w.Start {
			return false
		}
		if t <= w.End {
			return true
		}
	}
	return false
}

// NextAdmission returns the earliest admissible minute at or after t.
// A caller arriving early waits until the next interval opens; arriving after
// the final interval closes is not admissible at all.
func (s IntervalSet) NextAdmission(t int) (int, bool) {
	for _, w := range s.intervals {
		if t <= w.End {
			if t >= w.Start {
				return t, true
			}
			return w.Start, true
		}
	}
	return 0, false
}

// Min returns the first admissible minute.
func (s IntervalSet) Min() int {
	if len(s.intervals) == 0 {
		return 0
	}
	return s.intervals[0].Start
}

// Max returns the last admissible minute.
func (s IntervalSet) Max() int {
	if len(s.intervals) == 0 {
		return 0
	}
	return s.intervals[len(s.intervals)-1].End
}

package domain

import "fmt"

// Minutes in the planning horizon (one reference day).
const HorizonMin = 24 * 60

// TimeWindow is a closed interval in minutes since the reference day's midnight.
type TimeWindow struct {
	Start int
	End   int
}

func (w TimeWindow) Valid() bool { return w.End >= w.Start }

func (w TimeWindow) String() string { return fmt.Sprintf("[%d,%d]", w.Start, w.End) }

// Contains reports whether minute t falls inside the window.
func (w TimeWindow) Contains(t int) bool { return t >= w.Start && t <= w.End }

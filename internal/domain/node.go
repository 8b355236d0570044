package domain

// DepotIndex is the reserved node index for the depot.
const DepotIndex = 0

// Node is one entry of the canonical node list handed to the routing engine.
// Index 0 is the depot: it has no time window and zero service duration.
// Every other node is a mandatory pickup with exactly one hard time window.
type Node struct {
	Index      int
	Coord      Coordinates
	Window     *TimeWindow
	ServiceMin int
	Label      string
}

func (n Node) IsDepot() bool { return n.Index == DepotIndex }

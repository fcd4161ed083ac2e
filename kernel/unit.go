package kernel

// Unit is a user-facing node handle — the public surface a graph
// compiler hands out to callers of Launch. The kernel only ever needs
// to resolve a Unit to its compiled Node (the getGraph collaborator
// contract); everything else about a Unit is opaque to it.
type Unit interface {
	Node() *Node
}

// getGraph resolves unit to its compiled Node.
func getGraph(unit Unit) *Node {
	return unit.Node()
}

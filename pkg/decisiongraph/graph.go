package decisiongraph

import (
	"fmt"
)

// Graph is an immutable decision graph. It is safe for concurrent use.
type Graph struct {
	id    string
	start string
	nodes map[string]Node
	order []string
}

// ID returns the graph's identifier, usually the model source it came from.
func (g *Graph) ID() string { return g.id }

// Start returns the node a run begins at.
func (g *Graph) Start() Node { return g.nodes[g.start] }

// StartID returns the id of the start node.
func (g *Graph) StartID() string { return g.start }

// EndNode returns the end node shared by all strands.
func (g *Graph) EndNode() *EndNode { return g.nodes[EndID].(*EndNode) }

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Len returns the number of nodes, including the shared end node.
func (g *Graph) Len() int { return len(g.nodes) }

// NodeIDs returns the node ids in insertion order.
func (g *Graph) NodeIDs() []string { return append([]string(nil), g.order...) }

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// DuplicateIDError is returned when two nodes share an id.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate node id %q", e.ID)
}

// DanglingReferenceError is returned when a node refers to an id that is not
// in the graph.
type DanglingReferenceError struct {
	From string
	To   string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("node %q refers to unknown node %q", e.From, e.To)
}

// Builder accumulates nodes for a Graph. A Builder is not safe for
// concurrent use and must not be reused after Seal.
type Builder struct {
	g *Graph
}

// NewBuilder returns a builder whose graph already holds the shared end node.
func NewBuilder(id string) *Builder {
	b := &Builder{g: &Graph{id: id, nodes: make(map[string]Node)}}
	b.g.nodes[EndID] = NewEnd(EndID)
	b.g.order = append(b.g.order, EndID)
	return b
}

// Add inserts n. Adding the shared end node again is a no-op.
func (b *Builder) Add(n Node) error {
	if n.ID() == EndID {
		if _, ok := n.(*EndNode); ok {
			return nil
		}
	}
	if _, dup := b.g.nodes[n.ID()]; dup {
		return &DuplicateIDError{ID: n.ID()}
	}
	b.g.nodes[n.ID()] = n
	b.g.order = append(b.g.order, n.ID())
	return nil
}

// Has reports whether a node with the given id was added.
func (b *Builder) Has(id string) bool {
	_, ok := b.g.nodes[id]
	return ok
}

// Node returns an added node.
func (b *Builder) Node(id string) (Node, bool) {
	n, ok := b.g.nodes[id]
	return n, ok
}

// SetStart marks the node a run begins at.
func (b *Builder) SetStart(id string) { b.g.start = id }

// Seal checks that the start node and every successor exist and returns the
// graph.
func (b *Builder) Seal() (*Graph, error) {
	g := b.g
	if g.start == "" {
		g.start = EndID
	}
	if _, ok := g.nodes[g.start]; !ok {
		return nil, &DanglingReferenceError{From: "<start>", To: g.start}
	}
	for _, id := range g.order {
		for _, next := range Successors(g.nodes[id]) {
			if _, ok := g.nodes[next]; !ok {
				return nil, &DanglingReferenceError{From: id, To: next}
			}
		}
	}
	b.g = nil
	return g, nil
}

// Reachable returns the ids of every node reachable from the start node
// through successor edges.
func Reachable(g *Graph) map[string]bool {
	return ReachableFrom(g, g.start)
}

// ReachableFrom returns the ids of every node reachable from the given ids.
func ReachableFrom(g *Graph, roots ...string) map[string]bool {
	seen := make(map[string]bool, len(g.nodes))
	stack := append([]string(nil), roots...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		n, ok := g.nodes[id]
		if !ok {
			continue
		}
		seen[id] = true
		stack = append(stack, Successors(n)...)
	}
	return seen
}

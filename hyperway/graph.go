package hyperway

import "sync"

// EdgeOption configures an Edge at construction time.
type EdgeOption func(*Edge)

// WithWire attaches an in-transit transform to the edge.
func WithWire(w Wire) EdgeOption {
	return func(e *Edge) { e.wire = w }
}

// WithEdgeName sets the edge's user-facing name. The engine never
// interprets it.
func WithEdgeName(name string) EdgeOption {
	return func(e *Edge) { e.name = name }
}

// Graph is an identity-keyed multimap of outgoing edges per unit.
//
// The Graph is an append-only builder surface: edges can be added but
// never removed or mutated. Edges are never deduplicated — adding the
// same pair twice produces two parallel edges, each executed
// independently. Self-loops are permitted.
//
// A Graph is safe for concurrent reads; it must not be mutated while a
// Stepper is driving it.
type Graph struct {
	mu sync.RWMutex

	// out maps unit id to that unit's outgoing edges in insertion order.
	out map[string][]*Edge

	// units tracks every unit the graph has seen, sources and targets
	// alike, in first-appearance order.
	units     map[string]*Unit
	unitOrder []string

	// edges holds every edge in insertion order.
	edges []*Edge
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		out:   make(map[string][]*Edge),
		units: make(map[string]*Unit),
	}
}

// Add connects vertex a to vertex b and returns the new edge.
//
// Vertex arguments follow the AsUnit conversion rules: an existing *Unit
// keeps its identity, a Callable gets a fresh Unit. Use WithWire to attach
// an in-transit transform and WithEdgeName to label the edge:
//
//	e, err := g.Add(addOne, addTwo, hyperway.WithWire(double))
func (g *Graph) Add(a, b any, opts ...EdgeOption) (*Edge, error) {
	ua, err := AsUnit(a)
	if err != nil {
		return nil, err
	}
	ub, err := AsUnit(b)
	if err != nil {
		return nil, err
	}
	e := newEdge(ua, ub, opts...)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.register(ua)
	g.register(ub)
	g.out[ua.id] = append(g.out[ua.id], e)
	g.edges = append(g.edges, e)
	return e, nil
}

// Chain connects the vertices in sequence: Add(v1,v2), Add(v2,v3), …
// and returns the edges in order. Intermediate callables are converted to
// a Unit once and reused for both their incoming and outgoing edge, so a
// three-callable chain yields three units, not five.
func (g *Graph) Chain(vs ...any) ([]*Edge, error) {
	if len(vs) < 2 {
		return nil, &EngineError{
			Message: "chain requires at least two vertices",
			Code:    "SHORT_CHAIN",
		}
	}
	units := make([]*Unit, len(vs))
	for i, v := range vs {
		u, err := AsUnit(v)
		if err != nil {
			return nil, err
		}
		units[i] = u
	}
	edges := make([]*Edge, 0, len(units)-1)
	for i := 0; i < len(units)-1; i++ {
		e, err := g.Add(units[i], units[i+1])
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, nil
}

// Outgoing returns the outgoing edges of u in insertion order. The
// returned slice is a copy; a unit with no outgoing edges yields nil.
func (g *Graph) Outgoing(u *Unit) []*Edge {
	if u == nil {
		return nil
	}
	return g.OutgoingID(u.id)
}

// OutgoingID is Outgoing keyed by unit id.
func (g *Graph) OutgoingID(id string) []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	edges := g.out[id]
	if len(edges) == 0 {
		return nil
	}
	return append([]*Edge(nil), edges...)
}

// Units returns every unit the graph has seen, in first-appearance order.
func (g *Graph) Units() []*Unit {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Unit, 0, len(g.unitOrder))
	for _, id := range g.unitOrder {
		out = append(out, g.units[id])
	}
	return out
}

// Edges returns every edge in insertion order.
func (g *Graph) Edges() []*Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]*Edge(nil), g.edges...)
}

// Unit returns the unit with the given id, or nil.
func (g *Graph) Unit(id string) *Unit {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.units[id]
}

// register records a unit on first appearance. Caller holds g.mu.
func (g *Graph) register(u *Unit) {
	if _, ok := g.units[u.id]; ok {
		return
	}
	g.units[u.id] = u
	g.unitOrder = append(g.unitOrder, u.id)
}

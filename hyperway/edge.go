package hyperway

import (
	"context"

	"github.com/google/uuid"
)

// Wire is an optional in-transit transform carried by an edge.
//
// A wire receives the Pack produced by the edge's source unit and MUST
// return a *Pack. Returning any other value is a contract violation that
// surfaces as ErrWireContract (wrapped in *WireError). A returned error
// is an ordinary callable failure and propagates unchanged.
//
// The engine treats wires as pure Pack-to-Pack functions; side effects
// are the wire author's concern.
type Wire func(ctx context.Context, p *Pack) (any, error)

// Edge is an ordered connection from a source unit to a target unit,
// optionally carrying a Wire applied to values in transit.
//
// Edges support two-phase execution: InvokeA runs the source half,
// Transfer runs the wire-then-target half, and Pluck composes both for
// direct graph-less execution. The phase split is what lets the Stepper
// place a scheduling boundary in the middle of every edge.
//
// Self-loops (A == B) are permitted. Parallel edges between the same pair
// are permitted and execute independently.
type Edge struct {
	id   string
	name string
	a    *Unit
	b    *Unit
	wire Wire
}

// newEdge binds two units with an optional wire. Used by Graph.Add; an
// Edge can also be built directly for graph-less pluck execution.
func newEdge(a, b *Unit, opts ...EdgeOption) *Edge {
	e := &Edge{
		id: uuid.NewString(),
		a:  a,
		b:  b,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewEdge creates a standalone edge between two vertices for direct
// execution via Pluck. Vertex arguments follow the AsUnit conversion
// rules (an existing *Unit keeps its identity, a Callable gets a fresh
// Unit).
func NewEdge(a, b any, opts ...EdgeOption) (*Edge, error) {
	ua, err := AsUnit(a)
	if err != nil {
		return nil, err
	}
	ub, err := AsUnit(b)
	if err != nil {
		return nil, err
	}
	return newEdge(ua, ub, opts...), nil
}

// ID returns the edge's opaque identity.
func (e *Edge) ID() string { return e.id }

// Name returns the optional user-facing edge name. The engine does not
// interpret it; it exists for user-side selection and rendering.
func (e *Edge) Name() string { return e.name }

// A returns the source unit.
func (e *Edge) A() *Unit { return e.a }

// B returns the target unit.
func (e *Edge) B() *Unit { return e.b }

// Wire returns the edge's in-transit transform, or nil.
func (e *Edge) Wire() Wire { return e.wire }

// InvokeA invokes the source unit with args and returns the resulting
// pack. args follows the Wrap rule: a *Pack passes through, anything else
// becomes the sole positional.
func (e *Edge) InvokeA(ctx context.Context, args any) (*Pack, error) {
	return e.a.Invoke(ctx, Wrap(args))
}

// Transfer applies the wire (if any) to p, then invokes the target unit
// on the wire's output — or on p directly when no wire is present.
func (e *Edge) Transfer(ctx context.Context, p *Pack) (*Pack, error) {
	mid, err := e.applyWire(ctx, p)
	if err != nil {
		return nil, err
	}
	return e.b.Invoke(ctx, mid)
}

// Pluck executes both halves of the edge end-to-end outside the driver:
// Transfer(InvokeA(args)).
func (e *Edge) Pluck(ctx context.Context, args any) (*Pack, error) {
	mid, err := e.InvokeA(ctx, args)
	if err != nil {
		return nil, err
	}
	return e.Transfer(ctx, mid)
}

// applyWire runs the wire against p and enforces the wire contract.
// With no wire configured, p passes through untouched.
func (e *Edge) applyWire(ctx context.Context, p *Pack) (*Pack, error) {
	if e.wire == nil {
		return p, nil
	}
	v, err := e.wire(ctx, p)
	if err != nil {
		return nil, err
	}
	out, ok := v.(*Pack)
	if !ok || out == nil {
		return nil, &WireError{EdgeID: e.id, EdgeName: e.name, Value: v}
	}
	return out, nil
}

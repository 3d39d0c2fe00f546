package hyperway

import (
	"context"
	"reflect"

	"github.com/google/uuid"
)

// Callable is the signature every host callable wrapped by a Unit must
// satisfy. It receives the positional and keyword values of the incoming
// Pack, performs arbitrary computation, and returns any value. The return
// value is wrapped into a Pack via the idempotent Wrap rule, so a callable
// that needs to produce multiple positionals (or keywords) returns a *Pack
// directly.
//
// A returned error is a callable failure: it propagates unchanged to the
// caller of Stepper.Step.
type Callable func(ctx context.Context, pos []any, kw map[string]any) (any, error)

// LeafPolicy controls what a Unit does when execution reaches it and it
// has no outgoing edges.
type LeafPolicy int

const (
	// LeafStash writes the result Pack into the stepper's stash under the
	// unit's identity. This is the default.
	LeafStash LeafPolicy = iota

	// LeafDiscard consumes the result silently: the pack is neither
	// stashed nor re-enqueued.
	LeafDiscard
)

// String returns the policy name for logs and test output.
func (p LeafPolicy) String() string {
	switch p {
	case LeafStash:
		return "stash"
	case LeafDiscard:
		return "discard"
	default:
		return "unknown"
	}
}

// Unit is an identity-bearing wrapper around a host callable.
//
// Identity is the only basis for edge keying and for "reuse this vertex"
// semantics: constructing a Unit from a raw callable allocates a fresh id,
// while converting an existing Unit (AsUnit) returns the same Unit. Two
// Units built from the same callable are distinct vertices.
type Unit struct {
	id   string
	name string
	fn   Callable

	// sentinel is only meaningful when hasSentinel is set; this keeps a
	// nil sentinel distinguishable from "no sentinel configured".
	sentinel    any
	hasSentinel bool

	// raw bypasses sentinel stripping entirely and passes the incoming
	// positional/keyword values through unchanged.
	raw bool

	merge bool
	leaf  LeafPolicy
}

// UnitOption configures a Unit at construction time.
type UnitOption func(*Unit)

// WithName sets a human-readable display name used by logs, events and
// graph rendering. Names carry no identity; duplicates are allowed.
func WithName(name string) UnitOption {
	return func(u *Unit) { u.name = name }
}

// WithSentinel configures the unit's sentinel token. When the incoming
// pack carries exactly one positional equal to the sentinel, that
// positional is stripped before the callable runs. Equality is deep value
// equality, not identity. A nil sentinel is valid.
func WithSentinel(v any) UnitOption {
	return func(u *Unit) {
		u.sentinel = v
		u.hasSentinel = true
	}
}

// WithMergeNode marks the unit as a merge point: a merge-aware stepper
// folds concurrent incoming rows targeting this unit within one step into
// a single invocation.
func WithMergeNode() UnitOption {
	return func(u *Unit) { u.merge = true }
}

// WithLeafPolicy overrides what happens when the unit is reached with no
// outgoing edges. The default is LeafStash.
func WithLeafPolicy(p LeafPolicy) UnitOption {
	return func(u *Unit) { u.leaf = p }
}

// WithRawArgs disables sentinel stripping for this unit; positional and
// keyword values reach the callable exactly as packed. This is the "raw
// unit" configuration, not a separate type.
func WithRawArgs() UnitOption {
	return func(u *Unit) { u.raw = true }
}

// NewUnit wraps a callable into a fresh Unit with a new identity.
//
// Every call allocates a distinct id, even for the same callable:
//
//	a := hyperway.NewUnit(fn)
//	b := hyperway.NewUnit(fn)
//	// a.ID() != b.ID(); a and b are distinct vertices
func NewUnit(fn Callable, opts ...UnitOption) *Unit {
	u := &Unit{
		id: uuid.NewString(),
		fn: fn,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// AsUnit converts a vertex argument into a Unit.
//
// Conversion rules:
//   - an existing *Unit is returned unchanged (same identity)
//   - a Callable (or a func with the Callable signature) gets a fresh Unit
//
// Any other value is rejected with an EngineError (code NOT_CALLABLE).
func AsUnit(v any, opts ...UnitOption) (*Unit, error) {
	switch t := v.(type) {
	case *Unit:
		return t, nil
	case Callable:
		return NewUnit(t, opts...), nil
	case func(ctx context.Context, pos []any, kw map[string]any) (any, error):
		return NewUnit(t, opts...), nil
	case nil:
		return nil, &EngineError{Message: "vertex cannot be nil", Code: "NOT_CALLABLE"}
	default:
		return nil, &EngineError{
			Message: "vertex is neither a *Unit nor a Callable",
			Code:    "NOT_CALLABLE",
		}
	}
}

// ID returns the unit's opaque identity, stable for its lifetime.
func (u *Unit) ID() string { return u.id }

// Name returns the display name, falling back to a short form of the id.
func (u *Unit) Name() string {
	if u.name != "" {
		return u.name
	}
	if len(u.id) >= 8 {
		return "unit-" + u.id[:8]
	}
	return "unit-" + u.id
}

// IsMergeNode reports whether the unit folds concurrent arrivals.
func (u *Unit) IsMergeNode() bool { return u.merge }

// Leaf returns the unit's leaf policy.
func (u *Unit) Leaf() LeafPolicy { return u.leaf }

// Sentinel returns the configured sentinel and whether one is set.
func (u *Unit) Sentinel() (any, bool) { return u.sentinel, u.hasSentinel }

// Invoke runs the wrapped callable on the given pack.
//
// Sentinel stripping: when a sentinel is configured (and the unit is not
// raw), a pack whose positional tuple is exactly one element deeply equal
// to the sentinel has that element dropped before the call. Keywords are
// always preserved. The callable's return value is wrapped via Wrap.
func (u *Unit) Invoke(ctx context.Context, p *Pack) (*Pack, error) {
	if u.fn == nil {
		return nil, &EngineError{
			Message: "unit " + u.Name() + " has no callable",
			Code:    "NO_CALLABLE",
		}
	}
	pos := p.Pos()
	kw := p.KW()
	if !u.raw && u.hasSentinel && len(pos) == 1 && reflect.DeepEqual(pos[0], u.sentinel) {
		pos = nil
	}
	out, err := u.fn(ctx, pos, kw)
	if err != nil {
		return nil, err
	}
	return Wrap(out), nil
}

// stashLeaf applies the unit's leaf policy to a terminal result. It
// reports whether the pack was written to the stash.
func (u *Unit) stashLeaf(st *Stash, p *Pack) bool {
	if u.leaf == LeafDiscard {
		return false
	}
	st.put(u.id, p)
	return true
}

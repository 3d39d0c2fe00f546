// Package hyperway provides a functional execution engine over a directed
// graph of callable-wrapping units.
//
// A Graph binds Units (identity-bearing wrappers around host callables)
// with Edges that may carry an in-transit transform (a Wire). A Stepper
// walks the graph one half-edge at a time, fanning out at branch points,
// optionally folding concurrent arrivals at merge-marked units, and
// stashing the results of terminal units.
package hyperway

import (
	"fmt"
	"reflect"
	"strings"
)

// Pack is the sole value carrier between Units, Wires and the stash.
//
// A Pack holds an ordered tuple of positional values plus a keyword
// mapping. It is immutable from the engine's point of view: the engine
// never mutates a Pack it has been handed, and accessors return defensive
// copies. Construction is idempotent via Wrap — wrapping a value that is
// already a Pack returns it unchanged.
type Pack struct {
	pos []any
	kw  map[string]any
}

// NewPack creates a Pack with the given positional values and no keywords.
//
// Example:
//
//	p := hyperway.NewPack(10)        // one positional
//	p := hyperway.NewPack(1, 2, 3)   // three positionals
func NewPack(pos ...any) *Pack {
	return &Pack{pos: append([]any(nil), pos...)}
}

// NewPackKW creates a Pack with both positional and keyword values.
// Both inputs are copied; the caller keeps ownership of its slices/maps.
func NewPackKW(pos []any, kw map[string]any) *Pack {
	p := &Pack{pos: append([]any(nil), pos...)}
	if len(kw) > 0 {
		p.kw = make(map[string]any, len(kw))
		for k, v := range kw {
			p.kw[k] = v
		}
	}
	return p
}

// Wrap converts an arbitrary value into a Pack.
//
// Two construction rules apply:
//   - a value that is already a *Pack is returned unchanged (idempotent)
//   - any other value becomes the sole positional of a fresh Pack
//
// Wrap(nil) produces a Pack with a single nil positional, which matters
// for sentinel-stripping units whose sentinel is nil.
func Wrap(v any) *Pack {
	if p, ok := v.(*Pack); ok {
		return p
	}
	return &Pack{pos: []any{v}}
}

// Pos returns a copy of the positional tuple.
func (p *Pack) Pos() []any {
	if p == nil {
		return nil
	}
	return append([]any(nil), p.pos...)
}

// KW returns a copy of the keyword mapping.
func (p *Pack) KW() map[string]any {
	if p == nil || len(p.kw) == 0 {
		return nil
	}
	out := make(map[string]any, len(p.kw))
	for k, v := range p.kw {
		out[k] = v
	}
	return out
}

// Len returns the number of positional values.
func (p *Pack) Len() int {
	if p == nil {
		return 0
	}
	return len(p.pos)
}

// At returns the positional value at index i, or nil if out of range.
func (p *Pack) At(i int) any {
	if p == nil || i < 0 || i >= len(p.pos) {
		return nil
	}
	return p.pos[i]
}

// KWGet returns the keyword value for key k and whether it was present.
func (p *Pack) KWGet(k string) (any, bool) {
	if p == nil || p.kw == nil {
		return nil, false
	}
	v, ok := p.kw[k]
	return v, ok
}

// Clone returns a value copy of the Pack. Contained values are shared;
// the positional slice and keyword map are fresh.
func (p *Pack) Clone() *Pack {
	if p == nil {
		return nil
	}
	return NewPackKW(p.pos, p.kw)
}

// Equal reports whether two Packs carry deeply equal positional tuples
// and keyword mappings.
func (p *Pack) Equal(o *Pack) bool {
	if p == nil || o == nil {
		return p.Len() == 0 && o.Len() == 0
	}
	if len(p.pos) != len(o.pos) || len(p.kw) != len(o.kw) {
		return false
	}
	if !reflect.DeepEqual(p.pos, o.pos) {
		return false
	}
	if len(p.kw) > 0 && !reflect.DeepEqual(p.kw, o.kw) {
		return false
	}
	return true
}

// String renders the pack as "(v1, v2, k=v)" for logs and test output.
func (p *Pack) String() string {
	if p == nil {
		return "()"
	}
	var b strings.Builder
	b.WriteByte('(')
	for i, v := range p.pos {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%v", v)
	}
	if len(p.kw) > 0 {
		// Keyword rendering is unordered; fine for debug output.
		for k, v := range p.kw {
			if b.Len() > 1 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, v)
		}
	}
	b.WriteByte(')')
	return b.String()
}

// ConcatPacks folds several Packs into one using row-concat semantics:
// positional tuples are concatenated in argument order, and keyword
// mappings are merged with last-write-wins in argument order.
//
// This is the fold applied to concurrent arrivals at a merge-marked unit
// within a single step.
func ConcatPacks(packs ...*Pack) *Pack {
	n := 0
	for _, p := range packs {
		n += p.Len()
	}
	out := &Pack{pos: make([]any, 0, n)}
	for _, p := range packs {
		if p == nil {
			continue
		}
		out.pos = append(out.pos, p.pos...)
		if len(p.kw) > 0 {
			if out.kw == nil {
				out.kw = make(map[string]any, len(p.kw))
			}
			for k, v := range p.kw {
				out.kw[k] = v
			}
		}
	}
	return out
}

// Package operators provides pre-built arithmetic and utility callables
// and wires for hyperway graphs.
//
// The factories return ordinary hyperway.Callable values; the engine
// treats them like any other host callable. They operate on int
// positionals, which keeps example and test graphs exact.
package operators

import (
	"context"
	"fmt"
	"io"

	"github.com/dshills/hyperway-go/hyperway"
)

// intArg extracts the single int positional of a call.
func intArg(pos []any) (int, error) {
	if len(pos) != 1 {
		return 0, fmt.Errorf("want exactly one positional, got %d", len(pos))
	}
	v, ok := pos[0].(int)
	if !ok {
		return 0, fmt.Errorf("want int positional, got %T", pos[0])
	}
	return v, nil
}

// AddN returns a callable that adds n to its single int positional.
func AddN(n int) hyperway.Callable {
	return func(_ context.Context, pos []any, _ map[string]any) (any, error) {
		v, err := intArg(pos)
		if err != nil {
			return nil, err
		}
		return v + n, nil
	}
}

// SubN returns a callable that subtracts n from its single int
// positional.
func SubN(n int) hyperway.Callable {
	return func(_ context.Context, pos []any, _ map[string]any) (any, error) {
		v, err := intArg(pos)
		if err != nil {
			return nil, err
		}
		return v - n, nil
	}
}

// MulN returns a callable that multiplies its single int positional by n.
func MulN(n int) hyperway.Callable {
	return func(_ context.Context, pos []any, _ map[string]any) (any, error) {
		v, err := intArg(pos)
		if err != nil {
			return nil, err
		}
		return v * n, nil
	}
}

// DivN returns a callable that divides its single int positional by n.
// Division by zero is a callable failure.
func DivN(n int) hyperway.Callable {
	return func(_ context.Context, pos []any, _ map[string]any) (any, error) {
		v, err := intArg(pos)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return v / n, nil
	}
}

// Value returns a zero-argument callable producing the constant v.
// Pairs naturally with a sentinel-stripping unit: the stripped call
// arrives with no positionals.
func Value(v any) hyperway.Callable {
	return func(_ context.Context, pos []any, _ map[string]any) (any, error) {
		if len(pos) != 0 {
			return nil, fmt.Errorf("want no positionals, got %d", len(pos))
		}
		return v, nil
	}
}

// Identity returns a callable that echoes its arguments unchanged, both
// positionals and keywords. Useful as a sink that stashes exactly what
// reached it.
func Identity() hyperway.Callable {
	return func(_ context.Context, pos []any, kw map[string]any) (any, error) {
		return hyperway.NewPackKW(pos, kw), nil
	}
}

// Printer returns a callable that writes its arguments to w and echoes
// them unchanged. A nil writer discards the output.
func Printer(w io.Writer) hyperway.Callable {
	return func(_ context.Context, pos []any, kw map[string]any) (any, error) {
		p := hyperway.NewPackKW(pos, kw)
		if w != nil {
			fmt.Fprintln(w, p.String())
		}
		return p, nil
	}
}

// PassWire returns a wire that forwards the pack untouched.
func PassWire() hyperway.Wire {
	return func(_ context.Context, p *hyperway.Pack) (any, error) {
		return p, nil
	}
}

// ScaleWire returns a wire that multiplies the pack's single int
// positional by k.
func ScaleWire(k int) hyperway.Wire {
	return func(_ context.Context, p *hyperway.Pack) (any, error) {
		v, err := intArg(p.Pos())
		if err != nil {
			return nil, err
		}
		return hyperway.NewPack(v * k), nil
	}
}

// DoubleWire returns a wire that doubles the pack's single int
// positional.
func DoubleWire() hyperway.Wire {
	return ScaleWire(2)
}

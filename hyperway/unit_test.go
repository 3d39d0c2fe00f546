package hyperway

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// echo is a callable that returns its arguments unchanged.
func echo(_ context.Context, pos []any, kw map[string]any) (any, error) {
	return NewPackKW(pos, kw), nil
}

// addN builds a callable adding n to its single int positional.
func addN(n int) Callable {
	return func(_ context.Context, pos []any, _ map[string]any) (any, error) {
		if len(pos) != 1 {
			return nil, errors.New("want one positional")
		}
		return pos[0].(int) + n, nil
	}
}

func TestUnit_Identity(t *testing.T) {
	t.Run("fresh units from the same callable are distinct", func(t *testing.T) {
		a := NewUnit(echo)
		b := NewUnit(echo)
		if a.ID() == b.ID() {
			t.Errorf("two fresh units share id %s", a.ID())
		}
	})

	t.Run("as unit returns an existing unit unchanged", func(t *testing.T) {
		a := NewUnit(echo)
		got, err := AsUnit(a)
		if err != nil {
			t.Fatalf("AsUnit(*Unit) error: %v", err)
		}
		if got != a {
			t.Errorf("AsUnit(*Unit) returned a different unit")
		}
	})

	t.Run("as unit wraps a callable freshly each time", func(t *testing.T) {
		u1, err := AsUnit(Callable(echo))
		if err != nil {
			t.Fatalf("AsUnit(Callable) error: %v", err)
		}
		u2, err := AsUnit(Callable(echo))
		if err != nil {
			t.Fatalf("AsUnit(Callable) error: %v", err)
		}
		if u1.ID() == u2.ID() {
			t.Errorf("AsUnit should allocate fresh identity per raw callable")
		}
	})

	t.Run("as unit accepts a bare func literal", func(t *testing.T) {
		fn := func(_ context.Context, pos []any, _ map[string]any) (any, error) {
			return pos, nil
		}
		if _, err := AsUnit(fn); err != nil {
			t.Errorf("AsUnit(func literal) error: %v", err)
		}
	})

	t.Run("as unit rejects non-callables", func(t *testing.T) {
		for _, v := range []any{nil, 42, "nope", struct{}{}} {
			_, err := AsUnit(v)
			if err == nil {
				t.Errorf("AsUnit(%T) should fail", v)
				continue
			}
			var ee *EngineError
			if !errors.As(err, &ee) || ee.Code != "NOT_CALLABLE" {
				t.Errorf("AsUnit(%T) error = %v, want NOT_CALLABLE", v, err)
			}
		}
	})
}

func TestUnit_Invoke(t *testing.T) {
	ctx := context.Background()

	t.Run("result is wrapped idempotently", func(t *testing.T) {
		u := NewUnit(addN(5))
		got, err := u.Invoke(ctx, NewPack(1))
		if err != nil {
			t.Fatalf("Invoke error: %v", err)
		}
		if !got.Equal(NewPack(6)) {
			t.Errorf("Invoke = %v, want (6)", got)
		}
	})

	t.Run("callable returning a pack passes through", func(t *testing.T) {
		u := NewUnit(echo)
		got, err := u.Invoke(ctx, NewPackKW([]any{1, 2}, map[string]any{"k": "v"}))
		if err != nil {
			t.Fatalf("Invoke error: %v", err)
		}
		if !reflect.DeepEqual(got.Pos(), []any{1, 2}) {
			t.Errorf("Pos() = %v, want [1 2]", got.Pos())
		}
		if v, _ := got.KWGet("k"); v != "v" {
			t.Errorf("keyword lost through invoke")
		}
	})

	t.Run("callable error propagates unchanged", func(t *testing.T) {
		boom := errors.New("boom")
		u := NewUnit(func(context.Context, []any, map[string]any) (any, error) {
			return nil, boom
		})
		_, err := u.Invoke(ctx, NewPack())
		if !errors.Is(err, boom) {
			t.Errorf("Invoke error = %v, want boom unchanged", err)
		}
	})

	t.Run("unit without callable fails", func(t *testing.T) {
		u := NewUnit(nil)
		_, err := u.Invoke(ctx, NewPack())
		var ee *EngineError
		if !errors.As(err, &ee) || ee.Code != "NO_CALLABLE" {
			t.Errorf("Invoke error = %v, want NO_CALLABLE", err)
		}
	})
}

func TestUnit_SentinelStripping(t *testing.T) {
	ctx := context.Background()

	// capture records the positionals the callable actually received.
	capture := func(got *[]any) Callable {
		return func(_ context.Context, pos []any, _ map[string]any) (any, error) {
			*got = pos
			return 42, nil
		}
	}

	t.Run("sole positional equal to sentinel is stripped", func(t *testing.T) {
		var got []any
		u := NewUnit(capture(&got), WithSentinel(nil))
		out, err := u.Invoke(ctx, NewPack(nil))
		if err != nil {
			t.Fatalf("Invoke error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("callable received %v, want no positionals", got)
		}
		if !out.Equal(NewPack(42)) {
			t.Errorf("Invoke = %v, want (42)", out)
		}
	})

	t.Run("equality is by value not identity", func(t *testing.T) {
		var got []any
		u := NewUnit(capture(&got), WithSentinel([]int{1, 2}))
		if _, err := u.Invoke(ctx, NewPack([]int{1, 2})); err != nil {
			t.Fatalf("Invoke error: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("deeply equal sentinel not stripped: %v", got)
		}
	})

	t.Run("non-sentinel positional is preserved", func(t *testing.T) {
		var got []any
		u := NewUnit(capture(&got), WithSentinel(nil))
		if _, err := u.Invoke(ctx, NewPack(7)); err != nil {
			t.Fatalf("Invoke error: %v", err)
		}
		if !reflect.DeepEqual(got, []any{7}) {
			t.Errorf("callable received %v, want [7]", got)
		}
	})

	t.Run("two positionals are never stripped", func(t *testing.T) {
		var got []any
		u := NewUnit(capture(&got), WithSentinel(nil))
		if _, err := u.Invoke(ctx, NewPack(nil, nil)); err != nil {
			t.Fatalf("Invoke error: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("callable received %v, want both positionals", got)
		}
	})

	t.Run("keywords survive stripping", func(t *testing.T) {
		var gotKW map[string]any
		u := NewUnit(func(_ context.Context, pos []any, kw map[string]any) (any, error) {
			gotKW = kw
			return len(pos), nil
		}, WithSentinel(nil))
		out, err := u.Invoke(ctx, NewPackKW([]any{nil}, map[string]any{"keep": true}))
		if err != nil {
			t.Fatalf("Invoke error: %v", err)
		}
		if v := gotKW["keep"]; v != true {
			t.Errorf("keyword lost through stripping")
		}
		if !out.Equal(NewPack(0)) {
			t.Errorf("Invoke = %v, want (0)", out)
		}
	})

	t.Run("raw unit bypasses stripping", func(t *testing.T) {
		var got []any
		u := NewUnit(capture(&got), WithSentinel(nil), WithRawArgs())
		if _, err := u.Invoke(ctx, NewPack(nil)); err != nil {
			t.Fatalf("Invoke error: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("raw unit stripped the sentinel: %v", got)
		}
	})

	t.Run("no sentinel configured means no stripping", func(t *testing.T) {
		var got []any
		u := NewUnit(capture(&got))
		if _, err := u.Invoke(ctx, NewPack(nil)); err != nil {
			t.Fatalf("Invoke error: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("unconfigured unit stripped a positional: %v", got)
		}
	})
}

func TestUnit_Options(t *testing.T) {
	t.Run("name falls back to short id", func(t *testing.T) {
		u := NewUnit(echo)
		if u.Name() == "" {
			t.Errorf("Name() should never be empty")
		}
		named := NewUnit(echo, WithName("adder"))
		if named.Name() != "adder" {
			t.Errorf("Name() = %s, want adder", named.Name())
		}
	})

	t.Run("merge flag", func(t *testing.T) {
		if NewUnit(echo).IsMergeNode() {
			t.Errorf("default unit should not be a merge node")
		}
		if !NewUnit(echo, WithMergeNode()).IsMergeNode() {
			t.Errorf("WithMergeNode not applied")
		}
	})

	t.Run("leaf policy", func(t *testing.T) {
		if NewUnit(echo).Leaf() != LeafStash {
			t.Errorf("default leaf policy should be LeafStash")
		}
		if NewUnit(echo, WithLeafPolicy(LeafDiscard)).Leaf() != LeafDiscard {
			t.Errorf("WithLeafPolicy not applied")
		}
	})

	t.Run("sentinel accessor", func(t *testing.T) {
		if _, ok := NewUnit(echo).Sentinel(); ok {
			t.Errorf("default unit should have no sentinel")
		}
		v, ok := NewUnit(echo, WithSentinel("stop")).Sentinel()
		if !ok || v != "stop" {
			t.Errorf("Sentinel() = %v, %v; want stop, true", v, ok)
		}
	})
}

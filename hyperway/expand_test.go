package hyperway

import (
	"reflect"
	"testing"
)

func TestExpand_Equivalence(t *testing.T) {
	u := NewUnit(echo)

	row := func(v int) Row { return UnitRow(u, NewPack(v)) }

	tests := []struct {
		name    string
		batches [][]Row
	}{
		{"empty", nil},
		{"empty batches", [][]Row{{}, {}, {}}},
		{"single batch", [][]Row{{row(1), row(2)}}},
		{"uneven batches", [][]Row{{row(1)}, {}, {row(2), row(3), row(4)}, {row(5)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			concat := ConcatExpand(tt.batches)
			accum := AccumulateExpand(tt.batches)
			if len(concat) != len(accum) {
				t.Fatalf("lengths differ: concat=%d accumulate=%d", len(concat), len(accum))
			}
			if !reflect.DeepEqual(concat, accum) {
				t.Errorf("strategies differ:\nconcat=%v\naccumulate=%v", concat, accum)
			}
		})
	}
}

func TestExpand_Ordering(t *testing.T) {
	u := NewUnit(echo)
	batches := [][]Row{
		{UnitRow(u, NewPack(1)), UnitRow(u, NewPack(2))},
		{UnitRow(u, NewPack(3))},
	}

	for name, fn := range map[string]Expand{
		"concat":     ConcatExpand,
		"accumulate": AccumulateExpand,
	} {
		t.Run(name, func(t *testing.T) {
			out := fn(batches)
			var got []int
			for _, r := range out {
				got = append(got, r.Pack.At(0).(int))
			}
			if !reflect.DeepEqual(got, []int{1, 2, 3}) {
				t.Errorf("order = %v, want [1 2 3]", got)
			}
		})
	}
}

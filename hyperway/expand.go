package hyperway

// Expand merges the per-row successor batches produced within one step
// into the next queue. The strategy is injected on the Stepper at
// construction — there is no process-wide mutable default.
//
// Both provided implementations produce identical ordering: batch order
// first (the input-row order of the step), then in-batch order (the
// outgoing-edge order of the producing unit). Switching implementations
// must never change observable outputs; the choice is purely a
// performance trade.
type Expand func(batches [][]Row) []Row

// ConcatExpand is the concatenation-of-sequences form: successive appends
// of each batch onto the result.
func ConcatExpand(batches [][]Row) []Row {
	var out []Row
	for _, batch := range batches {
		out = append(out, batch...)
	}
	return out
}

// AccumulateExpand is the accumulate-then-freeze form: it sizes the
// result once from the batch totals, then copies each batch in. This is
// the default strategy.
func AccumulateExpand(batches [][]Row) []Row {
	n := 0
	for _, batch := range batches {
		n += len(batch)
	}
	if n == 0 {
		return nil
	}
	out := make([]Row, 0, n)
	for _, batch := range batches {
		out = append(out, batch...)
	}
	return out
}

package hyperway

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/hyperway-go/hyperway/emit"
)

// Stepper is the execution driver: it walks a Graph one half-edge at a
// time, advancing a row queue step by step.
//
// Each Step consumes the current row set and produces the next one. A
// unit row invokes its unit and fans out one partial row per outgoing
// edge; a partial row applies its edge's wire and schedules the target
// unit for the following step; a unit with no outgoing edges becomes a
// leaf, stashed per its leaf policy. Execution is cooperative and
// single-threaded by default — "concurrent" paths are logical fan-out,
// resolved in deterministic order within each step.
//
// A Stepper owns its queue, stash and leaves exclusively; multiple
// Steppers over the same Graph are independent. The Graph must not be
// mutated while a Stepper is driving it.
//
// Example:
//
//	g := hyperway.NewGraph()
//	edges, _ := g.Chain(addTen, addTwenty, addThirty)
//	s := hyperway.NewStepper(g)
//	_ = s.Prepare(edges[0].A(), hyperway.NewPack(10))
//	stash, err := s.Drive(ctx, 0)
type Stepper struct {
	graph *Graph
	cfg   stepperConfig

	queue  []Row
	leaves []Row
	stash  *Stash

	cancelled     atomic.Bool
	cancelEmitted bool

	steps int
	seq   int
	runID string
}

// NewStepper creates a Stepper over g. The zero configuration is a
// sequential, merge-unaware driver using AccumulateExpand, with no
// emitter, metrics or store.
func NewStepper(g *Graph, opts ...StepperOption) *Stepper {
	cfg := stepperConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.expand == nil {
		cfg.expand = AccumulateExpand
	}
	if cfg.runID == "" {
		cfg.runID = uuid.NewString()
	}
	return &Stepper{
		graph: g,
		cfg:   cfg,
		stash: NewStash(),
		runID: cfg.runID,
	}
}

// Prepare seeds the queue with a single unit row. The start vertex
// follows the AsUnit conversion rules and does not need to appear in the
// Graph: a start with no outgoing edges simply produces one leaf stash
// entry and the run terminates.
func (s *Stepper) Prepare(start any, initial *Pack) error {
	u, err := AsUnit(start)
	if err != nil {
		return err
	}
	s.queue = []Row{UnitRow(u, initial)}
	return nil
}

// Step consumes the current row set and produces the next one.
//
// The produced row set is returned so callers can drive to exhaustion by
// looping until it is empty. Leaf rows are not part of the produced set;
// they are recorded on the stepper (Leaves) and stashed per their unit's
// leaf policy.
//
// While cancelled, Step returns (nil, nil) and leaves the queue intact
// for inspection. A context cancellation returns ctx.Err() before any
// row resolves.
//
// On a callable failure the error propagates unchanged; on a wire
// contract violation the error satisfies errors.Is(err, ErrWireContract).
// In both cases the step aborts with the next queue holding the
// successors of the rows that resolved before the failure.
func (s *Stepper) Step(ctx context.Context) ([]Row, error) {
	if s.cancelled.Load() {
		if !s.cancelEmitted {
			s.cancelEmitted = true
			s.emit(emit.Event{
				RunID: s.runID,
				Step:  s.steps,
				Msg:   emit.MsgRunCancelled,
				Meta:  map[string]interface{}{"rows": len(s.queue)},
			})
		}
		return nil, nil
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	input := s.queue
	s.queue = nil
	s.steps++
	started := time.Now()

	s.emit(emit.Event{
		RunID: s.runID,
		Step:  s.steps,
		Msg:   emit.MsgStepStart,
		Meta:  map[string]interface{}{"rows": len(input)},
	})

	if s.cfg.mergeAware {
		input = s.foldMerges(input)
	}

	succ := make([][]Row, len(input))
	leaf := make([]*Row, len(input))

	var failedAt = len(input)
	var stepErr error

	if s.cfg.maxConcurrent > 1 && len(input) > 1 {
		errs := make([]error, len(input))
		var eg errgroup.Group
		eg.SetLimit(s.cfg.maxConcurrent)
		for i := range input {
			eg.Go(func() error {
				succ[i], leaf[i], errs[i] = s.resolve(ctx, input[i])
				return nil
			})
		}
		_ = eg.Wait()
		for i, err := range errs {
			if err != nil {
				failedAt = i
				stepErr = err
				break
			}
		}
	} else {
		for i := range input {
			succ[i], leaf[i], stepErr = s.resolve(ctx, input[i])
			if stepErr != nil {
				failedAt = i
				break
			}
		}
	}

	// Commit leaves of successfully resolved rows, in input order.
	for i := 0; i < failedAt; i++ {
		if leaf[i] == nil {
			continue
		}
		if err := s.commitLeaf(ctx, *leaf[i]); err != nil {
			s.queue = s.cfg.expand(succ[:i])
			return nil, err
		}
	}

	if stepErr != nil {
		// Partial-queue form: successors of the rows that resolved
		// before the failure are retained for inspection.
		s.queue = s.cfg.expand(succ[:failedAt])
		return nil, stepErr
	}

	produced := s.cfg.expand(succ)
	s.queue = produced

	elapsed := time.Since(started)
	s.cfg.metrics.observeStep(s.runID, elapsed, len(produced), s.stash.Len())
	s.emit(emit.Event{
		RunID: s.runID,
		Step:  s.steps,
		Msg:   emit.MsgStepEnd,
		Meta: map[string]interface{}{
			"rows":        len(produced),
			"duration_ms": float64(elapsed) / float64(time.Millisecond),
		},
	})

	if s.cfg.store != nil {
		if err := s.cfg.store.SaveStep(ctx, s.runID, s.steps, len(produced)); err != nil {
			return nil, &EngineError{
				Message: "failed to save step: " + err.Error(),
				Code:    "STORE_ERROR",
			}
		}
	}

	return produced, nil
}

// resolve advances a single row and returns its successors and, for a
// terminal unit, the leaf row to commit. It touches no stepper state
// besides the emitter and metrics (both safe for concurrent use), which
// is what makes within-step parallel resolution possible.
func (s *Stepper) resolve(ctx context.Context, r Row) ([]Row, *Row, error) {
	switch r.Kind {
	case RowUnit:
		s.cfg.metrics.observeRow(s.runID, RowUnit)
		result, err := r.Unit.Invoke(ctx, r.Pack)
		if err != nil {
			return nil, nil, err
		}
		s.emit(emit.Event{
			RunID:  s.runID,
			Step:   s.steps,
			UnitID: r.Unit.ID(),
			Msg:    emit.MsgUnitInvoke,
		})
		out := s.graph.Outgoing(r.Unit)
		if len(out) == 0 {
			l := LeafRow(r.Unit, result)
			return nil, &l, nil
		}
		rows := make([]Row, 0, len(out))
		for _, e := range out {
			rows = append(rows, PartialRow(e, result))
		}
		return rows, nil, nil

	case RowPartial:
		s.cfg.metrics.observeRow(s.runID, RowPartial)
		mid, err := r.Edge.applyWire(ctx, r.Pack)
		if err != nil {
			if _, ok := err.(*WireError); ok {
				s.cfg.metrics.observeWireViolation(s.runID)
			}
			return nil, nil, err
		}
		s.emit(emit.Event{
			RunID:  s.runID,
			Step:   s.steps,
			UnitID: r.Edge.B().ID(),
			Msg:    emit.MsgEdgeTransfer,
			Meta: map[string]interface{}{
				"edge_id": r.Edge.ID(),
				"wire":    r.Edge.Wire() != nil,
			},
		})
		return []Row{UnitRow(r.Edge.B(), mid)}, nil, nil

	case RowLeaf:
		// Leaf rows are never enqueued; tolerate one defensively.
		l := r
		return nil, &l, nil

	default:
		return nil, nil, &EngineError{
			Message: "unknown row kind",
			Code:    "BAD_ROW",
		}
	}
}

// commitLeaf records a terminal result: stash (or discard) per the
// unit's leaf policy, then persist when a store is attached.
func (s *Stepper) commitLeaf(ctx context.Context, l Row) error {
	s.leaves = append(s.leaves, l)
	s.cfg.metrics.observeRow(s.runID, RowLeaf)

	stashed := l.Unit.stashLeaf(s.stash, l.Pack)
	msg := emit.MsgLeafStash
	if !stashed {
		msg = emit.MsgLeafDiscard
	}
	s.emit(emit.Event{
		RunID:  s.runID,
		Step:   s.steps,
		UnitID: l.Unit.ID(),
		Msg:    msg,
	})

	if stashed && s.cfg.store != nil {
		seq := s.seq
		s.seq++
		err := s.cfg.store.SaveResult(ctx, s.runID, l.Unit.ID(), seq, packRecord(l.Pack))
		if err != nil {
			return &EngineError{
				Message: "failed to save result: " + err.Error(),
				Code:    "STORE_ERROR",
			}
		}
	}
	return nil
}

// foldMerges collapses unit rows targeting the same merge-marked unit
// into a single row whose pack is the row-concat fold, positioned at the
// group's first occurrence. Partial rows are never folded — merging
// happens at the unit-row boundary, after partials have resolved.
func (s *Stepper) foldMerges(input []Row) []Row {
	var seen map[string]int
	out := make([]Row, 0, len(input))
	folded := 0
	for _, r := range input {
		if r.Kind == RowUnit && r.Unit.IsMergeNode() {
			if seen == nil {
				seen = make(map[string]int)
			}
			if idx, ok := seen[r.Unit.id]; ok {
				out[idx].Pack = ConcatPacks(out[idx].Pack, r.Pack)
				folded++
				s.emit(emit.Event{
					RunID:  s.runID,
					Step:   s.steps,
					UnitID: r.Unit.ID(),
					Msg:    emit.MsgMergeFold,
					Meta:   map[string]interface{}{"folded": folded},
				})
				continue
			}
			seen[r.Unit.id] = len(out)
		}
		out = append(out, r)
	}
	if folded > 0 {
		s.cfg.metrics.observeMergeFold(s.runID, folded)
	}
	return out
}

// Cancel requests cooperative cancellation. The flag is observed at the
// top of each Step; no in-flight row is abandoned, and the queue is left
// intact so state can be inspected.
func (s *Stepper) Cancel() {
	s.cancelled.Store(true)
}

// Cancelled reports whether the stepper has been cancelled.
func (s *Stepper) Cancelled() bool {
	return s.cancelled.Load()
}

// Queue returns a copy of the rows scheduled for the next step.
func (s *Stepper) Queue() []Row {
	return append([]Row(nil), s.queue...)
}

// Stash returns the terminal results accumulated so far.
func (s *Stepper) Stash() *Stash {
	return s.stash
}

// Leaves returns every leaf row recorded so far, including those whose
// unit discarded the pack.
func (s *Stepper) Leaves() []Row {
	return append([]Row(nil), s.leaves...)
}

// Steps returns the number of steps executed.
func (s *Stepper) Steps() int {
	return s.steps
}

// RunID returns the run identifier used in events, metrics and store
// records.
func (s *Stepper) RunID() string {
	return s.runID
}

// emit sends an event when an emitter is configured.
func (s *Stepper) emit(e emit.Event) {
	if s.cfg.emitter == nil {
		return
	}
	s.cfg.emitter.Emit(e)
}

package hyperway

import (
	"time"

	"github.com/dshills/hyperway-go/hyperway/emit"
	"github.com/dshills/hyperway-go/hyperway/store"
)

// StepperOption is a functional option for configuring a Stepper.
//
// Options are applied at construction:
//
//	stepper := hyperway.NewStepper(
//	    g,
//	    hyperway.WithMergeAware(),
//	    hyperway.WithEmitter(emit.NewLogEmitter(os.Stdout, false)),
//	)
type StepperOption func(*stepperConfig)

// stepperConfig collects options before they are applied to a Stepper.
type stepperConfig struct {
	mergeAware      bool
	expand          Expand
	runID           string
	emitter         emit.Emitter
	metrics         *Metrics
	store           store.Store
	maxConcurrent   int
	wallClockBudget time.Duration
}

// WithMergeAware enables merge folding: rows arriving at a merge-marked
// unit within a single step collapse into one invocation, with their
// packs folded by row-concat (positionals concatenated in arrival order,
// keywords merged last-write-wins).
//
// Without this option, N incoming edges into a vertex produce N
// independent invocations regardless of the unit's merge flag.
func WithMergeAware() StepperOption {
	return func(cfg *stepperConfig) { cfg.mergeAware = true }
}

// WithExpand injects the strategy that merges per-row successor batches
// into the next queue. The default is AccumulateExpand; ConcatExpand is
// the alternative. Both produce identical ordering — the choice is a
// performance trade only.
func WithExpand(fn Expand) StepperOption {
	return func(cfg *stepperConfig) { cfg.expand = fn }
}

// WithRunID overrides the generated run identifier. Useful for
// correlating events, metrics and store records with an external id.
func WithRunID(id string) StepperOption {
	return func(cfg *stepperConfig) { cfg.runID = id }
}

// WithEmitter attaches an observability emitter. The stepper emits
// step_start/step_end, unit_invoke, edge_transfer, merge_fold,
// leaf_stash/leaf_discard and run_cancelled events. Nil disables
// emission.
func WithEmitter(e emit.Emitter) StepperOption {
	return func(cfg *stepperConfig) { cfg.emitter = e }
}

// WithMetrics attaches a Prometheus metrics collector. Nil disables
// metrics.
func WithMetrics(m *Metrics) StepperOption {
	return func(cfg *stepperConfig) { cfg.metrics = m }
}

// WithStore attaches a run-record store. The stepper saves a step mark
// after every step and a result record for every stashed leaf. A store
// failure aborts the run with an EngineError (code STORE_ERROR).
func WithStore(st store.Store) StepperOption {
	return func(cfg *stepperConfig) { cfg.store = st }
}

// WithMaxConcurrentInvokes resolves the rows of a single step on up to n
// goroutines. Results are collected in input-row order before expansion,
// so all ordering guarantees (outgoing-edge order, merge fold order,
// stash order) are preserved. User callables are treated as potentially
// non-reentrant — only enable this when every callable in the graph is
// safe to run alongside the others.
//
// Default 0: rows resolve sequentially on the caller's goroutine.
func WithMaxConcurrentInvokes(n int) StepperOption {
	return func(cfg *stepperConfig) {
		if n < 0 {
			n = 0
		}
		cfg.maxConcurrent = n
	}
}

// WithWallClockBudget bounds the total duration of a Drive call. The
// budget is enforced between steps via context deadline; no step is
// interrupted mid-row. Zero disables the budget.
func WithWallClockBudget(d time.Duration) StepperOption {
	return func(cfg *stepperConfig) { cfg.wallClockBudget = d }
}

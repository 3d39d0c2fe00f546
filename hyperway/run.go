package hyperway

import (
	"context"

	"github.com/dshills/hyperway-go/hyperway/store"
)

// Drive loops Step until the produced row set is empty or maxSteps is
// reached, then returns the stash. Reaching maxSteps is not an error —
// it is the caller's cycle bound, and the queue remains inspectable for
// another Drive or Step call. maxSteps <= 0 means no bound; graphs with
// cycles reachable from the seed will then loop until cancelled or the
// context expires.
//
// When a wall-clock budget is configured the whole Drive call runs under
// a derived deadline, observed between steps.
func (s *Stepper) Drive(ctx context.Context, maxSteps int) (*Stash, error) {
	if s.cfg.wallClockBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.wallClockBudget)
		defer cancel()
	}

	for steps := 0; ; {
		if maxSteps > 0 && steps >= maxSteps {
			return s.stash, nil
		}
		produced, err := s.Step(ctx)
		if err != nil {
			return s.stash, err
		}
		steps++
		if len(produced) == 0 {
			return s.stash, nil
		}
	}
}

// Run prepares a fresh Stepper over g, seeds it with (start, initial)
// and drives it to exhaustion or maxSteps. It is the convenience surface
// for the common case:
//
//	stash, err := hyperway.Run(ctx, g, addTen, hyperway.NewPack(10), 0)
//
// The start vertex follows the AsUnit conversion rules. Options
// configure the underlying Stepper.
func Run(ctx context.Context, g *Graph, start any, initial *Pack, maxSteps int, opts ...StepperOption) (*Stash, error) {
	s := NewStepper(g, opts...)
	if err := s.Prepare(start, initial); err != nil {
		return nil, err
	}
	return s.Drive(ctx, maxSteps)
}

// packRecord converts a Pack to its serializable store form.
func packRecord(p *Pack) store.PackRecord {
	return store.PackRecord{
		Pos: p.Pos(),
		KW:  p.KW(),
	}
}

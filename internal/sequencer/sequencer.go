// Package sequencer runs dependent steps strictly in order and stops at the
// first failure, reporting which step failed.
//
// Completed steps are never rolled back: when a later step fails, whatever the
// earlier steps did (for example adding a book to the library) stays done.
package sequencer

import (
	"context"
	"log/slog"

	domainerrors "github.com/listenupapp/readtrack/internal/errors"
)

// Step is one link of a sequence. Do receives the previous step's result
// (nil for the first step).
type Step struct {
	Name string
	Do   func(ctx context.Context, prev any) (any, error)
}

// Sequencer executes steps in order, logging each one at debug level.
type Sequencer struct {
	logger *slog.Logger
}

// New creates a sequencer. A nil logger discards output.
func New(logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sequencer{logger: logger}
}

// Run executes steps in order. Step k+1 is started only after step k returned
// successfully. If step k fails, or ctx is done before step k starts, the
// result is a *errors.StepError with Index k and Total len(steps), and the
// remaining steps are skipped.
func (s *Sequencer) Run(ctx context.Context, steps ...Step) (any, error) {
	var prev any
	for i, step := range steps {
		index := i + 1

		if err := ctx.Err(); err != nil {
			s.logger.Debug("sequence abandoned",
				"step", index,
				"name", step.Name,
				"error", err,
			)
			return nil, stepFailed(index, len(steps), step.Name, err)
		}

		result, err := step.Do(ctx, prev)
		if err != nil {
			s.logger.Debug("sequence step failed",
				"step", index,
				"name", step.Name,
				"error", err,
			)
			return nil, stepFailed(index, len(steps), step.Name, err)
		}

		s.logger.Debug("sequence step completed",
			"step", index,
			"name", step.Name,
		)
		prev = result
	}
	return prev, nil
}

func stepFailed(index, total int, name string, cause error) *domainerrors.StepError {
	err := domainerrors.StepFailed(index, name, cause)
	err.Total = total
	return err
}

// Then runs the common two-step case with typed results: first, then second
// fed with first's result.
func Then[A, B any](
	ctx context.Context,
	s *Sequencer,
	firstName string, first func(context.Context) (A, error),
	secondName string, second func(context.Context, A) (B, error),
) (B, error) {
	result, err := s.Run(ctx,
		Step{Name: firstName, Do: func(ctx context.Context, _ any) (any, error) {
			return first(ctx)
		}},
		Step{Name: secondName, Do: func(ctx context.Context, prev any) (any, error) {
			a, _ := prev.(A)
			return second(ctx, a)
		}},
	)
	if err != nil {
		var zero B
		return zero, err
	}
	b, _ := result.(B)
	return b, nil
}

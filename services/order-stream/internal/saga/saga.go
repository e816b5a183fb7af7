package saga

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Step is one compensable unit of a workflow. Execute performs the remote
// effect for the trigger; Rollback issues the compensating effect. Both
// receive the event id so participants can deduplicate repeated calls.
// Steps are stateless: one instance serves every saga run.
type Step[T any] interface {
	Name() string
	Execute(ctx context.Context, eventID string, trigger T) error
	Rollback(ctx context.Context, eventID string, trigger T) error
}

// step adapts a pure binder plus typed execute/rollback calls into a Step.
// Bind runs fresh inside every Execute and Rollback call, so the projection
// is always recomputed from the original trigger.
type step[T, I any] struct {
	name     string
	bind     func(T) I
	execute  func(ctx context.Context, eventID string, input I) error
	rollback func(ctx context.Context, eventID string, input I) error
}

func NewStep[T, I any](
	name string,
	bind func(T) I,
	execute func(ctx context.Context, eventID string, input I) error,
	rollback func(ctx context.Context, eventID string, input I) error,
) Step[T] {
	return &step[T, I]{name: name, bind: bind, execute: execute, rollback: rollback}
}

func (s *step[T, I]) Name() string { return s.name }

func (s *step[T, I]) Execute(ctx context.Context, eventID string, trigger T) error {
	return s.execute(ctx, eventID, s.bind(trigger))
}

func (s *step[T, I]) Rollback(ctx context.Context, eventID string, trigger T) error {
	return s.rollback(ctx, eventID, s.bind(trigger))
}

// Outcome is the terminal state of one saga run.
type Outcome int

const (
	Completed Outcome = iota
	Compensated
)

func (o Outcome) String() string {
	if o == Completed {
		return "completed"
	}
	return "compensated"
}

// CompensationPolicy selects which steps get rolled back after a failure.
type CompensationPolicy int

const (
	// CompensateAll rolls back every step in the workflow, in order,
	// including steps whose execute never ran. Participants must treat a
	// cancel for an effect that never happened as a no-op.
	CompensateAll CompensationPolicy = iota
	// CompensateExecuted rolls back only the steps that executed
	// successfully, in reverse order.
	CompensateExecuted
)

// Workflow drives an ordered list of steps for one trigger and unwinds them
// when any step fails. The step list is fixed at construction; nothing here
// is persisted, so the only durable trace of a failed run is participant
// state and the dead-letter topic.
type Workflow[T any] struct {
	steps           []Step[T]
	policy          CompensationPolicy
	timeout         time.Duration
	rollbackTimeout time.Duration
	logger          *slog.Logger
}

type Options struct {
	Policy CompensationPolicy
	// Timeout is the wall-clock budget for the execute phase of one run.
	// Exceeding it fails the run and triggers compensation.
	Timeout time.Duration
	// RollbackTimeout budgets the compensation pass separately, since the
	// run budget is usually spent by the time compensation starts.
	RollbackTimeout time.Duration
}

func NewWorkflow[T any](logger *slog.Logger, steps []Step[T], opts Options) *Workflow[T] {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.RollbackTimeout <= 0 {
		opts.RollbackTimeout = opts.Timeout
	}
	return &Workflow[T]{
		steps:           steps,
		policy:          opts.Policy,
		timeout:         opts.Timeout,
		rollbackTimeout: opts.RollbackTimeout,
		logger:          logger,
	}
}

// Run executes the steps in order. On the first failure it runs the
// compensation pass and reports Compensated together with the causing
// error. A Compensated outcome is terminal for this event id: redelivery,
// if any, comes from the consumption pipeline, never from here.
func (w *Workflow[T]) Run(ctx context.Context, eventID string, trigger T) (Outcome, error) {
	runCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	for i, s := range w.steps {
		if err := s.Execute(runCtx, eventID, trigger); err != nil {
			w.logger.Warn("saga step failed, compensating",
				"event_id", eventID, "step", s.Name(), "err", err)
			w.compensate(ctx, eventID, trigger, i)
			return Compensated, fmt.Errorf("step %s: %w", s.Name(), err)
		}
	}
	return Completed, nil
}

// compensate runs the rollback pass. Rollback errors are logged and the
// pass continues: compensation is best effort. The pass gets its own
// deadline detached from the run context, which may already be expired.
func (w *Workflow[T]) compensate(ctx context.Context, eventID string, trigger T, failedIdx int) {
	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.rollbackTimeout)
	defer cancel()

	var targets []Step[T]
	switch w.policy {
	case CompensateExecuted:
		for i := failedIdx - 1; i >= 0; i-- {
			targets = append(targets, w.steps[i])
		}
	default:
		targets = w.steps
	}

	for _, s := range targets {
		if err := s.Rollback(rbCtx, eventID, trigger); err != nil {
			w.logger.Error("saga rollback failed",
				"event_id", eventID, "step", s.Name(), "err", err)
		}
	}
}

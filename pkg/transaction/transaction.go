// Package transaction runs a sequence of side-effecting steps and undoes the
// completed ones, in reverse order, when a later step fails.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// State is the lifecycle state of a Transaction.
type State string

const (
	StatePending    State = "pending"
	StateRunning    State = "running"
	StateCommitted  State = "committed"
	StateRolledBack State = "rolled_back"
)

// ErrAlreadyStarted is returned when Run is called more than once.
var ErrAlreadyStarted = errors.New("transaction already started")

// Rollback undoes a completed step. It should treat "nothing to undo" as success.
type Rollback func(ctx context.Context) error

// Register records a rollback for a step that has just completed.
type Register func(name string, rollback Rollback)

// Procedure performs the steps of a transaction, registering a rollback
// after each one that produced a durable side effect.
type Procedure func(ctx context.Context, register Register) error

// Observer receives rollback notifications. Nil fields are ignored.
type Observer struct {
	// OnRollbackStarted is called once with the error that triggered rollback.
	OnRollbackStarted func(cause error)
	// OnRollbackActionStarted is called before each rollback runs.
	OnRollbackActionStarted func(name string)
	// OnRollbackActionFailed is called for every rollback that returns an error.
	OnRollbackActionFailed func(name string, err error)
}

// RollbackFailure records a rollback that failed.
type RollbackFailure struct {
	Name string
	Err  error
}

// Error implements error.
func (f RollbackFailure) Error() string {
	return fmt.Sprintf("rollback %q failed: %v", f.Name, f.Err)
}

// Unwrap returns the underlying error.
func (f RollbackFailure) Unwrap() error {
	return f.Err
}

type action struct {
	name     string
	rollback Rollback
}

// Transaction is a single release attempt.
type Transaction struct {
	observer Observer

	mu       sync.Mutex
	state    State
	pending  []action
	failures []RollbackFailure
}

// New creates a transaction with the given observer.
func New(observer Observer) *Transaction {
	return &Transaction{
		observer: observer,
		state:    StatePending,
	}
}

// Run executes proc. On success the registered rollbacks are discarded. On
// failure every registered rollback runs in reverse order of registration;
// rollback failures are reported to the observer and collected, and the
// error returned by proc is returned unchanged.
func (t *Transaction) Run(ctx context.Context, proc Procedure) error {
	t.mu.Lock()
	if t.state != StatePending {
		t.mu.Unlock()

		return ErrAlreadyStarted
	}

	t.state = StateRunning
	t.mu.Unlock()

	err := proc(ctx, t.register)
	if err == nil {
		t.finish(StateCommitted)

		return nil
	}

	t.rollback(ctx, err)
	t.finish(StateRolledBack)

	return err
}

// State returns the current state.
func (t *Transaction) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.state
}

// RollbackFailures returns the rollbacks that failed during the last Run.
func (t *Transaction) RollbackFailures() []RollbackFailure {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]RollbackFailure, len(t.failures))
	copy(out, t.failures)

	return out
}

func (t *Transaction) register(name string, rollback Rollback) {
	if rollback == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateRunning {
		return
	}

	t.pending = append(t.pending, action{name: name, rollback: rollback})
}

func (t *Transaction) rollback(ctx context.Context, cause error) {
	if t.observer.OnRollbackStarted != nil {
		t.observer.OnRollbackStarted(cause)
	}

	t.mu.Lock()
	pending := t.pending
	t.pending = nil
	t.mu.Unlock()

	// Rollbacks run even when ctx is already cancelled; they get a context
	// that keeps ctx's values but not its cancellation.
	rbCtx := context.WithoutCancel(ctx)

	for i := len(pending) - 1; i >= 0; i-- {
		a := pending[i]

		if t.observer.OnRollbackActionStarted != nil {
			t.observer.OnRollbackActionStarted(a.name)
		}

		if err := runRollback(rbCtx, a.rollback); err != nil {
			t.mu.Lock()
			t.failures = append(t.failures, RollbackFailure{Name: a.name, Err: err})
			t.mu.Unlock()

			if t.observer.OnRollbackActionFailed != nil {
				t.observer.OnRollbackActionFailed(a.name, err)
			}
		}
	}
}

// runRollback converts a panicking rollback into an error so the remaining
// rollbacks still run.
func runRollback(ctx context.Context, rb Rollback) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rollback panicked: %v", r)
		}
	}()

	return rb(ctx)
}

func (t *Transaction) finish(state State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = state
	t.pending = nil
}

// Run is a convenience wrapper running proc in a new transaction.
func Run(ctx context.Context, observer Observer, proc Procedure) error {
	return New(observer).Run(ctx, proc)
}

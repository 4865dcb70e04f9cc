package transaction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommits(t *testing.T) {
	var rolledBack []string

	tx := New(Observer{})

	err := tx.Run(context.Background(), func(_ context.Context, register Register) error {
		register("r1", func(context.Context) error {
			rolledBack = append(rolledBack, "r1")

			return nil
		})

		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, StateCommitted, tx.State())
	assert.Empty(t, rolledBack)
	assert.Empty(t, tx.RollbackFailures())
}

func TestRunRollsBackInReverseOrder(t *testing.T) {
	var (
		order   []string
		started error
	)

	stepErr := errors.New("publish failed")

	tx := New(Observer{
		OnRollbackStarted: func(cause error) { started = cause },
	})

	err := tx.Run(context.Background(), func(_ context.Context, register Register) error {
		for _, name := range []string{"r1", "r2", "r3"} {
			name := name
			register(name, func(context.Context) error {
				order = append(order, name)

				return nil
			})
		}

		return stepErr
	})

	assert.Same(t, stepErr, err)
	assert.Equal(t, stepErr, started)
	assert.Equal(t, []string{"r3", "r2", "r1"}, order)
	assert.Equal(t, StateRolledBack, tx.State())
}

func TestRunContinuesAfterRollbackFailure(t *testing.T) {
	var (
		order  []string
		failed []string
	)

	stepErr := errors.New("script failed")
	r2Err := errors.New("cannot delete release")

	tx := New(Observer{
		OnRollbackActionFailed: func(name string, err error) {
			failed = append(failed, name)
			assert.Equal(t, r2Err, err)
		},
	})

	err := tx.Run(context.Background(), func(_ context.Context, register Register) error {
		register("r1", func(context.Context) error {
			order = append(order, "r1")

			return nil
		})
		register("r2", func(context.Context) error {
			order = append(order, "r2")

			return r2Err
		})
		register("r3", func(context.Context) error {
			order = append(order, "r3")

			return nil
		})

		return stepErr
	})

	require.Error(t, err)
	assert.Same(t, stepErr, err)
	assert.NotErrorIs(t, err, r2Err)
	assert.Equal(t, []string{"r3", "r2", "r1"}, order)
	assert.Equal(t, []string{"r2"}, failed)

	failures := tx.RollbackFailures()
	require.Len(t, failures, 1)
	assert.Equal(t, "r2", failures[0].Name)
	assert.ErrorIs(t, failures[0], r2Err)
}

func TestRunOnlyRollsBackCompletedSteps(t *testing.T) {
	var order []string

	stepErr := errors.New("second step failed")

	err := Run(context.Background(), Observer{}, func(_ context.Context, register Register) error {
		register("tag", func(context.Context) error {
			order = append(order, "tag")

			return nil
		})

		if stepErr != nil {
			return stepErr
		}

		register("release", func(context.Context) error {
			order = append(order, "release")

			return nil
		})

		return nil
	})

	assert.Same(t, stepErr, err)
	assert.Equal(t, []string{"tag"}, order)
}

func TestRunRecoversPanickingRollback(t *testing.T) {
	var (
		order  []string
		failed []string
	)

	stepErr := errors.New("boom")

	err := Run(context.Background(), Observer{
		OnRollbackActionFailed: func(name string, _ error) { failed = append(failed, name) },
	}, func(_ context.Context, register Register) error {
		register("first", func(context.Context) error {
			order = append(order, "first")

			return nil
		})
		register("panics", func(context.Context) error {
			panic("unexpected")
		})

		return stepErr
	})

	assert.Same(t, stepErr, err)
	assert.Equal(t, []string{"first"}, order)
	assert.Equal(t, []string{"panics"}, failed)
}

func TestRollbackIgnoresCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var rollbackCtxErr error

	err := Run(ctx, Observer{}, func(_ context.Context, register Register) error {
		register("tag", func(rctx context.Context) error {
			rollbackCtxErr = rctx.Err()

			return nil
		})

		cancel()

		return context.Canceled
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, rollbackCtxErr)
}

func TestRunTwice(t *testing.T) {
	tx := New(Observer{})

	require.NoError(t, tx.Run(context.Background(), func(context.Context, Register) error { return nil }))
	assert.ErrorIs(t, tx.Run(context.Background(), func(context.Context, Register) error { return nil }), ErrAlreadyStarted)
}

func TestRollbackStartedObserver(t *testing.T) {
	var events []string

	stepErr := errors.New("fail")

	_ = Run(context.Background(), Observer{
		OnRollbackStarted:       func(error) { events = append(events, "started") },
		OnRollbackActionStarted: func(name string) { events = append(events, "undo "+name) },
	}, func(_ context.Context, register Register) error {
		register("a", func(context.Context) error { return nil })
		register("b", func(context.Context) error { return nil })

		return stepErr
	})

	assert.Equal(t, []string{"started", "undo b", "undo a"}, events)
}

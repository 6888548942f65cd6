// Package tracker implements the consecutive-failure state machine that can
// auto-disable a misbehaving task.
//
// Each task is either Armed(count) or Disabled. Failure and timeout runs
// increment the counter; a success resets it to zero but never re-enables a
// disabled task (re-enabling is an explicit CLI action). Skipped runs do not
// transition at all.
package tracker

import (
	"context"

	"github.com/pietz/trigr/internal/models"
	"github.com/pietz/trigr/internal/store"
)

// Tracker applies run outcomes to the persistent failure state.
type Tracker struct {
	store *store.Store
}

// New creates a Tracker backed by the given store.
func New(s *store.Store) *Tracker {
	return &Tracker{store: s}
}

// Result describes the state after recording one outcome.
type Result struct {
	State *models.FailureState
	// NewlyDisabled is true only on the transition into Disabled; the
	// caller reacts by removing the task from the scheduler's active set.
	NewlyDisabled bool
}

// Record applies one run classification to the task's failure state.
// maxFailures is the task's consecutive-failure limit; zero disables the
// auto-disable policy while still tracking the counter.
func (t *Tracker) Record(ctx context.Context, taskName string, class models.Classification, maxFailures int) (*Result, error) {
	if class == models.ClassSkipped {
		state, err := t.store.FailureState(ctx, taskName)
		if err != nil {
			return nil, err
		}
		return &Result{State: state}, nil
	}

	state, err := t.store.FailureState(ctx, taskName)
	if err != nil {
		return nil, err
	}

	result := &Result{State: state}
	switch {
	case class == models.ClassSuccess:
		state.ConsecutiveFailures = 0
	case class.CountsAsFailure():
		state.ConsecutiveFailures++
		if maxFailures > 0 && state.ConsecutiveFailures >= maxFailures && !state.Disabled {
			state.Disabled = true
			result.NewlyDisabled = true
		}
	}

	if err := t.store.SetFailureState(ctx, state); err != nil {
		return nil, err
	}
	return result, nil
}

// Enable clears the disabled flag and resets the counter. Called by the
// explicit re-enable action.
func (t *Tracker) Enable(ctx context.Context, taskName string) error {
	state, err := t.store.FailureState(ctx, taskName)
	if err != nil {
		return err
	}
	state.Disabled = false
	state.ConsecutiveFailures = 0
	return t.store.SetFailureState(ctx, state)
}

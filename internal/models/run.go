package models

import "time"

// Classification is the outcome category of one run.
type Classification string

const (
	// ClassSuccess means the action exited zero.
	ClassSuccess Classification = "success"
	// ClassFailure means the action exited nonzero or failed to start.
	ClassFailure Classification = "failure"
	// ClassTimeout means the action was killed at its deadline.
	ClassTimeout Classification = "timeout"
	// ClassSkipped means another run already held the task's lock.
	// Skipped runs never notify and never touch the failure counter.
	ClassSkipped Classification = "skipped"
)

// CountsAsFailure reports whether the classification advances the
// consecutive-failure counter.
func (c Classification) CountsAsFailure() bool {
	return c == ClassFailure || c == ClassTimeout
}

// ExitCodeTimeout is the conventional exit code reported for timed-out runs.
const ExitCodeTimeout = 124

// RunRecord is the immutable, append-only record of one run.
type RunRecord struct {
	ID             string
	TaskName       string
	StartedAt      time.Time
	FinishedAt     time.Time
	Classification Classification
	ExitCode       int
	Stdout         string
	Stderr         string
}

// Duration returns the wall-clock time the run took.
func (r *RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// FailureState is the per-task consecutive-failure row, mutated only by the
// failure tracker after each non-skipped run.
type FailureState struct {
	TaskName            string
	ConsecutiveFailures int
	Disabled            bool
	UpdatedAt           time.Time
}

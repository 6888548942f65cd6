// Package runner supervises one task execution: it enforces mutual
// exclusion, runs the action under its timeout, classifies the outcome,
// persists the run record, advances the failure tracker, and posts
// notifications. Each launchd firing runs one supervisor in its own
// short-lived process; there is no event loop.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pietz/trigr/internal/config"
	"github.com/pietz/trigr/internal/launchd"
	"github.com/pietz/trigr/internal/models"
	"github.com/pietz/trigr/internal/report"
	"github.com/pietz/trigr/internal/runlock"
	"github.com/pietz/trigr/internal/store"
	"github.com/pietz/trigr/internal/taskfile"
	"github.com/pietz/trigr/internal/tracker"
)

// Scheduler is the slice of launchd control the supervisor needs: removing
// an auto-disabled task from the active set.
type Scheduler interface {
	Unload(name string) bool
}

// Notifier posts a user notification with an optional click-open target.
type Notifier interface {
	Send(title, body, openPath string) error
}

// notifyBodyLimit caps notification body text.
const notifyBodyLimit = 200

// Supervisor executes tasks. Create one per process with New.
type Supervisor struct {
	home      *config.Home
	store     *store.Store
	tracker   *tracker.Tracker
	scheduler Scheduler
	notifier  Notifier
	log       zerolog.Logger
}

// New assembles a Supervisor from its collaborators.
func New(home *config.Home, st *store.Store, sched Scheduler, notif Notifier, log zerolog.Logger) *Supervisor {
	return &Supervisor{
		home:      home,
		store:     st,
		tracker:   tracker.New(st),
		scheduler: sched,
		notifier:  notif,
		log:       log,
	}
}

// Execute runs the named task once and returns its run record.
//
// Lock contention is not an error: the run is recorded as skipped and the
// in-flight run is left alone. Action failures and timeouts are recorded
// and fed to the failure tracker but never returned as errors; only
// infrastructure failures (task file unreadable, store write failed, lock
// file unwritable) produce a non-nil error, and those surface as a nonzero
// process exit so launchd's own failure accounting stays accurate.
func (s *Supervisor) Execute(ctx context.Context, name string) (*models.RunRecord, error) {
	task, err := taskfile.Load(s.home.TaskPath(name))
	if err != nil {
		return nil, fmt.Errorf("load task %s: %w", name, err)
	}

	lock := runlock.New(s.home.LockPath(name))
	acquired, err := lock.TryAcquire()
	if err != nil {
		return nil, err
	}
	if !acquired {
		s.log.Info().Str("task", name).Msg("already running, skipping")
		rec := &models.RunRecord{
			TaskName:       name,
			StartedAt:      time.Now().UTC(),
			FinishedAt:     time.Now().UTC(),
			Classification: models.ClassSkipped,
		}
		if err := s.store.Append(ctx, rec); err != nil {
			return nil, err
		}
		return rec, nil
	}
	defer func() {
		if err := lock.Release(); err != nil {
			s.log.Error().Err(err).Str("task", name).Msg("release run lock")
		}
	}()

	env, err := config.LoadEnv(s.home.EnvPath)
	if err != nil {
		return nil, err
	}

	rec := s.runAction(ctx, task, env)

	s.log.Info().
		Str("task", name).
		Str("classification", string(rec.Classification)).
		Int("exit_code", rec.ExitCode).
		Dur("duration", rec.Duration()).
		Msg("run finished")

	if err := s.store.Append(ctx, rec); err != nil {
		return rec, err
	}

	result, err := s.tracker.Record(ctx, name, rec.Classification, task.Notify.FailureLimit())
	if err != nil {
		return rec, err
	}

	reportPath, err := report.Write(s.home.OutputsDir, rec)
	if err != nil {
		s.log.Warn().Err(err).Str("task", name).Msg("write run report")
		reportPath = ""
	}

	s.notify(task, rec, result, reportPath)

	if result.NewlyDisabled {
		s.disable(task, result.State.ConsecutiveFailures)
	}

	return rec, nil
}

// runAction executes the task's action under its timeout and classifies the
// outcome. Unexpected execution errors become failures with the error text
// as stderr; they never crash the supervisor.
func (s *Supervisor) runAction(ctx context.Context, task *models.TaskConfig, env *config.EnvSnapshot) *models.RunRecord {
	rec := &models.RunRecord{
		TaskName:  task.Name,
		StartedAt: time.Now().UTC(),
	}

	timeout := time.Duration(task.Action.TimeoutSeconds()) * time.Second
	res, err := s.spawn(ctx, task, env, timeout)
	rec.FinishedAt = time.Now().UTC()

	switch {
	case err != nil:
		// The action could not be spawned at all (provider CLI missing,
		// bad working directory).
		rec.Classification = models.ClassFailure
		rec.ExitCode = 1
		rec.Stderr = err.Error()
	case res.timedOut:
		rec.Classification = models.ClassTimeout
		rec.ExitCode = models.ExitCodeTimeout
		rec.Stdout = res.stdout
		rec.Stderr = fmt.Sprintf("task timed out after %s", timeout)
	case res.exitCode == 0:
		rec.Classification = models.ClassSuccess
		rec.Stdout = res.stdout
		rec.Stderr = res.stderr
	default:
		rec.Classification = models.ClassFailure
		rec.ExitCode = res.exitCode
		rec.Stdout = res.stdout
		rec.Stderr = res.stderr
	}
	return rec
}

// notify applies the task's notification policy to the run outcome.
// Skipped runs never reach here.
func (s *Supervisor) notify(task *models.TaskConfig, rec *models.RunRecord, result *tracker.Result, reportPath string) {
	title := task.Notify.Title
	if title == "" {
		title = task.Name
	}

	switch {
	case rec.Classification == models.ClassSuccess && task.Notify.OnSuccess:
		body := clip(rec.Stdout, notifyBodyLimit)
		if body == "" {
			body = "Completed successfully"
		}
		s.send(title, body, reportPath)

	case rec.Classification.CountsAsFailure() && task.Notify.NotifyOnFailure():
		body := clip(rec.Stderr, notifyBodyLimit)
		if body == "" {
			body = fmt.Sprintf("Failed with exit code %d", rec.ExitCode)
		}
		streak := result.State.ConsecutiveFailures
		s.send(fmt.Sprintf("FAILED (%dx): %s", streak, title), body, reportPath)
	}
}

// disable removes an auto-disabled task from launchd's active set and
// announces the disablement.
func (s *Supervisor) disable(task *models.TaskConfig, streak int) {
	s.log.Warn().
		Str("task", task.Name).
		Int("consecutive_failures", streak).
		Msg("auto-disabling task")

	s.scheduler.Unload(task.Name)
	if err := launchd.RemovePlist(task.Name); err != nil {
		s.log.Error().Err(err).Str("task", task.Name).Msg("remove plist")
	}

	title := task.Notify.Title
	if title == "" {
		title = task.Name
	}
	s.send("DISABLED: "+title,
		fmt.Sprintf("Auto-disabled after %d consecutive failures", streak), "")
}

func (s *Supervisor) send(title, body, openPath string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(title, body, openPath); err != nil {
		s.log.Warn().Err(err).Msg("send notification")
	}
}

func clip(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

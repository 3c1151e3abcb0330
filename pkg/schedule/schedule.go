// Package schedule submits recurring run requests on a cron timetable, for
// batches like a nightly equilibration of every system in a project.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
	"github.com/simgate/simgate/pkg/queue"
)

// SubmitFunc receives the run request each time the schedule fires.
type SubmitFunc func(ctx context.Context, req queue.RunRequest) error

// Schedule fires a fixed run request on a standard 5-field cron expression.
type Schedule struct {
	ID       string
	CronExpr string
	NodeType string
	Inputs   map[string]any

	cron   *cron.Cron
	submit SubmitFunc
	logger *slog.Logger
}

func NewSchedule(id, cronExpr, nodeType string, inputs map[string]any, logger *slog.Logger) (*Schedule, error) {
	schedule := &Schedule{
		ID:       id,
		CronExpr: cronExpr,
		NodeType: nodeType,
		Inputs:   inputs,
		logger: logger.With(
			"module", "schedule",
			"id", id,
			"cron", cronExpr,
			"node_type", nodeType,
		),
	}

	if err := schedule.Validate(); err != nil {
		return nil, err
	}

	return schedule, nil
}

func (s *Schedule) Validate() error {
	if s.ID == "" {
		return errors.New("schedule ID is required")
	}

	if s.CronExpr == "" {
		return errors.New("schedule cron expression is required")
	}

	if _, err := cron.ParseStandard(s.CronExpr); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	if s.NodeType == "" {
		return errors.New("schedule node type is required")
	}

	return nil
}

// Start begins firing the schedule. A tick that lands while the previous
// submission is still running is skipped rather than queued up behind it.
func (s *Schedule) Start(ctx context.Context, submit SubmitFunc) error {
	s.logger.InfoContext(ctx, "Starting schedule")
	s.submit = submit

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	id, err := s.cron.AddFunc(s.CronExpr, s.run)
	if err != nil {
		return fmt.Errorf("failed to add cron job for schedule %s: %w", s.ID, err)
	}

	s.logger.InfoContext(ctx, "Added cron job for schedule", "entry", id)
	s.cron.Start()

	return nil
}

func (s *Schedule) run() {
	s.logger.Info("Schedule fired")

	req := queue.RunRequest{
		NodeType: s.NodeType,
		Inputs:   s.Inputs,
	}

	if err := s.submit(context.Background(), req); err != nil {
		s.logger.Error("Error submitting scheduled run", "error", err)
	}
}

// Stop halts the schedule. A run already submitted keeps going.
func (s *Schedule) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Stopping schedule", "id", s.ID)

	if s.cron != nil {
		s.cron.Stop()
	}

	return nil
}

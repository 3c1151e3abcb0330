// Package runner executes persisted runs end to end: build the node from its
// factory, bind the stored inputs, validate, drive the engine, bind outputs,
// validate again, and record every lifecycle transition.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/simgate/simgate/pkg/eventbus"
	"github.com/simgate/simgate/pkg/events"
	"github.com/simgate/simgate/pkg/log"
	"github.com/simgate/simgate/pkg/models"
	"github.com/simgate/simgate/pkg/persistence"
	"github.com/simgate/simgate/pkg/process"
	"github.com/simgate/simgate/pkg/registry"
	"github.com/simgate/simgate/pkg/surface"
	"github.com/simgate/simgate/pkg/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Config identifies the executing worker and where run working directories
// are created.
type Config struct {
	// WorkerID tags every status transition and event this runner emits.
	WorkerID string

	// WorkRoot is the parent directory for per-run working directories.
	// Empty means each run gets a fresh temporary directory.
	WorkRoot string
}

// Runner drives one run at a time through the execution pipeline. It is safe
// to share across goroutines; each Execute call owns its run and node
// exclusively.
type Runner struct {
	workerID    string
	workRoot    string
	registry    *registry.Registry
	persistence persistence.Persistence
	events      eventbus.EventPublisher
	tracer      trace.Tracer
	logger      *slog.Logger
}

// New creates a runner. The event publisher may be nil for standalone use;
// lifecycle events are then skipped.
func New(
	config Config,
	reg *registry.Registry,
	pers persistence.Persistence,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		workerID:    config.WorkerID,
		workRoot:    config.WorkRoot,
		registry:    reg,
		persistence: pers,
		events:      publisher,
		tracer:      otel.Tracer("simgate.runner"),
		logger:      logger,
	}
}

// Execute claims the run, executes its node and persists the outcome. The
// returned error reports execution failure; the run record always reaches a
// terminal status unless persistence itself fails.
func (r *Runner) Execute(ctx context.Context, run *models.Run) error {
	logger := r.logger.With("run_id", run.ID, "node_type", run.NodeType)
	ctx = log.IntoContext(ctx, logger)

	ctx, span := telemetry.StartSpan(ctx, r.tracer, "run.execute",
		attribute.String(telemetry.RunIDKey, run.ID),
		attribute.String(telemetry.NodeTypeKey, run.NodeType),
		attribute.String(telemetry.WorkerIDKey, r.workerID),
	)
	defer span.End()

	run.Start(r.workerID)

	if err := r.persistence.RunRepository().Update(ctx, run); err != nil {
		telemetry.SetError(span, err)

		return fmt.Errorf("failed to mark run %s running: %w", run.ID, err)
	}

	r.publish(ctx, logger, run.ID, events.RunStarted{
		BaseEvent: r.baseEvent(events.RunStartedEvent, run.ID),
		NodeType:  run.NodeType,
	})

	logger.InfoContext(ctx, "Run started", "worker_id", r.workerID)

	outputs, records, err := r.execute(ctx, span, run)
	if err != nil {
		telemetry.SetError(span, err)

		return r.fail(ctx, logger, run, err)
	}

	run.Complete(outputs, records)

	if uerr := r.persistence.RunRepository().Update(ctx, run); uerr != nil {
		telemetry.SetError(span, uerr)

		return fmt.Errorf("failed to mark run %s completed: %w", run.ID, uerr)
	}

	r.publish(ctx, logger, run.ID, events.RunCompleted{
		BaseEvent: r.baseEvent(events.RunCompletedEvent, run.ID),
		NodeType:  run.NodeType,
		Outputs:   run.Outputs,
		Duration:  runDuration(run),
	})

	logger.InfoContext(ctx, "Run completed", "duration", runDuration(run))

	return nil
}

// execute is the pipeline between the running and terminal transitions:
// build, bind, validate, run the engine, validate the outputs.
func (r *Runner) execute(ctx context.Context, span trace.Span, run *models.Run) (map[string]any, map[string][]string, error) {
	node, err := r.registry.CreateNode(ctx, run.NodeType, run.Inputs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build node: %w", err)
	}

	controls := node.Controls()

	if err := controls.ShowControls(ctx, surface.Document(run.Inputs)); err != nil {
		return nil, nil, fmt.Errorf("failed to bind inputs: %w", err)
	}

	if err := controls.ValidateInputs(); err != nil {
		return nil, nil, fmt.Errorf("invalid inputs: %w", err)
	}

	workDir := r.workDirFor(run.ID)
	span.SetAttributes(attribute.String(telemetry.WorkDirKey, workDir))

	records, err := node.Execute(ctx, workDir)
	if err != nil {
		return nil, recordsSnapshot(records), err
	}

	if err := controls.Validate(); err != nil {
		return nil, recordsSnapshot(records), fmt.Errorf("invalid outputs: %w", err)
	}

	outputs, err := controls.OutputValues()
	if err != nil {
		return nil, recordsSnapshot(records), fmt.Errorf("failed to read outputs: %w", err)
	}

	return outputs, recordsSnapshot(records), nil
}

// fail records the terminal failure. Records harvested before the error are
// kept on the run so a crashed simulation still leaves its partial series
// behind.
func (r *Runner) fail(ctx context.Context, logger *slog.Logger, run *models.Run, cause error) error {
	run.Fail(cause.Error())

	if uerr := r.persistence.RunRepository().Update(ctx, run); uerr != nil {
		logger.ErrorContext(ctx, "Failed to persist failed run", "error", uerr)
	}

	r.publish(ctx, logger, run.ID, events.RunFailed{
		BaseEvent: r.baseEvent(events.RunFailedEvent, run.ID),
		NodeType:  run.NodeType,
		Error:     cause.Error(),
		Duration:  runDuration(run),
	})

	logger.ErrorContext(ctx, "Run failed", "error", cause)

	return cause
}

func (r *Runner) publish(ctx context.Context, logger *slog.Logger, key string, event eventbus.Event) {
	if r.events == nil {
		return
	}

	if err := r.events.Publish(ctx, key, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish run event",
			"event_type", event.GetType(), "error", err)
	}
}

func (r *Runner) baseEvent(eventType events.EventType, runID string) events.BaseEvent {
	base := events.NewBaseEvent(eventType, runID)
	base.WorkerID = r.workerID

	return base
}

// workDirFor places the run's working directory under the work root. An
// empty root defers directory creation to the process layer, which uses a
// fresh temporary directory.
func (r *Runner) workDirFor(runID string) string {
	if r.workRoot == "" {
		return ""
	}

	return filepath.Join(r.workRoot, runID)
}

func recordsSnapshot(records *process.RecordSet) map[string][]string {
	if records == nil || records.Len() == 0 {
		return nil
	}

	return records.Snapshot()
}

func runDuration(run *models.Run) time.Duration {
	if run.StartedAt == nil || run.FinishedAt == nil {
		return 0
	}

	return run.FinishedAt.Sub(*run.StartedAt)
}

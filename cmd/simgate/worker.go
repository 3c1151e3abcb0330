package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/simgate/simgate/pkg/cmd"
	"github.com/simgate/simgate/pkg/eventbus"
	"github.com/simgate/simgate/pkg/events"
	"github.com/simgate/simgate/pkg/log"
	"github.com/simgate/simgate/pkg/models"
	"github.com/simgate/simgate/pkg/persistence"
	"github.com/simgate/simgate/pkg/queue"
	"github.com/simgate/simgate/pkg/registry"
	"github.com/simgate/simgate/pkg/runner"
	"github.com/simgate/simgate/pkg/services"
	"github.com/simgate/simgate/pkg/telemetry"
	cli "github.com/urfave/cli/v3"
)

func NewWorkerCommand() *cli.Command {
	return &cli.Command{
		Name:    "worker",
		Aliases: []string{"w"},
		Usage:   "Start a worker executing queued runs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "worker-id",
				Aliases: []string{"id"},
				Usage:   "Custom worker ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("SIMGATE_WORKER_ID"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("SIMGATE_DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (kafka or gochannel)",
				Value:   "gochannel",
				Sources: cli.EnvVars("SIMGATE_EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis address (host:port) of the run request queue; empty disables queue consumption",
				Value:   "",
				Sources: cli.EnvVars("SIMGATE_REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "queue",
				Usage:   "Redis list the run requests are popped from",
				Value:   queue.DefaultQueue,
				Sources: cli.EnvVars("SIMGATE_QUEUE"),
			},
			&cli.StringFlag{
				Name:    "work-root",
				Usage:   "Directory run working directories are created under (temporary ones when empty)",
				Value:   "",
				Sources: cli.EnvVars("SIMGATE_WORK_ROOT"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("SIMGATE_LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export run execution traces over OTLP",
				Sources: cli.EnvVars("SIMGATE_TRACING"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("simgate-worker").With("worker_id", workerID)

			logger.InfoContext(ctx, "Initializing simgate worker")

			if command.Bool("tracing") {
				if _, err := telemetry.NewTracer(ctx, "simgate-worker"); err != nil {
					return fmt.Errorf("failed to initialize tracing: %w", err)
				}
			}

			reg := cmd.NewRegistry(logger)

			eventBus := cmd.NewEventBus(command.String("event-bus"), "simgate-worker", logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			store := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			worker, err := NewWorker(WorkerConfig{
				ID:        workerID,
				WorkRoot:  command.String("work-root"),
				RedisAddr: command.String("redis-url"),
				Queue:     command.String("queue"),
			}, store, eventBus, reg, logger)
			if err != nil {
				return err
			}

			return worker.Start(ctx)
		},
	}
}

// WorkerConfig carries the identity and queue wiring of one worker.
type WorkerConfig struct {
	ID        string
	WorkRoot  string
	RedisAddr string
	Queue     string
}

// Worker executes runs from two sources: lifecycle events published by the
// API, and raw run requests pushed onto the Redis queue.
type Worker struct {
	id          string
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	runner      *runner.Runner
	consumer    *queue.Consumer
	submit      *services.Run
}

func NewWorker(
	config WorkerConfig,
	store persistence.Persistence,
	eventBus eventbus.EventBus,
	reg *registry.Registry,
	logger *slog.Logger,
) (*Worker, error) {
	w := &Worker{
		id:          config.ID,
		logger:      logger,
		persistence: store,
		registry:    reg,
		eventBus:    eventBus,
		runner: runner.New(runner.Config{
			WorkerID: config.ID,
			WorkRoot: config.WorkRoot,
		}, reg, store, eventBus, logger),
		// Queue submissions are admitted without a queued event. This
		// worker executes them inline, so announcing them would start the
		// same run twice.
		submit: services.NewRun(store, reg, nil, logger),
	}

	if config.RedisAddr != "" {
		consumer, err := queue.NewConsumer(queue.Config{
			Addr:  config.RedisAddr,
			Queue: config.Queue,
		}, logger)
		if err != nil {
			return nil, err
		}

		w.consumer = consumer
	}

	return w, nil
}

func (w *Worker) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker")

	err := w.eventBus.Handle(events.RunQueuedEvent, w.handleRunQueued)
	if err != nil {
		return err
	}

	err = w.eventBus.Subscribe(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	if w.consumer != nil {
		err = w.consumer.Start(ctx, w.handleRunRequest)
		if err != nil {
			return err
		}
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down worker...")

	if w.consumer != nil {
		err = w.consumer.Stop(ctx)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to stop queue consumer", "error", err)
		}
	}

	return nil
}

// handleRunQueued executes a run announced on the event bus.
func (w *Worker) handleRunQueued(ctx context.Context, event any) error {
	queued, ok := event.(*events.RunQueued)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for RunQueued")

		return nil
	}

	logger := w.logger.With("run_id", queued.RunID, "node_type", queued.NodeType)

	run, err := w.persistence.RunRepository().GetByID(ctx, queued.RunID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load queued run", "error", err)

		return err
	}

	if run.Status != models.RunStatusPending {
		// Another worker got there first.
		logger.InfoContext(ctx, "Skipping run in non-pending status", "status", run.Status)

		return nil
	}

	return w.runner.Execute(ctx, run)
}

// handleRunRequest admits a queue-submitted request and executes it inline,
// honouring the queue's one-at-a-time contract.
func (w *Worker) handleRunRequest(ctx context.Context, req queue.RunRequest) error {
	run, err := w.submit.Submit(ctx, &services.SubmitRunRequest{
		NodeType: req.NodeType,
		Inputs:   req.Inputs,
	})
	if err != nil {
		return fmt.Errorf("failed to admit queued run request: %w", err)
	}

	return w.runner.Execute(ctx, run)
}

package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/simgate/simgate/pkg/log"
	"github.com/simgate/simgate/pkg/queue"
	"github.com/simgate/simgate/pkg/schedule"
	cli "github.com/urfave/cli/v3"
)

func NewScheduleCommand() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "Push a run request onto the queue on a cron timetable",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "schedule-id",
				Aliases: []string{"id"},
				Usage:   "Custom schedule ID (auto-generated if not provided)",
				Value:   "",
				Sources: cli.EnvVars("SIMGATE_SCHEDULE_ID"),
			},
			&cli.StringFlag{
				Name:     "cron",
				Usage:    "Standard 5-field cron expression",
				Required: true,
				Sources:  cli.EnvVars("SIMGATE_CRON"),
			},
			&cli.StringFlag{
				Name:     "node-type",
				Usage:    "Node type to run on every tick",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "inputs",
				Aliases:  []string{"i"},
				Usage:    "Path to a JSON input document",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis address (host:port) of the run request queue",
				Value:   "localhost:6379",
				Sources: cli.EnvVars("SIMGATE_REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "queue",
				Usage:   "Redis list the run requests are pushed to",
				Value:   queue.DefaultQueue,
				Sources: cli.EnvVars("SIMGATE_QUEUE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("SIMGATE_LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			scheduleID := command.String("schedule-id")
			if scheduleID == "" {
				scheduleID = "schedule-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("simgate-schedule").With("schedule_id", scheduleID)

			inputs, err := readInputDocument(command.String("inputs"))
			if err != nil {
				return err
			}

			sched, err := schedule.NewSchedule(
				scheduleID,
				command.String("cron"),
				command.String("node-type"),
				inputs,
				logger,
			)
			if err != nil {
				return err
			}

			client := redis.NewClient(&redis.Options{Addr: command.String("redis-url")})
			defer func() {
				if err := client.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close Redis client", "error", err)
				}
			}()

			queueKey := command.String("queue")

			submit := func(ctx context.Context, req queue.RunRequest) error {
				payload, err := json.Marshal(req)
				if err != nil {
					return err
				}

				return client.LPush(ctx, queueKey, payload).Err()
			}

			if err := sched.Start(ctx, submit); err != nil {
				return err
			}

			logger.InfoContext(ctx, "Schedule started", "queue", queueKey)

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			<-sigChan
			logger.InfoContext(ctx, "Shutting down schedule...")

			return sched.Stop(ctx)
		},
	}
}

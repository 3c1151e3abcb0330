// Package queue consumes run requests submitted through a Redis list.
// Schedulers, CI pipelines and shell scripts push JSON documents; workers
// pop them and execute the requested node.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// DefaultQueue is the list key consumed when none is configured.
const DefaultQueue = "simgate:runs"

// RunRequest is the document producers push onto the queue.
type RunRequest struct {
	NodeType string         `json:"node_type"`
	Inputs   map[string]any `json:"inputs"`
}

// Handler processes one popped run request. Requests are handed over one at
// a time: a simulation saturates its host, so the consumer never overlaps
// executions.
type Handler func(ctx context.Context, req RunRequest) error

// Config connects a consumer to its Redis list.
type Config struct {
	Addr     string
	Password string
	DB       int
	Queue    string
}

// Consumer pops run requests from a Redis list with BRPOP and hands them to
// a handler.
type Consumer struct {
	config  Config
	client  redis.UniversalClient
	handler Handler
	logger  *slog.Logger
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func NewConsumer(config Config, logger *slog.Logger) (*Consumer, error) {
	if config.Queue == "" {
		config.Queue = DefaultQueue
	}

	if config.Addr == "" {
		config.Addr = "localhost:6379"
	}

	return &Consumer{
		config: config,
		stopCh: make(chan struct{}),
		logger: logger.With(
			"module", "queue_consumer",
			"queue", config.Queue,
		),
	}, nil
}

// Queue returns the list key this consumer pops from.
func (c *Consumer) Queue() string {
	return c.config.Queue
}

// Start connects to Redis and begins consuming run requests until Stop is
// called or the context is cancelled.
func (c *Consumer) Start(ctx context.Context, handler Handler) error {
	if handler == nil {
		return errors.New("queue consumer handler is required")
	}

	c.logger.InfoContext(ctx, "Starting queue consumer")
	c.handler = handler

	err := c.initializeClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize queue client: %w", err)
	}

	c.wg.Add(1)

	go c.consume(ctx)

	return nil
}

func (c *Consumer) initializeClient(ctx context.Context) error {
	c.client = redis.NewClient(&redis.Options{
		Addr:     c.config.Addr,
		Password: c.config.Password,
		DB:       c.config.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	c.logger.InfoContext(ctx, "Connected to Redis", "addr", c.config.Addr, "db", c.config.DB)

	return nil
}

func (c *Consumer) consume(ctx context.Context) {
	defer c.wg.Done()

	c.logger.InfoContext(ctx, "Consuming run requests")

	for {
		select {
		case <-c.stopCh:
			c.logger.InfoContext(ctx, "Queue consumer stopped")

			return
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Context cancelled, stopping queue consumer")

			return
		default:
			err := c.processMessage(ctx)
			if err != nil {
				c.logger.ErrorContext(ctx, "Error processing run request", "error", err)
				time.Sleep(1 * time.Second)
			}
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context) error {
	result, err := c.client.BRPop(ctx, 1*time.Second, c.config.Queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}

		return fmt.Errorf("failed to pop run request from queue: %w", err)
	}

	if len(result) < 2 {
		return nil
	}

	message := result[1]

	var req RunRequest
	if err := json.Unmarshal([]byte(message), &req); err != nil {
		// A malformed document must not become a run. Log it and keep
		// consuming.
		c.logger.ErrorContext(ctx, "Discarding malformed run request", "message", message, "error", err)

		return nil
	}

	if req.NodeType == "" {
		c.logger.ErrorContext(ctx, "Discarding run request without node_type", "message", message)

		return nil
	}

	c.logger.InfoContext(ctx, "Received run request", "node_type", req.NodeType)

	// Handled inline: one host, one simulation at a time.
	err = c.handler(ctx, req)
	if err != nil {
		c.logger.ErrorContext(ctx, "Error handling run request", "node_type", req.NodeType, "error", err)
	}

	return nil
}

// Stop halts consumption, waiting for an in-flight request to finish, then
// closes the Redis client.
func (c *Consumer) Stop(ctx context.Context) error {
	c.logger.InfoContext(ctx, "Stopping queue consumer")

	close(c.stopCh)
	c.wg.Wait()

	if c.client != nil {
		err := c.client.Close()
		if err != nil {
			c.logger.ErrorContext(ctx, "Error closing Redis client", "error", err)
		}
	}

	return nil
}

package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/trogers1052/portfolio-valuation/internal/models"
)

// Handler processes one decoded job. A returned error is treated as
// transient and the job is retried in-process.
type Handler func(ctx context.Context, job *models.Job) error

// messageReader is the subset of *kafka.Reader used by JobConsumer
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
	Config() kafka.ReaderConfig
}

// ConsumerConfig configures a JobConsumer
type ConsumerConfig struct {
	Brokers      []string
	Topic        string
	GroupID      string
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
}

// JobConsumer runs jobs from the jobs topic on a fixed pool of workers.
// Messages are committed after handling, so a crash mid-job redelivers it.
type JobConsumer struct {
	reader       messageReader
	handlers     map[models.JobType]Handler
	workers      int
	maxRetries   int
	retryBackoff time.Duration
	validate     *validator.Validate
	logger       *zap.Logger

	offsets  *offsetTracker
	commitMu sync.Mutex
}

// NewJobConsumer creates a consumer group member for the jobs topic
func NewJobConsumer(cfg ConsumerConfig, logger *zap.Logger) *JobConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.GroupID,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
		MaxWait:     1 * time.Second,
		StartOffset: kafka.FirstOffset,
	})
	return newJobConsumer(reader, cfg, logger)
}

func newJobConsumer(reader messageReader, cfg ConsumerConfig, logger *zap.Logger) *JobConsumer {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &JobConsumer{
		reader:       reader,
		handlers:     make(map[models.JobType]Handler),
		workers:      workers,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		validate:     validator.New(),
		logger:       logger,
		offsets:      newOffsetTracker(),
	}
}

// Handle registers the handler for a job type. Call before Start.
func (c *JobConsumer) Handle(jobType models.JobType, h Handler) {
	c.handlers[jobType] = h
}

// Start runs the workers until ctx is cancelled, then closes the reader.
// One goroutine fetches so offsets are tracked in partition order; workers
// may finish out of order, but a partition is only committed up to its
// oldest unfinished job.
func (c *JobConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting job consumer",
		zap.String("topic", c.reader.Config().Topic),
		zap.Int("workers", c.workers),
	)

	jobs := make(chan kafka.Message)
	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			c.work(ctx, worker, jobs)
		}(i)
	}

	c.fetch(ctx, jobs)
	close(jobs)
	wg.Wait()

	c.logger.Info("Job consumer shutting down")
	return c.reader.Close()
}

func (c *JobConsumer) fetch(ctx context.Context, jobs chan<- kafka.Message) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Error fetching message", zap.Error(err))
			if !sleep(ctx, time.Second) {
				return
			}
			continue
		}

		c.offsets.track(msg)
		select {
		case jobs <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (c *JobConsumer) work(ctx context.Context, worker int, jobs <-chan kafka.Message) {
	for msg := range jobs {
		if err := c.processMessage(ctx, msg); err != nil {
			c.logger.Error("Job failed, committing anyway",
				zap.Int("worker", worker),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}

		if ctx.Err() != nil {
			// uncommitted: the job is redelivered to the next group member
			return
		}
		c.commit(ctx, msg)
	}
}

// commit marks msg finished and commits its partition as far as every
// earlier job has finished too
func (c *JobConsumer) commit(ctx context.Context, msg kafka.Message) {
	c.commitMu.Lock()
	defer c.commitMu.Unlock()

	upTo, ok := c.offsets.complete(msg)
	if !ok {
		return
	}
	if err := c.reader.CommitMessages(ctx, upTo); err != nil {
		c.logger.Error("Failed to commit message",
			zap.Int("partition", upTo.Partition),
			zap.Int64("offset", upTo.Offset),
			zap.Error(err),
		)
	}
}

// processMessage decodes, validates and runs one job with retries.
// Malformed jobs are logged and dropped.
func (c *JobConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var job models.Job
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		c.logger.Warn("Dropping undecodable job", zap.Int64("offset", msg.Offset), zap.Error(err))
		return nil
	}
	if err := c.validate.Struct(&job); err != nil {
		c.logger.Warn("Dropping invalid job", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}

	handler, ok := c.handlers[job.Type]
	if !ok {
		c.logger.Warn("Ignoring job type", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		return nil
	}

	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("Retrying job",
				zap.String("job_id", job.ID),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			if !sleep(ctx, c.retryBackoff*time.Duration(attempt)) {
				return ctx.Err()
			}
		}

		err = c.run(ctx, handler, &job)
		if err == nil {
			return nil
		}
		if errors.Is(err, errPanicked) || ctx.Err() != nil {
			break
		}
	}
	return fmt.Errorf("job %s (%s): %w", job.ID, job.Type, err)
}

var errPanicked = errors.New("handler panicked")

// run calls h, converting a panic into errPanicked
func (c *JobConsumer) run(ctx context.Context, h Handler, job *models.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Job handler panicked",
				zap.String("job_id", job.ID),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			err = errPanicked
		}
	}()
	return h(ctx, job)
}

// sleep waits for d or until ctx is done, reporting whether d elapsed
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

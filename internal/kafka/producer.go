package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/trogers1052/portfolio-valuation/internal/models"
)

// messageWriter is the subset of *kafka.Writer used by Producer
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes jobs to the jobs topic
type Producer struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
		now:    time.Now,
	}
}

// PublishEvaluateAlerts publishes one alert batch and returns the job ID
func (p *Producer) PublishEvaluateAlerts(ctx context.Context, class models.AssetClass, alerts []models.Alert) (string, error) {
	job := p.newJob(models.JobEvaluateAlerts)
	job.EvaluateAlerts = &models.EvaluateAlertsJob{
		Class:  class,
		Alerts: alerts,
	}
	return job.ID, p.publish(ctx, string(class), job)
}

// PublishSnapshotDailyBalances publishes a snapshot request. An empty list
// snapshots every portfolio.
func (p *Producer) PublishSnapshotDailyBalances(ctx context.Context, portfolioIDs []string) (string, error) {
	job := p.newJob(models.JobSnapshotDailyBalances)
	job.SnapshotDailyBalances = &models.SnapshotDailyBalances{PortfolioIDs: portfolioIDs}
	return job.ID, p.publish(ctx, string(models.JobSnapshotDailyBalances), job)
}

func (p *Producer) newJob(jobType models.JobType) *models.Job {
	return &models.Job{
		ID:         uuid.NewString(),
		Type:       jobType,
		EnqueuedAt: p.now().UTC(),
	}
}

func (p *Producer) publish(ctx context.Context, key string, job *models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "job_type", Value: []byte(job.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

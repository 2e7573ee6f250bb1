package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/air-quality-etl/internal/config"
	"github.com/couchcryptid/air-quality-etl/internal/domain"
)

const (
	maxRetries = 5

	// batchTimeout bounds how long a partial batch waits before flushing.
	batchTimeout = 10 * time.Millisecond
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes cleaned observations to a Kafka topic.
// It implements pipeline.Sink.
type Writer struct {
	writer    messageWriter
	logger    *slog.Logger
	batchSize int
	runID     string
	backOff   func() backoff.BackOff
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: batchTimeout,
	}
	return newWriter(w, cfg.BatchSize, logger)
}

func newWriter(w messageWriter, batchSize int, logger *slog.Logger) *Writer {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Writer{
		writer:    w,
		logger:    logger,
		batchSize: batchSize,
		backOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.MaxElapsedTime = 30 * time.Second
			return bo
		},
	}
}

// Name identifies the sink in logs and metrics.
func (w *Writer) Name() string { return "kafka" }

// SetRunID stamps subsequent messages with a run identifier header.
func (w *Writer) SetRunID(runID string) { w.runID = runID }

// Write publishes obs in batches of the configured size. Each batch is
// retried with exponential backoff; a batch that still fails aborts the write.
func (w *Writer) Write(ctx context.Context, obs []domain.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	processedAt := domain.Now()

	for start := 0; start < len(obs); start += w.batchSize {
		end := min(start+w.batchSize, len(obs))
		msgs := make([]kafkago.Message, 0, end-start)
		for _, o := range obs[start:end] {
			msg, err := serializeToMessage(o, w.runID, processedAt)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}

		operation := func() error {
			return w.writer.WriteMessages(ctx, msgs...)
		}
		notify := func(err error, wait time.Duration) {
			w.logger.Warn("kafka write failed, retrying", "error", err, "backoff", wait, "batch_start", start)
		}
		bo := backoff.WithContext(backoff.WithMaxRetries(w.backOff(), maxRetries), ctx)
		if err := backoff.RetryNotify(operation, bo, notify); err != nil {
			return fmt.Errorf("publish batch at %d: %w", start, err)
		}
	}
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// observationMessage is the JSON payload of one published observation.
type observationMessage struct {
	Date     string  `json:"date"`
	District string  `json:"district"`
	PM10     float64 `json:"pm10"`
	PM25     float64 `json:"pm25"`
	Month    int     `json:"month"`
	Day      int     `json:"day"`
	Season   string  `json:"season"`
	Grade    string  `json:"pm_grade"`
}

// serializeToMessage marshals an Observation into a Kafka message keyed by
// date and district.
func serializeToMessage(o domain.Observation, runID string, processedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(observationMessage{
		Date:     o.Date.Format(domain.DateLayout),
		District: o.District,
		PM10:     o.PM10,
		PM25:     o.PM25,
		Month:    o.Month,
		Day:      o.Day,
		Season:   string(o.Season),
		Grade:    string(o.Grade),
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize observation %s: %w", o.Key(), err)
	}
	return kafkago.Message{
		Key:   []byte(o.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(runID)},
			{Key: "season", Value: []byte(o.Season)},
			{Key: "pm_grade", Value: []byte(o.Grade)},
			{Key: "processed_at", Value: []byte(processedAt.Format(time.RFC3339))},
		},
	}, nil
}

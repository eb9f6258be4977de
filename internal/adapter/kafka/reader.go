// Package kafka adapts segmentio/kafka-go readers and writers to the
// pipeline's extractor/loader interfaces for the live observation stream.
package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/floralens/bloom-data-service/internal/config"
	"github.com/floralens/bloom-data-service/internal/domain"
)

// Reader consumes raw observation messages from the source topic.
// It implements pipeline.BatchExtractor.
type Reader struct {
	reader        *kafkago.Reader
	logger        *slog.Logger
	flushInterval time.Duration
}

// NewReader creates a consumer-group reader for the configured source topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaGroupID,
		Topic:    cfg.KafkaSourceTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Reader{
		reader:        r,
		logger:        logger,
		flushInterval: cfg.BatchFlushInterval,
	}
}

// ExtractBatch reads up to batchSize messages, returning early once the
// flush interval elapses so small trickles still move through the pipeline.
// Offsets are committed per message via the RawEvent's Commit callback, only
// after the pipeline has durably handled it.
func (r *Reader) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error) {
	batchCtx, cancel := context.WithTimeout(ctx, r.flushInterval)
	defer cancel()

	events := make([]domain.RawEvent, 0, batchSize)
	for len(events) < batchSize {
		msg, err := r.reader.FetchMessage(batchCtx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				// Flush whatever accumulated; surface cancellation only when
				// the parent context is done and the batch is empty.
				if len(events) == 0 && ctx.Err() != nil {
					return nil, ctx.Err()
				}
				return events, nil
			}
			return events, err
		}
		events = append(events, r.mapMessageToRawEvent(msg))
	}
	return events, nil
}

func (r *Reader) mapMessageToRawEvent(msg kafkago.Message) domain.RawEvent {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawEvent{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
		Commit: func(ctx context.Context) error {
			return r.reader.CommitMessages(ctx, msg)
		},
	}
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

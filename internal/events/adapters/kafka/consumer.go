package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"pltv-feature-service/internal/events/core/usecase"

	"github.com/segmentio/kafka-go"
)

type IngestEventsUseCase interface {
	Execute(ctx context.Context, rawEvents []map[string]any) (usecase.IngestResult, error)
}

// Consumer feeds raw event messages from a topic into the same ingest use
// case the HTTP layer uses. A malformed message is committed and skipped;
// only context cancellation stops the loop.
type Consumer struct {
	reader   *kafka.Reader
	ingestUC IngestEventsUseCase
	logger   *slog.Logger
}

func NewConsumer(brokers []string, topic, groupID string, ingestUC IngestEventsUseCase, logger *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: reader, ingestUC: ingestUC, logger: logger}
}

func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		rawEvents, err := decodeMessage(msg.Value)
		if err != nil {
			c.logger.Warn("skipping malformed kafka message",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		} else if len(rawEvents) > 0 {
			if _, err := c.ingestUC.Execute(ctx, rawEvents); err != nil {
				c.logger.Error("kafka ingest failed",
					"topic", msg.Topic,
					"offset", msg.Offset,
					"error", err,
				)
			}
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

// decodeMessage accepts either a single event object or a {"events": [...]}
// batch.
func decodeMessage(value []byte) ([]map[string]any, error) {
	var root map[string]any
	if err := json.Unmarshal(value, &root); err != nil {
		return nil, err
	}

	if list, ok := root["events"].([]any); ok {
		events := make([]map[string]any, 0, len(list))
		for _, entry := range list {
			if m, ok := entry.(map[string]any); ok {
				events = append(events, m)
			}
		}
		return events, nil
	}

	if len(root) == 0 {
		return nil, nil
	}
	return []map[string]any{root}, nil
}

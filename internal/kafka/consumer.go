package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumerConfig names the brokers, group and topics the worker reads from.
type ConsumerConfig struct {
	Brokers []string
	GroupID string
	Topics  []string
}

// RunConsumer reads document events until ctx is cancelled and applies them through d.
// Messages are committed before they are applied, so a failed event is logged and not retried.
func RunConsumer(ctx context.Context, cfg ConsumerConfig, d *Dispatcher, logger *zap.Logger) {
	if len(cfg.Brokers) == 0 || len(cfg.Topics) == 0 {
		logger.Warn("kafka: brokers or topics empty, consumer not started")
		return
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		GroupTopics:    cfg.Topics,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})
	defer r.Close()

	logger.Info("kafka consumer: started", zap.String("group", cfg.GroupID), zap.Strings("topics", cfg.Topics))
	consume(ctx, r, d, logger)
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

func consume(ctx context.Context, r messageReader, d *Dispatcher, logger *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("kafka consumer: stopping")
			return
		default:
		}

		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		if err := r.CommitMessages(ctx, msg); err != nil {
			logger.Warn("kafka: commit message", zap.Error(err))
		}

		// Handle logs and counts its own failures; the offset is already committed.
		d.Handle(ctx, msg)
	}
}

// worker consumes import events from Kafka and pushes them to Loki.
// Set KAFKA_BROKERS, KAFKA_TOPIC, KAFKA_GROUP_ID and LOKI_URL.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"inventory-audit/backend/internal/config"
	"inventory-audit/backend/internal/platform/logging"
	"inventory-audit/backend/internal/telemetry"
	"inventory-audit/backend/internal/telemetry/loki"
	"inventory-audit/backend/internal/telemetry/producer"
)

const pushTimeout = 10 * time.Second

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "worker:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:           "worker",
		Short:         "Forward import events from Kafka to Loki",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, logger)
		},
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}
	emitter := loki.NewEmitter(cfg.LokiURL, &http.Client{Timeout: pushTimeout})
	if emitter == nil {
		return errors.New("LOKI_URL is required")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          cfg.KafkaTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		MaxWait:        time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	logger.Info("worker started",
		zap.String("topic", cfg.KafkaTopic),
		zap.String("group_id", cfg.KafkaGroupID),
	)
	forward(ctx, reader, emitter, logger)
	logger.Info("worker stopped")
	return nil
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// forward pushes every readable event to emitter until ctx is done. Undecodable messages and
// failed pushes are logged and skipped.
func forward(ctx context.Context, reader messageReader, emitter telemetry.EventEmitter, logger *zap.Logger) {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("kafka read failed", zap.Error(err))
			continue
		}
		event, err := producer.DecodeMessage(msg)
		if err != nil {
			logger.Warn("skipping message", zap.Int64("offset", msg.Offset), zap.Error(err))
			continue
		}
		pushCtx, cancel := context.WithTimeout(ctx, pushTimeout)
		if err := emitter.Emit(pushCtx, event); err != nil {
			logger.Warn("loki push failed", zap.Int64("audit_id", event.AuditID), zap.Error(err))
		}
		cancel()
	}
}

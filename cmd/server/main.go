// server runs the inventory audit HTTP service.
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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	auditrepo "inventory-audit/backend/internal/audit/repository"
	auditservice "inventory-audit/backend/internal/audit/service"
	"inventory-audit/backend/internal/config"
	"inventory-audit/backend/internal/db"
	"inventory-audit/backend/internal/db/migrate"
	itemrepo "inventory-audit/backend/internal/item/repository"
	itemservice "inventory-audit/backend/internal/item/service"
	labrepo "inventory-audit/backend/internal/lab/repository"
	"inventory-audit/backend/internal/platform/logging"
	"inventory-audit/backend/internal/server"
	"inventory-audit/backend/internal/telemetry"
	"inventory-audit/backend/internal/telemetry/loki"
	telemetryotel "inventory-audit/backend/internal/telemetry/otel"
	"inventory-audit/backend/internal/telemetry/producer"
)

const readHeaderTimeout = 10 * time.Second

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Serve the inventory audit web UI and JSON API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if addr != "" {
				cfg.HTTPAddr = addr
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
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
	}, logger)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()
	metrics, err := telemetry.NewMetrics(providers.MeterProvider)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	emitters := []telemetry.EventEmitter{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	kafkaProducer, err := producer.NewKafkaProducer(cfg.Brokers(), cfg.KafkaTopic)
	if err != nil {
		return fmt.Errorf("kafka: %w", err)
	}
	if kafkaProducer != nil {
		defer func() {
			if err := kafkaProducer.Close(); err != nil {
				logger.Warn("kafka close", zap.Error(err))
			}
		}()
		emitters = append(emitters, kafkaProducer)
		logger.Info("publishing import events to kafka", zap.String("topic", kafkaProducer.Topic()))
	}
	if lokiEmitter := loki.NewEmitter(cfg.LokiURL, &http.Client{Timeout: 5 * time.Second}); lokiEmitter != nil {
		emitters = append(emitters, lokiEmitter)
		logger.Info("pushing import events to loki")
	}
	emitter := telemetry.MultiEmitter(emitters...)

	if cfg.AutoMigrate {
		logger.Info("applying migrations", zap.Bool("postgres", cfg.IsPostgres()))
		if err := migrate.Run(cfg.DatabaseURL, "up"); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer conn.Close()

	labs := labrepo.NewSQLRepository(conn)
	audits := auditrepo.NewSQLRepository(conn)
	handler := server.NewHandler(server.Deps{
		Labs: labs,
		Search: itemservice.NewSearchService(itemrepo.NewSQLRepository(conn), itemservice.Options{
			Limit:   cfg.SearchLimit,
			Strict:  cfg.StrictParsing,
			Metrics: metrics,
			Logger:  logger,
		}),
		Importer: auditservice.NewImportService(labs, audits, auditservice.ImportOptions{
			Strict:  cfg.StrictParsing,
			Metrics: metrics,
			Emitter: emitter,
			Logger:  logger,
		}),
		LabPages:       labs,
		LabAudits:      audits,
		HealthPinger:   conn,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("http server listening",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("store", string(conn.Dialect)),
			zap.Bool("strict_parsing", cfg.StrictParsing),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	// Give in-flight import events a chance to reach the log exporter.
	time.Sleep(telemetry.ShutdownDrainDuration)
	logger.Info("http server stopped")
	return nil
}

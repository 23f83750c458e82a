package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/ghuser/foundly/pkg/app"
	"github.com/ghuser/foundly/pkg/cache"
	"github.com/ghuser/foundly/pkg/config"
	"github.com/ghuser/foundly/pkg/database"
	"github.com/ghuser/foundly/pkg/events"
	"github.com/ghuser/foundly/pkg/logger"
	"github.com/ghuser/foundly/pkg/storage"
	"github.com/ghuser/foundly/pkg/telemetry"
	reportEvents "github.com/ghuser/foundly/services/report/domain/events"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg)

	ctx := context.Background()

	otelShutdown, _, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(ctx) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer pool.Close()
	log.Info("database pool connected")

	eventBus, err := events.NewEventBus(cfg, log)
	if err != nil {
		log.Error("failed to setup event bus", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer eventBus.Close() //nolint:errcheck

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer redisClient.Close() //nolint:errcheck
	log.Info("redis connected")

	imageStore, err := storage.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to object storage", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	log.Info("object storage connected", "bucket", cfg.MinioBucket)

	//temporalClient, err := workflows.NewTemporalClient(ctx, cfg.TemporalHostPort, cfg.TemporalNamespace, log)
	//if err != nil {
	//	log.Error("failed to initialize temporal client", "error", err)
	//	os.Exit(1) //nolint:gocritic
	//}
	//defer temporalClient.Close()

	appConfig := &app.Application{
		Db:       pool,
		Logger:   log,
		EventBus: eventBus,
		Redis:    redisClient,
		Storage:  imageStore,
		//TemporalClient: temporalClient,
	}

	if err := registerSubscribers(ctx, appConfig); err != nil {
		log.Error("failed to register subscribers", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	outboxCtx, cancelOutbox := context.WithCancel(ctx)
	go runOutboxRelay(outboxCtx, appConfig)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancelOutbox()

	// EventBus.Close() (via defer) waits up to 30s for in-flight handlers.
	log.Info("worker stopped")
}

// registerSubscribers wires all domain event handlers.
// Add new topics here as more services publish events.
func registerSubscribers(ctx context.Context, a *app.Application) error {
	topics := map[string]func(context.Context, *message.Message) error{
		reportEvents.TopicReportCreated: handleReportCreated(a),
		reportEvents.TopicReportDeleted: handleReportDeleted(a),
	}

	names := make([]string, 0, len(topics))
	for topic, handler := range topics {
		errCh, err := a.EventBus.Subscribe(ctx, topic, handler)
		if err != nil {
			return err
		}
		names = append(names, topic)

		// Drain subscriber errors in background so the channel never blocks.
		go func(topic string) {
			for err := range errCh {
				a.Logger.ErrorContext(ctx, "subscriber error",
					"topic", topic,
					"error", err,
				)
			}
		}(topic)
	}

	a.Logger.Info("event subscribers registered", "topics", names)
	return nil
}

// handleReportCreated returns a handler for report.created events.
// Handlers must be idempotent — EventBus retries up to 3× on failure.
// Drops the reporter's cached listing so the next read rebuilds it; the
// API already invalidates inline, this covers crashes between commit and
// invalidation.
func handleReportCreated(a *app.Application) func(context.Context, *message.Message) error {
	listCache := cache.NewReportListCache(a.Redis)
	return func(ctx context.Context, msg *message.Message) error {
		var evt reportEvents.ReportCreatedEvent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return err
		}

		if err := listCache.Delete(ctx, evt.ReporterID); err != nil {
			a.Logger.WarnContext(ctx, "cache invalidation failed for report.created",
				"report_id", evt.ReportID, "error", err)
		} else {
			a.Logger.InfoContext(ctx, "listing cache invalidated",
				"report_id", evt.ReportID, "reporter_id", evt.ReporterID)
		}

		return nil
	}
}

// handleReportDeleted returns a handler for report.deleted events.
// Purges the deleted item's images from object storage (the API's inline
// purge is best-effort, this is the retry path) and drops the reporter's
// cached listing.
func handleReportDeleted(a *app.Application) func(context.Context, *message.Message) error {
	listCache := cache.NewReportListCache(a.Redis)
	return func(ctx context.Context, msg *message.Message) error {
		var evt reportEvents.ReportDeletedEvent
		if err := json.Unmarshal(msg.Payload, &evt); err != nil {
			return err
		}

		if len(evt.ImagePublicIDs) > 0 {
			a.Storage.DeleteMany(ctx, evt.ImagePublicIDs)
			a.Logger.InfoContext(ctx, "purged report images",
				"report_id", evt.ReportID, "count", len(evt.ImagePublicIDs))
		}

		if err := listCache.Delete(ctx, evt.ReporterID); err != nil {
			a.Logger.WarnContext(ctx, "cache invalidation failed for report.deleted",
				"report_id", evt.ReportID, "error", err)
		}

		return nil
	}
}

// runOutboxRelay polls the outbox for unpublished events and forwards them to
// the EventBus. Runs until ctx is cancelled.
// The Watermill Forwarder (started in cmd/api/main.go) handles at-least-once
// delivery; this relay is a secondary safety net for future outbox tables.
func runOutboxRelay(ctx context.Context, a *app.Application) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.Logger.Info("outbox relay shutting down")
			return
		case <-ticker.C:
			// TODO: query outbox table, publish unpublished events, mark as published
		}
	}
}

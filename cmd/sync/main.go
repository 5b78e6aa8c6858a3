// Command sync refreshes the cached forecasts of every favorite city. It runs one cycle and
// exits, keeps running on the cron schedule with -watch, or serves scheduled EventBridge
// events when started inside Lambda.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mr-Georgie/weather-api/infrastructure/config"
	"github.com/Mr-Georgie/weather-api/infrastructure/di"
	"github.com/Mr-Georgie/weather-api/pkg/observability"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

func main() {
	watch := flag.Bool("watch", false, "keep running and sync on the configured schedule")
	timeout := flag.Duration("timeout", 10*time.Minute, "upper bound for a single sync cycle")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer cleanup()

	switch {
	case cfg.IsLambda:
		lambda.Start(scheduledHandler(container))
	case *watch:
		runScheduled(ctx, container)
	default:
		runCtx, cancel := context.WithTimeout(ctx, *timeout)
		defer cancel()
		if err := runOnce(runCtx, container); err != nil {
			container.Logger.Error("Weather sync failed", zap.Error(err))
			cleanup()
			os.Exit(1)
		}
	}
}

func runOnce(ctx context.Context, container *di.Container) error {
	result, err := container.SyncRunner().RunOnce(ctx)
	if err != nil {
		return err
	}
	container.Logger.Info("Weather sync completed",
		zap.Int("processed", result.Processed),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", result.Duration),
	)
	return nil
}

func runScheduled(ctx context.Context, container *di.Container) {
	container.Scheduler.Start()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = container.Processor.Run(ctx)
	}()

	<-ctx.Done()
	container.Logger.Info("Shutting down weather sync")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	container.Scheduler.Stop(shutdownCtx)

	select {
	case <-done:
	case <-shutdownCtx.Done():
		container.Logger.Warn("Sync processor did not stop in time")
	}
}

// scheduledHandler runs one cycle per EventBridge schedule event, traced as an X-Ray subsegment.
func scheduledHandler(container *di.Container) func(context.Context, events.CloudWatchEvent) error {
	tracer := observability.NewXRayTracer("weather-sync")
	return func(ctx context.Context, event events.CloudWatchEvent) error {
		container.Logger.Info("Scheduled weather sync triggered",
			zap.String("event_id", event.ID),
			zap.String("detail_type", event.DetailType),
		)
		return tracer.TraceFunction(ctx, "RunOnce", func(ctx context.Context) error {
			tracer.AddAnnotation(ctx, "event_id", event.ID)
			return runOnce(ctx, container)
		})
	}
}

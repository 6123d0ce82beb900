// Command riskd runs the risk scoring and classification engine: it
// assesses the current record set on a refresh interval, trains the
// classifier, and serves assessments, rollups, and predictions over HTTP.
// High-severity assessments are optionally published to a Kafka alert
// topic.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/disaster-risk-engine/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/disaster-risk-engine/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-risk-engine/internal/config"
	"github.com/couchcryptid/disaster-risk-engine/internal/engine"
	"github.com/couchcryptid/disaster-risk-engine/internal/mockdata"
	"github.com/couchcryptid/disaster-risk-engine/internal/model"
	"github.com/couchcryptid/disaster-risk-engine/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	var source engine.Source
	if cfg.FixtureFile != "" {
		fixtureSource, err := mockdata.NewFixtureSource(cfg.FixtureFile)
		if err != nil {
			logger.Error("failed to load fixture", "error", err, "path", cfg.FixtureFile)
			os.Exit(1)
		}
		source = fixtureSource
		logger.Info("using fixture records", "path", cfg.FixtureFile)
	} else {
		source = mockdata.NewGenerator(cfg.MockSeed, cfg.MockDays, cfg.MockEvents)
		logger.Info("using generated mock records",
			"seed", cfg.MockSeed, "days", cfg.MockDays, "events", cfg.MockEvents)
	}

	eng := engine.New(source, cfg.Engine, cfg.Model, logger, metrics)

	// Alert feed is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		eng.SetAlertFeed(publisher, cfg.AlertMinSeverity)
		logger.Info("kafka alert feed enabled",
			"topic", cfg.KafkaAlertTopic, "min_severity", cfg.AlertMinSeverity.String())
	} else {
		logger.Info("kafka alert feed disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, eng, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start the refresh loop, then train an initial model on the first
	// snapshot. Training failure is not fatal: the engine serves
	// rule-based assessments and reports predictions unavailable.
	go func() {
		if err := eng.Refresh(ctx); err != nil {
			logger.Error("initial refresh failed", "error", err)
		} else if _, err := eng.Retrain(ctx); err != nil {
			var insufficient *model.InsufficientDataError
			if errors.As(err, &insufficient) {
				logger.Warn("initial training skipped", "reason", insufficient.Error())
			} else {
				logger.Error("initial training failed", "error", err)
			}
		}
		if err := eng.Run(ctx, cfg.RefreshInterval); err != nil {
			logger.Error("engine error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

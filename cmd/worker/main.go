package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"geoattend/internal/config"
	"geoattend/internal/metrics"
	"geoattend/internal/queue"
	"geoattend/internal/store"
)

// The worker drains the domain event queue and records each event in
// the audit log. Events arrive strictly after the API committed the
// state they describe, so the log never leads the database.
func main() {
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("service", "geoattend-worker").Logger()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("db connect failed")
	}
	defer db.Close()
	eventLog := store.NewEventLog(db.Client)

	redisClient := store.NewRedis(cfg.RedisAddr)
	q := queue.NewRedisQueue(redisClient.Client, cfg.EventQueueKey)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	msgs, err := q.Consume(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("queue consume failed")
	}

	logger.Info().Str("queue", cfg.EventQueueKey).Msg("event relay started")

	for msg := range msgs {
		recordCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := eventLog.Record(recordCtx, msg.Name, msg.Body, time.Now().UTC()); err != nil {
			logger.Error().Err(err).Str("event", msg.Name).Msg("event record failed")
		} else {
			metrics.EventsRelayed.WithLabelValues(msg.Name).Inc()
			logger.Info().Str("event", msg.Name).Msg("event recorded")
		}
		cancel()
	}

	logger.Info().Msg("event relay stopped")
}

// Package main is the entry point for the outbox worker.
// It delivers DispatchIssued events written by the API server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"oficio/internal/app"
	"oficio/internal/config"
	"oficio/internal/core/outbox"
	"oficio/internal/domain/cases"
	"oficio/internal/infrastructure/storage/postgres"
	"oficio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if cfg.Database.Driver != config.DriverPostgres {
		log.Fatalw("outbox worker requires the postgres driver", "driver", cfg.Database.Driver)
	}

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting oficio outbox worker")

	store, err := app.OpenStore(ctx, cfg.Database)
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer store.Close()

	worker := NewWorker(store.PgTxManager, cfg.Outbox, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Worker polls the outbox and parks messages that keep failing.
type Worker struct {
	relay        *postgres.OutboxRelay
	pollInterval time.Duration
	log          *logger.Logger
}

func NewWorker(txManager *postgres.TxManager, cfg config.OutboxConfig, log *logger.Logger) *Worker {
	log = log.WithComponent("worker")
	w := &Worker{pollInterval: cfg.PollInterval, log: log}
	if w.pollInterval <= 0 {
		w.pollInterval = 2 * time.Second
	}
	w.relay = postgres.NewOutboxRelay(txManager, cfg.BatchSize, postgres.OutboxHandlerFunc(w.handle))
	return w
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(1 * time.Hour)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := w.relay.ProcessBatch(ctx)
			if err != nil {
				w.log.Errorw("outbox batch failed", "error", err)
				continue
			}
			if n > 0 {
				w.log.Debugw("processed outbox batch", "count", n)
			}
		case <-cleanupTicker.C:
			moved, err := w.relay.MoveToDLQ(ctx)
			if err != nil {
				w.log.Errorw("outbox cleanup failed", "error", err)
				continue
			}
			if moved > 0 {
				w.log.Warnw("moved failed outbox messages to DLQ", "count", moved)
			}
		}
	}
}

// handle delivers one message. Delivery is a structured log line that
// downstream collectors pick up.
func (w *Worker) handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	switch msg.EventType {
	case outbox.EventDispatchIssued:
		var ev cases.DispatchIssued
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			return fmt.Errorf("decode %s payload: %w", msg.EventType, err)
		}
		w.log.Infow("dispatch issued",
			"case_id", ev.CaseID,
			"case_number", ev.CaseNumber,
			"unit_id", ev.ExtractionUnitID,
			"number", ev.Number,
			"filename", ev.Filename,
			"issued_at", ev.IssuedAt,
		)
	default:
		w.log.Warnw("skipping unknown outbox event", "event_type", msg.EventType, "message_id", msg.ID)
	}
	return nil
}

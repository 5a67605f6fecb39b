package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/insight-labs/insight/internal/api"
	"github.com/insight-labs/insight/internal/assistant"
	"github.com/insight-labs/insight/internal/config"
	"github.com/insight-labs/insight/internal/hermes"
	"github.com/insight-labs/insight/internal/insight"
	"github.com/insight-labs/insight/internal/llm"
	"github.com/insight-labs/insight/internal/preference"
	"github.com/insight-labs/insight/internal/rescore"
	"github.com/insight-labs/insight/internal/store"
)

const llmMaxTokens = 300

func main() {
	rescoreMode := flag.Bool("rescore", false, "re-score messages missing insight rows, then exit")
	rescoreDryRun := flag.Bool("dry-run", false, "with -rescore: score but don't persist")
	flag.Parse()

	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("insight starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database connected")

	// OpenAI client
	if cfg.OpenAIAPIKey == "" {
		slog.Error("OPENAI_API_KEY is required")
		os.Exit(1)
	}
	client := llm.NewClient(cfg.OpenAIAPIKey, cfg.ChatModel, cfg.EmbeddingModel, llmMaxTokens)
	slog.Info("openai client ready", "chat_model", cfg.ChatModel, "embedding_model", cfg.EmbeddingModel)

	// Scoring engine: builds category prototypes with one embedding round-trip.
	engine, err := insight.NewEngine(ctx, client, slog.Default())
	if err != nil {
		slog.Error("failed to build scoring engine", "error", err)
		os.Exit(1)
	}
	slog.Info("scoring engine ready")

	if *rescoreMode {
		runRescore(ctx, db, engine, *rescoreDryRun)
		return
	}

	// NATS (optional: insight runs fine without a broker, just no events)
	var bus *hermes.Client
	var recorderBus insight.Publisher
	var trainerBus preference.Publisher
	if cfg.NatsURL != "" {
		bus, err = hermes.NewClient(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer bus.Close()
		recorderBus = bus
		trainerBus = bus
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured, running without events")
	}

	// Insight recorder
	recorder := insight.NewRecorder(engine, db, recorderBus, slog.Default())

	// Preference pipeline
	trainer := preference.NewTrainer(db, cfg.ModelPath, trainerBus, slog.Default())
	scheduler := preference.NewScheduler(trainer, cfg.TrainInterval, slog.Default())
	scheduler.Start()
	defer scheduler.Stop()

	predictor := preference.NewPredictor(db, cfg.ModelPath, preference.DefaultRecentWindow, slog.Default())

	// Assistant service
	svc := assistant.New(db, client, recorder, predictor, slog.Default())

	// HTTP API
	srv := api.NewServer(cfg.Port, svc, predictor, db)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	// Announce startup
	if bus != nil {
		if err := bus.Publish("insight.service.started", map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"port":      cfg.Port,
		}); err != nil {
			slog.Warn("failed to publish startup event", "error", err)
		}
	}

	slog.Info("insight ready", "port", cfg.Port, "train_interval", cfg.TrainInterval)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	scheduler.Stop()
	cancel()
	slog.Info("insight stopped")
}

func runRescore(ctx context.Context, db *store.Store, engine *insight.Engine, dryRun bool) {
	runner := rescore.NewRunner(rescore.Config{DryRun: dryRun}, db, engine, db, slog.Default())

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := runner.Run(ctx)
	if err != nil {
		slog.Error("rescore failed", "error", err, "scored", summary.Scored, "failed", summary.Failed)
		os.Exit(1)
	}
	slog.Info("rescore finished", "scored", summary.Scored, "failed", summary.Failed, "batches", summary.Batches)
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

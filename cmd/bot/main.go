// Package main contains the entrypoint for the assistant bridge.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/zapzap/zapzap-assist/internal/assistant"
	"github.com/zapzap/zapzap-assist/internal/assistant/tasks"
	"github.com/zapzap/zapzap-assist/internal/audio"
	"github.com/zapzap/zapzap-assist/internal/config"
	"github.com/zapzap/zapzap-assist/internal/database"
	"github.com/zapzap/zapzap-assist/internal/httpapi"
	"github.com/zapzap/zapzap-assist/internal/llm"
	"github.com/zapzap/zapzap-assist/internal/logger"
	"github.com/zapzap/zapzap-assist/internal/whatsapp"
	"github.com/zapzap/zapzap-assist/internal/whisper"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes every component, starts the orchestrator, and returns the
// process exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.New(cfg.Logger.Level, cfg.Logger.JSON)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to open database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	completer, err := llm.New(ctx, cfg.LLM, log)
	if err != nil {
		log.Error("Failed to initialize completion client", "provider", cfg.LLM.Provider, "error", err)
		return 1
	}

	transcriber := whisper.NewClient(cfg.Whisper, log)
	pipeline := audio.NewPipeline(transcriber, cfg.Assistant.FFmpegPath, log)

	// The simulated session stands in for a live link; the control surface
	// injects events through it.
	session := whatsapp.NewSimSession(log)

	background := assistant.NewBackground(8, log)
	gatekeeper := assistant.NewGateKeeper(store, log)
	builder := assistant.NewContextBuilder(store, cfg.Assistant.HistoryLimit, log)
	sequencer := assistant.NewSequencer(store, session, cfg.Assistant, log)

	handler, err := assistant.NewHandler(assistant.HandlerDeps{
		Store:      store,
		Session:    session,
		Completer:  completer,
		Pipeline:   pipeline,
		GateKeeper: gatekeeper,
		Builder:    builder,
		Sequencer:  sequencer,
		Background: background,
		Config:     cfg.Assistant,
		Logger:     log,
	})
	if err != nil {
		log.Error("Failed to build event handler", "error", err)
		return 1
	}

	taskMap := tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger: log,
		Store:  store,
	})
	scheduler, err := assistant.NewScheduler(log, &cfg.Scheduler, taskMap)
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	control := httpapi.NewServer(httpapi.Deps{
		Addr:       cfg.HTTP.Addr,
		Session:    session,
		Store:      store,
		GateKeeper: gatekeeper,
		Sequencer:  sequencer,
		Injector:   session,
		Logger:     log,
	})

	app := assistant.NewApp(log, handler, session, scheduler, control, background)
	if err := app.Run(ctx); err != nil {
		log.Error("Application stopped with error", "error", err)
		return 1
	}

	log.Info("Application stopped")
	return 0
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/viper"

	"StudyChat/internal/backend"
	"StudyChat/internal/chatbot"
	"StudyChat/internal/classify"
	"StudyChat/internal/config"
	"StudyChat/internal/console"
	"StudyChat/internal/store"
	"StudyChat/internal/telemetry"
)

// app holds everything built from configuration for one conversational
// surface. Close releases it in reverse order of construction.
type app struct {
	logger  *slog.Logger
	bot     *chatbot.ChatBot
	journal *store.FailureStore
	closers []func()
}

func newApp(ctx context.Context, v *viper.Viper) (*app, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &app{}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	logger, logFile, err := telemetry.InitLogger(cfg.LogDir, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	a.closers = append(a.closers, func() { logFile.Close() })
	logger.Info("starting", "version", telemetry.Version, "config", cfg)

	tracer, meter, cleanup, err := telemetry.InitTelemetry(ctx, cfg.LogDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	client, err := backend.NewClient(backend.Options{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Logger:  logger,
		Tracer:  tracer,
		Meter:   meter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create completion client: %w", err)
	}

	opts := chatbot.Options{
		Logger:     logger,
		Tracer:     tracer,
		Meter:      meter,
		Classifier: classify.New(cfg.APIKey),
	}
	if cfg.FailureDB != "" {
		journal, err := store.Open(cfg.FailureDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open failure journal: %w", err)
		}
		a.journal = journal
		a.closers = append(a.closers, func() {
			if err := journal.Close(); err != nil {
				logger.Error("failed to close failure journal", "error", err)
			}
		})
		opts.Journal = journal
	}

	bot, err := chatbot.NewChatBot(client, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chatbot: %w", err)
	}
	a.bot = bot
	a.closers = append(a.closers, func() { bot.Close() })

	ok = true
	return a, nil
}

func (a *app) console(in io.Reader, out io.Writer) *console.Console {
	if a.journal != nil {
		return console.New(a.bot, in, out, a.logger, a.journal)
	}
	return console.New(a.bot, in, out, a.logger, nil)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

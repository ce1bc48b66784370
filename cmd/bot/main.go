package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/olekszij/tmdb-quiz/internal/config"
	"github.com/olekszij/tmdb-quiz/internal/delivery/telegram"
	"github.com/olekszij/tmdb-quiz/internal/logger"
	"github.com/olekszij/tmdb-quiz/internal/repository"
	"github.com/olekszij/tmdb-quiz/internal/service"
	"github.com/olekszij/tmdb-quiz/internal/storage"
	"github.com/olekszij/tmdb-quiz/internal/tmdb"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("bot stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, lg *zap.Logger) error {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		return err
	}

	// Set commands.
	commands := []tgbotapi.BotCommand{
		{
			Command:     "start",
			Description: "Start the bot",
		},
		{
			Command:     "quiz",
			Description: "Start a new game",
		},
		{
			Command:     "score",
			Description: "Show score, streak and badges",
		},
		{
			Command:     "help",
			Description: "Help",
		},
	}

	if _, err := bot.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		lg.Warn("failed to set bot commands", zap.Error(err))
	}

	bot.Debug = cfg.Env != "production"
	lg.Info("authorized", zap.String("account", bot.Self.UserName))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := tmdb.NewClient(tmdb.Config{
		BaseURL:  cfg.TMDB.BaseURL,
		APIKey:   cfg.TMDB.APIKey,
		Language: cfg.TMDB.Language,
		Timeout:  cfg.TMDB.Timeout,
	})
	images, err := tmdb.NewImageURLs(cfg.TMDB.ImageBaseURL, cfg.TMDB.ImageHost)
	if err != nil {
		return err
	}

	catalog := service.NewCatalogService(client, lg.Named("catalog"))

	scheduler := cron.New(cron.WithLocation(time.UTC))

	var source service.CandidateSource
	switch cfg.Quiz.Source {
	case config.SourcePool:
		pool := repository.NewCandidatePool()
		refresher := service.NewPoolRefresher(
			pool,
			catalog,
			cfg.Quiz.MinYear,
			cfg.Quiz.MaxYear,
			cfg.Pool.Years,
			lg.Named("pool"),
		)
		refresher.Warm(ctx)
		if err := refresher.Register(ctx, scheduler, cfg.Pool.RefreshSchedule); err != nil {
			return err
		}
		source = service.NewPoolSource(pool, catalog)
	default:
		source = service.NewYearSource(catalog, cfg.Quiz.MinYear, cfg.Quiz.MaxYear)
	}

	builder := service.NewRoundBuilder(source, service.RoundBuilderConfig{
		MaxAttempts:            cfg.Quiz.MaxAttempts,
		MaxConsecutiveFailures: cfg.Quiz.MaxConsecutiveFailures,
		ParallelDraws:          cfg.Quiz.ParallelDraws,
	}, lg.Named("rounds"))

	quiz := service.NewQuizService(storage.NewSessionStorage(), builder, lg.Named("quiz"))
	if err := quiz.RegisterSweeper(scheduler, cfg.Session.SweepSchedule, cfg.Session.IdleTTL); err != nil {
		return err
	}

	scheduler.Start()
	defer func() {
		<-scheduler.Stop().Done()
		lg.Info("scheduler stopped")
	}()

	handler := telegram.NewHandler(bot, lg.Named("telegram"), quiz, images, cfg.Quiz.AutoAdvance)
	if err := handler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	bot.StopReceivingUpdates()
	lg.Info("shutdown signal received")
	return nil
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Railwatch/internal/alert"
	"github.com/Alias1177/Railwatch/internal/api/assistant"
	"github.com/Alias1177/Railwatch/internal/config"
	"github.com/Alias1177/Railwatch/internal/database"
	"github.com/Alias1177/Railwatch/internal/feed"
	"github.com/Alias1177/Railwatch/internal/monitor"
	"github.com/Alias1177/Railwatch/internal/notify"
	"github.com/Alias1177/Railwatch/internal/server"
	"github.com/Alias1177/Railwatch/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	lvl, _ := zerolog.ParseLevel(cfg.LogLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL; retry while the database comes up
	dbParams := database.ConnectionParams{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}

	var db *database.DB
	connect := func() error {
		var err error
		db, err = database.New(dbParams)
		return err
	}
	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = 60 * time.Second

	if err := backoff.Retry(connect, backoff.WithContext(backoffStrategy, ctx)); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Outward notification channel
	var notifier models.Notifier = notify.Disabled{}
	if cfg.TelegramBotToken != "" {
		tg, err := notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, log.Logger)
		if err != nil {
			log.Warn().Err(err).Msg("Telegram notifier unavailable, alerts stay local")
		} else {
			notifier = tg
		}
	}

	// Monitoring session: feed + alerter, scoped to this process lifetime
	f := feed.New(cfg.FeedMaxEntries)
	alerter := alert.New(notifier, time.Duration(cfg.AlertTTLSeconds)*time.Second, log.Logger)
	session := monitor.NewSession(f, alerter, log.Logger)

	if err := session.LoadInitial(ctx, db); err != nil {
		// non-fatal: the feed stays empty and fills from the live channel
		log.Warn().Err(err).Msg("unable to load anomalies")
	}

	sub, err := feed.Subscribe(dbParams.DSN(), cfg.ListenChannel, session.HandleInsert, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to subscribe to insert events")
	}
	defer sub.Close()

	// Admin dashboard API
	asker := assistant.NewClient(cfg.AssistantAPIURL, time.Duration(cfg.RequestTimeout)*time.Second)
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.New(f, alerter, asker, log.Logger).Handler(),
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("admin API listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("admin API server failed")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sub.Close()
	session.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("admin API shutdown failed")
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"pricewatch/config"
	"pricewatch/internal/alert"
	"pricewatch/internal/fetch"
	"pricewatch/internal/logger"
	"pricewatch/internal/monitor"
	"pricewatch/internal/notify"
	"pricewatch/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// Missing .env is fine, the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	st, err := store.Open(cfg.DatabasePath, log)
	if err != nil {
		return err
	}
	defer st.Close()

	fetcher := fetch.New(fetch.Options{
		MinDelay:   cfg.HostMinDelay,
		Timeout:    cfg.FetchTimeout,
		MaxRetries: cfg.MaxRetries,
		UserAgent:  cfg.UserAgent,
	}, fetch.NewRegistry(), log)

	notifier, err := buildNotifier(cfg, log)
	if err != nil {
		return err
	}
	if notifier == nil {
		log.Warn("no notification transport configured, alerts will only be logged")
	}

	mon := monitor.New(st, fetcher, alert.NewEngine(st, log), notifier, monitor.Options{
		Parallelism: cfg.Parallelism,
		Recipients:  cfg.Recipients,
		Currency:    cfg.Currency,
		Precision:   cfg.Precision,
	}, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runCycle := func() {
		if _, err := mon.CheckAll(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("check cycle aborted", zap.Error(err))
		}
	}

	// First cycle right away, then on the configured cadence.
	runCycle()

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", cfg.CheckInterval), runCycle); err != nil {
		return fmt.Errorf("scheduling checks: %w", err)
	}
	c.Start()
	log.Info("scheduler started", zap.Duration("interval", cfg.CheckInterval))

	<-ctx.Done()
	log.Info("shutting down")
	<-c.Stop().Done()
	return nil
}

func buildNotifier(cfg *config.Config, log *zap.Logger) (notify.Notifier, error) {
	switch {
	case cfg.SMTP.Host != "":
		return notify.NewEmailNotifier(cfg.SMTP, log), nil
	case cfg.Telegram.Token != "":
		return notify.NewTelegramNotifier(cfg.Telegram.Token, log)
	default:
		return nil, nil
	}
}

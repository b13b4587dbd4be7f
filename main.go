package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"burger-storefront/api"
	"burger-storefront/auth"
	"burger-storefront/bot"
	"burger-storefront/config"
	"burger-storefront/db"
	"burger-storefront/mail"
	"burger-storefront/services"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := newLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		err = runMigrate(ctx, cfg, log)
	} else {
		err = run(ctx, cfg, log)
	}
	stop()
	if err != nil {
		log.WithError(err).Error("exiting")
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	log := logrus.New()
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		log.WithField("level", cfg.Level).Warn("unknown LOG_LEVEL, using info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

func runMigrate(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	if err := db.Init(ctx, cfg.DB); err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer db.Close()
	return applyMigrations(ctx, log)
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	if err := db.Init(ctx, cfg.DB); err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer db.Close()

	// Set AUTO_MIGRATE=1 (or "true") to apply migrations on boot.
	if v := strings.TrimSpace(os.Getenv("AUTO_MIGRATE")); v == "1" || strings.EqualFold(v, "true") {
		if err := applyMigrations(ctx, log); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	deps := api.Deps{
		Store:    services.NewStore(db.Pool),
		Throttle: services.NopThrottle{},
		Log:      log,
	}

	if cfg.Redis.Addr != "" {
		rt := services.NewRedisThrottle(cfg.Redis.Addr, cfg.Redis.Username, cfg.Redis.Password, cfg.Redis.DB)
		defer rt.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rt.Ping(pingCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		deps.Throttle = rt
	} else {
		log.Warn("REDIS_ADDR not set, login throttling disabled")
	}

	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		n, err := bot.NewNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID, log)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		// Stopped only after the HTTP server has drained, so late orders still
		// reach the queue; Run flushes it before returning.
		notifyCtx, stopNotify := context.WithCancel(context.Background())
		notifierDone := make(chan struct{})
		go func() {
			defer close(notifierDone)
			n.Run(notifyCtx)
		}()
		defer func() {
			stopNotify()
			<-notifierDone
		}()
		deps.Notifier = n
	} else {
		log.Info("TELEGRAM_TOKEN/TELEGRAM_CHAT_ID not set, staff notifications disabled")
	}

	if cfg.Mail.Addr != "" {
		m, err := mail.NewSMTPMailer(cfg.Mail.Addr, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.From)
		if err != nil {
			return fmt.Errorf("smtp: %w", err)
		}
		deps.Mailer = m
	} else {
		log.Warn("SMTP_ADDR not set, recovery codes are only logged")
		deps.Mailer = mail.LogMailer{Log: log}
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		var err error
		if secret, err = auth.RandomSecret(); err != nil {
			return err
		}
		log.Warn("JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}
	deps.Tokens = auth.NewIssuer(secret, cfg.Auth.TokenTTL)

	srv := api.NewServer(deps, api.Options{
		DeliveryFee:    cfg.Delivery.Fee,
		PriceZone:      cfg.Delivery.PriceZone,
		PublicDir:      cfg.HTTP.PublicDir,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
	})
	httpSrv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.HTTP.Port).Info("server listening")
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := httpSrv.Shutdown(shutdownCtx)
	srv.Wait()
	return err
}

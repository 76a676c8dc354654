package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"stocks-finance/config"
	"stocks-finance/database"
	"stocks-finance/handlers"
	"stocks-finance/quote"
	"stocks-finance/repository"
	"stocks-finance/service"
	"stocks-finance/session"
	"stocks-finance/views"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting finance", slog.String("env", cfg.Env))

	if err := run(cfg, log); err != nil {
		log.Error("finance stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("finance stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx := context.Background()

	db, err := database.Open(cfg.Database, cfg.Env)
	if err != nil {
		return err
	}
	defer database.Close(db)

	var rdb *redis.Client
	if cfg.NeedsRedis() {
		rdb, err = database.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
	}

	var quotes quote.Provider = quote.NewAlphaVantage(cfg.Quote.APIKey, cfg.Quote.BaseURL, cfg.Quote.Timeout, log)
	if cfg.Quote.CacheTTL > 0 {
		quotes = quote.NewCached(quotes, rdb, cfg.Quote.CacheTTL, log)
	}

	store, cleanup, err := newSessionStore(cfg.Session, rdb)
	if err != nil {
		return err
	}
	defer cleanup()

	secret := []byte(cfg.Session.Secret)
	if len(secret) == 0 {
		log.Warn("SESSION_SECRET not set, sessions will not survive a restart")
		if secret, err = session.RandomSecret(); err != nil {
			return err
		}
	}
	sessions := session.NewManager(store, secret, cfg.Session.TTL, cfg.Session.CookieName, log)

	usersRepo := repository.NewUsersRepository(db)
	txRepo := repository.NewTransactionsRepository(db)

	authService := service.NewAuthService(usersRepo, cfg.Trading.StartingCash())
	tradingService := service.NewTradingService(db, usersRepo, txRepo, quotes, log)

	tmpl, err := views.Load()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}

	if cfg.Env != envLocal {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handlers.NewHandler(authService, tradingService, sessions, log)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      h.Router(tmpl),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case sig := <-stop:
		log.Info("shutting down", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// newSessionStore builds the configured session store. With no SESSION_DIR the
// filesystem store lives in a temporary directory that cleanup removes.
func newSessionStore(cfg config.SessionConfig, rdb *redis.Client) (session.Store, func(), error) {
	noop := func() {}

	if cfg.Store == config.SessionStoreRedis {
		return session.NewRedisStore(rdb), noop, nil
	}

	if cfg.Dir != "" {
		store, err := session.NewFileStore(cfg.Dir)
		return store, noop, err
	}

	dir, err := os.MkdirTemp("", "finance-sessions-")
	if err != nil {
		return nil, noop, fmt.Errorf("failed to create session dir: %w", err)
	}
	store, err := session.NewFileStore(dir)
	if err != nil {
		os.RemoveAll(dir)
		return nil, noop, err
	}
	return store, func() { os.RemoveAll(dir) }, nil
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

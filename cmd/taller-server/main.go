package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"tatutaller/backend/internal/config"
	"tatutaller/backend/internal/domain"
	"tatutaller/backend/internal/notify"
	"tatutaller/backend/internal/service/bookings"
	"tatutaller/backend/internal/store/postgres"
	httpTransport "tatutaller/backend/internal/transport/http"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "taller-server"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "taller-server"),
	)
	slog.SetDefault(log)

	addr := net.JoinHostPort(cfg.HTTPHost, strconv.Itoa(cfg.HTTPPort))
	log.Info("starting", slog.String("http_addr", addr), slog.String("log_level", cfg.LogLevel))

	if cfg.JWTSecret == "" {
		log.Error("TALLER_JWT_SECRET must be set")
		os.Exit(1)
	}

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		os.Exit(1)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	var pub notify.Publisher = notify.NewLogPublisher(log)
	if cfg.AMQPURL != "" {
		amqpPub, err := notify.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Error("amqp connection failed", slog.Any("err", err), slog.String("exchange", cfg.AMQPExchange))
			os.Exit(1)
		}
		defer func() {
			if err := amqpPub.Close(); err != nil {
				log.Warn("amqp close failed", slog.Any("err", err))
			}
		}()
		pub = amqpPub
		log.Info("amqp publisher ready", slog.String("exchange", cfg.AMQPExchange))
	} else {
		log.Warn("no amqp url configured; notification intents will only be logged")
	}

	recurrenceMode, err := domain.ParseRecurrenceMode(cfg.RecurrenceMode)
	if err != nil {
		log.Error("invalid recurrence mode", slog.Any("err", err), slog.String("mode", cfg.RecurrenceMode))
		os.Exit(1)
	}

	bookingRepo := postgres.NewBookingRepo(db)
	catalogRepo := postgres.NewCatalogRepo(db)
	userRepo := postgres.NewUserRepo(db)

	svc := bookings.NewService(bookingRepo, catalogRepo, userRepo, pub, bookings.Config{
		SlotWidth:       cfg.SlotWidth,
		SlotStride:      cfg.SlotStride,
		RecurrenceMode:  recurrenceMode,
		RecurrenceCount: cfg.RecurrenceCount,
	}, log)

	router := httpTransport.NewRouter(
		httpTransport.RouterConfig{JWTSecret: []byte(cfg.JWTSecret)},
		httpTransport.NewBookingsHandler(svc, log),
		httpTransport.NewCatalogHandler(catalogRepo, log),
		log,
	)

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Info("http server started", slog.String("http_addr", addr))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http graceful shutdown failed; forcing close", slog.Any("err", err))
			_ = srv.Close()
		} else {
			log.Info("http server stopped")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped with error", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}

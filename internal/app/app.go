package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/brainkit/brainkit-backend/internal/adapter/postgres"
	"github.com/brainkit/brainkit-backend/internal/adapter/postgres/deck"
	"github.com/brainkit/brainkit-backend/internal/adapter/postgres/flashcard"
	"github.com/brainkit/brainkit-backend/internal/adapter/postgres/review"
	"github.com/brainkit/brainkit-backend/internal/adapter/postgres/session"
	"github.com/brainkit/brainkit-backend/internal/auth"
	"github.com/brainkit/brainkit-backend/internal/config"
	"github.com/brainkit/brainkit-backend/internal/service/study"
	"github.com/brainkit/brainkit-backend/internal/service/study/sm2"
	"github.com/brainkit/brainkit-backend/internal/transport/middleware"
	"github.com/brainkit/brainkit-backend/internal/transport/rest"
)

// Run wires the application together and serves HTTP until ctx is cancelled,
// then shuts down gracefully within the configured timeout.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	decks := deck.New(pool)
	cards := flashcard.New(pool)
	sessions := session.New(pool)
	reviews := review.New(pool)
	txManager := postgres.NewTxManager(pool)

	studySvc, err := study.NewService(
		logger,
		decks,
		cards,
		sessions,
		reviews,
		txManager,
		clockwork.NewRealClock(),
		sm2.Params{
			DefaultEaseFactor:      cfg.SRS.DefaultEaseFactor,
			MinEaseFactor:          cfg.SRS.MinEaseFactor,
			LapsePenalty:           cfg.SRS.LapsePenalty,
			EasyBonus:              cfg.SRS.EasyBonus,
			EasyIntervalMultiplier: cfg.SRS.EasyIntervalMultiplier,
			FirstIntervalDays:      cfg.SRS.FirstIntervalDays,
			SecondIntervalDays:     cfg.SRS.SecondIntervalDays,
			MaxIntervalDays:        cfg.SRS.MaxIntervalDays,
		},
		cfg.SRS.SessionCardLimit,
	)
	if err != nil {
		return fmt.Errorf("create study service: %w", err)
	}

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)

	mws := []middleware.Middleware{
		middleware.RequestID,
		middleware.Recovery(logger),
		middleware.Logger(logger),
		middleware.CORS(cfg.CORS),
	}
	if cfg.Server.RateLimitPerMinute > 0 {
		limiter := middleware.NewRateLimiter(time.Minute)
		defer limiter.Stop()
		mws = append(mws, limiter.Limit(cfg.Server.RateLimitPerMinute))
	}
	mws = append(mws, middleware.Auth(jwtManager))

	router := rest.NewRouter(rest.RouterDeps{
		Study:      rest.NewStudyHandler(studySvc, logger),
		Health:     rest.NewHealthHandler(pool, BuildVersion()),
		Middleware: mws,
	})

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}

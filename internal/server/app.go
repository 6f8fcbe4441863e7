// Package server wires the adapters, the auth service and the HTTP
// transport together and runs them until the process is signalled.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"github.com/universitydao/walletauth/adapters/connections"
	"github.com/universitydao/walletauth/adapters/ethsig"
	"github.com/universitydao/walletauth/adapters/events"
	"github.com/universitydao/walletauth/adapters/store"
	"github.com/universitydao/walletauth/adapters/tokenizer"
	"github.com/universitydao/walletauth/internal/config"
	"github.com/universitydao/walletauth/internal/logging"
	"github.com/universitydao/walletauth/ports"
	"github.com/universitydao/walletauth/service"
	transporthttp "github.com/universitydao/walletauth/transport/http"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	server  *http.Server
	closers []func() error
}

// NewApp validates the configuration and builds every dependency. It
// refuses to start without a signing secret.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	sl := logging.NewJSON(os.Stdout, c.LogLevel)
	logger := logging.NewSlogLogger(sl)
	app := &App{config: c, logger: logger}

	tk, err := tokenizer.NewJWTTokenizer([]byte(c.JWTSecret),
		tokenizer.WithIssuer(c.JWTIssuer),
		tokenizer.WithAudience(c.JWTAudience),
	)
	if err != nil {
		return nil, err
	}

	nonces, publisher, err := app.initRedis(ctx, sl)
	if err != nil {
		app.Close()
		return nil, err
	}

	repo, err := app.initDatabase(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	authService := service.NewAuthService(
		nonces,
		ethsig.NewPersonalSignVerifier(),
		tk,
		repo,
		events.NewWatermillPublisher(publisher),
		logger,
		service.WithAppName(c.AppName),
		service.WithNonceTTL(c.NonceTTL),
	)

	router := transporthttp.SetupRouter(authService)
	app.server = &http.Server{
		Addr:              c.HTTPAddr,
		Handler:           transporthttp.WithCORS(router, c.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return app, nil
}

// initRedis selects the nonce store and event publisher. Without REDIS_URL
// both stay in process.
func (app *App) initRedis(ctx context.Context, sl *slog.Logger) (ports.NonceStore, message.Publisher, error) {
	wmLogger := watermill.NewSlogLogger(sl)

	if app.config.RedisURL == "" {
		app.logger.Warn(ctx, "REDIS_URL not set, using in-memory nonce store and event bus")
		pubSub := gochannel.NewGoChannel(gochannel.Config{}, wmLogger)
		app.closers = append(app.closers, pubSub.Close)
		return store.NewMemoryNonceStore(), pubSub, nil
	}

	opts, err := redis.ParseURL(app.config.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisClient := redis.NewClient(opts)
	app.closers = append(app.closers, redisClient.Close)

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: redisClient,
		},
		wmLogger,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Redis publisher: %w", err)
	}
	app.closers = append(app.closers, publisher.Close)

	return store.NewRedisNonceStore(redisClient), publisher, nil
}

func (app *App) initDatabase(ctx context.Context) (ports.ConnectionRepository, error) {
	if app.config.DatabaseURL == "" {
		app.logger.Warn(ctx, "DATABASE_URL not set, wallet connections are kept in memory")
		return connections.NewMemoryRepository(), nil
	}

	db, err := connections.Open(ctx, app.config.DatabaseURL)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, db.Close)

	if err := connections.Migrate(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return connections.NewPostgresRepository(db), nil
}

// Run serves HTTP until ctx is cancelled or SIGINT/SIGTERM arrives
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()
	defer app.Close()

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting server", "addr", app.server.Addr)
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	app.logger.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return app.server.Shutdown(shutdownCtx)
}

// Close releases every opened resource, newest first
func (app *App) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
	app.closers = nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/library-system/internal/api"
	"github.com/99minutos/library-system/internal/api/handler"
	"github.com/99minutos/library-system/internal/core/policy"
	"github.com/99minutos/library-system/internal/core/ports"
	"github.com/99minutos/library-system/internal/core/service"
	"github.com/99minutos/library-system/internal/infrastructure/db/memory"
	mongostore "github.com/99minutos/library-system/internal/infrastructure/db/mongo"
	pgstore "github.com/99minutos/library-system/internal/infrastructure/db/postgres"
	redisstore "github.com/99minutos/library-system/internal/infrastructure/db/redis"
	"github.com/99minutos/library-system/internal/infrastructure/queue"
	"github.com/99minutos/library-system/internal/pkg/config"
	"github.com/99minutos/library-system/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "library-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("fatal error")
		os.Exit(1)
	}
}

// stores groups the repositories of the selected driver.
type stores struct {
	users     ports.UserRepository
	books     ports.BookRepository
	purchases ports.PurchaseRepository
	ping      handler.PingFunc
	close     func(context.Context)
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// Token misconfiguration is fatal at startup, never a per-request error.
	tokens, err := service.NewTokenService(service.TokenConfig{
		SigningKey: []byte(cfg.JWT.Secret),
		Issuer:     cfg.JWT.Issuer,
		Audience:   cfg.JWT.Audience,
		TTL:        cfg.JWT.Expiry,
	})
	if err != nil {
		return err
	}

	purchaseRule, err := policy.PurchaseRule(cfg.Purchase.Policy)
	if err != nil {
		return err
	}
	if cfg.Purchase.Policy == policy.PurchasePolicyLegacy {
		log.Warn().Str("rule", purchaseRule.String()).Msg("legacy purchase policy requires User and IsSuperAdmin together; no account can purchase")
	}

	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close(context.Background())

	health := map[string]handler.PingFunc{"store": st.ping}

	var idempotency service.IdempotencyStore
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		idempotency = redisstore.NewIdempotencyStore(rdb)
		health["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info().Str("addr", cfg.Redis.Addr).Msg("purchase idempotency enabled")
	}

	authService := service.NewAuthService(st.users, tokens, log)
	if cfg.SuperAdmin.Username != "" {
		if _, err := authService.EnsureSuperAdmin(ctx, cfg.SuperAdmin.Username, cfg.SuperAdmin.Password); err != nil {
			return err
		}
	}

	purchases := service.NewPurchaseService(st.purchases, idempotency, log)
	if cfg.Purchase.Workers > 0 {
		// Workers outlive the signal context so in-flight requests drain during Shutdown.
		workersCtx, stopWorkers := context.WithCancel(context.Background())
		defer stopWorkers()
		dispatcher := queue.NewDispatcher(cfg.Purchase.Workers, purchases, log)
		dispatcher.Start(workersCtx)
		purchases = dispatcher
		log.Info().Int("workers", cfg.Purchase.Workers).Msg("purchase dispatcher started")
	}

	e := api.NewRouter(api.Dependencies{
		Auth:         authService,
		Books:        service.NewBookService(st.books, log),
		Purchases:    purchases,
		Tokens:       tokens,
		PurchaseRule: purchaseRule,
		Health:       health,
		Logger:       log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("store", cfg.Store.Driver).
			Str("purchase_rule", purchaseRule.String()).
			Msg("library api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongo store ready")
		return &stores{
			users:     mongostore.NewUserRepository(db),
			books:     mongostore.NewBookRepository(db),
			purchases: mongostore.NewPurchaseRepository(db),
			ping:      func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:     func(ctx context.Context) { _ = client.Disconnect(ctx) },
		}, nil

	case config.DriverPostgres:
		pool, err := pgstore.Connect(ctx, pgstore.Config{DSN: cfg.Postgres.DSN, MaxConns: cfg.Postgres.MaxConns})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("postgres store ready")
		return &stores{
			users:     pgstore.NewUserRepository(pool),
			books:     pgstore.NewBookRepository(pool),
			purchases: pgstore.NewPurchaseRepository(pool),
			ping:      pool.Ping,
			close:     func(context.Context) { pool.Close() },
		}, nil

	case config.DriverMemory:
		store := memory.New()
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return &stores{
			users:     store.Users(),
			books:     store.Books(),
			purchases: store.Purchases(),
			ping:      store.Ping,
			close:     func(context.Context) {},
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

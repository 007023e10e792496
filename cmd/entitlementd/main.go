package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/rentora/entitlements/modules/api"
	"github.com/rentora/entitlements/pkg/billing"
	"github.com/rentora/entitlements/pkg/catalog"
	"github.com/rentora/entitlements/pkg/config"
	"github.com/rentora/entitlements/pkg/entitlement"
	"github.com/rentora/entitlements/pkg/httpserver"
	"github.com/rentora/entitlements/pkg/logger"
	"github.com/rentora/entitlements/pkg/pg"
	"github.com/rentora/entitlements/pkg/redis"
)

type appConfig struct {
	AppEnv   string `env:"APP_ENV" envDefault:"production"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"30s"`

	// Billing is optional so the service can run read-only in environments
	// without Paddle credentials.
	BillingEnabled bool `env:"BILLING_ENABLED" envDefault:"false"`
}

func main() {
	ctx := context.Background()

	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithFormat(logger.Format(cfg.LogFormat)),
		logger.WithService("entitlementd", cfg.AppEnv),
	)
	slog.SetDefault(log)

	if err := run(ctx, cfg, log); err != nil {
		log.ErrorContext(ctx, "service exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appConfig, log *slog.Logger) error {
	var pgCfg pg.Config
	config.MustLoad(&pgCfg)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}
	log.InfoContext(ctx, "database ready")

	var redisCfg redis.Config
	config.MustLoad(&redisCfg)

	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	storage := catalog.NewCachedStorage(
		catalog.NewPostgresStorage(pool),
		catalog.NewRedisKV(redisClient),
		cfg.CatalogCacheTTL,
	)
	catalogSvc := catalog.NewService(storage)

	subs := entitlement.NewPostgresSubscriptionStore(pool)
	resolver := entitlement.NewResolver(storage, storage, subs,
		entitlement.WithPropertyCounter(entitlement.NewPostgresPropertyCounter(pool)),
	)

	var billingSvc *billing.Service
	if cfg.BillingEnabled {
		var paddleCfg billing.PaddleConfig
		config.MustLoad(&paddleCfg)

		provider, err := billing.NewPaddleProvider(paddleCfg)
		if err != nil {
			return err
		}
		billingSvc = billing.NewService(provider, subs, storage, log)
		log.InfoContext(ctx, "billing enabled", slog.String("environment", paddleCfg.Environment))
	}

	router := api.NewRouter(api.Deps{
		Catalog:  catalogSvc,
		Resolver: resolver,
		Billing:  billingSvc,
		Log:      log,
		Readiness: []func(context.Context) error{
			pg.Healthcheck(pool),
			redis.Healthcheck(redisClient),
		},
	})

	srv := httpserver.New(
		httpserver.WithAddr(cfg.HTTPAddr),
		httpserver.WithReadTimeout(10*time.Second),
		httpserver.WithWriteTimeout(30*time.Second),
		httpserver.WithShutdownTimeout(10*time.Second),
		httpserver.WithLogger(log),
	)
	return srv.Run(ctx, router)
}

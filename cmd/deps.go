package cmd

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/jmehdipour/billing-sync/internal/billing"
	"github.com/jmehdipour/billing-sync/internal/config"
	"github.com/jmehdipour/billing-sync/internal/db"
	"github.com/jmehdipour/billing-sync/internal/logger"
)

func poolOpts(c config.DatabaseConfig) db.PoolOpts {
	return db.PoolOpts{
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
		ConnMaxIdleTime: c.ConnMaxIdleTime,
		PingTimeout:     c.PingTimeout,
	}
}

func redisOpts(c config.RedisConfig) db.RedisOpts {
	return db.RedisOpts{
		Addr:        c.Addr,
		Password:    c.Password,
		DB:          c.DB,
		PoolSize:    c.PoolSize,
		DialTimeout: c.DialTimeout,
		ReadTimeout: c.ReadTimeout,
	}
}

// bootstrap loads config, builds the logger and opens the primary store.
func bootstrap() (config.Config, *zap.Logger, *sqlx.DB, db.Dialect, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return cfg, nil, nil, "", fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return cfg, nil, nil, "", fmt.Errorf("logger: %w", err)
	}

	dialect, err := db.ParseDialect(cfg.Database.Driver)
	if err != nil {
		return cfg, log, nil, "", err
	}
	conn, err := db.NewConnection(dialect, cfg.Database.DSN, poolOpts(cfg.Database))
	if err != nil {
		return cfg, log, nil, "", fmt.Errorf("%s connect: %w", dialect, err)
	}
	return cfg, log, conn, dialect, nil
}

func newBillingClient(cfg config.Config, log *zap.Logger) (*billing.StripeClient, error) {
	if cfg.Stripe.SecretKey == "" {
		return nil, fmt.Errorf("stripe.secret_key is not set")
	}
	return billing.NewStripeClient(billing.StripeOpts{
		SecretKey:     cfg.Stripe.SecretKey,
		Timeout:       time.Duration(cfg.Stripe.TimeoutMs) * time.Millisecond,
		FailThreshold: cfg.Stripe.Breaker.FailThreshold,
		OpenFor:       time.Duration(cfg.Stripe.Breaker.OpenForMs) * time.Millisecond,
	}, log), nil
}

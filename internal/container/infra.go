package container

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/podpulse/internal/store"
	"go.uber.org/zap"
)

// LoggerPackage provides the application logger.
func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		if options(i).LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// redisClient closes the connection pool on injector shutdown.
type redisClient struct {
	redis.UniversalClient
}

func (c redisClient) Shutdown() error {
	return c.Close()
}

// RedisPackage provides the shared Redis client.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (redis.UniversalClient, error) {
		opts := options(i)
		client := redis.NewClient(&redis.Options{
			Addr:         opts.RedisAddr,
			ReadTimeout:  opts.Timeout(),
			WriteTimeout: opts.Timeout(),
		})

		return redisClient{UniversalClient: client}, nil
	})
}

// Postgres owns the pool and closes it on injector shutdown.
type Postgres struct {
	Pool *pgxpool.Pool
}

func (p *Postgres) Shutdown() error {
	p.Pool.Close()

	return nil
}

// PostgresPackage provides a migrated connection pool.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Postgres, error) {
		opts := options(i)
		logger := do.MustInvoke[*zap.Logger](i)

		ctx, cancel := context.WithTimeout(context.Background(), 4*opts.Timeout())
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		if err := store.Migrate(ctx, pool); err != nil {
			pool.Close()

			return nil, err
		}

		logger.Info("postgres ready")

		return &Postgres{Pool: pool}, nil
	})
}

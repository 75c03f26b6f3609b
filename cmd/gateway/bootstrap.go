// cmd/gateway/bootstrap.go
package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"marketplace-gateway/internal/common/config"
	"marketplace-gateway/internal/common/database"
	"marketplace-gateway/internal/common/logger"
)

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func newLogger(cfg *config.Config) *zap.Logger {
	return logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (*database.RedisClient, error) {
	var rdb *database.RedisClient
	err := retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, log, "Redis connection")
	if err != nil {
		if rdb != nil {
			rdb.Close()
		}
		return nil, err
	}
	log.Info("Redis connected successfully")
	return rdb, nil
}

func connectPostgres(ctx context.Context, cfg config.PostgresConfig, log *zap.Logger) (*database.PostgresClient, error) {
	var pg *database.PostgresClient
	err := retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		if pg != nil {
			pg.Close()
		}
		return nil, err
	}
	log.Info("PostgreSQL connected successfully")
	return pg, nil
}

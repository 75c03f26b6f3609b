package server

import (
	"context"

	"marketplace-gateway/internal/common/database"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// RedisHealthService verifies the session and draft store.
type RedisHealthService struct {
	Client *database.RedisClient
}

func (s RedisHealthService) Probe(ctx context.Context) error {
	if s.Client == nil {
		return nil
	}
	return s.Client.Ping(ctx)
}

// PostgresHealthService verifies the submission ledger database.
type PostgresHealthService struct {
	Client *database.PostgresClient
}

func (s PostgresHealthService) Probe(ctx context.Context) error {
	if s.Client == nil {
		return nil
	}
	return s.Client.Ping(ctx)
}

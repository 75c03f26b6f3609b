// cmd/gateway/serve.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"marketplace-gateway/internal/cart"
	"marketplace-gateway/internal/common/auth"
	"marketplace-gateway/internal/common/aws"
	"marketplace-gateway/internal/common/config"
	"marketplace-gateway/internal/common/database"
	gwerrors "marketplace-gateway/internal/common/errors"
	"marketplace-gateway/internal/common/logger"
	"marketplace-gateway/internal/common/observability"
	"marketplace-gateway/internal/flows"
	"marketplace-gateway/internal/form"
	"marketplace-gateway/internal/registration"
	"marketplace-gateway/internal/server"
	"marketplace-gateway/internal/session"
	"marketplace-gateway/internal/upstream"
	"marketplace-gateway/pkg/registry"
)

const (
	roleCacheTTL  = 5 * time.Minute
	sweepInterval = time.Minute
	shutdownGrace = 15 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP gateway",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	zapLog := newLogger(cfg)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting marketplace gateway...",
		zap.String("environment", cfg.App.Environment),
		zap.String("upstream", cfg.Upstream.BaseURL),
	)

	ctx := cmd.Context()

	obs := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint, log)
	defer obs.Shutdown(context.Background())

	// --- Init Redis with retry; without it sessions and drafts stay in memory ---
	var rdb *database.RedisClient
	if cfg.Database.Redis.Address != "" {
		rdb, err = connectRedis(ctx, cfg.Database.Redis, zapLog)
		if err != nil {
			return err
		}
		defer rdb.Close()
	} else {
		zapLog.Warn("no redis configured, using in-memory sessions; drafts, cart and shared gate disabled")
	}

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	if cfg.Database.Postgres.Enabled {
		pg, err = connectPostgres(ctx, cfg.Database.Postgres, zapLog)
		if err != nil {
			return err
		}
		defer pg.Close()
	}

	reg, err := registry.Load(cfg.Routes.RegistryPath)
	if err != nil {
		return err
	}

	errHandler := gwerrors.NewErrorHandler(log, cfg.App.IsDevelopment())
	api := upstream.NewClient(cfg.Upstream.BaseURL, config.GetDuration(cfg.Upstream.Timeout), log)

	var store session.Store = session.NewMemoryStore()
	if rdb != nil {
		store = session.NewRedisStore(rdb.Client, config.GetDuration(cfg.Session.TTL))
	}
	sessions := session.NewManager(store, cfg.Session, log)

	instances := form.NewInstances(
		config.GetDuration(cfg.Forms.ResetDelay),
		config.GetDuration(cfg.Forms.InstanceIdle),
		log,
	)
	defer instances.Close()

	coordOpts := []form.CoordinatorOption{
		form.WithObservability(obs),
		form.WithDetails(cfg.App.IsDevelopment()),
		form.WithLoginPath(cfg.Routes.SafeDefault),
	}
	if rdb != nil && cfg.Forms.Gate == "redis" {
		coordOpts = append(coordOpts, form.WithGate(form.NewRedisGate(rdb.Client, log)))
	}
	if pg != nil {
		coordOpts = append(coordOpts, form.WithLedger(form.NewLedger(pg.DB)))
	}

	resolver := auth.NewRoleResolver(api, nil, roleCacheTTL, log)
	if rdb != nil {
		resolver = auth.NewRoleResolver(api, rdb.Client, roleCacheTTL, log)
	}

	flowDeps := flows.Dependencies{
		Coordinator:    form.NewCoordinator(api, log, coordOpts...),
		Instances:      instances,
		Sessions:       sessions,
		Errors:         errHandler,
		Logger:         log,
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
		LoginPath:      cfg.Routes.SafeDefault,
		Roles:          resolver,
	}
	if rdb != nil {
		flowDeps.Drafts = form.NewDraftRepository(rdb.Client, config.GetDuration(cfg.Forms.DraftTTL))
	}

	builtDeps := server.FlowDependencies{Sessions: sessions, Instances: instances}
	if cfg.Notifications.SNS.Enabled || cfg.Notifications.SES.Enabled {
		notifier, err := aws.NewNotifier(ctx, cfg.Notifications, log)
		if err != nil {
			return err
		}
		builtDeps.Notifier = notifier
	}
	formFlows, err := server.BuildFlows(cfg, builtDeps)
	if err != nil {
		return err
	}

	routerDeps := server.RouterDependencies{
		Sessions:         sessions,
		Errors:           errHandler,
		Flows:            formFlows,
		FlowHandler:      flows.NewHandler(flowDeps),
		Registry:         reg,
		Health:           map[string]server.HealthService{},
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		AllowCredentials: cfg.HTTP.AllowCredentials,
	}
	if rdb != nil {
		routerDeps.Health["redis"] = server.RedisHealthService{Client: rdb}
		routerDeps.Cart = server.NewCartHandlers(
			cart.NewService(api, rdb.Client, config.GetDuration(cfg.Session.TTL), log),
			sessions, errHandler,
		)
	}
	if pg != nil {
		routerDeps.Health["postgres"] = server.PostgresHealthService{Client: pg}
	}

	routerDeps.Screens = server.NewScreens(server.ScreensConfig{
		API:         api,
		Sessions:    sessions,
		Roles:       resolver,
		Poller:      registration.NewApprovalPoller(api, log),
		Errors:      errHandler,
		Logger:      log,
		LoginPath:   cfg.Routes.SafeDefault,
		SafeDefault: cfg.Routes.SafeDefault,
	})

	handler, err := server.NewRouter(log, routerDeps)
	if err != nil {
		return err
	}
	srv := server.New(log, cfg.HTTP, handler)

	zapLog.Info("gateway ready",
		zap.Int("flows", len(formFlows)),
		zap.Int("screens", len(reg.Screens)),
		zap.String("addr", cfg.HTTP.Addr()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		return instances.Run(gctx, sweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("Shutdown signal received, stopping gateway...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	zapLog.Info("gateway stopped")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/persistorai/auditdesk/internal/api"
	"github.com/persistorai/auditdesk/internal/config"
	"github.com/persistorai/auditdesk/internal/db"
	"github.com/persistorai/auditdesk/internal/db/migrations"
	"github.com/persistorai/auditdesk/internal/dbpool"
	"github.com/persistorai/auditdesk/internal/identity"
	"github.com/persistorai/auditdesk/internal/metrics"
	"github.com/persistorai/auditdesk/internal/security"
	"github.com/persistorai/auditdesk/internal/service"
	"github.com/persistorai/auditdesk/internal/store"
	"github.com/persistorai/auditdesk/internal/telemetry"
	"github.com/persistorai/auditdesk/internal/ws"
)

const (
	shutdownTimeout   = 15 * time.Second
	poolStatsInterval = 15 * time.Second
	activityQueueSize = 1000
)

func newServeCmd() *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, !skipMigrate)
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not apply pending migrations on start")

	return cmd
}

// tokenDenylist picks the redis denylist when REDIS_URL is set. The returned
// pinger is nil for the in-memory list.
func tokenDenylist(ctx context.Context, cfg *config.Config, log *logrus.Logger) (identity.Denylist, api.Pinger, func(), error) {
	if cfg.RedisURL.Value() == "" {
		log.Info("no REDIS_URL set, revoked tokens are tracked in memory")
		return identity.NewMemoryDenylist(), nil, func() {}, nil
	}

	rdb, err := identity.NewRedisClient(ctx, cfg.RedisURL.Value())
	if err != nil {
		return nil, nil, nil, err
	}

	dl := identity.NewRedisDenylist(rdb)

	return dl, dl, func() { _ = rdb.Close() }, nil
}

//nolint:funlen // Startup wiring is sequential; splitting would scatter it.
func serve(ctx context.Context, migrate bool) error {
	cfg, log, pool, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	log.WithField("version", version).Info("starting auditdesk")

	shutdownTracing, err := telemetry.Setup(ctx, cfg, log)
	if err != nil {
		return err
	}

	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := shutdownTracing(tctx); err != nil {
			log.WithError(err).Warn("tracing shutdown failed")
		}
	}()

	if migrate {
		if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
			return err
		}
	}

	denylist, redisPinger, closeRedis, err := tokenDenylist(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeRedis()

	issuer, err := identity.NewIssuer(cfg.JWTSecret.Value(), cfg.TokenTTL)
	if err != nil {
		return err
	}

	base := store.Base{Pool: pool, Log: log}
	activityStore := store.NewActivityStore(base)
	findingStore := store.NewFindingStore(base)

	worker := service.NewActivityWorker(activityStore, log, activityQueueSize)

	activity := service.NewActivityService(activityStore, log)

	retention, err := service.NewRetentionScheduler(activity, log, cfg.PurgeSchedule, cfg.RetentionDays)
	if err != nil {
		return err
	}

	hub := ws.NewHub(log)

	g, gctx := errgroup.WithContext(ctx)

	router := api.NewRouter(gctx, &api.RouterDeps{
		Log:             log,
		Pool:            pool,
		Redis:           redisPinger,
		Hub:             hub,
		Entities:        service.NewEntityService(store.NewEntityStore(base), worker, log),
		Plans:           service.NewPlanService(store.NewPlanStore(base), worker, log),
		Audits:          service.NewAuditService(store.NewAuditStore(base), worker, log),
		Findings:        service.NewFindingService(findingStore, worker, log),
		Recommendations: service.NewRecommendationService(findingStore, worker, log),
		Auth: service.NewAuthService(
			store.NewUserStore(base),
			identity.NewProvider(issuer, denylist),
			security.NewLoginGuard(gctx, log),
			worker,
			log,
		),
		Dashboard:      service.NewDashboardService(store.NewDashboardStore(base)),
		Activity:       activity,
		CORSOrigins:    cfg.CORSOrigins,
		TrustedProxies: cfg.TrustedProxies,
		ServiceName:    cfg.ServiceName,
		Tracing:        cfg.TracingEnabled(),
		Version:        version,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})

	g.Go(func() error {
		retention.Run(gctx)
		return nil
	})

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		reportPoolStats(gctx, pool)
		return nil
	})

	if err := db.NewNotifyBridge(log, pool, hub).Start(gctx); err != nil {
		log.WithError(err).Warn("session notifications disabled")
	}

	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		hub.Shutdown()

		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return srv.Shutdown(sctx)
	})

	return g.Wait()
}

// reportPoolStats samples connection pool usage until ctx is cancelled.
func reportPoolStats(ctx context.Context, pool *dbpool.Pool) {
	ticker := time.NewTicker(poolStatsInterval)
	defer ticker.Stop()

	for {
		total, idle, maxConns := pool.Stats()
		metrics.DBConnections.WithLabelValues("total").Set(float64(total))
		metrics.DBConnections.WithLabelValues("idle").Set(float64(idle))
		metrics.DBConnections.WithLabelValues("max").Set(float64(maxConns))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

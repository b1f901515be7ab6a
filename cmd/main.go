package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/outofforest/logger"
	"github.com/outofforest/parallel"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eaglebank/account-registry/internal/audit"
	"github.com/eaglebank/account-registry/internal/command"
	"github.com/eaglebank/account-registry/internal/config"
	"github.com/eaglebank/account-registry/internal/handler"
	"github.com/eaglebank/account-registry/internal/query"
	"github.com/eaglebank/account-registry/internal/repository"
	"github.com/eaglebank/account-registry/shared/events"
	"github.com/eaglebank/account-registry/shared/middleware"
	"github.com/eaglebank/account-registry/shared/models"
	redisClient "github.com/eaglebank/account-registry/shared/redis"
)

func main() {
	log := logger.New(logger.DefaultConfig)
	ctx, cancel := signal.NotifyContext(logger.WithLogger(context.Background(), log), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := config.NewConfig()
	if err := cfg.LoadEnv(); err != nil {
		log.Error("Invalid configuration", zap.Error(err))
		os.Exit(1)
	}

	if err := newRootCommand(cfg).ExecuteContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Account registry failed", zap.Error(err))
		os.Exit(1)
	}
}

func newRootCommand(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "account-registry",
		Short:         "Account record registry service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.Database.Driver, "db-driver", cfg.Database.Driver, "database driver: postgres, pgx or sqlite")
	flags.StringVar(&cfg.Database.URL, "db-url", cfg.Database.URL, "database connection string or sqlite file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the account HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cfg)
		},
	}
	serveFlags := serve.Flags()
	serveFlags.IntVar(&cfg.Server.Port, "port", cfg.Server.Port, "API port")
	serveFlags.IntVar(&cfg.Server.MetricsPort, "metrics-port", cfg.Server.MetricsPort, "metrics port")
	serveFlags.StringVar(&cfg.Redis.Addr, "redis-addr", cfg.Redis.Addr, "redis address, empty disables cache and events")
	serveFlags.Int64SliceVar(&cfg.Accounts.RestrictedIDs, "restricted-ids", cfg.Accounts.RestrictedIDs,
		"account ids that can never be updated or deleted")
	serveFlags.Int64Var(&cfg.Accounts.IDSeed, "id-seed", cfg.Accounts.IDSeed, "highest id assumed while no account exists")

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Create the account schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context(), cfg)
		},
	}

	root.AddCommand(serve, migrate)
	return root
}

func runMigrate(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	db, dialect, err := repository.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.EnsureSchema(ctx, db, dialect); err != nil {
		return err
	}
	logger.Get(ctx).Info("Schema ready", zap.String("driver", dialect.Driver()))
	return nil
}

func runServe(ctx context.Context, cfg *config.Config) error {
	log := logger.Get(ctx)
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Database connection (write and read store)
	db, dialect, err := repository.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := repository.EnsureSchema(ctx, db, dialect); err != nil {
		return err
	}

	// Redis connection (view cache + event streaming), optional
	var (
		redis     *redisClient.Client
		cache     repository.ViewCache
		publisher command.EventPublisher = events.Discard{}
	)
	if cfg.Redis.Addr != "" {
		redis, err = redisClient.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer redis.Close()

		cache = redisClient.NewViewCache[models.AccountView](redis.Client, repository.AccountViewKeyPrefix, cfg.Redis.ViewTTL)
		publisher = events.NewPublisher(redis.Client)
	} else {
		log.Info("Redis not configured, view cache and events disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// --- CQRS wiring ---
	writeRepo := repository.NewAccountWriteRepository(db, dialect)
	readRepo := repository.NewAccountReadRepository(db, dialect, cache)

	commandSvc := command.NewAccountCommandService(writeRepo, readRepo, publisher, command.Config{
		RestrictedIDs: command.NewRestrictedIDs(cfg.Accounts.RestrictedIDs...),
		IDSeed:        cfg.Accounts.IDSeed,
	})
	querySvc := query.NewAccountQueryService(readRepo)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware(log), middleware.MetricsMiddleware(registry))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	handler.NewAccountHandler(commandSvc, querySvc).RegisterRoutes(router)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	apiServer := newServer(cfg.Server.BindAddress, cfg.Server.Port, router)
	metricsServer := newServer(cfg.Server.BindAddress, cfg.Server.MetricsPort, metricsMux)

	return parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
		spawn("api", parallel.Fail, func(ctx context.Context) error {
			log.Info("Account registry starting", zap.String("addr", apiServer.Addr))
			return serveHTTP(ctx, apiServer, cfg.Server.ShutdownTimeout)
		})
		spawn("metrics", parallel.Fail, func(ctx context.Context) error {
			return serveHTTP(ctx, metricsServer, cfg.Server.ShutdownTimeout)
		})
		if redis != nil {
			recorder := audit.NewRecorder(registry)
			subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
				Group:    cfg.Redis.ConsumerGroup,
				Consumer: cfg.Redis.ConsumerName,
				Stream:   events.AccountEventsStream,
				Handler:  recorder.Handle,
			})
			spawn("audit", parallel.Fail, subscriber.Run)
		}
		return nil
	})
}

func newServer(bindAddress string, port int, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              net.JoinHostPort(bindAddress, strconv.Itoa(port)),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// serveHTTP runs server until ctx is cancelled, then drains it within timeout.
func serveHTTP(ctx context.Context, server *http.Server, timeout time.Duration) error {
	return parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
		spawn("server", parallel.Fail, func(ctx context.Context) error {
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrapf(err, "server on %s failed", server.Addr)
			}
			return errors.WithStack(ctx.Err())
		})
		spawn("shutdown", parallel.Fail, func(ctx context.Context) error {
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return errors.Wrap(err, "graceful shutdown failed")
			}
			return errors.WithStack(ctx.Err())
		})
		return nil
	})
}

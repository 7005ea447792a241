package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/leadwire/outbound/internal/api"
	"github.com/leadwire/outbound/internal/api/handlers"
	"github.com/leadwire/outbound/internal/auth"
	"github.com/leadwire/outbound/internal/cache"
	"github.com/leadwire/outbound/internal/database"
	"github.com/leadwire/outbound/internal/database/repository"
	"github.com/leadwire/outbound/internal/database/setup"
	"github.com/leadwire/outbound/internal/dispatch"
	"github.com/leadwire/outbound/internal/health"
	"github.com/leadwire/outbound/internal/health/checks"
	"github.com/leadwire/outbound/internal/ratelimit"
	"github.com/leadwire/outbound/internal/shutdown"
	"github.com/leadwire/outbound/internal/shutdown/hooks"
	"github.com/leadwire/outbound/internal/tracking"
	"github.com/leadwire/outbound/pkg/logging"
	"github.com/leadwire/outbound/pkg/metrics"
)

var (
	// serverPort is the port to listen on
	serverPort int
	// serverHost is the host to bind to
	serverHost string
	// migrateDryRun shows pending migrations without applying
	migrateDryRun bool
)

// newServerCmd creates the server command with subcommands.
func newServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Server management commands",
		Long:  `Commands for managing the outbound HTTP API server and database.`,
	}

	// Add subcommands
	cmd.AddCommand(newServerStartCmd())
	cmd.AddCommand(newServerMigrateCmd())

	return cmd
}

// newServerStartCmd creates the server start subcommand.
func newServerStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start HTTP API server",
		Long: `Start the outbound HTTP API server.

The server provides REST endpoints for dispatching emails and
inspecting sent messages and their tracked links.`,
		Example: `  outbound server start
  outbound server start --port 3000
  outbound server start --host 0.0.0.0 --port 8080`,
		RunE: runServerStart,
	}

	cmd.Flags().IntVarP(&serverPort, "port", "p", 0, "port to listen on (overrides config)")
	cmd.Flags().StringVar(&serverHost, "host", "", "host to bind to (overrides config)")

	return cmd
}

func runServerStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}

	logLevel := cfg.Logging.Level
	if verbose {
		logLevel = "debug"
	}
	logger := logging.New(logging.Config{
		Level:      logLevel,
		Format:     cfg.Logging.Format,
		Output:     "stdout",
		SampleRate: 1.0,
	})
	logger.SetDefault()

	// Database
	conn, err := setup.NewConnectionWithLogger(cfg.Database.ToDatabaseConfig(), logger.Logger)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("connected to database", "type", conn.Type())

	// Auth
	validator, err := auth.NewValidatorWithLogger(auth.Config{
		Secret:      cfg.Auth.Secret,
		Issuer:      cfg.Auth.Issuer,
		Audience:    cfg.Auth.Audience,
		JWKSURL:     cfg.Auth.JWKSURL,
		TenantClaim: cfg.Auth.TenantClaim,
	}, logger.Logger)
	if err != nil {
		conn.Close()
		return fmt.Errorf("configuring token validation: %w", err)
	}
	authMiddleware := auth.NewMiddleware(validator)

	// Redis is shared by the rate limiter and the cache health check
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var sendLimiter func(http.Handler) http.Handler
	if cfg.RateLimit.Enabled {
		var store ratelimit.Store
		if redisClient != nil {
			store = ratelimit.NewRedisStore(redisClient)
		} else {
			logger.Warn("redis not configured, using in-memory rate limit store")
			store = ratelimit.NewMemoryStore()
		}
		sendLimiter = api.SendRateLimit(store, cfg.RateLimit.Limit, cfg.RateLimit.Window(), logger.Logger)
	}

	// Health checks
	registry := health.NewRegistry(Version)
	if db := conn.DB(); db != nil {
		registry.Register(checks.NewDatabaseChecker(db))
		stopStats := metrics.Global().DB().StartConnectionStatsCollector(db, 15*time.Second)
		defer stopStats()
	}
	if redisClient != nil {
		registry.Register(checks.NewCacheChecker(redisPinger{redisClient}, checks.WithCacheSeverity(health.SeverityWarning)))
	}

	// Credentials are read on every dispatch; serve them through a cache.
	credCache, err := cache.New(cache.Config{
		Type:       "memory",
		DefaultTTL: 5 * time.Minute,
		Prefix:     "outbound",
	})
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating credential cache: %w", err)
	}

	repos := conn.Repositories()
	repos.Credentials = repository.NewCachedCredentialRepository(repos.Credentials, credCache, 5*time.Minute)

	// Dispatch pipeline
	instrumenter := tracking.NewInstrumenter(cfg.Tracking.BaseURL)
	service := dispatch.NewService(repos, &dispatch.TransportFactory{}, instrumenter, logger.Logger)
	handler := handlers.NewHandler(service, repos.Messages, repos.Links)

	router := api.NewRouterWithConfig(handler, api.RouterConfig{
		Auth:          authMiddleware,
		RateLimit:     sendLimiter,
		Health:        health.NewHandler(registry),
		Metrics:       metrics.Global(),
		Logger:        logger.Logger,
		RequestLogger: true,
	})

	server := api.NewServer(router, cfg.Server.Addr())

	// Graceful shutdown: HTTP drain first, then storage connections
	shutdownCfg := shutdown.DefaultConfig()
	mgr := shutdown.NewManager(shutdownCfg, logger.Logger)
	mgr.RegisterHook(hooks.HTTPServerShutdown(server, shutdownCfg.DrainTimeout))
	mgr.RegisterHook(hooks.DatabaseShutdown("database", conn))
	mgr.RegisterHook(hooks.CacheShutdown("credential-cache", credCache))
	if redisClient != nil {
		mgr.RegisterHook(hooks.RedisShutdown(redisClient))
	}
	done := mgr.ListenForSignals()

	logger.Info("server listening", "addr", cfg.Server.Addr())
	fmt.Fprintf(cmd.OutOrStdout(), "Server listening on %s\n", cfg.Server.Addr())

	if err := server.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	fmt.Fprintln(cmd.OutOrStdout(), "Server stopped")

	return nil
}

// redisPinger adapts a go-redis client to the health check Pinger interface.
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// newServerMigrateCmd creates the server migrate subcommand.
func newServerMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Run database migrations to set up or update the schema.

Migrations only apply to the PostgreSQL backend; MongoDB collections
are created on first use. Use --dry-run to see pending migrations
without applying them.`,
		Example: `  outbound server migrate
  outbound server migrate --dry-run`,
		RunE: runServerMigrate,
	}

	cmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "show pending migrations without applying")

	return cmd
}

func runServerMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	dbCfg := cfg.Database.ToDatabaseConfig()
	if dbCfg.Type != database.DatabaseTypePostgres {
		return fmt.Errorf("migrations are only supported for postgres, configured type is %s", dbCfg.Type)
	}

	printVerbose(cmd, "Connecting to database %s:%d/%s\n", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	db, err := database.Connect(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Name,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer database.Close(db)

	migrator := database.NewMigrator(db)

	if migrateDryRun {
		status, err := migrator.Status()
		if err != nil {
			return fmt.Errorf("reading migration status: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Dry run: migration status")
		fmt.Fprintln(out, "")
		pending := 0
		for _, m := range status {
			if m.AppliedAt != nil {
				fmt.Fprintf(out, "  applied  %s_%s (%s)\n", m.Version, m.Name, m.AppliedAt.Format("2006-01-02 15:04:05"))
			} else {
				fmt.Fprintf(out, "  pending  %s_%s\n", m.Version, m.Name)
				pending++
			}
		}
		fmt.Fprintln(out, "")
		if pending == 0 {
			fmt.Fprintln(out, "Database is up to date")
		} else {
			fmt.Fprintf(out, "%d pending migration(s); run without --dry-run to apply\n", pending)
		}
		return nil
	}

	if err := migrator.MigrateUp(); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Migrations completed successfully")

	return nil
}

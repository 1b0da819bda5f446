package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clubcrm/clubcrm/internal/config"
	"github.com/clubcrm/clubcrm/internal/domain/conversion"
	"github.com/clubcrm/clubcrm/internal/domain/member"
	"github.com/clubcrm/clubcrm/internal/domain/preregistration"
	"github.com/clubcrm/clubcrm/internal/domain/product"
	"github.com/clubcrm/clubcrm/internal/domain/registry"
	"github.com/clubcrm/clubcrm/internal/importer"
	"github.com/clubcrm/clubcrm/internal/platform/db"
	"github.com/clubcrm/clubcrm/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "crm-server",
		Short: "Club membership API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(importCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.MigrationsDir
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Bulk data import",
	}

	membersCmd := &cobra.Command{
		Use:   "members <file.csv>",
		Short: "Import members from the legacy CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			app, err := buildApp(ctx, cfg, pool, logger)
			if err != nil {
				return err
			}

			imp := importer.New(app.registrySvc, app.memberSvc, logger)
			result, err := imp.ImportFile(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Import completed: %d created, %d updated, %d errors.\n",
				result.Created, result.Updated, result.Errors)
			return nil
		},
	}
	cmd.AddCommand(membersCmd)

	return cmd
}

// app holds the wired services shared by the serve and import commands.
type app struct {
	registrySvc *registry.Service
	memberSvc   *member.Service
	preregSvc   *preregistration.Service
	preregRepo  preregistration.Repository
	productSvc  *product.Service
	tx          db.TxRunner
}

// buildApp wires repositories and services. The configured initial member
// status is resolved against the registry here, once; a missing status stops
// startup instead of failing every conversion later.
func buildApp(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (*app, error) {
	tx := db.NewTxManager(pool)

	registrySvc := registry.NewService(registry.NewEntryRepoPG(pool), registry.NewSegmentRepoPG(pool))

	initial, err := registrySvc.LookupStatus(ctx, cfg.InitialMemberStatus)
	if err != nil {
		return nil, fmt.Errorf("initial member status %q: %w (run migrations or fix INITIAL_MEMBER_STATUS)",
			cfg.InitialMemberStatus, err)
	}
	logger.Info().Str("status", cfg.InitialMemberStatus).Str("id", initial.ID.String()).
		Msg("resolved initial member status")

	memberSvc := member.NewService(
		member.NewRepoPG(pool),
		member.NewContactRepoPG(pool),
		member.NewAccessLogRepoPG(pool),
		tx,
		initial.ID,
	)

	preregRepo := preregistration.NewRepoPG(pool)
	preregSvc := preregistration.NewService(preregRepo, registrySvc, tx)

	productSvc := product.NewService(product.NewRepoPG(pool), tx)

	return &app{
		registrySvc: registrySvc,
		memberSvc:   memberSvc,
		preregSvc:   preregSvc,
		preregRepo:  preregRepo,
		productSvc:  productSvc,
		tx:          tx,
	}, nil
}

func newLogger() zerolog.Logger {
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServer() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	app, err := buildApp(ctx, cfg, pool, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to wire services")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", "X-Request-ID", "X-Operator"},
	}))

	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Handlers
	registry.NewHandler(app.registrySvc).RegisterRoutes(apiV1)
	member.NewHandler(app.memberSvc, app.registrySvc).RegisterRoutes(apiV1)
	preregistration.NewHandler(app.preregSvc).RegisterRoutes(apiV1)
	product.NewHandler(app.productSvc).RegisterRoutes(apiV1)

	engine := conversion.NewEngine(app.preregRepo, app.memberSvc, app.tx, logger)
	conversion.NewHandler(engine).RegisterRoutes(apiV1)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

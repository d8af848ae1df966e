package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"library-alert/core/config"
	"library-alert/core/database"
	"library-alert/core/loader"
	"library-alert/core/logger"
	"library-alert/core/middleware/auth"
	"library-alert/core/middleware/rayid"
	"library-alert/core/status"

	"library-alert/feature/tracking"

	_ "library-alert/docs/swagger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// @title Library Alert API
// @version 1.0
// @description Manage the libraries and books tracked for availability alerts.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the management API server",
	Long:  `Starts the HTTP server exposing tracked libraries and books.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Database
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Database connection failed", zap.Error(err))
		}
		store := status.NewGormStore(db, cfg.Database.Table)
		if err := store.Migrate(context.Background()); err != nil {
			logg.Fatal("Failed to migrate status table", zap.Error(err))
		}
		logg.Info("Connected to database", zap.String("table", cfg.Database.Table))

		// 4. Build the HTTP app
		app, err := newApp(cfg, store, logg)
		if err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 5. Start Server
		go func() {
			logg.Info("Starting server", zap.String("addr", cfg.Server.ListenAddr()))
			if err := app.Listen(cfg.Server.ListenAddr()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 6. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
	},
}

// newApp wires middleware and features onto a fresh fiber app.
func newApp(cfg *config.Config, store status.Store, logg *zap.Logger) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	mgr := loader.NewManager()
	mgr.Register(tracking.NewFeature(store, logg))

	// RayID first so every log line carries it
	app.Use(rayid.New())

	app.Use(func(c *fiber.Ctx) error {
		l := logger.WithRayID(logg, c)
		l.Info("Request started",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		err := c.Next()
		if err != nil {
			l.Error("Request error", zap.Error(err))
		}
		return err
	})

	// API docs stay reachable without a key
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))
	if cfg.Server.ApiKey == "" {
		logg.Warn("No API key configured, management API is unprotected")
	}

	if err := mgr.LoadAll(app); err != nil {
		return nil, err
	}
	return app, nil
}

func init() {
	RootCmd.AddCommand(startCmd)
}

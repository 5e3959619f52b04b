package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/fault-tracker/internal/auth"
	"github.com/frahmantamala/fault-tracker/internal/fault"
	"github.com/frahmantamala/fault-tracker/internal/machine"
	"github.com/frahmantamala/fault-tracker/internal/section"
	"github.com/frahmantamala/fault-tracker/internal/summary"
	"github.com/frahmantamala/fault-tracker/internal/transport"
	"github.com/frahmantamala/fault-tracker/internal/transport/rest"
	"github.com/frahmantamala/fault-tracker/internal/transport/swagger"
	"github.com/frahmantamala/fault-tracker/internal/user"
	"github.com/frahmantamala/fault-tracker/pkg/logger"
	"github.com/go-chi/chi"
	"github.com/spf13/cobra"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	App    *App
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	cfg := deps.App.Config
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		// let in-flight event handlers finish before the pool goes away
		deps.App.Bus.Wait()
		if err := deps.App.SQL.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	app := deps.App
	base := transport.NewBaseHandler(deps.Logger)

	handlers := rest.Handlers{
		Health:   rest.NewHealthHandler(app.SQL),
		Auth:     auth.NewHandler(base, app.Auth),
		Users:    user.NewHandler(base, app.Users),
		Sections: section.NewHandler(base, app.Sections),
		Machines: machine.NewHandler(base, app.Machines),
		Faults:   fault.NewHandler(app.Faults),
		Summary:  summary.NewHandler(app.Summary),
	}
	if app.Metrics != nil {
		handlers.Metrics = app.Metrics.Handler()
	}

	rest.RegisterAllRoutes(deps.Router, handlers, rest.Options{
		AllowedOrigins: app.Config.Server.AllowedOrigins,
		MetricsPath:    app.Config.Observability.Metrics.Path,
		LoginRPS:       app.Config.RateLimit.LoginRPS,
		LoginBurst:     app.Config.RateLimit.LoginBurst,
	}, deps.Logger)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.L()

	if _, err := swagger.Load(context.Background()); err != nil {
		return nil, fmt.Errorf("embedded api document is invalid: %w", err)
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app, err := buildApp(config, db, lg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Dependencies{
		App:    app,
		Router: chi.NewRouter(),
		Logger: lg,
	}, nil
}

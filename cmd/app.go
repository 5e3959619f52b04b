package cmd

import (
	"fmt"
	"log/slog"

	"github.com/frahmantamala/fault-tracker/internal"
	"github.com/frahmantamala/fault-tracker/internal/auth"
	authPostgres "github.com/frahmantamala/fault-tracker/internal/auth/postgres"
	"github.com/frahmantamala/fault-tracker/internal/core/events"
	"github.com/frahmantamala/fault-tracker/internal/fault"
	faultPostgres "github.com/frahmantamala/fault-tracker/internal/fault/postgres"
	"github.com/frahmantamala/fault-tracker/internal/machine"
	machinePostgres "github.com/frahmantamala/fault-tracker/internal/machine/postgres"
	"github.com/frahmantamala/fault-tracker/internal/metrics"
	"github.com/frahmantamala/fault-tracker/internal/report"
	"github.com/frahmantamala/fault-tracker/internal/section"
	sectionPostgres "github.com/frahmantamala/fault-tracker/internal/section/postgres"
	"github.com/frahmantamala/fault-tracker/internal/summary"
	"github.com/frahmantamala/fault-tracker/internal/user"
	userPostgres "github.com/frahmantamala/fault-tracker/internal/user/postgres"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// App holds the services shared by the server and the batch commands.
type App struct {
	Config *internal.Config
	SQL    *sqlx.DB
	Gorm   *gorm.DB
	Bus    *events.EventBus
	Sink   *report.ExcelSink

	Metrics     *metrics.Metrics
	Credentials *authPostgres.Repository

	Auth     *auth.Service
	Users    *user.Service
	Sections *section.Service
	Machines *machine.Service
	Faults   *fault.Service
	Summary  *summary.Service
}

func buildApp(cfg *internal.Config, db *sqlx.DB, logger *slog.Logger) (*App, error) {
	gdb, err := openGorm(db)
	if err != nil {
		return nil, err
	}

	bus := events.NewEventBus(logger)
	sink := report.NewExcelSink(cfg.Report.OutputDir)

	sectionRepo := sectionPostgres.NewSectionRepository(gdb)
	machineRepo := machinePostgres.NewMachineRepository(gdb)
	userRepo := userPostgres.NewUserRepository(db)
	faultRepo := faultPostgres.NewFaultRepository(gdb)

	refs := fault.References{
		Sections: sectionRepo,
		Machines: machineRepo,
		Users:    userRepo,
	}

	credentials := authPostgres.NewRepository(gdb)

	app := &App{
		Config:      cfg,
		Credentials: credentials,
		SQL:         db,
		Gorm:        gdb,
		Bus:         bus,
		Sink:        sink,
		Auth:        auth.NewService(credentials, auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.AccessTokenDuration), logger),
		Users:       user.NewService(userRepo, bus, cfg.Security.BCryptCost, logger),
		Sections:    section.NewService(sectionRepo, bus, logger),
		Machines:    machine.NewService(machineRepo, sectionRepo, bus, logger),
		Faults:      fault.NewService(faultRepo, refs, bus, logger, fault.WithSink(sink)),
	}

	summaryOpts := []summary.Option{summary.WithSink(sink)}
	if cfg.Observability.Metrics.Enabled {
		app.Metrics = metrics.NewMetrics(prometheus.NewRegistry())
		app.Metrics.Subscribe(bus)
		summaryOpts = append(summaryOpts, summary.WithObserver(app.Metrics))
	}
	app.Summary = summary.NewService(faultRepo, refs, cfg.Summary.CacheTTL, logger, summaryOpts...)

	bus.SubscribeMany(events.FaultEventTypes, app.Summary.Invalidate)
	bus.Subscribe(events.EventTypeCatalogChanged, app.Summary.Invalidate)

	return app, nil
}

// openGorm shares the sqlx pool with gorm so both see one set of connections.
func openGorm(db *sqlx.DB) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm on shared pool: %w", err)
	}
	return gdb, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/frahmantamala/fault-tracker/internal/core/actor"
	"github.com/frahmantamala/fault-tracker/internal/core/clock"
	"github.com/frahmantamala/fault-tracker/internal/fault"
	"github.com/frahmantamala/fault-tracker/internal/summary"
	"github.com/frahmantamala/fault-tracker/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	reportAs    string
	reportMonth string
	reportYear  string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render workbooks into the report directory",
}

var reportSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Export the monthly summary visible to a user",
	Run: func(cmd *cobra.Command, args []string) {
		runReport(func(ctx context.Context, app *App, a actor.Actor) (string, error) {
			w, err := summary.ParseWindow(reportMonth, reportYear, clock.Now())
			if err != nil {
				return "", err
			}
			return app.Summary.ExportSummary(ctx, a, w)
		})
	},
}

var reportFaultsCmd = &cobra.Command{
	Use:   "faults",
	Short: "Export every fault visible to a user",
	Run: func(cmd *cobra.Command, args []string) {
		runReport(func(ctx context.Context, app *App, a actor.Actor) (string, error) {
			return app.Faults.ExportFaults(ctx, a, fault.ListFilters{})
		})
	},
}

func init() {
	reportCmd.PersistentFlags().StringVar(&reportAs, "as", "", "username whose visibility the report uses")
	_ = reportCmd.MarkPersistentFlagRequired("as")
	reportSummaryCmd.Flags().StringVar(&reportMonth, "month", "", "month index (0-11) or name; defaults to the current month")
	reportSummaryCmd.Flags().StringVar(&reportYear, "year", "", "year; defaults to the current year")

	reportCmd.AddCommand(reportSummaryCmd)
	reportCmd.AddCommand(reportFaultsCmd)
}

func runReport(export func(ctx context.Context, app *App, a actor.Actor) (string, error)) {
	ctx := context.Background()
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := initDB(cfg.Database)
	if err != nil {
		log.Fatalf("failed to init db: %v", err)
	}
	defer db.Close()

	app, err := buildApp(cfg, db, logger.L())
	if err != nil {
		log.Fatalf("failed to build services: %v", err)
	}

	cred, err := app.Credentials.GetCredential(ctx, reportAs)
	if err != nil {
		log.Fatalf("unknown user %s: %v", reportAs, err)
	}

	hint, err := export(ctx, app, actor.Actor{UserID: cred.UserID, Role: cred.Role})
	if err != nil {
		log.Fatalf("export failed: %v", err)
	}

	fmt.Println("Wrote", app.Sink.Path(hint))
}

package commands

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/ubuntu/ddp-insights/internal/donation"
)

func installMigrateCmd(app *App) {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema of the postgres sink",
		Long: `Apply the database schema of the postgres sink.

The connection is read from the donation.postgres section of the configuration, or from the
DDP_INSIGHTS_DONATION_POSTGRES_* environment variables. Migrations already applied are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			slog.Info("Running migrate command")
			return donation.Migrate(slog.Default(), app.config.Donation.Postgres)
		},
	}

	app.cmd.AddCommand(migrateCmd)
}

package commands

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func installValidateCmd(app *App) (*cobra.Command, error) {
	validateCmd := &cobra.Command{
		Use:   "validate <platform> <archive>",
		Short: "Identify the category of a data download package",
		Long: `Identify the category of a data download package.

The status is 0 when the archive is recognized as one of the categories of the platform, and 1 otherwise.`,
		Args: cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(app.config.Validate.Format); err != nil {
				app.cmd.SilenceUsage = false
				return err
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.lookupPlatform(args[0])
			if err != nil {
				return err
			}

			slog.Debug("Running validate command", "platform", p.ID(), "archive", args[1])
			result := p.Validate(slog.Default(), args[1])
			return printValue(cmd.OutOrStdout(), app.config.Validate.Format, result)
		},
	}

	validateCmd.Flags().StringVarP(&app.config.Validate.Format, "format", "f", formatYAML, "output format: json or yaml")

	app.cmd.AddCommand(validateCmd)
	return validateCmd, nil
}

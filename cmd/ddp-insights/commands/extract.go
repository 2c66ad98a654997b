package commands

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ubuntu/ddp-insights/internal/table"
)

type extractConfig struct {
	Format    string `mapstructure:"format"`
	Selection string `mapstructure:"selection"`
}

// extractedRows is the YAML form of one table.
type extractedRows struct {
	ID   string           `yaml:"id"`
	Rows []map[string]any `yaml:"rows"`
}

func installExtractCmd(app *App) (*cobra.Command, error) {
	extractCmd := &cobra.Command{
		Use:   "extract <platform> <archive>",
		Short: "Print the tables extracted from a data download package",
		Long: `Print the tables extracted from a data download package.

The JSON format is the exact payload donated when every table is accepted.
The YAML format lists the rows of each table.`,
		Args: cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(app.config.Extract.Format); err != nil {
				app.cmd.SilenceUsage = false
				return err
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			slog.Debug("Running extract command", "platform", args[0], "archive", args[1])
			tables, err := app.extractRun(args[0], args[1])
			if err != nil {
				return err
			}

			if app.config.Extract.Format == formatJSON {
				data, err := table.Donation(tables)
				if err != nil {
					return fmt.Errorf("could not encode tables: %v", err)
				}
				return printJSON(cmd.OutOrStdout(), data)
			}

			rows := make([]extractedRows, 0, len(tables))
			for _, t := range tables {
				rows = append(rows, extractedRows{ID: t.ID, Rows: t.Frame.Records()})
			}
			return printValue(cmd.OutOrStdout(), formatYAML, rows)
		},
	}

	extractCmd.Flags().StringVarP(&app.config.Extract.Format, "format", "f", formatJSON, "output format: json or yaml")
	extractCmd.Flags().StringVarP(&app.config.Extract.Selection, "selection", "s", "", "item to extract, for platforms asking to pick one")

	app.cmd.AddCommand(extractCmd)
	return extractCmd, nil
}

// extractRun returns the non empty tables of the archive at path.
func (a *App) extractRun(platform, path string) ([]table.ExtractedTable, error) {
	p, err := a.lookupPlatform(platform)
	if err != nil {
		return nil, err
	}

	log := slog.Default()
	result := p.Validate(log, path)
	if !result.OK() {
		return nil, fmt.Errorf("%s is not a recognized %s data download package", path, p.Name())
	}

	selection := a.config.Extract.Selection
	if c := p.Choice(log, path, result); c != nil && !slices.Contains(c.Items, selection) {
		a.cmd.SilenceUsage = false
		return nil, fmt.Errorf("%s asks to pick one of: %s", p.Name(), strings.Join(c.Items, ", "))
	}

	return p.Extract(log, path, result, selection), nil
}

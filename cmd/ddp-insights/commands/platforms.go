package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/ubuntu/ddp-insights/internal/extract"
)

func installPlatformsCmd(app *App) {
	platformsCmd := &cobra.Command{
		Use:   "platforms",
		Short: "List the supported platforms",
		Long:  "List the supported platforms with the categories of data download packages each of them recognizes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.platformsRun(cmd.OutOrStdout())
		},
	}

	app.cmd.AddCommand(platformsCmd)
}

func (a App) platformsRun(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORIES")
	for _, p := range a.platforms.All() {
		var categories []string
		if c, ok := p.(extract.Categorized); ok {
			for _, cat := range c.Categories() {
				categories = append(categories, cat.ID)
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID(), p.Name(), strings.Join(categories, ","))
	}
	return w.Flush()
}

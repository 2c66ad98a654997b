package commands

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ubuntu/ddp-insights/internal/consent"
)

type consentConfig struct {
	State string `mapstructure:"state"`
	All   bool   `mapstructure:"all"`
}

func installConsentCmd(app *App) (*cobra.Command, error) {
	consentCmd := &cobra.Command{
		Use:   "consent [platforms](optional arguments)",
		Short: "Manage or get the stored consent",
		Long: `Manage or get the consent stored for non interactive donations.

If no platforms are provided, the global consent state is managed.
A platform state takes precedence over the global one.`,
		Args: cobra.ArbitraryArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := strconv.ParseBool(app.config.Consent.State); app.config.Consent.State != "" && err != nil {
				app.cmd.SilenceUsage = false
				return fmt.Errorf("state must be either true or false, or not set: %v", err)
			}
			for _, p := range args {
				if _, err := app.lookupPlatform(p); err != nil {
					return err
				}
			}
			if app.config.Consent.All && (len(args) > 0 || app.config.Consent.State != "") {
				app.cmd.SilenceUsage = false
				return fmt.Errorf("--all can not be combined with platforms or --state")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			slog.Debug("Running consent command")
			return app.consentRun(cmd.OutOrStdout(), args)
		},
	}

	consentCmd.Flags().StringVarP(&app.config.Consent.State, "state", "s", "", "the consent state to set (true or false)")
	consentCmd.Flags().BoolVarP(&app.config.Consent.All, "all", "a", false, "print the state of every platform with a stored consent")

	app.cmd.AddCommand(consentCmd)
	return consentCmd, nil
}

func (a App) consentRun(out io.Writer, platforms []string) error {
	cm := consent.New(slog.Default(), a.config.ConsentDir)

	if a.config.Consent.All {
		states, err := cm.States(true)
		if err != nil {
			return err
		}
		for _, p := range slices.Sorted(maps.Keys(states)) {
			fmt.Fprintf(out, "%s: %t\n", p, states[p])
		}
		return nil
	}

	if len(platforms) == 0 {
		platforms = []string{""}
	}

	if a.config.Consent.State != "" {
		state, err := strconv.ParseBool(a.config.Consent.State)
		if err != nil {
			a.cmd.SilenceUsage = false
			return fmt.Errorf("state must be either true or false, or not set")
		}

		for _, p := range platforms {
			if err := cm.SetState(p, state); err != nil {
				return err
			}
		}
	}

	var failed []string
	for _, p := range platforms {
		state, err := cm.GetState(p)
		if p == "" {
			p = "Global"
		}
		if err != nil {
			slog.Error("Failed to get consent state", "platform", p, "error", err)
			failed = append(failed, p)
			continue
		}
		fmt.Fprintf(out, "%s: %t\n", p, state)
	}

	if len(failed) > 0 {
		return fmt.Errorf("failed to get consent state for: %s", strings.Join(failed, ", "))
	}
	return nil
}

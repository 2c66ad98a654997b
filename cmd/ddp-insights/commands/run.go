package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/ubuntu/ddp-insights/internal/consent"
	"github.com/ubuntu/ddp-insights/internal/donation"
	"github.com/ubuntu/ddp-insights/internal/flow"
)

type runConfig struct {
	Yes           bool     `mapstructure:"yes"`
	Lang          string   `mapstructure:"lang"`
	Questionnaire string   `mapstructure:"questionnaire"`
	Exclude       []string `mapstructure:"exclude"`
	Preview       int      `mapstructure:"preview"`
}

func installRunCmd(app *App) (*cobra.Command, error) {
	runCmd := &cobra.Command{
		Use:   "run <platform> <archive>",
		Short: "Go through the donation flow of a data download package",
		Long: `Go through the donation flow of a data download package in the terminal.

The extracted tables are shown before asking for consent. Accepted tables are donated to the configured sinks.
Consent stored for the platform with the consent command, or --yes, accepts without asking.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			slog.Debug("Running run command", "platform", args[0], "archive", args[1])
			return app.runRun(cmd, args[0], args[1])
		},
	}

	runCmd.Flags().BoolVarP(&app.config.Run.Yes, "yes", "y", false, "donate without asking, declining retries and skipping the questionnaire")
	runCmd.Flags().StringVar(&app.config.Run.Lang, "lang", "en", "language of the prompts: en or nl")
	runCmd.Flags().StringVar(&app.config.Run.Questionnaire, "questionnaire", "", "YAML or JSON questionnaire asked after the consent step")
	runCmd.Flags().StringSliceVar(&app.config.Run.Exclude, "exclude", nil, "ids of the tables left out of the donation")
	runCmd.Flags().IntVar(&app.config.Run.Preview, "preview", 5, "number of rows shown per table")

	if err := runCmd.MarkFlagFilename("questionnaire", "yaml", "yml", "json"); err != nil {
		return nil, fmt.Errorf("failed to mark questionnaire flag as filename: %v", err)
	}

	app.cmd.AddCommand(runCmd)
	return runCmd, nil
}

func (a *App) runRun(cmd *cobra.Command, platform, archive string) (err error) {
	p, err := a.lookupPlatform(platform)
	if err != nil {
		return err
	}
	log := slog.Default()
	conf := a.config.Run

	var sessionOpts []flow.SessionOptions
	if conf.Questionnaire != "" {
		q, err := flow.LoadQuestionnaire(conf.Questionnaire)
		if err != nil {
			return err
		}
		sessionOpts = append(sessionOpts, flow.WithMachineOptions(flow.WithQuestionnaire(q)))
	}

	stored, err := consent.New(log, a.config.ConsentDir).HasConsent(p.ID())
	if err != nil {
		log.Debug("No stored consent, asking for it", "platform", p.ID(), "error", err)
	}

	sink, err := donation.New(a.ctx, a.config.Donation, donation.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, sink.Close())
	}()

	ui := newTerminalUI(cmd.InOrStdin(), cmd.OutOrStdout(), terminalConfig{
		lang:    conf.Lang,
		archive: archive,
		yes:     conf.Yes,
		consent: stored,
		exclude: conf.Exclude,
		preview: conf.Preview,
	})
	defer ui.Close()

	session := flow.NewSession(p, sink, sessionOpts...)
	exit, err := flow.NewRunner(session, ui).Run(a.ctx)
	if err != nil {
		return fmt.Errorf("session %s failed: %v", session.ID(), err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n%s (session %s)\n", exit.Info, session.ID())
	return nil
}

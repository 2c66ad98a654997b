// Package commands is the ddp-insights command line: it identifies, extracts and donates
// data download packages, locally or through a session server.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/ubuntu/ddp-insights/internal/cli"
	"github.com/ubuntu/ddp-insights/internal/constants"
	"github.com/ubuntu/ddp-insights/internal/donation"
	"github.com/ubuntu/ddp-insights/internal/extract"
	"github.com/ubuntu/ddp-insights/internal/platforms"
)

// App represents the application.
type App struct {
	cmd    *cobra.Command
	viper  *viper.Viper
	config appConfig

	platforms *extract.Registry

	// ctx is cancelled by Quit and bounds every command.
	ctx    context.Context
	cancel context.CancelFunc
}

type appConfig struct {
	Verbosity  int    `mapstructure:"verbose"`
	JSONLogs   bool   `mapstructure:"json-logs"`
	ConsentDir string `mapstructure:"consent-dir"`

	Donation donation.Config `mapstructure:"donation"`

	Validate formatConfig  `mapstructure:"validate"`
	Extract  extractConfig `mapstructure:"extract"`
	Run      runConfig     `mapstructure:"run"`
	Consent  consentConfig `mapstructure:"consent"`
	Serve    serveConfig   `mapstructure:"serve"`
}

type options struct {
	platforms *extract.Registry
}

// Options represents an optional function to override App default values.
type Options func(*options)

// WithPlatforms replaces the supported platforms.
func WithPlatforms(r *extract.Registry) Options {
	return func(o *options) {
		o.platforms = r
	}
}

// New creates a new App instance with default values.
func New(args ...Options) (*App, error) {
	opts := options{}
	for _, opt := range args {
		opt(&opts)
	}
	if opts.platforms == nil {
		opts.platforms = platforms.Default()
	}

	a := App{platforms: opts.platforms}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	a.cmd = &cobra.Command{
		Use:   constants.CmdName,
		Short: "Identify, extract and donate data download packages",
		Long: `Identify, extract and donate data download packages.

A data download package is the zip archive a platform hands out when a user asks for a copy of their data.
ddp-insights recognizes the archive, extracts a curated selection of tables, shows them and, with consent,
donates them to the configured sinks.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Command parsing has been successful. Returns to not print usage anymore.
			a.cmd.SilenceUsage = true
			cli.SetVerbosity(a.config.Verbosity) // Set verbosity before loading config
			if err := cli.InitViperConfig(constants.CmdName, cmd, a.viper); err != nil {
				return err
			}
			if err := cli.Unmarshal(a.viper, &a.config); err != nil {
				return fmt.Errorf("unable to strictly decode configuration into struct: %w", err)
			}

			cli.SetSlog(cmd.ErrOrStderr(), a.config.Verbosity, a.config.JSONLogs)
			slog.Debug("Got app config", "config", a.config)
			return nil
		},
	}
	a.viper = viper.New()
	a.cmd.CompletionOptions.HiddenDefaultCmd = true

	installRootCmd(&a)
	cli.InstallConfigFlag(a.cmd)

	if err := a.viper.BindPFlags(a.cmd.PersistentFlags()); err != nil {
		return nil, err
	}
	if err := bindFlags(a.viper, a.cmd.PersistentFlags(), map[string]string{
		"donation.sinks":         "sink",
		"donation.file.dir":      "data-dir",
		"donation.file.compress": "compress",
		"donation.http.url":      "http-url",
		"donation.http.retries":  "http-retries",
		"donation.http.backoff":  "http-backoff",
	}); err != nil {
		return nil, err
	}

	installPlatformsCmd(&a)
	for _, install := range []func(*App) (*cobra.Command, error){
		installValidateCmd,
		installExtractCmd,
		installRunCmd,
		installConsentCmd,
		installServeCmd,
	} {
		cmd, err := install(&a)
		if err != nil {
			return nil, err
		}
		// Each command reads its flags from its own configuration section.
		if err := bindCmdFlags(a.viper, cmd); err != nil {
			return nil, err
		}
	}
	installMigrateCmd(&a)

	return &a, nil
}

func installRootCmd(app *App) {
	cmd := app.cmd

	cmd.PersistentFlags().CountVarP(&app.config.Verbosity, "verbose", "v", "issue INFO (-v), DEBUG (-vv)")
	cmd.PersistentFlags().BoolVar(&app.config.JSONLogs, "json-logs", false, "write logs as JSON")
	cmd.PersistentFlags().StringVar(&app.config.ConsentDir, "consent-dir", constants.GetDefaultConsentPath(), "directory to look for and to store the stored consent")

	// Donation sinks
	cmd.PersistentFlags().StringSlice("sink", []string{donation.KindFile}, "sinks receiving donations: file, http, postgres, mysql, s3 or stdout")
	cmd.PersistentFlags().String("data-dir", constants.GetDefaultDataPath(), "directory the file sink writes donations to")
	cmd.PersistentFlags().Bool("compress", false, "compress the donations written by the file sink with zstd")
	cmd.PersistentFlags().String("http-url", "", "base URL the http sink posts donations to")
	cmd.PersistentFlags().Int("http-retries", 0, "extra attempts made by the http sink after a failure")
	cmd.PersistentFlags().Duration("http-backoff", time.Second, "wait before the first retry of the http sink")

	if err := cmd.MarkPersistentFlagDirname("consent-dir"); err != nil {
		// This should never happen.
		panic(fmt.Sprintf("failed to mark consent-dir flag as directory: %v", err))
	}
	if err := cmd.MarkPersistentFlagDirname("data-dir"); err != nil {
		// This should never happen.
		panic(fmt.Sprintf("failed to mark data-dir flag as directory: %v", err))
	}
}

// Run executes the command and associated process, returning an error if any.
func (a App) Run() error {
	return a.cmd.Execute()
}

// UsageError returns if the error is a command parsing or runtime one.
func (a App) UsageError() bool {
	return !a.cmd.SilenceUsage
}

// Hup prints all goroutine stack traces and return false to signal you shouldn't quit.
func (a App) Hup() (shouldQuit bool) {
	buf := make([]byte, 1<<16)
	n := runtime.Stack(buf, true)
	fmt.Printf("%s", buf[:n])
	return false
}

// Quit interrupts the running command. A running server finishes its pending requests first.
func (a *App) Quit() {
	a.cancel()
}

// RootCmd returns the root command.
func (a App) RootCmd() cobra.Command {
	return *a.cmd
}

// lookupPlatform returns the platform registered under id, flagging an unknown one as a usage error.
func (a *App) lookupPlatform(id string) (extract.Platform, error) {
	p, err := a.platforms.Lookup(id)
	if err != nil {
		a.cmd.SilenceUsage = false
		return nil, err
	}
	return p, nil
}

// bindCmdFlags binds the local flags of cmd to the keys of the configuration section named after it.
func bindCmdFlags(vip *viper.Viper, cmd *cobra.Command) (err error) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		if e := vip.BindPFlag(cmd.Name()+"."+f.Name, f); e != nil {
			err = fmt.Errorf("could not bind flag %q of %s: %v", f.Name, cmd.Name(), e)
		}
	})
	return err
}

// bindFlags binds each configuration key to the flag of fs it is named after.
func bindFlags(vip *viper.Viper, fs *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		f := fs.Lookup(name)
		if f == nil {
			return fmt.Errorf("no flag %q to bind %q to", name, key)
		}
		if err := vip.BindPFlag(key, f); err != nil {
			return fmt.Errorf("could not bind flag %q: %v", name, err)
		}
	}
	return nil
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/ubuntu/ddp-insights/internal/config"
	"github.com/ubuntu/ddp-insights/internal/constants"
	"github.com/ubuntu/ddp-insights/internal/donation"
	"github.com/ubuntu/ddp-insights/internal/flow"
	"github.com/ubuntu/ddp-insights/internal/server"
)

type serveConfig struct {
	ListenHost string `mapstructure:"listen-host"`
	ListenPort int    `mapstructure:"listen-port"`

	ReadTimeout    time.Duration `mapstructure:"read-timeout"`
	WriteTimeout   time.Duration `mapstructure:"write-timeout"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
	MaxHeaderBytes int           `mapstructure:"max-header-bytes"`
	MaxUploadBytes int64         `mapstructure:"max-upload-bytes"`

	MaxSessions   int    `mapstructure:"max-sessions"`
	UploadDir     string `mapstructure:"upload-dir"`
	AllowList     string `mapstructure:"allow-list"`
	Questionnaire string `mapstructure:"questionnaire"`
}

// allowList decides which platforms the server runs sessions for.
type allowList interface {
	Load() error
	Watch(context.Context) (<-chan struct{}, <-chan error, error)
	Allowed(string) bool
}

func installServeCmd(app *App) (*cobra.Command, error) {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run donation sessions over HTTP and websockets",
		Long: `Run donation sessions over HTTP and websockets.

Sessions are created per platform, receive the archive as a multipart upload and are driven by JSON replies,
either with HTTP requests or over a websocket. Prometheus metrics are exposed on /metrics.
When an allow list file is given, only the platforms it lists are served and the file is watched for changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			slog.Debug("Running serve command")
			return app.serveRun()
		},
	}

	defaultConf := serveConfig{
		ListenPort: 8080,

		ReadTimeout:    30 * time.Second,
		WriteTimeout:   2 * time.Minute,
		RequestTimeout: time.Minute,
		MaxHeaderBytes: 1 << 13, // 8 KB
		MaxUploadBytes: 1 << 30, // 1 GB

		MaxSessions: 100,
		UploadDir:   filepath.Join(os.TempDir(), constants.DefaultAppFolder, "uploads"),
	}

	conf := &app.config.Serve
	serveCmd.Flags().StringVar(&conf.ListenHost, "listen-host", defaultConf.ListenHost, "host to listen on")
	serveCmd.Flags().IntVar(&conf.ListenPort, "listen-port", defaultConf.ListenPort, "port to listen on")

	serveCmd.Flags().DurationVar(&conf.ReadTimeout, "read-timeout", defaultConf.ReadTimeout, "read timeout for HTTP server")
	serveCmd.Flags().DurationVar(&conf.WriteTimeout, "write-timeout", defaultConf.WriteTimeout, "write timeout for HTTP server")
	serveCmd.Flags().DurationVar(&conf.RequestTimeout, "request-timeout", defaultConf.RequestTimeout, "request timeout for HTTP server, websockets excepted")
	serveCmd.Flags().IntVar(&conf.MaxHeaderBytes, "max-header-bytes", defaultConf.MaxHeaderBytes, "maximum header bytes for HTTP server")
	serveCmd.Flags().Int64Var(&conf.MaxUploadBytes, "max-upload-bytes", defaultConf.MaxUploadBytes, "maximum size of an uploaded archive")

	serveCmd.Flags().IntVar(&conf.MaxSessions, "max-sessions", defaultConf.MaxSessions, "number of sessions kept before the least recently used one is dropped")
	serveCmd.Flags().StringVar(&conf.UploadDir, "upload-dir", defaultConf.UploadDir, "directory to store uploaded archives in")
	serveCmd.Flags().StringVar(&conf.AllowList, "allow-list", "", "JSON file listing the served platforms, every platform is served when empty")
	serveCmd.Flags().StringVar(&conf.Questionnaire, "questionnaire", "", "YAML or JSON questionnaire asked after the consent step")

	if err := serveCmd.MarkFlagDirname("upload-dir"); err != nil {
		return nil, fmt.Errorf("failed to mark upload-dir flag as directory: %v", err)
	}
	if err := serveCmd.MarkFlagFilename("allow-list", "json"); err != nil {
		return nil, fmt.Errorf("failed to mark allow-list flag as filename: %v", err)
	}
	if err := serveCmd.MarkFlagFilename("questionnaire", "yaml", "yml", "json"); err != nil {
		return nil, fmt.Errorf("failed to mark questionnaire flag as filename: %v", err)
	}

	app.cmd.AddCommand(serveCmd)
	return serveCmd, nil
}

func (a *App) serveRun() (err error) {
	log := slog.Default()
	conf := a.config.Serve

	var cm allowList = server.AllowAll{}
	if conf.AllowList != "" {
		path, err := filepath.Abs(conf.AllowList)
		if err != nil {
			return fmt.Errorf("failed to get absolute path for allow list: %v", err)
		}
		cm = config.New(path, config.WithLogger(log))
	}

	var opts []server.Options
	if conf.Questionnaire != "" {
		q, err := flow.LoadQuestionnaire(conf.Questionnaire)
		if err != nil {
			return err
		}
		opts = append(opts, server.WithQuestionnaire(q))
	}

	sink, err := donation.New(a.ctx, a.config.Donation, donation.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, sink.Close())
	}()

	// The server outlives a.ctx to finish its pending requests.
	s, err := server.New(context.Background(), cm, a.platforms, sink, server.StaticConfig{
		ListenHost:     conf.ListenHost,
		ListenPort:     conf.ListenPort,
		ReadTimeout:    conf.ReadTimeout,
		WriteTimeout:   conf.WriteTimeout,
		RequestTimeout: conf.RequestTimeout,
		MaxHeaderBytes: conf.MaxHeaderBytes,
		MaxUploadBytes: conf.MaxUploadBytes,
		MaxSessions:    conf.MaxSessions,
		UploadDir:      conf.UploadDir,
	}, opts...)
	if err != nil {
		return fmt.Errorf("failed to create server: %v", err)
	}
	stop := context.AfterFunc(a.ctx, func() { s.Quit(false) })
	defer stop()

	return s.Run()
}

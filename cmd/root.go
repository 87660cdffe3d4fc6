// Package cmd defines and implements the CLI commands for the archivooor executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/archivooor/archivooor/internal/app"
	"github.com/archivooor/archivooor/internal/logging"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands will use.
// This allows us to inject a mock app during tests.
type App interface {
	Close()
	GetLogger() *zap.Logger
	Archiver(ctx context.Context) (app.Service, error)
	Keys() app.KeyStore
	SitemapURLs(ctx context.Context, location string) ([]string, error)
}

// newApp is the application factory. It's a variable so tests can swap in a fake.
var newApp = func(opts app.Options) (App, error) {
	a, err := app.New(opts)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// session tracks the App built for one invocation so it can be closed even
// when a command fails.
type session struct {
	app App
}

func (s *session) close() {
	if s.app != nil {
		s.app.Close()
	}
}

func (s *session) logger() *zap.Logger {
	if s.app != nil {
		return s.app.GetLogger()
	}
	logger, err := logging.New(logging.Options{Encoding: "console"})
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func newRootCmd(s *session) *cobra.Command {
	var opts app.Options

	cmd := &cobra.Command{
		Use:   "archivooor",
		Short: "Easily interact with the archive.org Save Page Now API.",
		Long: `archivooor submits web pages to the Wayback Machine and checks
the status of save jobs and of your account's capture sessions.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(opts)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			s.app = appInstance
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (yaml, json or toml)")
	flags.BoolVar(&opts.Debug, "debug", false, "enable development logging")
	flags.StringVar(&opts.MetricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file on exit")

	cmd.AddCommand(
		newSaveCmd(),
		newJobCmd(),
		newStatsCmd(),
		newKeysCmd(),
		newVersionCmd(),
	)
	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := &session{}
	err := newRootCmd(s).ExecuteContext(ctx)
	logger := s.logger()
	s.close()
	if err != nil {
		logger.Error("command execution failed", zap.Error(err))
		_ = logger.Sync() //nolint:errcheck // best-effort flush
		stop()
		os.Exit(1)
	}
}

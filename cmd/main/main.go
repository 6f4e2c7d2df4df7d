package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"zbozi/categories/internal/config"
	"zbozi/categories/internal/container"
	"zbozi/categories/internal/logging"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		var logged loggedError
		if !errors.As(err, &logged) {
			log.Errorf("Application exited with error: %v", err)
		}
		os.Exit(1)
	}
}

// loggedError marks a failure run has already sent to the log
type loggedError struct{ error }

func (e loggedError) Unwrap() error { return e.error }

func newRootCommand() *cobra.Command {
	var dataDir string

	root := &cobra.Command{
		Use:           "zbozi-categories",
		Short:         "Resolve zbozi.cz category IDs to names and paths",
		Long:          "Resolves category IDs from an input table, or from the whole category tree, and writes CATEGORY_ID, CATEGORY_NAME and CATEGORY_PATH to a result table.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), dataDir, "")
		},
	}
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory with config.json (defaults to $KBC_DATADIR or /data/)")

	root.AddCommand(&cobra.Command{
		Use:   "file",
		Short: "Resolve categories listed in the input table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), dataDir, config.SourceFile)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "tree",
		Short: "Resolve every category in the API category tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), dataDir, config.SourceTree)
		},
	})

	return root
}

func run(ctx context.Context, dataDir, source string) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(dataDir)
	if err != nil {
		log.Errorf("Application exited with error: %v", err)
		return loggedError{err}
	}
	if source != "" {
		cfg.Parameters.Source = source
	}

	logCloser := logging.Setup(cfg.Logger.Addr, cfg.Logger.Port, cfg.Parameters.Debug)
	defer logCloser.Close()
	// runs before logCloser, so the failure still reaches the collector
	defer func() {
		if err != nil {
			log.Errorf("Application exited with error: %v", err)
			err = loggedError{err}
		}
	}()

	log.Info("Extracted parameters.")
	log.WithField("redacted", cfg.RedactedKeys()).Info(cfg.Redacted())

	if err := cfg.Validate(); err != nil {
		return err
	}

	app, err := container.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Errorf("Failed to close container: %v", err)
		}
	}()

	if err := app.Run(ctx); err != nil {
		return err
	}

	log.Info("Application finished successfully")
	return nil
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/lingochat/internal/bootstrap"
	"github.com/at-ishikawa/lingochat/internal/config"
)

var (
	configFile string
	debugMode  bool
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var migrate bool

	command := &cobra.Command{
		Use:           "lingochat-server",
		Short:         "Serve the lingochat Connect API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogger(debugMode)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			app := bootstrap.New()
			srv, err := newServer(cmd.Context(), cfg, app, serverOptions{migrate: migrate})
			if err != nil {
				return fmt.Errorf("newServer() > %w", err)
			}
			return app.Run(cmd.Context(), runServer(srv))
		},
	}

	flags := command.PersistentFlags()
	flags.StringVar(&configFile, "config", os.Getenv("LINGOCHAT_CONFIG"), "config file (default is ./config.yml or $HOME/.config/lingochat/config.yml)")
	flags.BoolVar(&debugMode, "debug", false, "enable debug logging")
	command.Flags().BoolVar(&migrate, "migrate", false, "apply database migrations before serving (mysql storage only)")

	return command
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	return loader.Load()
}

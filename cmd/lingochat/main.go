package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	apiv1 "github.com/at-ishikawa/lingochat/internal/api/v1"
	"github.com/at-ishikawa/lingochat/internal/config"
)

var (
	configFile string
	serverURL  string
	debugMode  bool
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	command := &cobra.Command{
		Use:           "lingochat",
		Short:         "Practice Korean and English conversations against a lingochat server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogger(debugMode)
		},
	}

	flags := command.PersistentFlags()
	flags.StringVar(&configFile, "config", os.Getenv("LINGOCHAT_CONFIG"), "config file (default is ./config.yml or $HOME/.config/lingochat/config.yml)")
	flags.StringVar(&serverURL, "server", os.Getenv("LINGOCHAT_SERVER"), "server base URL (default is http://localhost:<server.port>)")
	flags.BoolVar(&debugMode, "debug", false, "enable debug logging")

	command.AddCommand(
		newChatCommand(),
		newConversationsCommand(),
		newMetricsCommand(),
		newPatternsCommand(),
		newTranscriptCommand(),
		newMigrateCommand(),
	)
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

// newClient connects to --server, or to the port in the config file when the flag is empty.
func newClient() (*apiv1.ChatServiceClient, error) {
	baseURL := serverURL
	if baseURL == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		baseURL = "http://localhost:" + strconv.Itoa(cfg.Server.Port)
	}
	slog.Default().Debug("connecting to server", "url", baseURL)
	return apiv1.NewChatServiceClient(http.DefaultClient, baseURL), nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", arg)
	}
	return id, nil
}

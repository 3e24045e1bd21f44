package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lukman83/components-radar/config"
	"github.com/lukman83/components-radar/internal/app"
	"github.com/lukman83/components-radar/internal/logger"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:          "radar",
	Short:        "Components Radar - electronic component search CLI & MCP server",
	Long:         "Search and compare electronic components across Indian hobby electronics retailers.",
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("storage", "", "Client storage: file, redis, memory")
	rootCmd.PersistentFlags().String("storage-path", "", "Session file for file storage")
	rootCmd.PersistentFlags().String("session", "", "Session id for redis storage")
	rootCmd.PersistentFlags().String("api-url", "", "Auth/wishlist backend base URL")
	rootCmd.PersistentFlags().String("gate-policy", "", "Search gate: terms, dwell")
}

func initConfig() {
	cfg = config.DefaultConfig()
	cfg.LoadFromEnv()

	// Override from flags
	if v, _ := rootCmd.PersistentFlags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("storage"); v != "" {
		cfg.Storage = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("storage-path"); v != "" {
		cfg.StoragePath = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("session"); v != "" {
		cfg.SessionID = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("api-url"); v != "" {
		cfg.APIBaseURL = v
	}
	if v, _ := rootCmd.PersistentFlags().GetString("gate-policy"); v != "" {
		cfg.GatePolicy = v
	}

	logger.Init(cfg.Env, cfg.LogLevel)
}

// openApp builds the client session for one command run.
func openApp(ctx context.Context, needSearch bool) (*app.App, error) {
	if needSearch {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return app.New(ctx, cfg, *logger.Get())
}

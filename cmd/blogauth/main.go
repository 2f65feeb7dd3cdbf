// Command blogauth serves the blog authentication API.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/panyam/blogauth/config"
)

var envFiles []string

func main() {
	root := &cobra.Command{
		Use:           "blogauth",
		Short:         "Signup, signin and Google signin for the blog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")
	root.AddCommand(newServeCmd(), newEnsureIndexesCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig loads the config and installs the default logger it describes
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, nil, err
	}
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

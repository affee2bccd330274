package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/recruit-dashboard/internal/app"
	"alfredoptarigan/recruit-dashboard/internal/config"
	"alfredoptarigan/recruit-dashboard/internal/logger"
)

const cliName = "recruitctl"

var rootCmd = &cobra.Command{
	Use:          cliName,
	Short:        "recruitctl ingests CV files and manages jobs and candidates of the recruit dashboard",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
}

// withContainer loads configuration from the environment, wires the
// application and hands it to fn. Background indexing is not started.
func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *app.Container, log *zap.Logger) error) error {
	cfg := config.Load()

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Log.Debug = true
	}
	if jsonLogs, _ := cmd.Flags().GetBool("json"); jsonLogs {
		cfg.Log.JSON = true
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return fmt.Errorf("creating a logger: %w", err)
	}
	defer log.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	container, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer container.Close()

	return fn(ctx, container, log)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/okian/pawmatch/internal/probe"
	"github.com/okian/pawmatch/pkg/logger"
)

const (
	defaultURL     = "http://localhost:9080"
	defaultTimeout = 30 * time.Second
)

// NewRootCmd builds the probe command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pawmatch-probe",
		Short:         "Exercise a running pawmatch server",
		Long:          `Fetch ranked lists, post change notifications and verify ranking invariants against a pawmatch server.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	root.PersistentFlags().String("url", defaultURL, "Base URL of the service")
	root.PersistentFlags().Duration("timeout", defaultTimeout, "HTTP request timeout")
	root.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	root.AddCommand(
		NewRankCmd(),
		NewRefreshCmd(),
		NewScoreCmd(),
		NewNotifyCmd(),
		NewVerifyCmd(),
	)
	return root
}

func clientFrom(cmd *cobra.Command) *probe.Client {
	url, _ := cmd.Flags().GetString("url")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	return probe.NewClient(url, timeout)
}

func loggerFrom(cmd *cobra.Command) logger.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return logger.New(cmd.ErrOrStderr(), level).Named("probe")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// Package cli implements the mediadetect command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"mediadetect/internal/infra"
)

// Version is the application version.
const Version = "0.1.0"

var envFile string

// NewRootCmd builds the command tree. Configuration comes from the
// environment (optionally an env file) and per-command flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mediadetect",
		Short:         "Object detection for uploaded images and videos",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				return godotenv.Load(envFile)
			}
			_ = godotenv.Load()
			return nil
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "load configuration from this file instead of .env")
	root.AddCommand(newServeCmd(), newDetectCmd())
	return root
}

// Execute runs the CLI with a context cancelled on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// loadConfig reads the environment and applies flag overrides that were set.
func loadConfig(cmd *cobra.Command, backend, ffmpeg *string) (*infra.Config, error) {
	if cmd.Flags().Changed("backend") {
		os.Setenv("DETECTOR_BACKEND", *backend)
	}
	if cmd.Flags().Changed("ffmpeg") {
		os.Setenv("FFMPEG_PATH", *ffmpeg)
	}
	return infra.LoadConfig()
}

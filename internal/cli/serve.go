package cli

import (
	"github.com/spf13/cobra"

	"mediadetect/internal/infra"
	"mediadetect/internal/server"
)

func newServeCmd() *cobra.Command {
	var backend, ffmpeg, port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP prediction API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, &backend, &ffmpeg)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			return server.Run(cmd.Context(), cfg, infra.NewLogger(cfg.AppEnv))
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "8000", "HTTP port (overrides PORT)")
	cmd.Flags().StringVarP(&backend, "backend", "b", infra.BackendPython, "detector backend: python, remote or opencv")
	cmd.Flags().StringVar(&ffmpeg, "ffmpeg", "ffmpeg", "ffmpeg executable")
	return cmd
}

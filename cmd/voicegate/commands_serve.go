package main

import (
	"github.com/spf13/cobra"
)

func buildServeCmd() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway, relaying browser sessions to the upstream model",
		Long: `serve loads the gateway configuration, starts the retrieval index
(reusing whatever is already on disk), and listens for browser websocket
connections on /ws/chat. Each connection is relayed to the configured
upstream realtime model, with tool calls intercepted and dispatched
against the internal tool registry.

Graceful shutdown is handled on SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath, debug)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "voicegate.yaml", "Path to YAML configuration file")
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")

	return cmd
}

func buildIndexCmd() *cobra.Command {
	var (
		configPath string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build or refresh the retrieval corpus's vector index",
		Long: `index chunks the configured corpus, embeds each chunk, and
persists the resulting vectors to the configured store directory. Pass
--force to re-embed even if a prior index is already on disk.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), configPath, force)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "voicegate.yaml", "Path to YAML configuration file")
	cmd.Flags().BoolVar(&force, "force", false, "Re-embed every chunk even if the store already has vectors")

	return cmd
}

// Command voicegate is the realtime voice-agent gateway's CLI entry
// point. It loads a YAML configuration file and exposes three
// subcommands: serve (run the gateway), index (build or refresh the
// retrieval corpus's vector index), and version.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information, populated by ldflags during release builds:
//
//	go build -ldflags "-X main.version=v1.0.0 -X main.commit=$(git rev-parse HEAD)"
var (
	version = "dev"
	commit  = "none"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "voicegate",
		Short: "Realtime voice-agent gateway",
		Long: `voicegate relays browser websocket audio sessions to an upstream
realtime model, intercepting function calls so they can be dispatched
against an internal tool registry and account backend before the model
ever sees the result.`,
	}

	rootCmd.AddCommand(
		buildServeCmd(),
		buildIndexCmd(),
		buildVersionCmd(),
	)
	return rootCmd
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Printf("voicegate %s (%s)\n", version, commit)
			return nil
		},
	}
}

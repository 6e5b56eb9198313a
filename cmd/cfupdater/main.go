package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/opsforge/cfupdater/pkg/dnsprovider"
	"github.com/opsforge/cfupdater/pkg/telemetry"
)

var (
	// Global DNS provider registry
	dnsRegistry *dnsprovider.Registry

	// Root command
	rootCmd = &cobra.Command{
		Use:   "cfupdater",
		Short: "cfupdater - keep a DNS record pointed at your public IP",
		Long: `cfupdater detects the machine's public IP address and keeps a DNS
record (Cloudflare or Route 53) pointed at it, on a one-shot or repeating
schedule. Credentials can come from the environment or from 1Password.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup structured logging
			logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}))
			slog.SetDefault(logger)
		},
	}
)

func init() {
	// Load .env file if it exists (silently ignore if not found)
	// This allows users to optionally use .env for local development
	_ = godotenv.Load()

	// DNS providers are registered per invocation: the Cloudflare client
	// needs the resolved API token, which is only known after the config
	// and its secret references have been read.
	dnsRegistry = dnsprovider.NewRegistry()

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	// SIGINT / SIGTERM cancel the context so a long-running schedule
	// shuts down cleanly
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup OpenTelemetry
	_, shutdown, err := telemetry.Setup(ctx)
	if err != nil {
		slog.Error("Failed to setup telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			slog.Error("Failed to shutdown telemetry", "error", err)
		}
	}()

	// Execute root command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("Command execution failed", "error", err)
		os.Exit(1)
	}
}

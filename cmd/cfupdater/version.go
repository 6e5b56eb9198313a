package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/opsforge/cfupdater/pkg/config"
	"github.com/opsforge/cfupdater/pkg/ipsource"
)

const (
	version = "1.0.0"
	commit  = "dev"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  `Display the version information for cfupdater.`,
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	tracer := otel.Tracer("cfupdater")
	_, span := tracer.Start(ctx, "cmd.version")
	defer span.End()

	slog.Info("Version command executed", "version", version, "commit", commit)

	fmt.Printf("cfupdater\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Commit: %s\n", commit)
	fmt.Printf("Supported DNS providers: %s\n", strings.Join(config.ValidProviders, ", "))
	fmt.Printf("Default IP sources: %s\n", strings.Join(ipsource.DefaultSourceOrder, ", "))

	return nil
}

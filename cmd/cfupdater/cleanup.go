package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/opsforge/cfupdater/pkg/status"
)

var (
	cleanupConfigFile  string
	cleanupAutoApprove bool
	cleanupDryRun      bool

	cleanupCmd = &cobra.Command{
		Use:   "cleanup",
		Short: "Delete the managed DNS record",
		Long: `Deletes the DNS record this tool manages from the configured provider.
Use this when decommissioning a machine so the stale record does not keep
pointing at an address you no longer hold.

By default, you will be prompted to confirm before the record is deleted.
Use --auto-approve to skip the confirmation prompt.`,
		RunE: runCleanup,
	}
)

func init() {
	cleanupCmd.Flags().StringVarP(&cleanupConfigFile, "file", "f", "", "Path to cfupdater.yaml file (required)")
	cleanupCmd.Flags().BoolVar(&cleanupAutoApprove, "auto-approve", false, "Skip confirmation prompt and delete immediately")
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "Show what would be deleted without actually deleting")
	// Panic is appropriate in init() since we cannot return errors and this indicates a programming error
	if err := cleanupCmd.MarkFlagRequired("file"); err != nil {
		panic(err)
	}
}

func runCleanup(cmd *cobra.Command, args []string) error {
	// Get cancellable context from cobra (for signal handling)
	ctx := cmd.Context()
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "cmd.cleanup")
	defer span.End()

	span.SetAttributes(
		attribute.String("config.file", cleanupConfigFile),
		attribute.Bool("auto_approve", cleanupAutoApprove),
		attribute.Bool("dry_run", cleanupDryRun),
	)

	slog.Info("Starting record cleanup", "config_file", cleanupConfigFile)

	cfg, material, err := loadConfig(ctx, cleanupConfigFile)
	if err != nil {
		span.RecordError(err)
		return err
	}

	provider, err := buildProvider(ctx, cfg, material)
	if err != nil {
		span.RecordError(err)
		return err
	}

	slog.Info("DNS provider selected", "dns_provider", provider.Name())

	// Show what will be deleted and get confirmation (skip for dry-run)
	if !cleanupAutoApprove && !cleanupDryRun {
		if err := confirmCleanup(ctx, os.Stdin, cfg.RecordName, cfg.RecordType, provider.Name()); err != nil {
			span.RecordError(err)
			slog.Info("Cleanup cancelled by user")
			return err
		}
	}

	// Setup status handler for progress updates
	ctx, cleanupStatus := status.StartHandler(ctx, statusLogHandler())
	defer cleanupStatus()

	if cleanupDryRun {
		live, err := provider.CurrentRecord(ctx, cfg.ZoneName, cfg.RecordName, cfg.RecordType)
		if err != nil {
			span.RecordError(err)
			return err
		}
		if live == nil {
			slog.Info("Record does not exist, nothing to delete", "record_name", cfg.RecordName)
		} else {
			slog.Info("Would delete record (dry-run)", "record", live.String())
		}
		return nil
	}

	status.Send(ctx, status.NewUpdate(status.LevelProgress, "Deleting DNS record").
		WithResource("record").
		WithAction("deleting").
		WithMetadata("record_name", cfg.RecordName))

	if err := provider.DeleteRecord(ctx, cfg.ZoneName, cfg.RecordName, cfg.RecordType); err != nil {
		span.RecordError(err)
		slog.Error("Cleanup failed", "error", err, "dns_provider", provider.Name())
		return err
	}

	slog.Info("Record cleanup completed successfully",
		"record_name", cfg.RecordName,
		"dns_provider", provider.Name(),
	)

	return nil
}

// confirmCleanup prompts the user to confirm before deleting the record
func confirmCleanup(ctx context.Context, in io.Reader, recordName, recordType, providerName string) error {
	tracer := otel.Tracer("cfupdater")
	_, span := tracer.Start(ctx, "cmd.confirmCleanup")
	defer span.End()

	fmt.Println("\n⚠️  WARNING: You are about to delete the following DNS record:")
	fmt.Printf("   Record:   %s\n", recordName)
	fmt.Printf("   Type:     %s\n", recordType)
	fmt.Printf("   Provider: %s\n", providerName)

	fmt.Println("\n   Anything resolving this name will stop working.")
	fmt.Print("\nDo you want to continue? Type 'yes' to confirm: ")

	// Read user input
	reader := bufio.NewReader(in)
	response, err := reader.ReadString('\n')
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to read user input: %w", err)
	}

	// Trim whitespace and newlines
	response = strings.TrimSpace(response)

	if response != "yes" {
		span.SetAttributes(attribute.String("user_response", response))
		return fmt.Errorf("cleanup cancelled (user did not type 'yes')")
	}

	span.SetAttributes(attribute.Bool("confirmed", true))
	fmt.Println()
	return nil
}

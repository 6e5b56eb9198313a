package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/opsforge/cfupdater/pkg/config"
	"github.com/opsforge/cfupdater/pkg/ipsource"
)

var (
	validateConfigFile string
	validateProbe      bool

	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validate the cfupdater.yaml file without touching any DNS records.
This command checks that the configuration file is properly formatted and
contains all required fields.

Use --probe to also query every configured IP source and report which ones
answer and what address each returns.`,
		RunE: runValidate,
	}
)

func init() {
	validateCmd.Flags().StringVarP(&validateConfigFile, "file", "f", "", "Path to cfupdater.yaml file (required)")
	validateCmd.Flags().BoolVar(&validateProbe, "probe", false, "Query all configured IP sources and report their answers")
	// Panic is appropriate in init() since we cannot return errors and this indicates a programming error
	if err := validateCmd.MarkFlagRequired("file"); err != nil {
		panic(err)
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	// Get cancellable context from cobra (for signal handling)
	ctx := cmd.Context()
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "cmd.validate")
	defer span.End()

	span.SetAttributes(
		attribute.String("config.file", validateConfigFile),
		attribute.Bool("probe", validateProbe),
	)

	slog.Info("Validating configuration", "config_file", validateConfigFile)

	// Parse configuration
	cfg, err := config.ParseConfig(ctx, validateConfigFile)
	if err != nil {
		span.RecordError(err)
		slog.Error("Configuration validation failed", "error", err, "file", validateConfigFile)
		return err
	}

	slog.Info("Configuration is valid",
		"dns_provider", cfg.DNSProvider,
		"record_type", cfg.RecordType,
		"schedule_mode", cfg.Schedule.Mode,
	)

	fmt.Printf("✓ Configuration file is valid\n")
	fmt.Printf("  Provider: %s\n", cfg.DNSProvider)
	fmt.Printf("  Record:   %s (%s)\n", cfg.RecordName, cfg.RecordType)
	fmt.Printf("  Schedule: %s\n", cfg.Schedule.Mode)

	// Probe the IP sources if requested
	if validateProbe {
		sources, err := ipsource.NewFromNames(cfg.IPLookup.Sources)
		if err != nil {
			span.RecordError(err)
			slog.Error("Failed to build IP sources", "error", err)
			return err
		}
		chain := ipsource.NewChain(sources, cfg.IPLookup.Timeout)

		slog.Info("Probing IP sources", "count", len(sources))

		failures := 0
		for _, result := range chain.ProbeAll(ctx) {
			if result.Err != nil {
				failures++
				fmt.Printf("✗ %-16s %v\n", result.Source, result.Err)
				continue
			}
			fmt.Printf("✓ %-16s %s\n", result.Source, result.Addr)
		}

		if failures == len(sources) {
			err := fmt.Errorf("all %d IP sources failed", len(sources))
			span.RecordError(err)
			return err
		}
		if failures > 0 {
			fmt.Printf("Note: %d of %d sources failed; the chain falls through to the next source\n",
				failures, len(sources))
		}
	}

	// Unknown top-level keys parse fine but deserve a heads-up
	if len(cfg.AdditionalFields) > 0 {
		keys := make([]string, 0, len(cfg.AdditionalFields))
		for key := range cfg.AdditionalFields {
			keys = append(keys, key)
		}
		fmt.Printf("Note: unrecognized configuration keys: %s\n", strings.Join(keys, ", "))
	}

	return nil
}

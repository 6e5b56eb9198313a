package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/opsforge/cfupdater/pkg/config"
	"github.com/opsforge/cfupdater/pkg/dnsprovider"
	"github.com/opsforge/cfupdater/pkg/dnsprovider/cloudflare"
	"github.com/opsforge/cfupdater/pkg/dnsprovider/route53"
	"github.com/opsforge/cfupdater/pkg/ipsource"
	"github.com/opsforge/cfupdater/pkg/scheduler"
	"github.com/opsforge/cfupdater/pkg/secrets"
	"github.com/opsforge/cfupdater/pkg/status"
	"github.com/opsforge/cfupdater/pkg/updater"
)

var (
	runConfigFile string
	runOnce       bool
	runDryRun     bool
	runTimeout    string

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Detect the public IP and update the DNS record",
		Long: `Detect the machine's public IP address and bring the configured DNS
record in line with it. The configured schedule decides whether this is a
one-shot update or a repeating loop.

Use --once to force a single update regardless of the configured schedule,
and --dry-run to preview the change without touching any records.`,
		RunE: runRun,
	}
)

func init() {
	runCmd.Flags().StringVarP(&runConfigFile, "file", "f", "", "Path to cfupdater.yaml file (required)")
	runCmd.Flags().BoolVar(&runOnce, "once", false, "Run a single update cycle, ignoring the configured schedule")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Show what would be updated without making changes")
	runCmd.Flags().StringVar(&runTimeout, "timeout", "", "Per-cycle timeout (e.g., '30s', '5m')")
	// Panic is appropriate in init() since we cannot return errors and this indicates a programming error
	if err := runCmd.MarkFlagRequired("file"); err != nil {
		panic(err)
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	// Get cancellable context from cobra (for signal handling)
	ctx := cmd.Context()
	tracer := otel.Tracer("cfupdater")
	ctx, span := tracer.Start(ctx, "cmd.run")
	defer span.End()

	span.SetAttributes(
		attribute.String("config.file", runConfigFile),
		attribute.Bool("once", runOnce),
		attribute.Bool("dry_run", runDryRun),
	)

	if runDryRun {
		slog.Info("Starting update (dry-run)", "config_file", runConfigFile)
	} else {
		slog.Info("Starting update", "config_file", runConfigFile)
	}

	// Setup status handler for progress updates
	ctx, cleanupStatus := status.StartHandler(ctx, statusLogHandler())
	defer cleanupStatus()

	// Handle context cancellation (from signal interrupt)
	defer func() {
		if ctx.Err() == context.Canceled {
			slog.Warn("Update interrupted by user")
		}
	}()

	cfg, material, err := loadConfig(ctx, runConfigFile)
	if err != nil {
		span.RecordError(err)
		return err
	}

	// Set runtime options from CLI flags
	cfg.DryRun = runDryRun

	if runTimeout != "" {
		duration, err := time.ParseDuration(runTimeout)
		if err != nil {
			span.RecordError(err)
			slog.Error("Invalid timeout duration", "error", err, "timeout", runTimeout)
			return fmt.Errorf("invalid timeout duration %q: %w", runTimeout, err)
		}
		cfg.Timeout = duration
		span.SetAttributes(attribute.String("timeout", runTimeout))
		slog.Info("Using custom timeout", "timeout", duration)
	}

	provider, err := buildProvider(ctx, cfg, material)
	if err != nil {
		span.RecordError(err)
		return err
	}

	slog.Info("DNS provider selected", "dns_provider", provider.Name())

	u, err := buildUpdater(cfg, provider)
	if err != nil {
		span.RecordError(err)
		return err
	}

	mode := cfg.Schedule.Mode
	runs := cfg.Schedule.Runs
	if runOnce {
		mode = "once"
		runs = 1
	}

	sched, err := scheduler.New(mode, runs)
	if err != nil {
		span.RecordError(err)
		return err
	}

	cycle := func(ctx context.Context) error {
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}

		result, err := u.RunCycle(ctx)
		if err != nil {
			return err
		}

		slog.Info("Update cycle finished",
			"ip", result.IP.String(),
			"ip_source", result.Source,
			"outcome", string(result.Outcome),
		)
		return nil
	}

	if err := sched.Run(ctx, cycle); err != nil {
		if errors.Is(err, context.Canceled) {
			slog.Info("Schedule stopped")
			return nil
		}
		span.RecordError(err)
		slog.Error("Update failed", "error", err, "dns_provider", provider.Name())
		return err
	}

	slog.Info("Update completed successfully", "dns_provider", provider.Name())

	return nil
}

// loadConfig parses the config file and resolves its secret references.
// The returned config holds plain values only.
func loadConfig(ctx context.Context, path string) (*config.Config, secrets.Material, error) {
	cfg, err := config.ParseConfig(ctx, path)
	if err != nil {
		slog.Error("Failed to parse configuration", "error", err, "file", path)
		return nil, secrets.Material{}, err
	}

	slog.Info("Configuration parsed successfully",
		"dns_provider", cfg.DNSProvider,
		"record_type", cfg.RecordType,
	)

	resolver, err := secrets.NewResolver(ctx, cfg.Secrets.Source)
	if err != nil {
		slog.Error("Failed to initialize secrets resolver", "error", err, "source", cfg.Secrets.Source)
		return nil, secrets.Material{}, err
	}

	material, err := secrets.Expand(ctx, resolver, cfg)
	if err != nil {
		slog.Error("Failed to resolve secret references", "error", err)
		return nil, secrets.Material{}, err
	}

	return cfg, material, nil
}

// buildProvider constructs the configured DNS provider, registers it, and
// hands it back through the registry
func buildProvider(ctx context.Context, cfg *config.Config, material secrets.Material) (dnsprovider.Provider, error) {
	var (
		provider dnsprovider.Provider
		err      error
	)

	switch cfg.DNSProvider {
	case "cloudflare":
		provider, err = cloudflare.NewProvider(material.APIToken)
	case "route53":
		provider, err = route53.NewProvider(ctx)
	default:
		return nil, fmt.Errorf("unsupported DNS provider %q", cfg.DNSProvider)
	}
	if err != nil {
		return nil, err
	}

	if err := dnsRegistry.Register(ctx, cfg.DNSProvider, provider); err != nil {
		return nil, err
	}
	return dnsRegistry.Get(ctx, cfg.DNSProvider)
}

// buildUpdater assembles the updater from the resolved configuration
func buildUpdater(cfg *config.Config, provider dnsprovider.Provider) (*updater.Updater, error) {
	sources, err := ipsource.NewFromNames(cfg.IPLookup.Sources)
	if err != nil {
		return nil, err
	}
	chain := ipsource.NewChain(sources, cfg.IPLookup.Timeout)

	var store *updater.StateStore
	if cfg.StateFile != "" {
		store = updater.NewStateStore(afero.NewOsFs(), cfg.StateFile)
	}

	var verifier *updater.Verifier
	if cfg.Verify.Enabled {
		verifier = updater.NewVerifier(cfg.Verify)
	}

	return updater.New(cfg, provider, chain, store, verifier), nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/pkg/config"
	"github.com/marmos91/nestfs/pkg/gc"
	"github.com/marmos91/nestfs/pkg/server"
	"github.com/marmos91/nestfs/pkg/service"
	"github.com/marmos91/nestfs/pkg/store/content"
	"github.com/marmos91/nestfs/pkg/store/metadata"
)

// Set at build time with -ldflags "-X main.version=..."
var (
	version = "dev"
	commit  = "none"
)

const usage = `NestFS - directory tree and file storage REST service

Usage:
  nestfs <command> [flags]

Commands:
  start      Start the API server
  init       Write a sample configuration file
  gc         Remove blobs no file record references
  version    Print version information

Run 'nestfs <command> --help' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "start":
		err = runStart(args)
	case "init":
		err = runInit(args)
	case "gc":
		err = runGC(args)
	case "version":
		fmt.Printf("nestfs %s (commit %s)\n", version, commit)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runInit(args []string) error {
	flags := pflag.NewFlagSet("init", pflag.ExitOnError)
	force := flags.BoolP("force", "f", false, "Overwrite an existing configuration file")
	path := flags.StringP("config", "c", "", "Write to this path instead of the default location")
	_ = flags.Parse(args)

	if *path != "" {
		if err := config.InitConfigToPath(*path, *force); err != nil {
			return err
		}
		fmt.Printf("Configuration written to %s\n", *path)
		return nil
	}

	written, err := config.InitConfig(*force)
	if err != nil {
		return err
	}
	fmt.Printf("Configuration written to %s\n", written)
	return nil
}

// loadConfig loads configuration and configures logging from it.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		return nil, err
	}

	return cfg, nil
}

// openStores creates both stores. The caller closes them.
func openStores(ctx context.Context, cfg *config.Config) (metadata.Store, content.Store, error) {
	metadataStore, err := config.CreateMetadataStore(ctx, &cfg.Metadata)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create metadata store: %w", err)
	}

	contentStore, err := config.CreateContentStore(ctx, &cfg.Content)
	if err != nil {
		_ = metadataStore.Close()
		return nil, nil, fmt.Errorf("failed to create content store: %w", err)
	}

	return metadataStore, contentStore, nil
}

func closeStores(metadataStore metadata.Store, contentStore content.Store) {
	if err := contentStore.Close(); err != nil {
		logger.Error("Failed to close content store: %v", err)
	}
	if err := metadataStore.Close(); err != nil {
		logger.Error("Failed to close metadata store: %v", err)
	}
}

func runStart(args []string) error {
	flags := pflag.NewFlagSet("start", pflag.ExitOnError)
	configPath := flags.StringP("config", "c", "", "Path to config file (default: $XDG_CONFIG_HOME/nestfs/config.yaml)")
	_ = flags.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("NestFS %s starting", version)
	logger.Info("Metadata store: %s, content store: %s", cfg.Metadata.Type, cfg.Content.Type)

	metadataStore, contentStore, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStores(metadataStore, contentStore)

	metricsResult := config.InitializeMetrics(cfg)
	svc := service.New(metadataStore, contentStore, config.ServiceOptions(cfg, metricsResult.StoreMetrics))

	srv := server.New(cfg.Server.ShutdownTimeout)
	for _, a := range config.CreateAdapters(cfg, svc, metricsResult) {
		if err := srv.AddAdapter(a); err != nil {
			return err
		}
	}

	logger.Info("Server is running. Press Ctrl+C to stop.")

	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("Server stopped gracefully")
	return nil
}

func runGC(args []string) error {
	flags := pflag.NewFlagSet("gc", pflag.ExitOnError)
	configPath := flags.StringP("config", "c", "", "Path to config file (default: $XDG_CONFIG_HOME/nestfs/config.yaml)")
	dryRun := flags.Bool("dry-run", false, "Report orphaned blobs without deleting them")
	batchSize := flags.Int("batch-size", gc.DefaultBatchSize, "Blobs deleted per batch")
	_ = flags.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	if cfg.Metadata.Type == "memory" || cfg.Content.Type == "memory" {
		return errors.New("gc needs persistent stores; memory stores are empty in a new process")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metadataStore, contentStore, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStores(metadataStore, contentStore)

	collector := gc.NewCollector(metadataStore, contentStore, gc.Config{
		BatchSize: *batchSize,
		DryRun:    *dryRun,
	})

	stats, err := collector.RunNow(ctx)
	if stats != nil {
		fmt.Println(stats.Summary())
	}
	return err
}

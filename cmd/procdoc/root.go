package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/procdoc/procdoc/internal/config"
	"github.com/procdoc/procdoc/internal/home"
	"github.com/procdoc/procdoc/internal/pipeline"
	"github.com/procdoc/procdoc/internal/providers"
	"github.com/procdoc/procdoc/internal/schema"
	"github.com/procdoc/procdoc/internal/storage"
	"github.com/procdoc/procdoc/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "procdoc",
	Short: "Procedural document digitization pipeline with vision-LLM extraction",
	Long: `Procdoc converts scanned PDF procedural documents (safety work
instructions, maintenance procedures) into validated structured JSON.

The pipeline includes:
  - Section boundary detection with batched vision calls
  - Schema-guided per-section extraction
  - Confidence-gated validation with a human review queue
  - Resumable batch processing`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.procdoc/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "procdoc home directory (default: ~/.procdoc)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "enable debug logging",
	)

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		setOutputFormat(outputFormat)
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	}

	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// newStore opens the store rooted at the configured home directory.
func newStore() (*storage.Store, error) {
	dir, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	return storage.NewStore(dir, slog.Default())
}

// newPipeline assembles the full pipeline from config.
func newPipeline() (*pipeline.Pipeline, error) {
	cm, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg := cm.Get()

	name, vision, err := cfg.ActiveVision()
	if err != nil {
		return nil, err
	}

	// Every configured client is registered, not just the active one, so
	// a config reload can switch providers without rebuilding the set.
	registry := providers.NewRegistry(slog.Default())
	for clientName, cc := range cfg.Providers.Clients {
		built, err := providers.Build(providers.ClientConfig{
			Type:       cc.Type,
			Model:      cc.Model,
			APIKey:     config.ResolveEnvVars(cc.APIKey),
			RPS:        cc.RateLimit,
			MaxRetries: cc.MaxRetries,
			RetryDelay: cc.RetryDelay(),
			Timeout:    cc.Timeout(),
		})
		if err != nil {
			return nil, fmt.Errorf("vision client %q: %w", clientName, err)
		}
		registry.Register(clientName, built)
	}
	client, err := registry.Get(name)
	if err != nil {
		return nil, err
	}
	slog.Default().Info("vision provider ready",
		"provider", name, "model", vision.Model, "registered", registry.Names())

	schemaRegistry, err := schema.NewRegistry()
	if err != nil {
		return nil, err
	}
	store, err := newStore()
	if err != nil {
		return nil, err
	}

	return pipeline.New(pipeline.Config{
		Client:   client,
		Registry: schemaRegistry,
		Store:    store,

		BatchSize:          cfg.Pipeline.BatchSize,
		Workers:            cfg.Pipeline.MaxWorkers,
		ExtractRetries:     cfg.Pipeline.ExtractRetries,
		MaxTokensDetection: cfg.Pipeline.MaxTokensDetection,
		MaxTokensExtract:   cfg.Pipeline.MaxTokensExtraction,
		DetectionFallback:  cfg.Pipeline.DetectionFallback,
		DPI:                cfg.Pipeline.DPI,

		ConfidenceThreshold:    cfg.Pipeline.ConfidenceThreshold,
		LowConfidenceThreshold: cfg.Pipeline.LowConfidenceThreshold,

		Logger: slog.Default(),
	}), nil
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/deepscout/deepscout/internal/config"
	"github.com/deepscout/deepscout/internal/embedding"
	"github.com/deepscout/deepscout/internal/event"
	"github.com/deepscout/deepscout/internal/executor"
	"github.com/deepscout/deepscout/internal/judge"
	"github.com/deepscout/deepscout/internal/logging"
	"github.com/deepscout/deepscout/internal/memory"
	"github.com/deepscout/deepscout/internal/orchestrator"
	"github.com/deepscout/deepscout/internal/research"
	"github.com/deepscout/deepscout/internal/validation"
)

var (
	flagOutputDir  string
	flagIterations int
	flagCorpusDir  string
	flagVerbose    bool
)

var researchCmd = &cobra.Command{
	Use:   "research [query]",
	Short: "Run one adaptive research workflow",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runResearch,
}

func init() {
	researchCmd.Flags().StringVarP(&flagOutputDir, "output", "o", "", "output directory for the report (overrides config)")
	researchCmd.Flags().IntVarP(&flagIterations, "iterations", "n", 0, "iteration budget (overrides config)")
	researchCmd.Flags().StringVar(&flagCorpusDir, "corpus", "", "directory of text files to search offline")
	researchCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "stream per-iteration progress")
	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if flagOutputDir != "" {
		cfg.Research.OutputDir = flagOutputDir
	}
	if flagIterations > 0 {
		cfg.Research.MaxIterations = flagIterations
	}

	logger, err := logging.NewLogger(cfg.Research.OutputDir, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer logger.Close()

	var delegate judge.Delegate
	if cfg.Research.Provider == "http" {
		delegate = judge.NewHTTPDelegate(cfg.Research.ProviderURL, cfg.Research.APIKey)
	}

	searchProvider, err := buildSearchProvider(flagCorpusDir)
	if err != nil {
		return err
	}

	reg := executor.NewRegistry()
	reg.Register(executor.NewPlanner(delegate, logger))
	reg.Register(executor.NewSearcher(searchProvider, delegate, logger))
	reg.Register(executor.NewAnalyzer(delegate, logger))

	bus := event.NewBus()
	if flagVerbose {
		subscribeProgress(bus, cmd)
	}

	orch := orchestrator.New(reg, bus, logger,
		orchestrator.WithPoolSize(cfg.Orchestrator.PoolSize),
		orchestrator.WithMaxBatchSize(cfg.Orchestrator.MaxBatchSize),
		orchestrator.WithTaskTimeout(cfg.Orchestrator.TaskTimeout))

	provider := embedding.NewCachedProvider(
		embedding.NewHashedProvider(cfg.Memory.Dimensions), cfg.Memory.CacheSize)
	mem := memory.New(provider, memory.WithBus(bus))

	validationDelegate := delegate
	if !cfg.Validation.UseDelegate {
		validationDelegate = nil
	}
	validator := validation.New(validationDelegate, bus, logger)

	engine := research.New(reg, orch, mem, validator, bus, logger,
		research.WithMaxIterations(cfg.Research.MaxIterations),
		research.WithMaxDuration(cfg.Research.MaxDuration))

	report, err := engine.Execute(cmd.Context(), query)
	if err != nil {
		return err
	}

	path, err := research.Save(report, cfg.Research.OutputDir)
	if err != nil {
		return err
	}

	cmd.Println(renderSummary(report, path))
	return nil
}

// buildSearchProvider loads every regular file under dir as one corpus
// document. An empty dir selects a small built-in corpus so the command
// works out of the box.
func buildSearchProvider(dir string) (executor.SearchProvider, error) {
	if dir == "" {
		return executor.NewCorpusProvider(builtinCorpus()), nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus directory: %w", err)
	}

	var docs []executor.CorpusDoc
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read corpus file %s: %w", path, err)
		}
		docs = append(docs, executor.CorpusDoc{
			Title: strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())),
			URL:   "file://" + path,
			Body:  string(body),
		})
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("corpus directory %s holds no files", dir)
	}
	return executor.NewCorpusProvider(docs), nil
}

func builtinCorpus() []executor.CorpusDoc {
	return []executor.CorpusDoc{
		{Title: "Deepscout sample: renewable energy", URL: "builtin://renewable-energy",
			Body: "Renewable energy capacity keeps growing, with solar and wind power leading new installations worldwide."},
		{Title: "Deepscout sample: machine learning", URL: "builtin://machine-learning",
			Body: "Machine learning systems learn patterns from data; transformer models dominate language tasks."},
		{Title: "Deepscout sample: quantum computing", URL: "builtin://quantum-computing",
			Body: "Quantum computing uses qubits and superposition; error correction remains the central engineering obstacle."},
	}
}

func subscribeProgress(bus *event.Bus, cmd *cobra.Command) {
	bus.Subscribe("iteration.progress", func(e event.Event) {
		p := e.(event.ProgressEvent)
		cmd.Printf("  [%2d] %-12s confidence=%.2f coverage=%.2f %s\n",
			p.Iteration, p.State, p.Confidence, p.Coverage, p.Message)
	})
	bus.Subscribe("workflow.transition", func(e event.Event) {
		tr := e.(event.TransitionEvent)
		cmd.Printf("       %s -> %s (%s)\n", tr.From, tr.To, tr.Reason)
	})
}

// elapsedString trims a duration for display.
func elapsedString(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}

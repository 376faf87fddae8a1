package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"github.com/calebmor/genbench/internal/logger"
	"github.com/calebmor/genbench/pkg/backends"
	"github.com/calebmor/genbench/pkg/dataset"
	"github.com/calebmor/genbench/pkg/decoder"
	"github.com/calebmor/genbench/pkg/gencache"
	"github.com/calebmor/genbench/pkg/harness"
)

var (
	summaryTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	summaryKeyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(14)
)

type generateFlags struct {
	configPath   string
	backend      string
	model        string
	dataset      string
	baseURL      string
	chatTemplate string
	temperature  float64
	batchSize    int
	maxNewTokens int
	tasksPath    string
	outputPath   string
	numSamples   int
	resume       bool
	greedy       bool
	logLevel     string
}

func generateCmd() *cli.Command {
	var f generateFlags

	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Run generation over a task file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to a YAML run config; flags override its values",
				Destination: &f.configPath,
			},
			&cli.StringFlag{Name: "backend", Usage: "backend kind (vllm, tgi, openai, mistral, anthropic, google)", Destination: &f.backend},
			&cli.StringFlag{Name: "model", Aliases: []string{"m"}, Usage: "model identifier", Destination: &f.model},
			&cli.StringFlag{Name: "dataset", Usage: "dataset name, selects direct-completion stop markers", Destination: &f.dataset},
			&cli.StringFlag{Name: "base-url", Usage: "backend base URL", Destination: &f.baseURL},
			&cli.StringFlag{Name: "chat-template", Usage: "chat template family for local backends; empty = direct completion", Destination: &f.chatTemplate},
			&cli.Float64Flag{Name: "temperature", Usage: "sampling temperature", Destination: &f.temperature},
			&cli.IntFlag{Name: "batch-size", Usage: "samples per backend call", Destination: &f.batchSize},
			&cli.IntFlag{Name: "max-new-tokens", Usage: "generation budget per sample", Destination: &f.maxNewTokens},
			&cli.StringFlag{Name: "tasks", Usage: "task JSONL file", Destination: &f.tasksPath},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "sample JSONL file", Destination: &f.outputPath},
			&cli.IntFlag{Name: "samples", Aliases: []string{"n"}, Usage: "samples per task", Destination: &f.numSamples},
			&cli.BoolFlag{Name: "resume", Usage: "count existing samples toward the per-task target", Destination: &f.resume},
			&cli.BoolFlag{Name: "greedy", Usage: "force greedy decoding even if the config enables sampling", Destination: &f.greedy},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error", Destination: &f.logLevel},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := buildConfig(cmd, f)
			if err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			return runGenerate(ctx, cfg)
		},
	}
}

// buildConfig starts from the YAML config when one is given and overlays
// any flags the user set.
func buildConfig(cmd *cli.Command, f generateFlags) (harness.Config, error) {
	var cfg harness.Config

	if f.configPath != "" {
		var err error
		if cfg, err = harness.LoadConfig(f.configPath); err != nil {
			return harness.Config{}, err
		}
	}

	if f.backend != "" {
		cfg.Decoder.Kind = f.backend
	}
	if f.model != "" {
		cfg.Decoder.Model = f.model
	}
	if f.dataset != "" {
		cfg.Decoder.Dataset = f.dataset
	}
	if f.baseURL != "" {
		cfg.Decoder.BaseURL = f.baseURL
	}
	if cmd.IsSet("chat-template") {
		cfg.Decoder.ChatTemplate = f.chatTemplate
	}
	if cmd.IsSet("temperature") {
		cfg.Decoder.Temperature = f.temperature
		cfg.Run.DoSample = f.temperature > 0
	}
	if f.batchSize > 0 {
		cfg.Decoder.BatchSize = f.batchSize
	}
	if f.maxNewTokens > 0 {
		cfg.Decoder.MaxNewTokens = f.maxNewTokens
	}

	if f.tasksPath != "" {
		cfg.Run.Tasks = f.tasksPath
	}
	if f.outputPath != "" {
		cfg.Run.Output = f.outputPath
	}
	if f.numSamples > 0 {
		cfg.Run.NumSamples = f.numSamples
	}
	if f.resume {
		cfg.Run.Resume = true
	}
	if f.greedy {
		cfg.Run.DoSample = false
	}

	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}

	return cfg, nil
}

func runGenerate(ctx context.Context, cfg harness.Config) error {
	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)

	if cfg.Decoder.APIKey == "" {
		keys, err := harness.LoadKeys(ctx)
		if err != nil {
			return err
		}

		cfg.Decoder.APIKey = keys.For(cfg.Decoder.Kind)
	}

	dec, err := backends.Make(cfg.Decoder)
	if err != nil {
		return err
	}

	dec, cleanup, err := maybeCache(dec, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	tasks, err := dataset.LoadTasks(cfg.Run.Tasks)
	if err != nil {
		return err
	}

	existing := map[string]int{}
	if cfg.Run.Resume {
		if existing, err = dataset.CountExisting(cfg.Run.Output); err != nil {
			return err
		}
	}

	w, err := dataset.NewSampleWriter(cfg.Run.Output)
	if err != nil {
		return err
	}

	runner := harness.NewRunner(dec, log)

	summary, err := runner.Run(ctx, tasks, existing, w, harness.RunOptions{
		NumSamples: cfg.SamplesPerTask(),
		DoSample:   cfg.Run.DoSample,
	})
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	printSummary(summary, cfg.Run.Output)

	return nil
}

// maybeCache wraps dec with the greedy result cache when configured.
func maybeCache(dec decoder.Decoder, cfg harness.Config) (decoder.Decoder, func(), error) {
	if cfg.Run.CacheTTL == "" || cfg.Run.DoSample {
		return dec, func() {}, nil
	}

	ttl, err := time.ParseDuration(cfg.Run.CacheTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse run.cache_ttl: %w", err)
	}

	cached := gencache.New(dec, ttl)

	return cached, cached.Close, nil
}

func printSummary(s harness.Summary, output string) {
	fmt.Println(summaryTitleStyle.Render("Run " + s.RunID))

	row := func(key, val string) {
		fmt.Println(summaryKeyStyle.Render(key) + val)
	}

	row("backend", s.Backend)
	row("tasks", strconv.Itoa(s.Tasks))
	row("generated", strconv.Itoa(s.Generated))
	row("skipped", strconv.Itoa(s.Skipped))
	row("duration", s.Duration.Round(time.Millisecond).String())
	row("input tokens", strconv.Itoa(s.Usage.InputTokens))
	row("output tokens", strconv.Itoa(s.Usage.OutputTokens))
	row("output", output)
}

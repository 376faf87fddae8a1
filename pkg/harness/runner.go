package harness

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/calebmor/genbench/pkg/dataset"
	"github.com/calebmor/genbench/pkg/decoder"
	"github.com/calebmor/genbench/pkg/llmclient"
	"github.com/calebmor/genbench/pkg/llmclient/usage"
)

// RunOptions parameterize one generation run.
type RunOptions struct {
	NumSamples int  // Samples per task (default 1).
	DoSample   bool // Nucleus sampling instead of greedy decoding.
}

// Summary describes a finished run.
type Summary struct {
	RunID     string
	Backend   string
	Tasks     int
	Generated int
	Skipped   int
	Duration  time.Duration
	Usage     usage.TokenCount
}

// Runner walks a task list through a decoder and writes samples.
type Runner struct {
	dec decoder.Decoder
	log zerolog.Logger
}

// NewRunner creates a Runner for the given decoder.
func NewRunner(dec decoder.Decoder, log zerolog.Logger) *Runner {
	return &Runner{dec: dec, log: log}
}

// Run generates samples for every task until each has opts.NumSamples,
// counting samples already present in existing toward the target.
// Samples land in w as they arrive, so an interrupted run can resume
// from its own output.
func (r *Runner) Run(ctx context.Context, tasks []dataset.Task, existing map[string]int, w *dataset.SampleWriter, opts RunOptions) (Summary, error) {
	target := opts.NumSamples
	if target <= 0 || !opts.DoSample {
		// Greedy decoding is deterministic; more than one sample per
		// task would repeat the same completion.
		target = 1
	}

	summary := Summary{
		RunID:   uuid.NewString(),
		Backend: r.dec.Name(),
		Tasks:   len(tasks),
	}

	start := time.Now()

	r.log.Info().
		Str("run_id", summary.RunID).
		Str("backend", summary.Backend).
		Int("tasks", len(tasks)).
		Int("samples_per_task", target).
		Bool("do_sample", opts.DoSample).
		Msg("starting generation")

	for _, task := range tasks {
		generated, skipped, err := r.runTask(ctx, task, target-existing[task.TaskID], w, opts)
		if err != nil {
			return summary, fmt.Errorf("harness: task %s: %w", task.TaskID, err)
		}

		summary.Generated += generated
		summary.Skipped += skipped

		r.log.Info().
			Str("task", task.TaskID).
			Int("generated", generated).
			Int("skipped", skipped).
			Msg("task done")
	}

	summary.Duration = time.Since(start)
	if reporter, ok := r.dec.(llmclient.UsageReporter); ok {
		summary.Usage = reporter.UsageTracker().Total()
	}

	r.log.Info().
		Str("run_id", summary.RunID).
		Int("generated", summary.Generated).
		Int("skipped", summary.Skipped).
		Dur("duration", summary.Duration).
		Int("input_tokens", summary.Usage.InputTokens).
		Int("output_tokens", summary.Usage.OutputTokens).
		Msg("generation finished")

	return summary, nil
}

// runTask generates remaining samples for one task. Direct-completion
// backends return bare continuations, so the task prompt is prefixed to
// make each sample a self-contained solution.
func (r *Runner) runTask(ctx context.Context, task dataset.Task, remaining int, w *dataset.SampleWriter, opts RunOptions) (generated, skipped int, err error) {
	if remaining <= 0 {
		return 0, 1, nil
	}

	for remaining > 0 {
		samples, err := r.dec.Codegen(ctx, task.Prompt, decoder.GenOptions{
			DoSample:   opts.DoSample,
			NumSamples: remaining,
		})
		if err != nil {
			return generated, 0, err
		}

		if len(samples) == 0 {
			return generated, 0, fmt.Errorf("backend returned no samples")
		}

		if len(samples) > remaining {
			samples = samples[:remaining]
		}

		for _, s := range samples {
			completion := s
			if r.dec.IsDirectCompletion() {
				completion = task.Prompt + s
			}

			if err := w.Write(dataset.Sample{TaskID: task.TaskID, Completion: completion}); err != nil {
				return generated, 0, err
			}

			generated++
		}

		remaining -= len(samples)
	}

	return generated, 0, nil
}

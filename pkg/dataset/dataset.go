// Package dataset reads benchmark task files and writes generated
// samples. Both sides are JSON Lines: one task or sample per line.
package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
)

// Lines hold full problem prompts, so the scanner buffer must be far
// larger than bufio's default.
const maxLineBytes = 16 * 1024 * 1024

// Task is one benchmark problem.
type Task struct {
	TaskID     string `json:"task_id"`
	Prompt     string `json:"complete_prompt"`
	EntryPoint string `json:"entry_point"`
}

// Sample is one generated completion for a task.
type Sample struct {
	TaskID     string `json:"task_id"`
	Completion string `json:"solution"`
}

// LoadTasks reads all tasks from a JSONL file, preserving file order.
func LoadTasks(path string) ([]Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open tasks: %w", err)
	}
	defer func() { _ = f.Close() }()

	tasks, err := ReadTasks(f)
	if err != nil {
		return nil, fmt.Errorf("dataset: %s: %w", path, err)
	}

	return tasks, nil
}

// ReadTasks decodes tasks from JSONL input, skipping blank lines.
func ReadTasks(r io.Reader) ([]Task, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var tasks []Task
	line := 0

	for scanner.Scan() {
		line++

		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var task Task
		if err := json.Unmarshal(raw, &task); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		if task.TaskID == "" {
			return nil, fmt.Errorf("line %d: missing task_id", line)
		}

		tasks = append(tasks, task)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	return tasks, nil
}

// CountExisting returns how many samples per task are already present
// in the output file. A missing file means a fresh run.
func CountExisting(path string) (map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]int{}, nil
		}

		return nil, fmt.Errorf("dataset: open samples: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	counts := map[string]int{}
	line := 0

	for scanner.Scan() {
		line++

		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var sample Sample
		if err := json.Unmarshal(raw, &sample); err != nil {
			return nil, fmt.Errorf("dataset: %s: line %d: %w", path, line, err)
		}

		counts[sample.TaskID]++
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("dataset: scan samples: %w", err)
	}

	return counts, nil
}

// SampleWriter appends samples to a JSONL file, flushing after every
// record so an interrupted run loses at most the sample in flight.
type SampleWriter struct {
	f   *os.File
	buf *bufio.Writer
}

// NewSampleWriter opens path for appending, creating it if needed.
func NewSampleWriter(path string) (*SampleWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("dataset: open sample writer: %w", err)
	}

	return &SampleWriter{f: f, buf: bufio.NewWriter(f)}, nil
}

// Write appends one sample as a JSON line and flushes.
func (w *SampleWriter) Write(sample Sample) error {
	raw, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("dataset: marshal sample: %w", err)
	}

	if _, err := w.buf.Write(raw); err != nil {
		return fmt.Errorf("dataset: write sample: %w", err)
	}

	if err := w.buf.WriteByte('\n'); err != nil {
		return fmt.Errorf("dataset: write sample: %w", err)
	}

	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("dataset: flush sample: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying file.
func (w *SampleWriter) Close() error {
	if err := w.buf.Flush(); err != nil {
		_ = w.f.Close()
		return fmt.Errorf("dataset: flush samples: %w", err)
	}

	if err := w.f.Close(); err != nil {
		return fmt.Errorf("dataset: close samples: %w", err)
	}

	return nil
}

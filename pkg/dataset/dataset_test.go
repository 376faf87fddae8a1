package dataset_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/calebmor/genbench/pkg/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTasks(t *testing.T) {
	input := strings.Join([]string{
		`{"task_id": "BigCodeBench/0", "complete_prompt": "def a():\n", "entry_point": "a"}`,
		``,
		`{"task_id": "BigCodeBench/1", "complete_prompt": "def b():\n", "entry_point": "b"}`,
	}, "\n")

	tasks, err := dataset.ReadTasks(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, "BigCodeBench/0", tasks[0].TaskID)
	assert.Equal(t, "def a():\n", tasks[0].Prompt)
	assert.Equal(t, "a", tasks[0].EntryPoint)
	assert.Equal(t, "BigCodeBench/1", tasks[1].TaskID)
}

func TestReadTasks_MissingID(t *testing.T) {
	_, err := dataset.ReadTasks(strings.NewReader(`{"complete_prompt": "x"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing task_id")
}

func TestReadTasks_BadJSON(t *testing.T) {
	_, err := dataset.ReadTasks(strings.NewReader("{\"task_id\": \"t/0\"}\nnot json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadTasks_MissingFile(t *testing.T) {
	_, err := dataset.LoadTasks(filepath.Join(t.TempDir(), "nope.jsonl"))
	require.Error(t, err)
}

func TestSampleWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.jsonl")

	w, err := dataset.NewSampleWriter(path)
	require.NoError(t, err)

	require.NoError(t, w.Write(dataset.Sample{TaskID: "t/0", Completion: "    return 1\n"}))
	require.NoError(t, w.Write(dataset.Sample{TaskID: "t/0", Completion: "    return 2\n"}))
	require.NoError(t, w.Write(dataset.Sample{TaskID: "t/1", Completion: "pass"}))
	require.NoError(t, w.Close())

	counts, err := dataset.CountExisting(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"t/0": 2, "t/1": 1}, counts)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"task_id":"t/0"`)
	assert.Contains(t, lines[0], `"solution":"    return 1\n"`)
}

func TestSampleWriterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.jsonl")

	w, err := dataset.NewSampleWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(dataset.Sample{TaskID: "t/0", Completion: "a"}))
	require.NoError(t, w.Close())

	// Reopening must not truncate earlier samples.
	w, err = dataset.NewSampleWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(dataset.Sample{TaskID: "t/0", Completion: "b"}))
	require.NoError(t, w.Close())

	counts, err := dataset.CountExisting(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"t/0": 2}, counts)
}

func TestCountExisting_MissingFileIsEmpty(t *testing.T) {
	counts, err := dataset.CountExisting(filepath.Join(t.TempDir(), "nope.jsonl"))
	require.NoError(t, err)
	assert.Empty(t, counts)
}

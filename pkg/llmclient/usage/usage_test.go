package usage_test

import (
	"sync"
	"testing"

	"github.com/calebmor/genbench/pkg/llmclient/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_Empty(t *testing.T) {
	var tr usage.Tracker

	_, ok := tr.Last()
	assert.False(t, ok)
	assert.Zero(t, tr.Count())
	assert.Zero(t, tr.Total())
}

func TestTracker_AddAndTotals(t *testing.T) {
	var tr usage.Tracker

	tr.Add(usage.TokenCount{InputTokens: 10, OutputTokens: 5})
	tr.Add(usage.TokenCount{InputTokens: 7, OutputTokens: 3})

	last, ok := tr.Last()
	require.True(t, ok)
	assert.Equal(t, 7, last.InputTokens)
	assert.Equal(t, 3, last.OutputTokens)

	total := tr.Total()
	assert.Equal(t, 17, total.InputTokens)
	assert.Equal(t, 8, total.OutputTokens)
	assert.Equal(t, 25, total.Total())
	assert.Equal(t, 2, tr.Count())
}

func TestTracker_Reset(t *testing.T) {
	var tr usage.Tracker

	tr.Add(usage.TokenCount{InputTokens: 1, OutputTokens: 1})
	tr.Reset()

	assert.Zero(t, tr.Count())
	assert.Zero(t, tr.Total())
}

func TestTracker_Concurrent(t *testing.T) {
	var tr usage.Tracker
	var wg sync.WaitGroup

	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Add(usage.TokenCount{InputTokens: 1, OutputTokens: 2})
		}()
	}
	wg.Wait()

	total := tr.Total()
	assert.Equal(t, 50, total.InputTokens)
	assert.Equal(t, 100, total.OutputTokens)
}

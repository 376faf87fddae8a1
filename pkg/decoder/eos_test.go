package decoder_test

import (
	"testing"

	"github.com/calebmor/genbench/pkg/decoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimAtEOS_EarliestMarkerWins(t *testing.T) {
	text := "x = 1\nprint(x)\ndef main():\n    pass"

	// "\nprint(" appears before "\ndef main(" so the cut happens there.
	got := decoder.TrimAtEOS(text, decoder.DefaultEOS)
	assert.Equal(t, "x = 1", got)
}

func TestTrimAtEOS_NoMarker(t *testing.T) {
	got := decoder.TrimAtEOS("return a + b", decoder.DefaultEOS)
	assert.Equal(t, "return a + b", got)
}

func TestTrimAtEOS_TabsNormalized(t *testing.T) {
	got := decoder.TrimAtEOS("\tx = 1\n\treturn x<|endoftext|>ignored", decoder.DefaultEOS)
	assert.Equal(t, "    x = 1\n    return x", got)
}

func TestTrimAtEOS_MarkerAtStart(t *testing.T) {
	got := decoder.TrimAtEOS("</s>anything", decoder.DefaultEOS)
	assert.Equal(t, "", got)
}

func TestTrimAtEOS_ChatFence(t *testing.T) {
	eos := append([]string{decoder.ChatFenceEOS}, decoder.DefaultEOS...)
	got := decoder.TrimAtEOS("    return 42\n```\ntrailing prose", eos)
	assert.Equal(t, "    return 42", got)
}

func TestExtraEOSForDirectCompletion(t *testing.T) {
	extra, err := decoder.ExtraEOSForDirectCompletion("bigcodebench")
	require.NoError(t, err)
	assert.Contains(t, extra, "\ndef ")
	assert.Contains(t, extra, "\nassert ")

	// Case-insensitive dataset matching.
	_, err = decoder.ExtraEOSForDirectCompletion("BigCodeBench")
	require.NoError(t, err)

	_, err = decoder.ExtraEOSForDirectCompletion("humaneval")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "humaneval")
}

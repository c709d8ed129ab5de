package ledger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_AppendReadRoundTrip(t *testing.T) {
	led, err := New("run-1", t.TempDir(), nil)
	require.NoError(t, err)
	defer led.Close()

	first := NewEvent("run-1", EventInitialAnalysisProduced, "architect_1",
		map[string]any{"analysis": "the code is fine"})
	second := NewEvent("run-1", EventRevisionComplete, "architect_1",
		map[string]any{"analysis": "the code is mostly fine", "confidence_score": float64(7)})

	require.NoError(t, led.Append(first))
	require.NoError(t, led.Append(second))

	events, err := led.ReadEvents()
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Timestamps survive JSON with UTC location intact.
	if diff := cmp.Diff([]Event{first, second}, events); diff != "" {
		t.Errorf("events round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLedger_RejectsRunIDMismatch(t *testing.T) {
	led, err := New("run-1", t.TempDir(), nil)
	require.NoError(t, err)
	defer led.Close()

	err = led.Append(NewEvent("run-2", EventSynthesisComplete, "synthesizer", nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run_id")

	// Nothing was written.
	events, err := led.ReadEvents()
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestLedger_ReadSkipsCorruptedLines(t *testing.T) {
	led, err := New("run-1", t.TempDir(), nil)
	require.NoError(t, err)
	defer led.Close()

	require.NoError(t, led.Append(NewEvent("run-1", EventInitialAnalysisProduced, "a", nil)))

	// Simulate a torn write.
	f, err := os.OpenFile(led.Path(), os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{\"run_id\": \"run-1\", truncated\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, led.Append(NewEvent("run-1", EventRevisionComplete, "a", nil)))

	events, err := led.ReadEvents()
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestLedger_ReadMissingFileYieldsEmpty(t *testing.T) {
	led, err := New("run-1", t.TempDir(), nil)
	require.NoError(t, err)
	require.NoError(t, led.Close())
	require.NoError(t, os.Remove(led.Path()))

	events, err := led.ReadEvents()
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestLedger_AppendAfterCloseFails(t *testing.T) {
	led, err := New("run-1", t.TempDir(), nil)
	require.NoError(t, err)
	require.NoError(t, led.Close())

	err = led.Append(NewEvent("run-1", EventSynthesisComplete, "synthesizer", nil))
	require.Error(t, err)
}

func TestLedger_ProvisionsRunDirectory(t *testing.T) {
	base := t.TempDir()
	led, err := New("run-abc", base, nil)
	require.NoError(t, err)
	defer led.Close()

	assert.Equal(t, filepath.Join(base, "run-abc", "reasoning_ledger.jsonl"), led.Path())
	info, err := os.Stat(led.Path())
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

func TestNewEvent_FreshIdentityAndUTC(t *testing.T) {
	a := NewEvent("r", EventQAFeedbackProduced, "qa", nil)
	b := NewEvent("r", EventQAFeedbackProduced, "qa", nil)

	assert.NotEqual(t, a.EventID, b.EventID)
	assert.Equal(t, time.UTC, a.Timestamp.Location())
}

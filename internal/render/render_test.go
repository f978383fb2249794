package render

import (
	"bytes"
	"strings"
	"testing"

	"gemcli/internal/history"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderToString(t *testing.T, records []history.Record, opts Options) string {
	t.Helper()
	var buf bytes.Buffer
	opts.Out = &buf
	opts.ForceNoColor = true
	require.NoError(t, History(records, opts))
	return buf.String()
}

func TestHistoryEmptyLog(t *testing.T) {
	out := renderToString(t, nil, Options{})
	assert.Contains(t, out, "No history yet.")
}

func TestHistoryStructuredRecord(t *testing.T) {
	rec := history.Record{
		Timestamp: "2025-07-01T10:00:00Z",
		Model:     "gemini-1.5-flash",
		Prompt:    "say hello",
		FullResponse: history.ResponseBody{
			Structured: true,
			Value: map[string]any{
				"candidates": []any{
					map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": "hello"}}}},
				},
				"usageMetadata": map[string]any{
					"promptTokenCount": float64(3),
					"totalTokenCount":  float64(8),
				},
			},
		},
		TextResponse: "hello",
	}

	out := renderToString(t, []history.Record{rec}, Options{Wrap: 60})

	assert.Contains(t, out, "[#001] 2025-07-01T10:00:00Z | gemini-1.5-flash")
	assert.Contains(t, out, "prompt: say hello")
	assert.Contains(t, out, "╭")
	assert.Contains(t, out, "│ hello")
	assert.Contains(t, out, `"candidates"`)
	assert.Contains(t, out, "tokens: prompt=3 total=8")
	assert.NotContains(t, out, "response=", "absent counts must not be rendered")
}

func TestHistoryOpaqueRecordVerbatim(t *testing.T) {
	rec := history.Record{
		Timestamp:    "2025-07-01T10:00:00Z",
		Model:        "gemini-1.5-flash",
		Prompt:       "hi",
		FullResponse: history.ResponseBody{Text: "<html>bad gateway</html>"},
	}

	out := renderToString(t, []history.Record{rec}, Options{Wrap: 60})

	assert.Contains(t, out, "<html>bad gateway</html>")
	assert.NotContains(t, out, "╭", "no answer box without extracted text")
	assert.NotContains(t, out, "tokens:")
}

func TestHistoryUsageLineNeedsPromptTokens(t *testing.T) {
	rec := history.Record{
		Timestamp: "2025-07-01T10:00:00Z",
		Model:     "m",
		Prompt:    "p",
		FullResponse: history.ResponseBody{
			Structured: true,
			Value:      map[string]any{"usageMetadata": map[string]any{"totalTokenCount": float64(5)}},
		},
	}

	out := renderToString(t, []history.Record{rec}, Options{Wrap: 60})
	assert.NotContains(t, out, "tokens:", "usage line requires promptTokens")
}

func TestHistoryRecordsAreOneIndexed(t *testing.T) {
	records := []history.Record{
		{Timestamp: "2025-07-02T10:00:00Z", Model: "m", Prompt: "newest", FullResponse: history.ResponseBody{Text: "x"}},
		{Timestamp: "2025-07-01T10:00:00Z", Model: "m", Prompt: "oldest", FullResponse: history.ResponseBody{Text: "y"}},
	}

	out := renderToString(t, records, Options{Wrap: 60})

	first := strings.Index(out, "[#001]")
	second := strings.Index(out, "[#002]")
	require.GreaterOrEqual(t, first, 0)
	require.Greater(t, second, first)
	assert.Less(t, strings.Index(out, "newest"), strings.Index(out, "oldest"))
}

func TestRenderTextBoxWraps(t *testing.T) {
	lines := renderTextBox("one two three four five six seven eight", 20)

	require.GreaterOrEqual(t, len(lines), 4, "expected frame plus wrapped lines")
	assert.True(t, strings.HasPrefix(lines[0], "╭"))
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "╰"))
	for _, line := range lines[1 : len(lines)-1] {
		assert.True(t, strings.HasPrefix(line, "│"))
		assert.True(t, strings.HasSuffix(line, "│"))
	}
}

func TestDetermineWidthFallback(t *testing.T) {
	t.Setenv("COLUMNS", "")
	assert.Equal(t, 80, determineWidth(nil, 0))
	assert.Equal(t, 42, determineWidth(nil, 42))

	t.Setenv("COLUMNS", "100")
	assert.Equal(t, 100, determineWidth(nil, 0))
}

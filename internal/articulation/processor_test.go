package articulation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseProcessor_Process(t *testing.T) {
	rp := NewResponseProcessor()

	res := rp.Process("*clears throat* Hey!  I'm   Gabriel.")
	assert.Equal(t, "Hey! I'm Gabriel.", res.Surface)
	assert.False(t, res.Truncated)
	assert.Empty(t, res.Warnings)

	res = rp.Process("*waves*")
	assert.Equal(t, "", res.Surface)
	assert.Contains(t, res.Warnings, "empty response after cleaning")

	stats := rp.GetStats()
	assert.Equal(t, 2, stats.TotalProcessed)
	assert.Equal(t, 2, stats.Modified)
	assert.Equal(t, 1, stats.Empty)

	rp.ResetStats()
	assert.Equal(t, ProcessorStats{}, rp.GetStats())
}

func TestResponseProcessor_Truncate(t *testing.T) {
	rp := &ResponseProcessor{MaxSurfaceLength: 10}
	res := rp.Process(strings.Repeat("abc ", 10))
	assert.True(t, res.Truncated)
	assert.LessOrEqual(t, len([]rune(res.Surface)), 10)
	assert.Equal(t, 1, rp.GetStats().Truncated)
}

func TestSpeakable(t *testing.T) {
	in := "## Top picks\n| Band | Album |\n|---|---|\n| Pink Floyd | Animals |\nSee [the review](https://example.com) and `code`."
	out := Speakable(in)
	assert.NotContains(t, out, "#")
	assert.NotContains(t, out, "|")
	assert.NotContains(t, out, "---")
	assert.NotContains(t, out, "https://")
	assert.NotContains(t, out, "`")
	assert.Contains(t, out, "Pink Floyd")
	assert.Contains(t, out, "the review")
}

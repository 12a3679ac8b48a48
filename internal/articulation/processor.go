package articulation

import (
	"regexp"
	"strings"
	"sync"

	"personabot/internal/logging"
)

// ArticulationResult is a processed model response.
type ArticulationResult struct {
	// Surface is the sanitized text shown to the operator.
	Surface string
	// Spoken is Surface with markdown syntax removed, for speech synthesis.
	Spoken string
	// Truncated is set when Surface was cut to MaxSurfaceLength.
	Truncated bool
	Warnings  []string
}

// ProcessorStats counts processed responses.
type ProcessorStats struct {
	TotalProcessed int
	Modified       int
	Empty          int
	Truncated      int
}

// ResponseProcessor sanitizes model responses and keeps running stats.
type ResponseProcessor struct {
	// MaxSurfaceLength caps Surface in runes. Zero disables the cap.
	MaxSurfaceLength int

	mu    sync.Mutex
	stats ProcessorStats
}

// NewResponseProcessor creates a new processor with default settings.
func NewResponseProcessor() *ResponseProcessor {
	return &ResponseProcessor{MaxSurfaceLength: 50000}
}

// Process cleans a raw response. It never fails; an empty result is
// reported as a warning so callers can surface it.
func (rp *ResponseProcessor) Process(raw string) *ArticulationResult {
	result := &ArticulationResult{Warnings: []string{}}

	surface := Clean(raw)
	if rp.MaxSurfaceLength > 0 {
		if runes := []rune(surface); len(runes) > rp.MaxSurfaceLength {
			surface = Clean(string(runes[:rp.MaxSurfaceLength]))
			result.Truncated = true
			result.Warnings = append(result.Warnings, "response truncated")
		}
	}
	result.Surface = surface
	result.Spoken = Speakable(surface)
	if surface == "" {
		result.Warnings = append(result.Warnings, "empty response after cleaning")
	}

	rp.mu.Lock()
	rp.stats.TotalProcessed++
	if surface != strings.TrimSpace(raw) {
		rp.stats.Modified++
	}
	if surface == "" {
		rp.stats.Empty++
	}
	if result.Truncated {
		rp.stats.Truncated++
	}
	rp.mu.Unlock()

	logging.ArticulationDebug("processed response: raw_len=%d surface_len=%d warnings=%d",
		len(raw), len(surface), len(result.Warnings))
	return result
}

// GetStats returns a snapshot of the processor stats.
func (rp *ResponseProcessor) GetStats() ProcessorStats {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	return rp.stats
}

// ResetStats zeroes the processor stats.
func (rp *ResponseProcessor) ResetStats() {
	rp.mu.Lock()
	rp.stats = ProcessorStats{}
	rp.mu.Unlock()
}

var (
	mdLink      = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	mdHeading   = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	mdTableRule = regexp.MustCompile(`(?m)^\s*\|?\s*:?-{3,}:?\s*(\|\s*:?-{3,}:?\s*)*\|?\s*$`)
	mdMarks     = strings.NewReplacer("`", "", "*", "", "__", "", "|", ", ")
)

// Speakable strips markdown syntax (links, headings, table rules, pipes,
// code ticks) so a speech engine does not read it aloud.
func Speakable(text string) string {
	out := mdLink.ReplaceAllString(text, "$1")
	out = mdTableRule.ReplaceAllString(out, "")
	out = mdHeading.ReplaceAllString(out, "")
	out = mdMarks.Replace(out)
	out = strings.ReplaceAll(out, ", ,", ",")
	out = collapseSpace(out)
	return strings.Trim(strings.TrimSpace(out), ", ")
}

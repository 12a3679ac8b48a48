package voice

import (
	"math"
	"regexp"
	"strings"
)

// DefaultVoice is the Kokoro voice used when nothing else matches.
const DefaultVoice = "am_puck"

// baseRate is the words-per-minute rate that maps to speed 1.0.
const baseRate = 175

var openAIVoices = map[string]string{
	"alloy":   "af_heart",
	"echo":    "af_heart",
	"fable":   "af_heart",
	"onyx":    "af_heart",
	"nova":    "af_heart",
	"shimmer": "af_heart",
	"puck":    "am_puck",
}

var kokoroVoiceID = regexp.MustCompile(`^[a-z]{2}_[a-z]+$`)

// KokoroVoice maps a configured voice name onto a Kokoro voice id. OpenAI
// voice names are translated; Kokoro ids pass through; anything else gets
// DefaultVoice.
func KokoroVoice(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if v, ok := openAIVoices[name]; ok {
		return v
	}
	if kokoroVoiceID.MatchString(name) {
		return name
	}
	return DefaultVoice
}

// OpenAIVoice returns name when the speech API knows it, otherwise "alloy".
func OpenAIVoice(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := openAIVoices[name]; ok && name != "puck" {
		return name
	}
	return "alloy"
}

// Speed converts a words-per-minute rate into a synthesis speed factor
// clamped to [0.25, 4.0]. A non-positive rate means normal speed.
func Speed(rate int) float64 {
	if rate <= 0 {
		return 1.0
	}
	return math.Max(0.25, math.Min(4.0, float64(rate)/baseRate))
}

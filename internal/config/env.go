package config

import (
	"os"
	"strconv"
	"strings"
)

// ApplyEnvOverrides applies environment variable overrides.
// Environment always wins over the config file.
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.OpenAI.APIKey = key
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		c.LLM.OpenAI.Model = model
	}
	if url := os.Getenv("OLLAMA_BASE_URL"); url != "" {
		c.LLM.Ollama.BaseURL = url
	}
	if model := os.Getenv("OLLAMA_MODEL"); model != "" {
		c.LLM.Ollama.Model = model
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.Gemini.APIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.LLM.Anthropic.APIKey = key
	}

	if domain := os.Getenv("DOMAIN_NAME"); domain != "" {
		c.Bridge.Domain = domain
	}

	if key := os.Getenv("SERPER_API_KEY"); key != "" {
		c.Search.SerperAPIKey = key
		c.Search.Engine = "serper"
	}

	if v, ok := envBool("USE_KOKORO_TTS"); ok {
		c.Voice.UseKokoro = v
	}
	if voice := os.Getenv("TTS_VOICE"); voice != "" {
		c.Voice.TTSVoice = voice
	}
	if rate, err := strconv.Atoi(os.Getenv("TTS_RATE")); err == nil && rate > 0 {
		c.Voice.TTSRate = rate
	}
	if model := os.Getenv("WHISPER_MODEL"); model != "" {
		c.Voice.WhisperModel = model
	}
	if secs, err := strconv.ParseFloat(os.Getenv("VOICE_RECORD_SECONDS"), 64); err == nil && secs > 0 {
		c.Voice.RecordSeconds = secs
	}
	if dir := os.Getenv("PERSONA_SCRATCH_DIR"); dir != "" {
		c.Voice.ScratchDir = dir
	}

	if path := os.Getenv("PERSONA_FILE"); path != "" {
		c.PersonaFile = path
	}
}

// envBool reads a yes/no style flag. The second result is false when unset.
func envBool(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true, true
	default:
		return false, true
	}
}

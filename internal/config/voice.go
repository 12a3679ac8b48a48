package config

import (
	"fmt"
	"runtime"
)

// VoiceConfig configures the speech engines. Command templates are argv
// lists; placeholders such as {input}, {output}, {seconds} are substituted
// per call.
type VoiceConfig struct {
	RecordSeconds float64 `yaml:"record_seconds" mapstructure:"record_seconds"`
	SampleRate    int     `yaml:"sample_rate" mapstructure:"sample_rate"`
	WhisperModel  string  `yaml:"whisper_model" mapstructure:"whisper_model"`

	// UseKokoro selects the local Kokoro engine; false uses the OpenAI speech API.
	UseKokoro bool   `yaml:"use_kokoro" mapstructure:"use_kokoro"`
	TTSVoice  string `yaml:"tts_voice" mapstructure:"tts_voice"`
	TTSRate   int    `yaml:"tts_rate" mapstructure:"tts_rate"`
	TTSModel  string `yaml:"tts_model" mapstructure:"tts_model"`

	// ScratchDir holds audio clips. Empty means a temp directory.
	ScratchDir string `yaml:"scratch_dir" mapstructure:"scratch_dir"`

	RecordCommand     []string `yaml:"record_command" mapstructure:"record_command"`
	TranscribeCommand []string `yaml:"transcribe_command" mapstructure:"transcribe_command"`
	SynthesizeCommand []string `yaml:"synthesize_command" mapstructure:"synthesize_command"`
	PlayCommand       []string `yaml:"play_command" mapstructure:"play_command"`
}

// DefaultVoiceConfig returns defaults for the host platform.
func DefaultVoiceConfig() VoiceConfig {
	cfg := VoiceConfig{
		RecordSeconds: 6.0,
		SampleRate:    16000,
		WhisperModel:  "small",
		UseKokoro:     true,
		TTSVoice:      "am_puck",
		TTSRate:       175,
		TTSModel:      "tts-1",
		ScratchDir:    "voice_artifacts",
		TranscribeCommand: []string{
			"whisper", "{input}",
			"--model", "{model}",
			"--language", "en",
			"--output_format", "txt",
			"--output_dir", "{output_dir}",
			"--fp16", "False",
		},
		SynthesizeCommand: []string{
			"python3", "-m", "kokoro",
			"--voice", "{voice}",
			"--speed", "{speed}",
			"--text", "{text}",
			"--output-file", "{output}",
		},
	}

	switch runtime.GOOS {
	case "darwin":
		cfg.RecordCommand = []string{"rec", "-q", "-r", "{sample_rate}", "-c", "1", "{output}", "trim", "0", "{seconds}"}
		cfg.PlayCommand = []string{"afplay", "{input}"}
	default:
		cfg.RecordCommand = []string{"arecord", "-q", "-f", "S16_LE", "-r", "{sample_rate}", "-c", "1", "-d", "{seconds_int}", "{output}"}
		cfg.PlayCommand = []string{"aplay", "-q", "{input}"}
	}
	return cfg
}

// Validate checks voice parameters.
func (c VoiceConfig) Validate() error {
	if c.RecordSeconds <= 0 {
		return fmt.Errorf("voice.record_seconds must be positive: %v", c.RecordSeconds)
	}
	if c.TTSRate <= 0 {
		return fmt.Errorf("voice.tts_rate must be positive: %d", c.TTSRate)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("voice.sample_rate must be positive: %d", c.SampleRate)
	}
	return nil
}

package voice

import (
	"personabot/internal/config"
	"personabot/internal/tactile"
)

// EnginesFromConfig builds the speech engines. Synthesis uses the local
// command (Kokoro) when UseKokoro is set, otherwise the OpenAI speech API.
func EnginesFromConfig(cfg *config.Config, exec tactile.Executor) Engines {
	v := cfg.Voice
	eng := Engines{
		Recorder:    NewCommandRecorder(exec, v.RecordCommand, v.SampleRate),
		Transcriber: NewWhisperTranscriber(exec, v.TranscribeCommand, v.WhisperModel),
		Player:      NewCommandPlayer(exec, v.PlayCommand),
	}
	if v.UseKokoro {
		eng.Synthesizer = NewCommandSynthesizer(exec, v.SynthesizeCommand, v.TTSVoice, v.TTSRate)
	} else {
		eng.Synthesizer = NewOpenAISpeech(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.BaseURL, v.TTSModel, v.TTSVoice, v.TTSRate)
	}
	return eng
}

// Report lists each engine's availability, nil meaning ready.
func (e Engines) Report() map[string]error {
	report := map[string]error{}
	check := func(name string, a interface{ Available() error }, isNil bool) {
		if isNil {
			report[name] = errNotConfigured
			return
		}
		report[name] = a.Available()
	}
	check("recorder", e.Recorder, e.Recorder == nil)
	check("transcriber", e.Transcriber, e.Transcriber == nil)
	check("synthesizer", e.Synthesizer, e.Synthesizer == nil)
	check("player", e.Player, e.Player == nil)
	return report
}

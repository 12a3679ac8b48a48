package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"personabot/internal/logging"
)

// OpenAISpeech synthesizes with the OpenAI speech endpoint.
type OpenAISpeech struct {
	APIKey  string
	BaseURL string
	Model   string
	Voice   string
	Speed   float64
	Client  *http.Client
}

// NewOpenAISpeech creates a speech client. voice and rate are mapped with
// OpenAIVoice and Speed.
func NewOpenAISpeech(apiKey, baseURL, model, voice string, rate int) *OpenAISpeech {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "tts-1"
	}
	return &OpenAISpeech{
		APIKey:  apiKey,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Voice:   OpenAIVoice(voice),
		Speed:   Speed(rate),
		Client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type speechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

// Available requires an API key.
func (s *OpenAISpeech) Available() error {
	if s.APIKey == "" {
		return errors.New("OPENAI_API_KEY not set")
	}
	return nil
}

// Synthesize writes a WAV rendering of text to dest.
func (s *OpenAISpeech) Synthesize(ctx context.Context, text, dest string) error {
	if err := s.Available(); err != nil {
		return err
	}
	body, err := json.Marshal(speechRequest{
		Model:          s.Model,
		Input:          text,
		Voice:          s.Voice,
		ResponseFormat: "wav",
		Speed:          s.Speed,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return fmt.Errorf("speech request failed with status %d: %s", resp.StatusCode, msg)
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create audio file: %w", err)
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write audio file: %w", err)
	}
	if n == 0 {
		return errors.New("speech API returned no audio")
	}
	logging.VoiceDebug("openai speech wrote %d bytes to %s", n, dest)
	return nil
}

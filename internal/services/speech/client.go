package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"reel/internal/config"
)

const (
	defaultHTTPTimeout = 120 * time.Second
	outputFormat       = "mp3_44100_128"

	// MimeType is the content type of every clip the client produces.
	MimeType = "audio/mpeg"
)

// Clip is one synthesized voiceover segment. DurationSeconds comes from the
// synthesis alignment data, not from decoding the audio.
type Clip struct {
	Audio           []byte
	DurationSeconds float64
}

// Client wraps an ElevenLabs-style text-to-speech API. One clip is
// synthesized per scene; audio bytes never enter the document.
type Client struct {
	cfg        config.Speech
	voiceID    string
	language   string
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a speech synthesis client. The voice identifier and
// normalized language tag are resolved by the caller from configuration.
func NewClient(cfg config.Speech, voiceID, language string, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: config.Speech{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			Voice:          strings.TrimSpace(cfg.Voice),
			Language:       strings.TrimSpace(cfg.Language),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		voiceID:    strings.TrimSpace(voiceID),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type synthesisRequest struct {
	Text         string `json:"text"`
	ModelID      string `json:"model_id,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

type synthesisResponse struct {
	AudioBase64 string `json:"audio_base64"`
	Alignment   struct {
		Characters          []string  `json:"characters"`
		CharacterStartTimes []float64 `json:"character_start_times_seconds"`
		CharacterEndTimes   []float64 `json:"character_end_times_seconds"`
	} `json:"alignment"`
}

// Synthesize converts text into one audio clip. The text may carry inline
// delivery tags; the backend interprets them without speaking them aloud.
func (c *Client) Synthesize(ctx context.Context, text string) (Clip, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Clip{}, errors.New("speech synthesize: text required")
	}
	if c.cfg.APIKey == "" {
		return Clip{}, errors.New("speech synthesize: api key required")
	}
	if c.voiceID == "" {
		return Clip{}, errors.New("speech synthesize: voice required")
	}

	endpoint, err := url.JoinPath(c.cfg.BaseURL, "v1", "text-to-speech", c.voiceID, "with-timestamps")
	if err != nil {
		return Clip{}, fmt.Errorf("speech synthesize: build url: %w", err)
	}
	endpoint += "?output_format=" + outputFormat

	encoded, err := json.Marshal(synthesisRequest{
		Text:         text,
		LanguageCode: c.language,
	})
	if err != nil {
		return Clip{}, fmt.Errorf("speech synthesize: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return Clip{}, fmt.Errorf("speech synthesize: new request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Clip{}, fmt.Errorf("speech synthesize: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Clip{}, fmt.Errorf("speech synthesize: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Clip{}, fmt.Errorf("speech synthesize: http %d: %s", resp.StatusCode, summarizeBody(body))
	}

	var parsed synthesisResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Clip{}, fmt.Errorf("speech synthesize: decode response: %w", err)
	}
	if parsed.AudioBase64 == "" {
		return Clip{}, errors.New("speech synthesize: response carried no audio")
	}
	audio, err := base64.StdEncoding.DecodeString(parsed.AudioBase64)
	if err != nil {
		return Clip{}, fmt.Errorf("speech synthesize: decode audio: %w", err)
	}

	return Clip{
		Audio:           audio,
		DurationSeconds: alignmentDuration(parsed),
	}, nil
}

// HealthCheck verifies the API key can list voices.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return errors.New("speech health: api key required")
	}
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "v1", "voices")
	if err != nil {
		return fmt.Errorf("speech health: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("speech health: new request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("speech health: http error: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("speech health: http %d: %s", resp.StatusCode, summarizeBody(body))
	}
	return nil
}

// alignmentDuration reads the clip length from the character timing data.
// Missing alignment yields zero; callers treat that as "duration unknown".
func alignmentDuration(parsed synthesisResponse) float64 {
	ends := parsed.Alignment.CharacterEndTimes
	if len(ends) == 0 {
		return 0
	}
	last := ends[len(ends)-1]
	if last < 0 {
		return 0
	}
	return last
}

func summarizeBody(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "<empty>"
	}
	const limit = 160
	runes := []rune(trimmed)
	if len(runes) > limit {
		return string(runes[:limit]) + "..."
	}
	return trimmed
}

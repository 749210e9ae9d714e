package google

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"narrate-backend/internal/tts"
)

const (
	defaultBaseURL = "https://texttospeech.googleapis.com/v1"
	languageCode   = "en-US"
	audioEncoding  = "MP3"
)

// Client implements tts.Synthesizer using the Google Cloud Text-to-Speech
// REST API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a synthesizer client. baseURL may be empty to target
// the Google API directly.
func NewClient(apiKey, baseURL string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GOOGLE_TTS_API_KEY is required")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}, nil
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string  `json:"audioEncoding"`
		SpeakingRate  float64 `json:"speakingRate"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
	Error        *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Synthesize converts text to MP3 bytes with the given voice and rate.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string, speakingRate float64) ([]byte, error) {
	if voiceID == "" {
		voiceID = tts.DefaultVoice
	}
	if speakingRate <= 0 {
		speakingRate = tts.DefaultSpeakingRate
	}

	var reqBody synthesizeRequest
	reqBody.Input.Text = text
	reqBody.Voice.LanguageCode = languageCode
	reqBody.Voice.Name = voiceID
	reqBody.AudioConfig.AudioEncoding = audioEncoding
	reqBody.AudioConfig.SpeakingRate = speakingRate

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tts.ErrSynthesisFailed, err)
	}

	url := fmt.Sprintf("%s/text:synthesize?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tts.ErrSynthesisFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tts.ErrSynthesisFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", tts.ErrSynthesisFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: tts http status %d: %s", tts.ErrSynthesisFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed synthesizeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: response parse: %v", tts.ErrSynthesisFailed, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%w: tts error %s: %s", tts.ErrSynthesisFailed, parsed.Error.Status, parsed.Error.Message)
	}
	if parsed.AudioContent == "" {
		return nil, fmt.Errorf("%w: empty audio content", tts.ErrSynthesisFailed)
	}

	audio, err := base64.StdEncoding.DecodeString(parsed.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("%w: decode audio: %v", tts.ErrSynthesisFailed, err)
	}
	return audio, nil
}

var _ tts.Synthesizer = (*Client)(nil)

package tts

import (
	"context"
	"errors"
)

const (
	// DefaultVoice is used when the caller does not select a voice.
	DefaultVoice = "en-US-Wavenet-D"
	// DefaultSpeakingRate is the normal 1.0x speaking rate.
	DefaultSpeakingRate = 1.0
)

// ErrSynthesisFailed wraps any upstream speech-synthesis failure.
var ErrSynthesisFailed = errors.New("speech synthesis failed")

// Synthesizer converts explanation text into an audio byte stream. Retry
// policy belongs to the caller, not the synthesizer.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string, speakingRate float64) ([]byte, error)
}

// PlaceholderSynthesizer stands in when no speech provider is configured.
type PlaceholderSynthesizer struct{}

// Synthesize returns an error; it exists so dev environments without
// credentials still boot.
func (PlaceholderSynthesizer) Synthesize(ctx context.Context, text, voiceID string, speakingRate float64) ([]byte, error) {
	_ = ctx
	_ = text
	_ = voiceID
	_ = speakingRate
	return nil, errors.New("tts not configured")
}

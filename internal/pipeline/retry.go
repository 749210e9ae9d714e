package pipeline

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"narrate-backend/internal/llm"
	"narrate-backend/internal/shared/telemetry"
)

const retryBaseDelay = 300 * time.Millisecond

// explainWithRetry retries a single time on errors that look transient.
// Anything else fails the page immediately.
func (o *Orchestrator) explainWithRetry(ctx context.Context, input llm.ExplainInput) (string, error) {
	out, err := o.LLM.Explain(ctx, input)
	if err == nil || !shouldRetry(err) {
		return out, err
	}

	telemetry.Info("pipeline.generation_retry", map[string]any{
		"page":  input.PageNumber,
		"error": err.Error(),
	})
	select {
	case <-time.After(retryBaseDelay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	return o.LLM.Explain(ctx, input)
}

func (o *Orchestrator) synthesizeWithRetry(ctx context.Context, text, voice string, speed float64) ([]byte, error) {
	out, err := o.TTS.Synthesize(ctx, text, voice, speed)
	if err == nil || !shouldRetry(err) {
		return out, err
	}

	select {
	case <-time.After(retryBaseDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return o.TTS.Synthesize(ctx, text, voice, speed)
}

func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "client.timeout") {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}

	return false
}

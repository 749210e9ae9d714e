package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"narrate-backend/internal/artifacts"
	"narrate-backend/internal/documents"
	"narrate-backend/internal/llm"
	"narrate-backend/internal/shared/metrics"
	"narrate-backend/internal/shared/telemetry"
	"narrate-backend/internal/tts"
)

const (
	defaultWorkers     = 3
	defaultPageTimeout = 2 * time.Minute

	// NoTextSentinel marks pages that had no extractable text. Such pages
	// never reach the generator or synthesizer.
	NoTextSentinel = "[No text found on this page]"
	// FailedSentinel marks pages whose explanation could not be generated
	// and that had no explanation from an earlier run to keep.
	FailedSentinel = "[Explanation unavailable for this page]"
)

// RunOptions are the caller-supplied knobs for one generation run.
type RunOptions struct {
	Style string
	Voice string
	Speed float64
}

// Orchestrator drives explanation and narration generation across all pages
// of a document. Service clients are injected; the orchestrator owns retry
// and fan-out policy, the clients own single calls.
type Orchestrator struct {
	Repo        documents.Repo
	LLM         llm.Client
	TTS         tts.Synthesizer
	Artifacts   *artifacts.Store
	Workers     int
	PageTimeout time.Duration
}

type pageResult struct {
	number     int
	persistErr error
}

// Run processes every page of doc in bounded concurrency. Page-scoped
// failures mark only that page and the run continues; only a failure to
// persist a page record fails the run. Each page is persisted as soon as it
// completes, so progress survives a crash mid-run.
func (o *Orchestrator) Run(ctx context.Context, doc documents.Document, opts RunOptions) (documents.Document, error) {
	if opts.Style == "" {
		opts.Style = llm.DefaultStyle
	}
	if opts.Voice == "" {
		opts.Voice = tts.DefaultVoice
	}
	if opts.Speed <= 0 {
		opts.Speed = tts.DefaultSpeakingRate
	}

	workers := o.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	if workers > len(doc.Pages) && len(doc.Pages) > 0 {
		workers = len(doc.Pages)
	}
	pageTimeout := o.PageTimeout
	if pageTimeout <= 0 {
		pageTimeout = defaultPageTimeout
	}

	started := time.Now()
	metrics.IncRunStarted()

	jobs := make(chan documents.Page)
	results := make(chan pageResult, len(doc.Pages))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for page := range jobs {
				results <- o.processPage(ctx, page, opts, pageTimeout)
			}
		}()
	}

	// Pages are dispatched in increasing page-number order; results are
	// keyed by page number, so completion order does not matter.
	dispatched := 0
dispatch:
	for _, page := range doc.Pages {
		select {
		case jobs <- page:
			dispatched++
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	var persistErr error
	for res := range results {
		if res.persistErr != nil && persistErr == nil {
			persistErr = fmt.Errorf("persist page %d: %w", res.number, res.persistErr)
		}
	}

	metrics.ObserveRunDurationMs(float64(time.Since(started).Microseconds()) / 1000.0)

	if persistErr != nil {
		metrics.IncRunFailed()
		return documents.Document{}, persistErr
	}
	if err := ctx.Err(); err != nil {
		metrics.IncRunFailed()
		return documents.Document{}, err
	}

	metrics.IncRunCompleted()
	telemetry.Info("pipeline.run_complete", map[string]any{
		"document_id": doc.ID,
		"pages":       dispatched,
		"duration_ms": float64(time.Since(started).Microseconds()) / 1000.0,
	})

	return o.Repo.GetByID(ctx, doc.UserID, doc.ID)
}

// processPage determines one page's explanation and audio and persists the
// outcome. Persistence uses a context detached from run cancellation so an
// in-flight page either lands durably or not at all.
func (o *Orchestrator) processPage(ctx context.Context, page documents.Page, opts RunOptions, pageTimeout time.Duration) pageResult {
	persistCtx := context.WithoutCancel(ctx)

	if strings.TrimSpace(page.Text) == "" {
		page.Explanation = NoTextSentinel
		page.AudioRef = ""
		metrics.IncPageSkipped()
		return pageResult{number: page.Number, persistErr: o.Repo.UpdatePage(persistCtx, page)}
	}

	pageCtx, cancel := context.WithTimeout(ctx, pageTimeout)
	defer cancel()

	explanation, err := o.explainWithRetry(pageCtx, llm.ExplainInput{
		PageText:   page.Text,
		Style:      opts.Style,
		PageNumber: page.Number,
	})
	if err != nil {
		metrics.IncPageFailed()
		telemetry.Error("pipeline.page_generation_failed", map[string]any{
			"document_id": page.DocumentID,
			"page":        page.Number,
			"error":       err.Error(),
		})
		if page.Explanation != "" {
			// A prior run already produced an explanation; keep it and its
			// audio rather than clobbering them with a sentinel.
			return pageResult{number: page.Number}
		}
		page.Explanation = FailedSentinel
		page.AudioRef = ""
		return pageResult{number: page.Number, persistErr: o.Repo.UpdatePage(persistCtx, page)}
	}

	page.Explanation = explanation
	page.AudioRef = ""

	audio, err := o.synthesizeWithRetry(pageCtx, explanation, opts.Voice, opts.Speed)
	if err != nil {
		metrics.IncPageFailed()
		telemetry.Error("pipeline.page_synthesis_failed", map[string]any{
			"document_id": page.DocumentID,
			"page":        page.Number,
			"error":       err.Error(),
		})
	} else {
		ref, werr := o.Artifacts.WriteAudio(persistCtx, page.DocumentID, page.Number, audio)
		if werr != nil {
			telemetry.Error("pipeline.audio_write_failed", map[string]any{
				"document_id": page.DocumentID,
				"page":        page.Number,
				"error":       werr.Error(),
			})
		} else {
			page.AudioRef = ref
		}
	}

	if page.AudioRef != "" {
		metrics.IncPageCompleted()
	}
	return pageResult{number: page.Number, persistErr: o.Repo.UpdatePage(persistCtx, page)}
}

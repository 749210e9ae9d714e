package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"narrate-backend/internal/artifacts"
	"narrate-backend/internal/documents"
	"narrate-backend/internal/llm"
	"narrate-backend/internal/shared/storage/object/local"
)

type fakeLLM struct {
	mu          sync.Mutex
	calls       int
	inFlight    int
	maxInFlight int
	fn          func(input llm.ExplainInput) (string, error)
}

func (f *fakeLLM) Explain(ctx context.Context, input llm.ExplainInput) (string, error) {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()
	if f.fn != nil {
		return f.fn(input)
	}
	return fmt.Sprintf("explained page %d", input.PageNumber), nil
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeTTS struct {
	mu    sync.Mutex
	calls int
	fn    func(text, voiceID string, speakingRate float64) ([]byte, error)
}

func (f *fakeTTS) Synthesize(ctx context.Context, text, voiceID string, speakingRate float64) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(text, voiceID, speakingRate)
	}
	return []byte("mp3:" + text), nil
}

func (f *fakeTTS) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func seedDocument(t *testing.T, repo documents.Repo, pageTexts []string) documents.Document {
	t.Helper()
	doc := documents.Document{
		ID:        uuid.NewString(),
		UserID:    "user-1",
		FileName:  "lecture.pdf",
		PageCount: len(pageTexts),
		CreatedAt: time.Now().UTC(),
	}
	for i, text := range pageTexts {
		doc.Pages = append(doc.Pages, documents.Page{
			DocumentID: doc.ID,
			Number:     i + 1,
			Text:       text,
		})
	}
	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}
	return doc
}

func newTestOrchestrator(t *testing.T, repo documents.Repo, gen *fakeLLM, syn *fakeTTS) (*Orchestrator, string) {
	t.Helper()
	dir := t.TempDir()
	store := &artifacts.Store{Objects: local.New(dir), BaseURL: "http://localhost:8080"}
	return &Orchestrator{
		Repo:      repo,
		LLM:       gen,
		TTS:       syn,
		Artifacts: store,
		Workers:   3,
	}, dir
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", dir, err)
	}
	return count
}

func TestRunNarratesEveryPage(t *testing.T) {
	repo := documents.NewMemoryRepo()
	gen := &fakeLLM{}
	syn := &fakeTTS{}
	orc, dir := newTestOrchestrator(t, repo, gen, syn)

	doc := seedDocument(t, repo, []string{"alpha", "beta", "gamma", "delta", "epsilon"})

	result, err := orc.Run(context.Background(), doc, RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Pages) != 5 {
		t.Fatalf("expected 5 pages, got %d", len(result.Pages))
	}
	for _, page := range result.Pages {
		want := fmt.Sprintf("explained page %d", page.Number)
		if page.Explanation != want {
			t.Errorf("page %d explanation = %q, want %q", page.Number, page.Explanation, want)
		}
		wantRef := artifacts.AudioKey(doc.ID, page.Number)
		if page.AudioRef != wantRef {
			t.Errorf("page %d audio ref = %q, want %q", page.Number, page.AudioRef, wantRef)
		}
	}
	if got := countFiles(t, dir); got != 5 {
		t.Errorf("expected 5 audio files on disk, got %d", got)
	}
	if gen.callCount() != 5 {
		t.Errorf("expected 5 generation calls, got %d", gen.callCount())
	}
}

func TestRunSkipsBlankPages(t *testing.T) {
	repo := documents.NewMemoryRepo()
	gen := &fakeLLM{}
	syn := &fakeTTS{}
	orc, dir := newTestOrchestrator(t, repo, gen, syn)

	doc := seedDocument(t, repo, []string{"alpha", "   \n\t ", "gamma"})

	result, err := orc.Run(context.Background(), doc, RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	blank := result.Pages[1]
	if blank.Explanation != NoTextSentinel {
		t.Errorf("blank page explanation = %q, want sentinel", blank.Explanation)
	}
	if blank.AudioRef != "" {
		t.Errorf("blank page audio ref = %q, want empty", blank.AudioRef)
	}
	if gen.callCount() != 2 {
		t.Errorf("expected 2 generation calls (blank page excluded), got %d", gen.callCount())
	}
	if syn.callCount() != 2 {
		t.Errorf("expected 2 synthesis calls (blank page excluded), got %d", syn.callCount())
	}
	if got := countFiles(t, dir); got != 2 {
		t.Errorf("expected 2 audio files on disk, got %d", got)
	}
}

func TestRunIsolatesPageFailure(t *testing.T) {
	repo := documents.NewMemoryRepo()
	gen := &fakeLLM{
		fn: func(input llm.ExplainInput) (string, error) {
			if input.PageNumber == 3 {
				return "", errors.New("generation failed: content rejected")
			}
			return fmt.Sprintf("explained page %d", input.PageNumber), nil
		},
	}
	syn := &fakeTTS{}
	orc, _ := newTestOrchestrator(t, repo, gen, syn)

	doc := seedDocument(t, repo, []string{"a", "b", "c", "d", "e"})

	result, err := orc.Run(context.Background(), doc, RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, page := range result.Pages {
		if page.Number == 3 {
			if page.Explanation != FailedSentinel {
				t.Errorf("failed page explanation = %q, want sentinel", page.Explanation)
			}
			if page.AudioRef != "" {
				t.Errorf("failed page audio ref = %q, want empty", page.AudioRef)
			}
			continue
		}
		if strings.HasPrefix(page.Explanation, "explained page") == false {
			t.Errorf("page %d explanation = %q, want success", page.Number, page.Explanation)
		}
		if page.AudioRef == "" {
			t.Errorf("page %d audio ref empty, want artifact", page.Number)
		}
	}
}

func TestRunRetriesTransientGenerationFailure(t *testing.T) {
	repo := documents.NewMemoryRepo()
	var failed bool
	var mu sync.Mutex
	gen := &fakeLLM{
		fn: func(input llm.ExplainInput) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			if !failed {
				failed = true
				return "", errors.New("openai chat completion: http status 503")
			}
			return "recovered explanation", nil
		},
	}
	syn := &fakeTTS{}
	orc, _ := newTestOrchestrator(t, repo, gen, syn)

	doc := seedDocument(t, repo, []string{"only page"})

	result, err := orc.Run(context.Background(), doc, RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gen.callCount() != 2 {
		t.Fatalf("expected 1 retry (2 calls), got %d calls", gen.callCount())
	}
	if result.Pages[0].Explanation != "recovered explanation" {
		t.Errorf("explanation = %q, want recovered output", result.Pages[0].Explanation)
	}
}

func TestRunKeepsExplanationWhenSynthesisFails(t *testing.T) {
	repo := documents.NewMemoryRepo()
	gen := &fakeLLM{}
	syn := &fakeTTS{
		fn: func(text, voiceID string, speakingRate float64) ([]byte, error) {
			return nil, errors.New("synthesis failed: voice not found")
		},
	}
	orc, dir := newTestOrchestrator(t, repo, gen, syn)

	doc := seedDocument(t, repo, []string{"alpha"})

	result, err := orc.Run(context.Background(), doc, RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	page := result.Pages[0]
	if page.Explanation != "explained page 1" {
		t.Errorf("explanation = %q, want generated text kept", page.Explanation)
	}
	if page.AudioRef != "" {
		t.Errorf("audio ref = %q, want empty after synthesis failure", page.AudioRef)
	}
	if got := countFiles(t, dir); got != 0 {
		t.Errorf("expected no audio files, got %d", got)
	}
}

func TestRunOverwritesArtifactsOnRerun(t *testing.T) {
	repo := documents.NewMemoryRepo()
	gen := &fakeLLM{}
	syn := &fakeTTS{}
	orc, dir := newTestOrchestrator(t, repo, gen, syn)

	doc := seedDocument(t, repo, []string{"alpha", "beta"})

	if _, err := orc.Run(context.Background(), doc, RunOptions{}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, err := orc.Run(context.Background(), doc, RunOptions{}); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if got := countFiles(t, dir); got != 2 {
		t.Errorf("expected 2 audio files after rerun, got %d", got)
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	repo := documents.NewMemoryRepo()
	gen := &fakeLLM{
		fn: func(input llm.ExplainInput) (string, error) {
			time.Sleep(20 * time.Millisecond)
			return "ok", nil
		},
	}
	syn := &fakeTTS{}
	orc, _ := newTestOrchestrator(t, repo, gen, syn)
	orc.Workers = 2

	doc := seedDocument(t, repo, []string{"a", "b", "c", "d", "e", "f"})

	if _, err := orc.Run(context.Background(), doc, RunOptions{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	gen.mu.Lock()
	max := gen.maxInFlight
	gen.mu.Unlock()
	if max > 2 {
		t.Errorf("max in-flight generation calls = %d, want <= 2", max)
	}
}

func TestRunPersistsPagesIndividually(t *testing.T) {
	repo := documents.NewMemoryRepo()
	var seen sync.Map
	gen := &fakeLLM{
		fn: func(input llm.ExplainInput) (string, error) {
			seen.Store(input.PageNumber, true)
			return fmt.Sprintf("explained page %d", input.PageNumber), nil
		},
	}
	syn := &fakeTTS{}
	orc, _ := newTestOrchestrator(t, repo, gen, syn)

	doc := seedDocument(t, repo, []string{"a", "b", "c"})

	result, err := orc.Run(context.Background(), doc, RunOptions{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Every outcome must land on the page with the matching number
	// regardless of worker completion order.
	stored, err := repo.GetByID(context.Background(), doc.UserID, doc.ID)
	if err != nil {
		t.Fatalf("reload document: %v", err)
	}
	for i, page := range stored.Pages {
		want := fmt.Sprintf("explained page %d", i+1)
		if page.Explanation != want {
			t.Errorf("stored page %d explanation = %q, want %q", i+1, page.Explanation, want)
		}
	}
	if len(result.Pages) != len(stored.Pages) {
		t.Errorf("result pages = %d, stored pages = %d", len(result.Pages), len(stored.Pages))
	}
}

package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"narrate-backend/internal/artifacts"
	"narrate-backend/internal/documents"
	"narrate-backend/internal/entitlements"
	"narrate-backend/internal/shared/storage/object/local"
)

type fakeHandlerGate struct {
	err error
}

func (g fakeHandlerGate) Authorize(ctx context.Context, userID string) error {
	return g.err
}

func newHandlerRouter(t *testing.T, repo documents.Repo, gate Gate, gen *fakeLLM, syn *fakeTTS) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &artifacts.Store{Objects: local.New(t.TempDir()), BaseURL: "http://localhost:8080"}
	h := &Handler{
		Orchestrator: &Orchestrator{Repo: repo, LLM: gen, TTS: syn, Artifacts: store},
		Repo:         repo,
		Gate:         gate,
		Artifacts:    store,
	}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", "user-1")
		c.Next()
	})
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestGenerateUnknownDocument(t *testing.T) {
	router := newHandlerRouter(t, documents.NewMemoryRepo(), fakeHandlerGate{}, &fakeLLM{}, &fakeTTS{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/missing/generate", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestGenerateDeniedWhenExhausted(t *testing.T) {
	repo := documents.NewMemoryRepo()
	doc := seedDocument(t, repo, []string{"alpha"})
	router := newHandlerRouter(t, repo, fakeHandlerGate{err: entitlements.ErrEntitlementExhausted}, &fakeLLM{}, &fakeTTS{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+doc.ID+"/generate", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestGenerateReturnsDocumentWithAudio(t *testing.T) {
	repo := documents.NewMemoryRepo()
	doc := seedDocument(t, repo, []string{"alpha", "beta"})
	router := newHandlerRouter(t, repo, fakeHandlerGate{}, &fakeLLM{}, &fakeTTS{})

	body := bytes.NewBufferString(`{"style":"like a pirate","speed":1.2}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+doc.ID+"/generate", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var payload struct {
		DocumentID string `json:"documentId"`
		Pages      []struct {
			PageNumber  int     `json:"pageNumber"`
			Explanation string  `json:"explanation"`
			AudioURL    *string `json:"audioUrl"`
		} `json:"pages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.DocumentID != doc.ID {
		t.Fatalf("expected document %s, got %s", doc.ID, payload.DocumentID)
	}
	if len(payload.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(payload.Pages))
	}
	for _, page := range payload.Pages {
		if page.Explanation == "" {
			t.Errorf("page %d has no explanation", page.PageNumber)
		}
		if page.AudioURL == nil || *page.AudioURL == "" {
			t.Errorf("page %d has no audio URL", page.PageNumber)
		}
	}
}

func TestGenerateRejectsInvalidSpeed(t *testing.T) {
	repo := documents.NewMemoryRepo()
	doc := seedDocument(t, repo, []string{"alpha"})
	router := newHandlerRouter(t, repo, fakeHandlerGate{}, &fakeLLM{}, &fakeTTS{})

	body := bytes.NewBufferString(`{"speed":9}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+doc.ID+"/generate", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

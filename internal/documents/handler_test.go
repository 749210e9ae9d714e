package documents

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"narrate-backend/internal/artifacts"
	"narrate-backend/internal/entitlements"
)

func newTestRouter(t *testing.T, svc *Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", "guest:test")
		c.Next()
	})
	h := NewHandler(svc, &artifacts.Store{BaseURL: "http://localhost:8080"})
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func multipartPDF(t *testing.T, field, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fw, err := writer.CreateFormFile(field, name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadRequiresFile(t *testing.T) {
	svc := &Service{Store: &fakeObjectStore{}, Repo: NewMemoryRepo(), Gate: &fakeGate{}}
	router := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestUploadRejectsUnreadableFile(t *testing.T) {
	svc := &Service{Store: &fakeObjectStore{}, Repo: NewMemoryRepo(), Gate: &fakeGate{}}
	router := newTestRouter(t, svc)

	body, contentType := multipartPDF(t, "pdf", "junk.pdf", []byte("this is not a pdf"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}

	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if payload.Error.Code != "unreadable_document" {
		t.Fatalf("expected unreadable_document, got %q", payload.Error.Code)
	}
}

func TestUploadDeniedWithExhaustedTrial(t *testing.T) {
	gate := &fakeGate{authorizeErr: entitlements.ErrEntitlementExhausted}
	svc := &Service{Store: &fakeObjectStore{}, Repo: NewMemoryRepo(), Gate: gate}
	router := newTestRouter(t, svc)

	body, contentType := multipartPDF(t, "pdf", "doc.pdf", []byte("%PDF-1.4 minimal"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}

	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if payload.Error.Code != "entitlement_exhausted" {
		t.Fatalf("expected entitlement_exhausted, got %q", payload.Error.Code)
	}
	if payload.Error.Message != "Trial expired. Please subscribe to continue using this feature." {
		t.Fatalf("unexpected message %q", payload.Error.Message)
	}
}

func TestGetReturnsNotFoundForMissingDocument(t *testing.T) {
	svc := &Service{Store: &fakeObjectStore{}, Repo: NewMemoryRepo(), Gate: &fakeGate{}}
	router := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/nope", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

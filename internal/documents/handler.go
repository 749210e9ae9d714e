package documents

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"narrate-backend/internal/artifacts"
	"narrate-backend/internal/entitlements"
	"narrate-backend/internal/extract"
	"narrate-backend/internal/shared/server/middleware"
	"narrate-backend/internal/shared/server/respond"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc       *Service
	Artifacts *artifacts.Store
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, artifactStore *artifacts.Store) *Handler {
	return &Handler{Svc: svc, Artifacts: artifactStore}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.upload)
	rg.GET("/documents/:id", h.get)
	rg.GET("/documents", h.list)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("pdf")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "pdf file is required", nil)
		return
	}
	if ct := fileHeader.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/pdf") {
		respond.Error(c, http.StatusBadRequest, "validation_error", "only PDFs are allowed", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	doc, err := h.Svc.Ingest(c.Request.Context(), userID, fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, entitlements.ErrEntitlementExhausted):
			respond.Error(c, http.StatusForbidden, "entitlement_exhausted",
				"Trial expired. Please subscribe to continue using this feature.", nil)
		case errors.Is(err, extract.ErrUnreadableDocument):
			respond.Error(c, http.StatusBadRequest, "unreadable_document", "file is not a readable PDF", nil)
		case errors.Is(err, extract.ErrEmptyDocument):
			respond.Error(c, http.StatusBadRequest, "empty_document", "document has no pages", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process document", nil)
		}
		return
	}

	c.Set("documentId", doc.ID)
	respond.JSON(c, http.StatusCreated, gin.H{
		"documentId": doc.ID,
		"fileName":   doc.FileName,
		"totalPages": doc.PageCount,
		"uploadedAt": doc.CreatedAt,
	})
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")

	doc, err := h.Svc.Get(c.Request.Context(), userID, documentID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
		}
		return
	}

	respond.OK(c, ToResponse(doc, h.Artifacts.ResolveURL))
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if limit > 50 {
		limit = 50
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	docs, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}

	resp := make([]gin.H, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, gin.H{
			"documentId": doc.ID,
			"fileName":   doc.FileName,
			"totalPages": doc.PageCount,
			"uploadedAt": doc.CreatedAt,
		})
	}
	respond.OK(c, resp)
}

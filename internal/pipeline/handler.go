package pipeline

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"narrate-backend/internal/artifacts"
	"narrate-backend/internal/documents"
	"narrate-backend/internal/entitlements"
	"narrate-backend/internal/shared/server/middleware"
	"narrate-backend/internal/shared/server/respond"
	"narrate-backend/internal/users"
)

// Gate is the entitlement check for the generation path. Generation only
// authorizes; the trial unit was consumed when the document was ingested.
type Gate interface {
	Authorize(ctx context.Context, userID string) error
}

// Handler exposes generation over HTTP.
type Handler struct {
	Orchestrator *Orchestrator
	Repo         documents.Repo
	Gate         Gate
	Artifacts    *artifacts.Store
	Users        *users.Service
}

type generateRequest struct {
	Style string  `json:"style"`
	Voice string  `json:"voice"`
	Speed float64 `json:"speed"`
}

// RegisterRoutes attaches generation routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/:id/generate", h.generate)
}

func (h *Handler) generate(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	documentID := c.Param("id")

	var req generateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}
	if req.Speed < 0 || req.Speed > 4 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "speed must be between 0 and 4", nil)
		return
	}

	doc, err := h.Repo.GetByID(c.Request.Context(), userID, documentID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
		return
	}

	if err := h.Gate.Authorize(c.Request.Context(), userID); err != nil {
		if errors.Is(err, entitlements.ErrEntitlementExhausted) {
			respond.Error(c, http.StatusForbidden, "entitlement_exhausted",
				"Trial expired. Please subscribe to continue using this feature.", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to check entitlement", nil)
		return
	}

	if req.Voice == "" && h.Users != nil {
		req.Voice = h.Users.PreferredVoice(c.Request.Context(), userID)
	}

	result, err := h.Orchestrator.Run(c.Request.Context(), doc, RunOptions{
		Style: req.Style,
		Voice: req.Voice,
		Speed: req.Speed,
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate explanations", nil)
		return
	}

	respond.OK(c, documents.ToResponse(result, h.Artifacts.ResolveURL))
}

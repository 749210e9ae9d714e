package entitlements

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"narrate-backend/internal/shared/server/middleware"
	"narrate-backend/internal/shared/server/respond"
)

// Handler exposes the caller's entitlement state.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches entitlement routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/entitlements/me", h.me)
}

func (h *Handler) me(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	ent, err := h.Svc.Get(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load entitlement", nil)
		return
	}
	respond.OK(c, ent)
}

package navigation

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"career-backend/internal/shared/server/middleware"
	"career-backend/internal/shared/server/respond"
	"career-backend/internal/users"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes mounts GET /nav. Authentication is optional on this route.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/nav", h.header)
}

func (h *Handler) header(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	c.Header("Cache-Control", "private, no-store")

	userID := middleware.UserIDFromContext(c)
	if userID == "" {
		respond.OK(c, h.Svc.SignedOut())
		return
	}
	respond.OK(c, h.Svc.SignedIn(c.Request.Context(), users.Identity{
		ID:      userID,
		Email:   middleware.UserEmailFromContext(c),
		Name:    middleware.UserNameFromContext(c),
		Picture: middleware.UserPictureFromContext(c),
	}))
}

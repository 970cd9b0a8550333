package coverletters

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"career-backend/internal/shared/server/middleware"
	"career-backend/internal/shared/server/respond"
	"career-backend/internal/shared/validation"
)

// Handler wires HTTP handlers to the cover letter service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches cover letter routes; rg must already require a signed-in user.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/cover-letters", h.generate)
	rg.GET("/cover-letters", h.list)
	rg.GET("/cover-letters/:id", h.get)
	rg.DELETE("/cover-letters/:id", h.delete)
}

type generateRequest struct {
	JobTitle       string `json:"jobTitle" binding:"required,notblank,max=200"`
	CompanyName    string `json:"companyName" binding:"required,notblank,max=200"`
	JobDescription string `json:"jobDescription" binding:"required,notblank,max=10000"`
}

func (h *Handler) generate(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", validation.FieldErrors(err))
		return
	}

	letter, err := h.Svc.Generate(c.Request.Context(), middleware.UserIDFromContext(c), GenerateInput{
		JobTitle:       req.JobTitle,
		CompanyName:    req.CompanyName,
		JobDescription: req.JobDescription,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set("coverLetterId", letter.ID)
	respond.JSON(c, http.StatusCreated, letter)
}

func (h *Handler) list(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	letters, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"items": letters})
}

func (h *Handler) get(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	c.Set("coverLetterId", id)

	letter, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, letter)
}

func (h *Handler) delete(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	c.Set("coverLetterId", id)

	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "sign in required", nil)
	case errors.Is(err, ErrUserNotFound):
		respond.Error(c, http.StatusNotFound, "user_not_found", "User not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrLimitReached):
		respond.Error(c, http.StatusTooManyRequests, "limit_reached", "You've reached your cover letter limit for this week.", []map[string]string{
			{"field": "usage", "issue": "limit_reached"},
		})
	case errors.Is(err, ErrGenerationFailed):
		respond.Error(c, http.StatusBadGateway, "generation_failed", "Failed to generate cover letter", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "cover letter not found", nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.Error(c, http.StatusRequestTimeout, "timeout", "request canceled", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}

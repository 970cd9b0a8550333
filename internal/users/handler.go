package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"career-backend/internal/shared/server/middleware"
	"career-backend/internal/shared/server/respond"
	"career-backend/internal/shared/validation"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes expects rg to already require an authenticated user.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
	rg.PUT("/me/profile", h.updateProfile)
}

type profileRequest struct {
	Industry   string   `json:"industry" binding:"required,notblank,max=100"`
	Experience *int     `json:"experience" binding:"required,min=0,max=60"`
	Skills     []string `json:"skills" binding:"max=50,dive,max=60"`
	Bio        string   `json:"bio" binding:"max=2000"`
}

func (h *Handler) me(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	user, err := h.Svc.GetByID(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "user_not_found", "user not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
		return
	}
	respond.OK(c, toResponse(user))
}

func (h *Handler) updateProfile(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", validation.FieldErrors(err))
		return
	}

	user, err := h.Svc.UpdateProfile(c.Request.Context(), middleware.UserIDFromContext(c), Profile{
		Industry:   req.Industry,
		Experience: *req.Experience,
		Skills:     req.Skills,
		Bio:        req.Bio,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "user_not_found", "user not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update profile", nil)
		}
		return
	}
	respond.OK(c, toResponse(user))
}

type userResponse struct {
	ID         string   `json:"id"`
	Email      string   `json:"email"`
	FullName   string   `json:"fullName"`
	PictureURL string   `json:"pictureUrl"`
	Industry   string   `json:"industry"`
	Experience int      `json:"experience"`
	Skills     []string `json:"skills"`
	Bio        string   `json:"bio"`
	Onboarded  bool     `json:"onboarded"`
}

func toResponse(u User) userResponse {
	skills := u.Skills
	if skills == nil {
		skills = []string{}
	}
	return userResponse{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		PictureURL: u.PictureURL,
		Industry:   u.Industry,
		Experience: u.Experience,
		Skills:     skills,
		Bio:        u.Bio,
		Onboarded:  u.HasProfile(),
	}
}

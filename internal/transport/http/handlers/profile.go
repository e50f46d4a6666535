package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arklim/campus-records/internal/usecase"
)

// ProfileHandler serves the signed-in principal's own view.
type ProfileHandler struct {
	profiles *usecase.ProfileService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(profiles *usecase.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// RegisterRoutes binds /me routes.
func (h *ProfileHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/me", h.me)
	r.PATCH("/me/profile", h.updateProfile)
}

func (h *ProfileHandler) me(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	profile, err := h.profiles.Me(c.Request.Context(), actor)
	if err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProfileResponse(profile))
}

func (h *ProfileHandler) updateProfile(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req ProfilePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, "profile", err)
		return
	}
	profile, err := h.profiles.UpdateMyProfile(c.Request.Context(), actor, req.toPatch())
	if err != nil {
		respondRecordError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProfileResponse(profile))
}

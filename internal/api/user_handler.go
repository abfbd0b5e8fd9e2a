package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fittrack/backend/internal/domain"
	"fittrack/backend/internal/dualstore"
	"fittrack/backend/internal/service"
)

// UserHandler serves account endpoints.
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type UpdateProfileRequest struct {
	Username string          `json:"username" binding:"omitempty,min=3"`
	Email    string          `json:"email" binding:"omitempty,email"`
	Profile  *domain.Profile `json:"profile,omitempty"`
}

// Me returns the caller's merged account record.
func (h *UserHandler) Me(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
		return
	}

	user, err := h.userService.Current(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// UpdateMe applies account/profile changes across the active stores.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "Principal not found in context")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, outcome, err := h.userService.UpdateProfile(c.Request.Context(), p, service.ProfileUpdate{
		Username: req.Username,
		Email:    req.Email,
		Profile:  req.Profile,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": MapUserToResponse(user), "saved": outcome})
}

// List serves the paginated admin account listing.
func (h *UserHandler) List(c *gin.Context) {
	var page dualstore.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	users, info, err := h.userService.List(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, MapUserToResponse(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{"users": responses, "pagination": info})
}

// Delete removes an account from every active store. Admin-only.
func (h *UserHandler) Delete(c *gin.Context) {
	outcome, err := h.userService.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": outcome})
}

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fittrack/backend/internal/domain"
	"fittrack/backend/internal/service"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// --- Request/Response Structs ---

type RegisterRequest struct {
	Username string          `json:"username" binding:"required,min=3"`
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=8"`
	Role     domain.Role     `json:"role" binding:"omitempty,oneof=client trainer admin"`
	Profile  *domain.Profile `json:"profile,omitempty"`
}

// UserResponse excludes sensitive info like the password hash.
type UserResponse struct {
	MongoID   string          `json:"mongoId,omitempty"`
	MySQLID   uint            `json:"mysqlId,omitempty"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	Role      domain.Role     `json:"role"`
	Profile   *domain.Profile `json:"profile,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// MapUserToResponse converts a domain user into the API shape.
func MapUserToResponse(u *domain.User) UserResponse {
	return UserResponse{
		MongoID:   u.MongoID,
		MySQLID:   u.MySQLID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		Profile:   u.Profile,
		CreatedAt: u.CreatedAt,
	}
}

// --- Handler Methods ---

// Register creates the account in every active store and reports the
// per-store outcome alongside the created user.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	user, outcome, err := h.authService.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.Role, req.Profile)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":  MapUserToResponse(user),
		"saved": outcome,
	})
}

// Login authenticates by username or email and returns a signed token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Token: token, User: MapUserToResponse(user)})
}

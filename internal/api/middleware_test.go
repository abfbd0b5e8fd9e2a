package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fittrack/backend/internal/domain"
	"fittrack/backend/internal/dualstore"
	"fittrack/backend/internal/service"
	"fittrack/backend/internal/stats"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubAuth parses any token into a fixed principal, or fails.
type stubAuth struct {
	principal dualstore.Principal
	err       error
}

func (s *stubAuth) Register(ctx context.Context, username, email, password string, role domain.Role, profile *domain.Profile) (*domain.User, dualstore.Outcome, error) {
	return nil, dualstore.Outcome{}, errors.New("not implemented")
}

func (s *stubAuth) Login(ctx context.Context, login, password string) (string, *domain.User, error) {
	return "", nil, errors.New("not implemented")
}

func (s *stubAuth) ParseToken(token string) (dualstore.Principal, error) {
	return s.principal, s.err
}

type stubUsers struct {
	user *domain.User
	err  error
}

func (s *stubUsers) Current(ctx context.Context, p dualstore.Principal) (*domain.User, error) {
	return s.user, s.err
}

func (s *stubUsers) UpdateProfile(ctx context.Context, p dualstore.Principal, update service.ProfileUpdate) (*domain.User, dualstore.Outcome, error) {
	return nil, dualstore.Outcome{}, errors.New("not implemented")
}

func (s *stubUsers) List(ctx context.Context, page dualstore.Pagination) ([]domain.User, dualstore.PageInfo, error) {
	return nil, dualstore.PageInfo{}, errors.New("not implemented")
}

func (s *stubUsers) Delete(ctx context.Context, id string) (dualstore.Outcome, error) {
	return dualstore.Outcome{}, errors.New("not implemented")
}

func authRouter(auth service.AuthService, users service.UserService, mode dualstore.Mode, extra ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddleware(auth, users, mode, zerolog.Nop())}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		p, _ := principalFrom(c)
		c.JSON(http.StatusOK, gin.H{"username": p.Username, "mysqlId": p.MySQLID})
	})
	router.GET("/secure", handlers...)
	return router
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	router := authRouter(&stubAuth{}, &stubUsers{}, dualstore.ModeDual)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsMalformedHeader(t *testing.T) {
	router := authRouter(&stubAuth{}, &stubUsers{}, dualstore.ModeDual)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Token abc")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewareRejectsInvalidToken(t *testing.T) {
	router := authRouter(&stubAuth{err: service.ErrAuthenticationFailed}, &stubUsers{}, dualstore.ModeDual)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer bad")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewarePassesPrincipalThrough(t *testing.T) {
	auth := &stubAuth{principal: dualstore.Principal{
		ID:       "64f1c2d3e4a5b6c7d8e9f0a1",
		Username: "kasia",
		Role:     domain.RoleClient,
		MySQLID:  7,
	}}
	router := authRouter(auth, &stubUsers{}, dualstore.ModeDual)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer good")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"kasia"`)
}

func TestAuthMiddlewarePreloadsUserWhenRelationalIDMissing(t *testing.T) {
	auth := &stubAuth{principal: dualstore.Principal{
		ID:       "64f1c2d3e4a5b6c7d8e9f0a1",
		Username: "kasia",
		Role:     domain.RoleClient,
	}}
	loaded := &domain.User{Username: "kasia", Role: domain.RoleClient}
	loaded.MySQLID = 42

	router := gin.New()
	router.GET("/secure", AuthMiddleware(auth, &stubUsers{user: loaded}, dualstore.ModeDual, zerolog.Nop()), func(c *gin.Context) {
		p, ok := principalFrom(c)
		require.True(t, ok)
		require.NotNil(t, p.CurrentUser)
		c.JSON(http.StatusOK, gin.H{"mysqlId": p.CurrentUser.MySQLID})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer good")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mysqlId":42`)
}

func TestRoleMiddleware(t *testing.T) {
	client := &stubAuth{principal: dualstore.Principal{
		ID:       "64f1c2d3e4a5b6c7d8e9f0a1",
		Username: "kasia",
		Role:     domain.RoleClient,
		MySQLID:  7,
	}}
	router := authRouter(client, &stubUsers{}, dualstore.ModeDual, RoleMiddleware(domain.RoleAdmin))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer good")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRespondErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: &domain.ValidationError{Field: "name", Reason: "required"}, want: http.StatusBadRequest},
		{name: "not found", err: domain.ErrNotFound, want: http.StatusNotFound},
		{name: "conflict", err: domain.ErrConflict, want: http.StatusConflict},
		{name: "duplicate user", err: service.ErrUserAlreadyExists, want: http.StatusConflict},
		{name: "bad credentials", err: service.ErrAuthenticationFailed, want: http.StatusUnauthorized},
		{name: "identity resolution", err: &domain.ResolutionError{Reason: "no relational id"}, want: http.StatusUnauthorized},
		{name: "provider outage", err: stats.ErrUnavailable, want: http.StatusBadGateway},
		{name: "insufficient data", err: service.ErrInsufficientData, want: http.StatusUnprocessableEntity},
		{name: "unknown", err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, tt.err)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

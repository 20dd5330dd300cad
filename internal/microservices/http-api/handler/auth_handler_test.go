package handler_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"mapportal/internal/microservices/http-api/dto"
	"mapportal/internal/microservices/http-api/handler"
	"mapportal/internal/microservices/http-api/middleware"
	"mapportal/internal/microservices/http-api/models"
	"mapportal/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRegister_Success(t *testing.T) {
	r, m := setupRouter(1 << 20)
	user := &models.User{ID: "u-1", Username: "testuser", Email: "test@example.com", IsActive: true}
	m.auth.On("Register", mock.Anything, "testuser", "password123", "test@example.com").Return("jwt", user, nil)

	w := doJSON(r, http.MethodPost, "/api/auth/register", gin.H{
		"username": "testuser",
		"password": "password123",
		"email":    "test@example.com",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp dto.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "jwt", resp.AccessToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "testuser", resp.User.Username)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRegister_UsernameInUse(t *testing.T) {
	r, m := setupRouter(1 << 20)
	m.auth.On("Register", mock.Anything, "testuser", "password123", "test@example.com").
		Return("", nil, service.ErrNameInUse)

	w := doJSON(r, http.MethodPost, "/api/auth/register", gin.H{
		"username": "testuser",
		"password": "password123",
		"email":    "test@example.com",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "username already in use", decodeError(t, w).Detail)
}

func TestRegister_InvalidJSON(t *testing.T) {
	r, m := setupRouter(1 << 20)

	w := doJSON(r, http.MethodPost, "/api/auth/register", gin.H{"username": "ab", "password": "short", "email": "nope"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	m.auth.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin(t *testing.T) {
	r, m := setupRouter(1 << 20)
	user := &models.User{ID: "u-1", Username: "testuser", IsActive: true}
	m.auth.On("Login", mock.Anything, "testuser", "password123").Return("jwt", user, nil)
	m.auth.On("Login", mock.Anything, "testuser", "wrong").Return("", nil, service.ErrInvalidCredentials)
	m.auth.On("Login", mock.Anything, "sleeper", "password123").Return("", nil, service.ErrInactiveUser)

	w := doJSON(r, http.MethodPost, "/api/auth/login", gin.H{"username": "testuser", "password": "password123"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/api/auth/login", gin.H{"username": "testuser", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthorized", decodeError(t, w).Error)

	w = doJSON(r, http.MethodPost, "/api/auth/login", gin.H{"username": "sleeper", "password": "password123"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(r, http.MethodPost, "/api/auth/login", gin.H{"username": "testuser"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMeAndDeleteMe(t *testing.T) {
	r, m := setupRouter(1 << 20)
	m.auth.On("CurrentUser", mock.Anything, testUserID).
		Return(&models.User{ID: testUserID, Username: "me", Email: "me@example.com", IsActive: true}, nil)
	m.auth.On("DeleteAccount", mock.Anything, testUserID).Return(nil)

	w := doJSON(r, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var me dto.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "me@example.com", me.Email)

	w = doJSON(r, http.MethodDelete, "/api/auth/me", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	m.auth.AssertExpectations(t)
}

// authRouter wires the real AuthMiddleware in front of a handler that
// echoes the authenticated user id.
func authRouter(auth *MockAuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", middleware.AuthMiddleware(auth), func(c *gin.Context) {
		c.String(http.StatusOK, middleware.UserID(c))
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	auth := new(MockAuthService)
	auth.On("ValidateToken", "good").Return(&service.Claims{UserID: "u-1"}, nil)
	auth.On("ValidateToken", "stale").Return(nil, service.ErrExpiredToken)
	auth.On("ValidateToken", "orphan").Return(&service.Claims{UserID: "u-gone"}, nil)
	auth.On("ValidateToken", "sleeper").Return(&service.Claims{UserID: "u-off"}, nil)
	auth.On("ValidateToken", "broken").Return(&service.Claims{UserID: "u-db"}, nil)
	auth.On("CurrentUser", mock.Anything, "u-1").Return(&models.User{ID: "u-1", IsActive: true}, nil)
	auth.On("CurrentUser", mock.Anything, "u-gone").Return(nil, fmt.Errorf("%w: user not found", service.ErrNotFound))
	auth.On("CurrentUser", mock.Anything, "u-off").Return(&models.User{ID: "u-off", IsActive: false}, nil)
	auth.On("CurrentUser", mock.Anything, "u-db").Return(nil, fmt.Errorf("%w: %w", service.ErrStorage, errors.New("disk I/O error")))
	r := authRouter(auth)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"valid", "Bearer good", http.StatusOK},
		{"lowercase scheme", "bearer good", http.StatusOK},
		{"expired", "Bearer stale", http.StatusUnauthorized},
		{"deleted account", "Bearer orphan", http.StatusUnauthorized},
		{"inactive account", "Bearer sleeper", http.StatusForbidden},
		{"storage failure", "Bearer broken", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, "u-1", w.Body.String())
			}
		})
	}
}

func TestRouter_WritesRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth := new(MockAuthService)
	maps := new(MockMapService)
	r := handler.NewRouter(handler.Handlers{
		Auth:     handler.NewAuthHandler(auth),
		Maps:     handler.NewMapHandler(maps, 1<<20),
		Ratings:  handler.NewRatingHandler(new(MockRatingService), 20),
		Comments: handler.NewCommentHandler(new(MockCommentService)),
	}, handler.Middleware{Auth: middleware.AuthMiddleware(auth)})

	for _, route := range []struct{ method, path string }{
		{http.MethodPost, "/api/maps/upload"},
		{http.MethodPost, "/api/maps/1/ratings"},
		{http.MethodGet, "/api/maps/1/ratings/me"},
		{http.MethodPost, "/api/maps/1/comments"},
		{http.MethodPut, "/api/maps/1/comments/2"},
		{http.MethodDelete, "/api/maps/1/comments/2"},
		{http.MethodGet, "/api/auth/me"},
		{http.MethodDelete, "/api/auth/me"},
	} {
		w := doJSON(r, route.method, route.path, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", route.method, route.path)
	}

	maps.On("List", mock.Anything, dto.MapQuery{}).Return(&dto.MapListResponse{Items: []dto.MapSummaryResponse{}}, nil)
	w := doJSON(r, http.MethodGet, "/api/maps", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"libhub/internal/microservices/http-api/dto"
	"libhub/internal/microservices/http-api/models"
	"libhub/internal/microservices/http-api/service"
	"libhub/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockAuthService mocks the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, username, password, email string) (*models.User, error) {
	args := m.Called(username, password, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, username, password string) (string, string, *models.User, error) {
	args := m.Called(username, password)
	user, _ := args.Get(2).(*models.User)
	return args.String(0), args.String(1), user, args.Error(3)
}

func (m *MockAuthService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(refreshToken)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) ValidateToken(tokenString string) (*shared.AuthClaims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.AuthClaims), args.Error(1)
}

func (m *MockAuthService) RevokeToken(ctx context.Context, refreshToken string) error {
	args := m.Called(refreshToken)
	return args.Error(0)
}

func (m *MockAuthService) AccessTokenTTL() time.Duration {
	return 15 * time.Minute
}

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func postJSON(router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRegister_Success(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService, nil)
	router := setupRouter()
	router.POST("/register", handler.Register)

	user := &models.User{
		ID:       "user-123",
		Username: "testuser",
		Email:    "test@example.com",
	}
	mockAuthService.On("Register", "testuser", "password123", "test@example.com").Return(user, nil)

	w := postJSON(router, "/register", dto.RegisterRequest{
		Username: "testuser",
		Password: "password123",
		Email:    "test@example.com",
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]string
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "user-123", response["user_id"])
	assert.Equal(t, "testuser", response["username"])
	assert.Equal(t, "test@example.com", response["email"])

	mockAuthService.AssertExpectations(t)
}

func TestRegister_UsernameInUse(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService, nil)
	router := setupRouter()
	router.POST("/register", handler.Register)

	mockAuthService.On("Register", "testuser", "password123", "test@example.com").Return(nil, service.ErrNameInUse)

	w := postJSON(router, "/register", dto.RegisterRequest{
		Username: "testuser",
		Password: "password123",
		Email:    "test@example.com",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	mockAuthService.AssertExpectations(t)
}

func TestRegister_InternalError(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService, nil)
	router := setupRouter()
	router.POST("/register", handler.Register)

	mockAuthService.On("Register", "testuser", "password123", "test@example.com").Return(nil, errors.New("db down"))

	w := postJSON(router, "/register", dto.RegisterRequest{
		Username: "testuser",
		Password: "password123",
		Email:    "test@example.com",
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
}

func TestRegister_InvalidJSON(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService, nil)
	router := setupRouter()
	router.POST("/register", handler.Register)

	req, _ := http.NewRequest(http.MethodPost, "/register", bytes.NewBufferString("{invalid"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockAuthService.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_Success(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService, nil)
	router := setupRouter()
	router.POST("/login", handler.Login)

	user := &models.User{ID: "user-123", Username: "testuser"}
	mockAuthService.On("Login", "testuser", "password123").Return("access", "refresh", user, nil)

	w := postJSON(router, "/login", dto.LoginRequest{Username: "testuser", Password: "password123"})

	assert.Equal(t, http.StatusOK, w.Code)
	var response dto.AuthResponse
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "access", response.AccessToken)
	assert.Equal(t, "refresh", response.RefreshToken)
	assert.Equal(t, int64(900), response.ExpiresIn)
	mockAuthService.AssertExpectations(t)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService, nil)
	router := setupRouter()
	router.POST("/login", handler.Login)

	mockAuthService.On("Login", "testuser", "wrong").Return("", "", nil, service.ErrInvalidCredentials)

	w := postJSON(router, "/login", dto.LoginRequest{Username: "testuser", Password: "wrong"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockAuthService.AssertExpectations(t)
}

func TestRefreshToken_Success(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService, nil)
	router := setupRouter()
	router.POST("/refresh", handler.RefreshToken)

	mockAuthService.On("RefreshAccessToken", "refresh").Return("new-access", nil)

	w := postJSON(router, "/refresh", dto.RefreshTokenRequest{RefreshToken: "refresh"})

	assert.Equal(t, http.StatusOK, w.Code)
	var response dto.RefreshResponse
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "new-access", response.AccessToken)
	assert.Equal(t, "Bearer", response.TokenType)
}

func TestRefreshToken_Invalid(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService, nil)
	router := setupRouter()
	router.POST("/refresh", handler.RefreshToken)

	mockAuthService.On("RefreshAccessToken", "stale").Return("", service.ErrExpiredToken)

	w := postJSON(router, "/refresh", dto.RefreshTokenRequest{RefreshToken: "stale"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRevokeToken_AlwaysSucceeds(t *testing.T) {
	mockAuthService := new(MockAuthService)
	handler := NewAuthHandler(mockAuthService, nil)
	router := setupRouter()
	router.POST("/revoke", handler.RevokeToken)

	mockAuthService.On("RevokeToken", "unknown").Return(service.ErrInvalidToken)

	w := postJSON(router, "/revoke", dto.RevokeTokenRequest{RefreshToken: "unknown"})

	assert.Equal(t, http.StatusOK, w.Code)
	mockAuthService.AssertExpectations(t)
}

package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	adapterHTTP "github.com/comitanigiacomo/kanso-habits/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func setupAuthHandler() (*gin.Engine, *MockUserRepository) {
	gin.SetMode(gin.TestMode)

	mockRepo := new(MockUserRepository)
	tokens := services.NewTokenService("handler-secret", "kanso-test", time.Hour, mockRepo)
	authHandler := adapterHTTP.NewAuthHandler(services.NewAuthService(mockRepo, tokens))

	r := gin.New()
	authHandler.RegisterRoutes(r.Group("/api/v1"))
	return r, mockRepo
}

func postJSON(router http.Handler, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("Success: 201 Created", func(t *testing.T) {
		router, mockRepo := setupAuthHandler()
		mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

		w := postJSON(router, "/api/v1/auth/register", map[string]string{
			"email":    "new@kanso.app",
			"password": "StrongPassword123!",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"email":"new@kanso.app"`)
		assert.NotContains(t, w.Body.String(), "password")
		mockRepo.AssertExpectations(t)
	})

	t.Run("Fail: 400 on validation", func(t *testing.T) {
		router, mockRepo := setupAuthHandler()

		tests := []struct {
			name    string
			payload map[string]string
		}{
			{"bad email", map[string]string{"email": "not-an-email", "password": "StrongPassword123!"}},
			{"short password", map[string]string{"email": "a@kanso.app", "password": "short"}},
			{"missing fields", map[string]string{}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := postJSON(router, "/api/v1/auth/register", tt.payload)
				assert.Equal(t, http.StatusBadRequest, w.Code)
			})
		}
		mockRepo.AssertNotCalled(t, "Create")
	})

	t.Run("Fail: 409 on duplicate email", func(t *testing.T) {
		router, mockRepo := setupAuthHandler()
		mockRepo.On("Create", mock.Anything, mock.Anything).Return(domain.ErrEmailAlreadyExists)

		w := postJSON(router, "/api/v1/auth/register", map[string]string{
			"email":    "dup@kanso.app",
			"password": "StrongPassword123!",
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "email already exists")
	})

	t.Run("Fail: 500 on storage error", func(t *testing.T) {
		router, mockRepo := setupAuthHandler()
		mockRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

		w := postJSON(router, "/api/v1/auth/register", map[string]string{
			"email":    "ok@kanso.app",
			"password": "StrongPassword123!",
		})

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection reset")
	})
}

func TestAuthHandler_Login(t *testing.T) {
	user, err := domain.NewUser("user-42", "login@kanso.app")
	require.NoError(t, err)
	require.NoError(t, user.SetPassword("StrongPassword123!"))

	t.Run("Success: returns a bearer token", func(t *testing.T) {
		router, mockRepo := setupAuthHandler()
		mockRepo.On("GetByEmail", mock.Anything, "login@kanso.app").Return(user, nil)

		w := postJSON(router, "/api/v1/auth/login", map[string]string{
			"email":    "login@kanso.app",
			"password": "StrongPassword123!",
		})

		require.Equal(t, http.StatusOK, w.Code)
		var res map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.NotEmpty(t, res["access_token"])
		assert.Equal(t, "Bearer", res["token_type"])
	})

	t.Run("Fail: 401 on wrong password", func(t *testing.T) {
		router, mockRepo := setupAuthHandler()
		mockRepo.On("GetByEmail", mock.Anything, "login@kanso.app").Return(user, nil)

		w := postJSON(router, "/api/v1/auth/login", map[string]string{
			"email":    "login@kanso.app",
			"password": "nope-nope-nope",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Fail: 401 on unknown email", func(t *testing.T) {
		router, mockRepo := setupAuthHandler()
		mockRepo.On("GetByEmail", mock.Anything, "ghost@kanso.app").Return(nil, domain.ErrUserNotFound)

		w := postJSON(router, "/api/v1/auth/login", map[string]string{
			"email":    "ghost@kanso.app",
			"password": "StrongPassword123!",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

package middleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webermont/LeiaMais/internal/database/dbtest"
	"github.com/webermont/LeiaMais/internal/database/queries"
	"github.com/webermont/LeiaMais/internal/models"
	"github.com/webermont/LeiaMais/internal/services"
)

type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) ValidateToken(ctx context.Context, token string) (*models.JWTClaims, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JWTClaims), args.Error(1)
}

func generateTestRSAKey(t *testing.T) string {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	}))
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthMiddleware_RequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	validator := new(MockTokenValidator)
	validator.On("ValidateToken", mock.Anything, "good-token").Return(&models.JWTClaims{
		UserID: 42,
		Email:  "ana@leiamais.test",
		Role:   models.RoleLibrarian,
	}, nil)
	validator.On("ValidateToken", mock.Anything, "bad-token").Return(nil, errors.New("expired"))

	auth := NewAuthMiddleware(validator)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedCode   string
	}{
		{name: "missing authorization header", expectedStatus: http.StatusUnauthorized, expectedCode: "MISSING_AUTH_HEADER"},
		{name: "no scheme", authHeader: "good-token", expectedStatus: http.StatusUnauthorized, expectedCode: "INVALID_AUTH_FORMAT"},
		{name: "wrong scheme", authHeader: "Basic dGVzdDp0ZXN0", expectedStatus: http.StatusUnauthorized, expectedCode: "INVALID_AUTH_FORMAT"},
		{name: "invalid token", authHeader: "Bearer bad-token", expectedStatus: http.StatusUnauthorized, expectedCode: "INVALID_TOKEN"},
		{name: "valid token", authHeader: "Bearer good-token", expectedStatus: http.StatusOK},
		{name: "scheme is case insensitive", authHeader: "bearer good-token", expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/test", auth.RequireAuth(), func(c *gin.Context) {
				assert.Equal(t, int64(42), GetUserID(c))
				assert.Equal(t, models.RoleLibrarian, GetUserRole(c))
				assert.Equal(t, "good-token", GetAccessToken(c))
				require.NotNil(t, GetClaims(c))
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				body := decodeError(t, w)
				assert.Equal(t, tt.expectedCode, body["code"])
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestAuthMiddleware_RequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	auth := NewAuthMiddleware(new(MockTokenValidator))

	tests := []struct {
		name           string
		role           any
		handler        gin.HandlerFunc
		expectedStatus int
	}{
		{name: "admin passes admin check", role: models.RoleAdmin, handler: auth.RequireAdmin(), expectedStatus: http.StatusOK},
		{name: "librarian fails admin check", role: models.RoleLibrarian, handler: auth.RequireAdmin(), expectedStatus: http.StatusForbidden},
		{name: "librarian is staff", role: models.RoleLibrarian, handler: auth.RequireStaff(), expectedStatus: http.StatusOK},
		{name: "admin is staff", role: models.RoleAdmin, handler: auth.RequireStaff(), expectedStatus: http.StatusOK},
		{name: "teacher is not staff", role: models.RoleTeacher, handler: auth.RequireStaff(), expectedStatus: http.StatusForbidden},
		{name: "student is not staff", role: models.RoleStudent, handler: auth.RequireStaff(), expectedStatus: http.StatusForbidden},
		{name: "missing role", handler: auth.RequireStaff(), expectedStatus: http.StatusUnauthorized},
		{name: "wrong role type", role: "admin", handler: auth.RequireAdmin(), expectedStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/test", func(c *gin.Context) {
				if tt.role != nil {
					c.Set(contextUserRole, tt.role)
				}
				c.Next()
			}, tt.handler, func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestAuthMiddleware_WithAuthService(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := dbtest.NewStore(t)
	authService, err := services.NewAuthService(store, generateTestRSAKey(t), generateTestRSAKey(t), time.Hour, 24*time.Hour, zap.NewNop(), nil)
	require.NoError(t, err)

	access, refresh, err := authService.GenerateTokens(queries.User{ID: 7, Email: "rui@leiamais.test", Role: models.RoleStudent})
	require.NoError(t, err)

	auth := NewAuthMiddleware(authService)
	router := gin.New()
	router.GET("/profile", auth.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c)})
	})

	t.Run("access token accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/profile", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":7}`, w.Body.String())
	})

	t.Run("refresh token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/profile", nil)
		req.Header.Set("Authorization", "Bearer "+refresh)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGetters_EmptyContext(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Zero(t, GetUserID(c))
	assert.Empty(t, GetUserRole(c))
	assert.Nil(t, GetClaims(c))
	assert.Empty(t, GetAccessToken(c))

	c.Set(contextUserID, 9)
	assert.Zero(t, GetUserID(c), "non-int64 IDs are ignored")
}

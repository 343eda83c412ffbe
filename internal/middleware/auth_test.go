package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fuel_dispatch/internal/models"
	"fuel_dispatch/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestRouter(tokens services.TokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	router.GET("/me", Authenticate(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetUint(CtxUserID),
			"role":    c.GetString(CtxRole),
		})
	})
	router.GET("/admin", Authenticate(tokens), RequireRoles(models.RoleCRMAdmin, models.RoleSuperAdmin), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestAuthenticate(t *testing.T) {
	tokens := services.NewTokenService("test_secret", 15*time.Minute)
	router := newTestRouter(tokens)

	t.Run("missing header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Token abc")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		stale := services.NewTokenService("test_secret", -time.Minute)
		token, err := stale.IssueAccessToken(1, "MAIN_USER", "9876543210")
		assert.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := tokens.IssueAccessToken(42, "MAIN_USER", "9876543210")
		assert.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":42`)
	})
}

func TestRequireRoles(t *testing.T) {
	tokens := services.NewTokenService("test_secret", 15*time.Minute)
	router := newTestRouter(tokens)

	t.Run("customer is forbidden", func(t *testing.T) {
		token, _ := tokens.IssueAccessToken(1, string(models.RoleMainUser), "9876543210")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("super admin is allowed", func(t *testing.T) {
		token, _ := tokens.IssueAccessToken(2, string(models.RoleSuperAdmin), "9999999999")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("crm admin is allowed", func(t *testing.T) {
		token, _ := tokens.IssueAccessToken(3, string(models.RoleCRMAdmin), "7777777777")
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

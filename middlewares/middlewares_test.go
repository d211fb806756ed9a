package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/bizbooks_backend/utils"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, secret string, userID int, exp time.Time) string {
	return signedClaims(t, secret, utils.JwtCustomClaim{ID: userID, Role: "O"}, exp)
}

func signedClaims(t *testing.T, secret string, claim utils.JwtCustomClaim, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, &utils.JwtCustomClaim{
		ID:        claim.ID,
		Role:      claim.Role,
		CompanyId: claim.CompanyId,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: exp.Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SessionMiddleware(), AuthMiddleware())
	r.GET("/whoami", func(c *gin.Context) {
		id, _ := utils.GetUserIdFromContext(c.Request.Context())
		device, _ := utils.GetDeviceIdFromContext(c.Request.Context())
		company, _ := utils.GetCompanyIdFromContext(c.Request.Context())
		isAdmin, _ := utils.GetIsAdminFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": id, "device_id": device, "company_id": company, "is_admin": isAdmin})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	t.Setenv("API_SECRET", "test-secret")
	r := newAuthRouter()

	t.Run("valid bearer token sets user id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, "test-secret", 42, time.Now().Add(time.Hour)))
		req.Header.Set("x-device-id", "tablet-9")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"user_id":42,"device_id":"tablet-9","company_id":"","is_admin":false}`, w.Body.String())
	})

	t.Run("company and admin claims reach the context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		claim := utils.JwtCustomClaim{ID: 3, Role: "A", CompanyId: "co-9"}
		req.Header.Set("Authorization", "Bearer "+signedClaims(t, "test-secret", claim, time.Now().Add(time.Hour)))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"user_id":3,"device_id":"","company_id":"co-9","is_admin":true}`, w.Body.String())
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, "other", 42, time.Now().Add(time.Hour)))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, "test-secret", 42, time.Now().Add(-time.Minute)))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Basic")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("no credentials passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		require.JSONEq(t, `{"user_id":0,"device_id":"","company_id":"","is_admin":false}`, w.Body.String())
	})
}

func TestSessionMiddlewareRejectsUnknownToken(t *testing.T) {
	// Redis is not connected in unit tests, so every token is unknown.
	r := newAuthRouter()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("token", "nope")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

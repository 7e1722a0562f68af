package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(guard *Guard, scope Scope) *gin.Engine {
	r := gin.New()
	r.GET("/protected", guard.Require(scope), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func doGet(t *testing.T, r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGuardDisabledPassesEverything(t *testing.T) {
	guard := NewGuard("", 30)
	require.False(t, guard.Enabled())

	w := doGet(t, protectedRouter(guard, ScopeData), "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestGuardAcceptsMatchingScope(t *testing.T) {
	guard := NewGuard("test-secret", 30)
	token, err := guard.Issue(ScopeData)
	require.NoError(t, err)
	require.Equal(t, "Bearer", token.TokenType)
	require.Equal(t, "data", token.Scope)
	require.Equal(t, 1800, token.ExpiresIn)

	w := doGet(t, protectedRouter(guard, ScopeData), "Bearer "+token.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestGuardRejectsWrongScope(t *testing.T) {
	guard := NewGuard("test-secret", 30)
	token, err := guard.Issue(ScopeClient)
	require.NoError(t, err)

	w := doGet(t, protectedRouter(guard, ScopeData), "Bearer "+token.AccessToken)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestGuardRejectsMissingToken(t *testing.T) {
	guard := NewGuard("test-secret", 30)

	w := doGet(t, protectedRouter(guard, ScopeData), "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGuardRejectsForeignSignature(t *testing.T) {
	other := NewGuard("another-secret", 30)
	token, err := other.Issue(ScopeData)
	require.NoError(t, err)

	guard := NewGuard("test-secret", 30)
	w := doGet(t, protectedRouter(guard, ScopeData), "Bearer "+token.AccessToken)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGuardRejectsExpiredToken(t *testing.T) {
	secret := []byte("test-secret")
	claims := tokenClaims{
		Scopes: []string{string(ScopeData)},
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)

	guard := NewGuard(string(secret), 30)
	w := doGet(t, protectedRouter(guard, ScopeData), "Bearer "+expired)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

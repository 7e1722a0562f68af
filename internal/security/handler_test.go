package security

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func tokenRouter(svc *Service) *gin.Engine {
	r := gin.New()
	svc.RegisterRoutes(r)
	return r
}

func postToken(t *testing.T, r *gin.Engine, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestClientCredentialsGrant(t *testing.T) {
	guard := NewGuard("test-secret", 30)
	svc := NewService(guard, "first-secret, second-secret", "", "")

	w := postToken(t, tokenRouter(svc), url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"2"},
		"client_secret": {"second-secret"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var token struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		Scope       string `json:"scope"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))
	require.Equal(t, "Bearer", token.TokenType)
	require.Equal(t, "data", token.Scope)
	require.NotEmpty(t, token.AccessToken)
}

func TestClientCredentialsGrantRejectsBadSecret(t *testing.T) {
	guard := NewGuard("test-secret", 30)
	svc := NewService(guard, "first-secret", "", "")

	w := postToken(t, tokenRouter(svc), url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {"1"},
		"client_secret": {"wrong"},
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestClientCredentialsGrantRejectsUnknownClientID(t *testing.T) {
	guard := NewGuard("test-secret", 30)
	svc := NewService(guard, "first-secret", "", "")

	for _, id := range []string{"0", "2", "-1", "abc"} {
		w := postToken(t, tokenRouter(svc), url.Values{
			"grant_type":    {"client_credentials"},
			"client_id":     {id},
			"client_secret": {"first-secret"},
		})
		require.Equal(t, http.StatusUnauthorized, w.Code, "client_id %q", id)
	}
}

func TestUnsupportedGrantType(t *testing.T) {
	guard := NewGuard("test-secret", 30)
	svc := NewService(guard, "first-secret", "", "")

	w := postToken(t, tokenRouter(svc), url.Values{"grant_type": {"password"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthorizationCodeGrantMissingCode(t *testing.T) {
	guard := NewGuard("test-secret", 30)
	svc := NewService(guard, "first-secret", "http://localhost/jwks", "")

	w := postToken(t, tokenRouter(svc), url.Values{"grant_type": {"authorization_code"}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"Error":"Missing authorization code"}`, w.Body.String())
}

func TestAuthorizationCodeGrantWithoutJWKSURL(t *testing.T) {
	guard := NewGuard("test-secret", 30)
	svc := NewService(guard, "first-secret", "", "")

	w := postToken(t, tokenRouter(svc), url.Values{
		"grant_type": {"authorization_code"},
		"code":       {"some-code"},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.JSONEq(t, `{"Error":"Authorization code grant is not configured"}`, w.Body.String())
}

func jwksServer(t *testing.T, key *rsa.PrivateKey, kid string) *httptest.Server {
	t.Helper()
	doc := jwksDocument{Keys: []jwksKey{{
		Kty: "RSA",
		Kid: kid,
		N:   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
	}}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(doc))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAuthorizationCodeGrant(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	srv := jwksServer(t, key, "provider-key")

	codeToken := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Subject:   "user-42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})
	codeToken.Header["kid"] = "provider-key"
	code, err := codeToken.SignedString(key)
	require.NoError(t, err)

	guard := NewGuard("test-secret", 30)
	svc := NewService(guard, "first-secret", srv.URL, "")

	w := postToken(t, tokenRouter(svc), url.Values{
		"grant_type": {"authorization_code"},
		"code":       {code},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var token struct {
		Scope string `json:"scope"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))
	require.Equal(t, "client", token.Scope)
}

func TestAuthorizationCodeGrantRejectsForgedCode(t *testing.T) {
	providerKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	srv := jwksServer(t, providerKey, "provider-key")

	attackerKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	forged, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString(attackerKey)
	require.NoError(t, err)

	guard := NewGuard("test-secret", 30)
	svc := NewService(guard, "first-secret", srv.URL, "")

	w := postToken(t, tokenRouter(svc), url.Values{
		"grant_type": {"authorization_code"},
		"code":       {forged},
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.JSONEq(t, `{"Error":"Invalid code"}`, w.Body.String())
}

func TestAuthorizeRedirect(t *testing.T) {
	guard := NewGuard("test-secret", 30)
	svc := NewService(guard, "first-secret", "", "https://idp.example.com/login")

	req := httptest.NewRequest(http.MethodGet, "/authorize", nil)
	w := httptest.NewRecorder()
	tokenRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	require.Equal(t, "https://idp.example.com/login", w.Header().Get("Location"))
}

// Package security issues and verifies the bearer tokens that protect the
// API for machine clients. Survey cookies are deliberately outside its scope.
package security

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	v1 "github.com/optittm/survey-back-api/internal/api/v1"
	apperr "github.com/optittm/survey-back-api/internal/core/errors"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Scope is an access scope carried in the token's scopes claim.
type Scope string

const (
	// ScopeClient allows the survey widget flows: trigger checks and
	// comment submission.
	ScopeClient Scope = "client"

	// ScopeData allows reading comments, projects and statistics.
	ScopeData Scope = "data"
)

type tokenClaims struct {
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

// Guard verifies bearer tokens. An empty secret disables authentication
// entirely, which is the development default.
type Guard struct {
	secret        []byte
	tokenLifetime time.Duration
}

func NewGuard(secretKey string, expireMinutes int) *Guard {
	if expireMinutes <= 0 {
		expireMinutes = 30
	}
	return &Guard{
		secret:        []byte(secretKey),
		tokenLifetime: time.Duration(expireMinutes) * time.Minute,
	}
}

// Enabled reports whether bearer authentication is enforced.
func (g *Guard) Enabled() bool {
	return len(g.secret) > 0
}

// Require returns a middleware enforcing the given scope. When the guard is
// disabled every request passes.
func (g *Guard) Require(scope Scope) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.Enabled() {
			c.Next()
			return
		}

		claims, err := g.parseBearer(c.GetHeader("Authorization"))
		if err != nil {
			slog.Warn("Rejected bearer token", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, apperr.ErrorResponse{Error: "Invalid or missing bearer token"})
			return
		}

		for _, s := range claims.Scopes {
			if s == string(scope) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, apperr.ErrorResponse{Error: "Insufficient scope"})
	}
}

func (g *Guard) parseBearer(header string) (*tokenClaims, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return nil, fmt.Errorf("missing bearer token")
	}

	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return g.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	return &claims, nil
}

// Issue signs a fresh access token carrying one scope.
func (g *Guard) Issue(scope Scope) (v1.AuthToken, error) {
	now := time.Now()
	claims := tokenClaims{
		Scopes: []string{string(scope)},
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.tokenLifetime)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return v1.AuthToken{}, fmt.Errorf("signing access token: %w", err)
	}

	return v1.AuthToken{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int(g.tokenLifetime.Seconds()),
		Scope:       string(scope),
	}, nil
}

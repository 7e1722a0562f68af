package security

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"

	v1 "github.com/optittm/survey-back-api/internal/api/v1"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidClient means the client_id/client_secret pair did not match
	// any configured client.
	ErrInvalidClient = errors.New("invalid client credentials")

	// ErrInvalidCode means the authorization code failed verification
	// against the identity provider's published keys.
	ErrInvalidCode = errors.New("invalid authorization code")

	// ErrGrantNotConfigured means the deployment has no JWKS URL, so the
	// authorization code grant cannot be served.
	ErrGrantNotConfigured = errors.New("authorization code grant is not configured")
)

// Service exchanges credentials for access tokens.
type Service struct {
	guard         *Guard
	clientSecrets []string
	jwks          *jwksClient
	authURL       string
}

func NewService(guard *Guard, clientSecrets, jwksURL, authURL string) *Service {
	if guard == nil {
		panic("security: nil guard")
	}

	var secrets []string
	for _, s := range strings.Split(clientSecrets, ",") {
		if s = strings.TrimSpace(s); s != "" {
			secrets = append(secrets, s)
		}
	}

	svc := &Service{
		guard:         guard,
		clientSecrets: secrets,
		authURL:       authURL,
	}
	if jwksURL != "" {
		svc.jwks = newJWKSClient(jwksURL)
	}
	return svc
}

// AuthURL is the identity provider's login page.
func (s *Service) AuthURL() string {
	return s.authURL
}

// ClientCredentialsToken validates a client_id/client_secret pair and issues
// a data-scoped token. Client ids are 1-based positions in the configured
// secret list.
func (s *Service) ClientCredentialsToken(clientID, clientSecret string) (v1.AuthToken, error) {
	id, err := strconv.Atoi(clientID)
	if err != nil || id < 1 || id > len(s.clientSecrets) {
		return v1.AuthToken{}, ErrInvalidClient
	}

	expected := s.clientSecrets[id-1]
	if subtle.ConstantTimeCompare([]byte(expected), []byte(clientSecret)) != 1 {
		return v1.AuthToken{}, ErrInvalidClient
	}
	return s.guard.Issue(ScopeData)
}

// AuthorizationCodeToken verifies a code issued by the external identity
// provider and exchanges it for a client-scoped token.
func (s *Service) AuthorizationCodeToken(ctx context.Context, code string) (v1.AuthToken, error) {
	if s.jwks == nil {
		return v1.AuthToken{}, ErrGrantNotConfigured
	}

	_, err := jwt.Parse(code, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		return s.jwks.keyFor(ctx, kid)
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return v1.AuthToken{}, fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}
	return s.guard.Issue(ScopeClient)
}

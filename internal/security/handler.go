package security

import (
	"errors"
	"log/slog"
	"net/http"

	apperr "github.com/optittm/survey-back-api/internal/core/errors"

	"github.com/gin-gonic/gin"
)

func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/token", s.TokenHandler)
	r.GET("/authorize", s.AuthorizeHandler)
}

// TokenHandler exchanges credentials for an access token. It accepts form
// encoded requests in the OAuth2 style.
func (s *Service) TokenHandler(c *gin.Context) {
	switch grant := c.PostForm("grant_type"); grant {
	case "client_credentials":
		token, err := s.ClientCredentialsToken(c.PostForm("client_id"), c.PostForm("client_secret"))
		if err != nil {
			c.JSON(http.StatusUnauthorized, apperr.ErrorResponse{Error: "Invalid client credentials"})
			return
		}
		c.JSON(http.StatusOK, token)

	case "authorization_code":
		code := c.PostForm("code")
		if code == "" {
			c.JSON(http.StatusBadRequest, apperr.ErrorResponse{Error: "Missing authorization code"})
			return
		}
		token, err := s.AuthorizationCodeToken(c.Request.Context(), code)
		switch {
		case errors.Is(err, ErrGrantNotConfigured):
			slog.Warn("Authorization code grant requested but no JWKS URL is configured")
			c.JSON(http.StatusBadRequest, apperr.ErrorResponse{Error: "Authorization code grant is not configured"})
			return
		case errors.Is(err, ErrInvalidCode):
			c.JSON(http.StatusUnauthorized, apperr.ErrorResponse{Error: "Invalid code"})
			return
		case err != nil:
			slog.Error("Failed to verify authorization code", "error", err)
			c.JSON(http.StatusInternalServerError, apperr.ErrorResponse{Error: apperr.MsgInternal})
			return
		}
		c.JSON(http.StatusOK, token)

	default:
		c.JSON(http.StatusBadRequest, apperr.ErrorResponse{Error: "Unsupported grant type"})
	}
}

// AuthorizeHandler forwards the browser to the identity provider's login
// page.
func (s *Service) AuthorizeHandler(c *gin.Context) {
	if s.authURL == "" {
		c.JSON(http.StatusNotFound, apperr.ErrorResponse{Error: "Authorization is not configured"})
		return
	}
	c.Redirect(http.StatusTemporaryRedirect, s.authURL)
}

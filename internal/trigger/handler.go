package trigger

import (
	"errors"
	"log/slog"
	"net/http"

	apperr "github.com/optittm/survey-back-api/internal/core/errors"
	"github.com/optittm/survey-back-api/internal/core/rules"

	"github.com/gin-gonic/gin"
)

const (
	cookieUserID    = "user_id"
	cookieTimestamp = "timestamp"
)

// RegisterRoutes registers the trigger endpoint. auth guards it with the
// client scope.
func (s *Service) RegisterRoutes(r gin.IRouter, auth gin.HandlerFunc) {
	r.GET("/rules", auth, s.ShowModalHandler)
}

// ShowModalHandler handles GET /rules?featureUrl=... and answers with a bare
// JSON boolean. Cookies carry all cross-request state.
func (s *Service) ShowModalHandler(c *gin.Context) {
	featureURL := c.Query("featureUrl")
	if featureURL == "" {
		c.JSON(http.StatusUnprocessableEntity, apperr.ErrorResponse{Error: "Missing featureUrl query parameter"})
		return
	}

	normalized, err := rules.NormalizeFeatureURL(featureURL)
	if err != nil {
		slog.Warn("Invalid feature URL on trigger", "feature_url", featureURL, "error", err)
		c.JSON(http.StatusUnprocessableEntity, apperr.ErrorResponse{Error: "Invalid feature URL"})
		return
	}

	// Absent cookies are normal first-visit state, not errors.
	userID, _ := c.Cookie(cookieUserID)
	prevToken, _ := c.Cookie(cookieTimestamp)

	decision, err := s.Decide(c.Request.Context(), normalized, userID, prevToken)
	switch {
	case errors.Is(err, apperr.ErrFeatureNotFound):
		c.JSON(http.StatusNotFound, apperr.ErrorResponse{Error: apperr.MsgFeatureNotFound})
		return
	case errors.Is(err, apperr.ErrInvalidToken):
		c.JSON(http.StatusUnprocessableEntity, apperr.ErrorResponse{Error: apperr.MsgInvalidToken})
		return
	case err != nil:
		slog.Error("Trigger decision failed", "feature_url", normalized, "error", err)
		c.JSON(http.StatusInternalServerError, apperr.ErrorResponse{Error: apperr.MsgInternal})
		return
	}

	if decision.NewUserID != "" {
		c.SetCookie(cookieUserID, decision.NewUserID, 0, "/", "", false, false)
	}
	if decision.NewToken != "" {
		c.SetCookie(cookieTimestamp, decision.NewToken, 0, "/", "", false, false)
	}

	c.JSON(http.StatusOK, decision.Display)
}

package projects

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apperr "github.com/optittm/survey-back-api/internal/core/errors"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the reporting endpoints, all guarded by the data
// scope.
func (s *Service) RegisterRoutes(r gin.IRouter, requireData gin.HandlerFunc) {
	r.GET("/projects", requireData, s.ListProjectsHandler)
	r.GET("/projects/:id/rules", requireData, s.ProjectRulesHandler)
	r.GET("/projects/:id/avg_rating", requireData, s.AvgRatingHandler)
	r.GET("/projects/:id/rating_by_feature", requireData, s.RatingByFeatureHandler)
}

func (s *Service) ListProjectsHandler(c *gin.Context) {
	projects, err := s.ListProjects(c.Request.Context())
	if err != nil {
		slog.Error("Failed to list projects", "error", err)
		c.JSON(http.StatusInternalServerError, apperr.ErrorResponse{Error: apperr.MsgInternal})
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (s *Service) ProjectRulesHandler(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	projectRules, err := s.RulesForProject(c.Request.Context(), id)
	if !s.respondOK(c, id, err) {
		return
	}
	c.JSON(http.StatusOK, projectRules)
}

func (s *Service) AvgRatingHandler(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	rating, err := s.AvgRating(c.Request.Context(), id)
	if !s.respondOK(c, id, err) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "rating": rating})
}

func (s *Service) RatingByFeatureHandler(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	ratings, err := s.AvgRatingByFeature(c.Request.Context(), id)
	if !s.respondOK(c, id, err) {
		return
	}
	c.JSON(http.StatusOK, ratings)
}

func projectID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, apperr.ErrorResponse{Error: "Invalid project id"})
		return 0, false
	}
	return id, true
}

// respondOK writes the error response, if any, and reports whether the
// request may proceed.
func (s *Service) respondOK(c *gin.Context, id int64, err error) bool {
	switch {
	case errors.Is(err, ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"id": id, "Error": apperr.MsgProjectNotFound})
		return false
	case err != nil:
		slog.Error("Project reporting query failed", "project_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, apperr.ErrorResponse{Error: apperr.MsgInternal})
		return false
	}
	return true
}

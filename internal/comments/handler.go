package comments

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	v1 "github.com/optittm/survey-back-api/internal/api/v1"
	apperr "github.com/optittm/survey-back-api/internal/core/errors"
	"github.com/optittm/survey-back-api/internal/core/rules"
	"github.com/optittm/survey-back-api/internal/core/storage"

	"github.com/gin-gonic/gin"
)

const (
	cookieUserID    = "user_id"
	cookieTimestamp = "timestamp"

	defaultPageSize = 20
)

// RegisterRoutes registers the submission and listing endpoints. Submitting
// needs the client scope, listing the data scope.
func (s *Service) RegisterRoutes(r gin.IRouter, requireClient, requireData gin.HandlerFunc) {
	r.POST("/comments", requireClient, s.CreateCommentHandler)
	r.GET("/comments", requireData, s.ListCommentsHandler)
}

// CreateCommentHandler handles POST /comments. The answer window check runs
// entirely on the timestamp cookie minted by the trigger endpoint.
func (s *Service) CreateCommentHandler(c *gin.Context) {
	body, ok := s.parseBody(c)
	if !ok {
		return
	}

	normalized, err := rules.NormalizeFeatureURL(body.FeatureURL)
	if err != nil {
		slog.Warn("Invalid feature URL on submission", "feature_url", body.FeatureURL, "error", err)
		c.JSON(http.StatusUnprocessableEntity, apperr.ErrorResponse{Error: "Invalid feature URL"})
		return
	}
	body.FeatureURL = normalized

	// Absent cookies map to empty strings; the service treats those as
	// missing state.
	cookieID, _ := c.Cookie(cookieUserID)
	tok, _ := c.Cookie(cookieTimestamp)

	saved, err := s.Submit(c.Request.Context(), body, cookieID, tok)
	switch {
	case errors.Is(err, apperr.ErrFeatureNotFound):
		c.JSON(http.StatusNotFound, apperr.ErrorResponse{Error: apperr.MsgFeatureNotFound})
		return
	case errors.Is(err, apperr.ErrMissingCookies):
		c.JSON(http.StatusUnprocessableEntity, apperr.ErrorResponse{Error: apperr.MsgMissingCookies})
		return
	case errors.Is(err, apperr.ErrInvalidToken):
		c.JSON(http.StatusUnprocessableEntity, apperr.ErrorResponse{Error: apperr.MsgInvalidToken})
		return
	case errors.Is(err, apperr.ErrWindowExpired):
		c.JSON(http.StatusRequestTimeout, apperr.ErrorResponse{Error: apperr.MsgWindowExpired})
		return
	case err != nil:
		slog.Error("Failed to store comment", "error", err)
		c.JSON(http.StatusInternalServerError, apperr.ErrorResponse{Error: apperr.MsgInternal})
		return
	}

	c.JSON(http.StatusCreated, saved)
}

// parseBody reads the request body under the configured size cap and binds it.
func (s *Service) parseBody(c *gin.Context) (*v1.CommentPostBody, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, int64(s.maxBodySizeBytes))

	var body v1.CommentPostBody
	if err := c.ShouldBindJSON(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			slog.Warn("Request body exceeds maximum size", "max", s.maxBodySizeBytes)
			c.JSON(http.StatusRequestEntityTooLarge, apperr.ErrorResponse{Error: "Request body exceeds maximum allowed size"})
			return nil, false
		}
		if err == io.EOF {
			c.JSON(http.StatusUnprocessableEntity, apperr.ErrorResponse{Error: "Missing request body"})
			return nil, false
		}
		slog.Warn("Invalid JSON body received", "error", err)
		c.JSON(http.StatusUnprocessableEntity, apperr.ErrorResponse{Error: "Invalid JSON body"})
		return nil, false
	}

	if err := body.Validate(); err != nil {
		slog.Warn("Comment body validation failed", "error", err)
		c.JSON(http.StatusUnprocessableEntity, apperr.ErrorResponse{Error: err.Error()})
		return nil, false
	}
	return &body, true
}

// ListCommentsHandler handles GET /comments with filters and pagination.
func (s *Service) ListCommentsHandler(c *gin.Context) {
	filter, page, pageSize, ok := parseListQuery(c)
	if !ok {
		return
	}

	comments, total, err := s.List(c.Request.Context(), filter)
	if err != nil {
		slog.Error("Failed to list comments", "error", err)
		c.JSON(http.StatusInternalServerError, apperr.ErrorResponse{Error: apperr.MsgInternal})
		return
	}
	if comments == nil {
		comments = []*v1.Comment{}
	}

	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	var nextPage, prevPage *string
	if page < totalPages {
		u := "/comments?page=" + strconv.Itoa(page+1) + "&pageSize=" + strconv.Itoa(pageSize)
		nextPage = &u
	}
	if page > 1 {
		u := "/comments?page=" + strconv.Itoa(page-1) + "&pageSize=" + strconv.Itoa(pageSize)
		prevPage = &u
	}

	c.JSON(http.StatusOK, gin.H{
		"results":        comments,
		"page":           page,
		"page_size":      pageSize,
		"total_comments": total,
		"total_pages":    totalPages,
		"next_page":      nextPage,
		"prev_page":      prevPage,
	})
}

func parseListQuery(c *gin.Context) (storage.CommentFilter, int, int, bool) {
	var f storage.CommentFilter

	f.ProjectName = c.Query("project_name")
	f.FeatureURL = c.Query("feature_url")
	f.UserID = c.Query("user_id")
	f.ContentSearch = c.Query("content_search")

	intParam := func(name string) (int, bool) {
		raw := c.Query(name)
		if raw == "" {
			return 0, true
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, apperr.ErrorResponse{Error: "Invalid " + name + " parameter"})
			return 0, false
		}
		return v, true
	}
	timeParam := func(name string) (time.Time, bool) {
		raw := c.Query(name)
		if raw == "" {
			return time.Time{}, true
		}
		v, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, apperr.ErrorResponse{Error: "Invalid " + name + " parameter"})
			return time.Time{}, false
		}
		return v, true
	}

	var ok bool
	if f.RatingMin, ok = intParam("rating_min"); !ok {
		return f, 0, 0, false
	}
	if f.RatingMax, ok = intParam("rating_max"); !ok {
		return f, 0, 0, false
	}
	if f.TimestampStart, ok = timeParam("timestamp_start"); !ok {
		return f, 0, 0, false
	}
	if f.TimestampEnd, ok = timeParam("timestamp_end"); !ok {
		return f, 0, 0, false
	}

	page, ok := intParam("page")
	if !ok {
		return f, 0, 0, false
	}
	if page < 1 {
		page = 1
	}
	// page_size is the canonical parameter; pageSize stays accepted because
	// the next/prev links have always used it.
	pageSizeParam := "page_size"
	if c.Query(pageSizeParam) == "" && c.Query("pageSize") != "" {
		pageSizeParam = "pageSize"
	}
	pageSize, ok := intParam(pageSizeParam)
	if !ok {
		return f, 0, 0, false
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	f.Limit = pageSize
	f.Offset = (page - 1) * pageSize
	return f, page, pageSize, true
}

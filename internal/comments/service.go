// Package comments implements the submission side of the survey: validating
// that an answer is still inside its response window and persisting it, plus
// the filtered listing used by reporting clients.
package comments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/optittm/survey-back-api/internal/api/v1"
	apperr "github.com/optittm/survey-back-api/internal/core/errors"
	"github.com/optittm/survey-back-api/internal/core/keys"
	"github.com/optittm/survey-back-api/internal/core/rules"
	"github.com/optittm/survey-back-api/internal/core/storage"
	"github.com/optittm/survey-back-api/internal/core/token"
	"github.com/optittm/survey-back-api/internal/sentiment"
)

type Service struct {
	catalog  rules.Catalog
	keys     keys.Provider
	store    storage.CommentStore
	analyzer sentiment.Analyzer

	// useFingerprint selects the trusted visitor identity for stored
	// comments: the client-supplied body field instead of the cookie. A
	// per-deployment trust decision, never inferred from the request.
	useFingerprint bool

	maxBodySizeBytes int
}

func NewService(catalog rules.Catalog, keys keys.Provider, store storage.CommentStore, analyzer sentiment.Analyzer, useFingerprint bool, maxBodySizeMB int) *Service {
	if catalog == nil {
		panic("comments: catalog must not be nil")
	}
	if keys == nil {
		panic("comments: key provider must not be nil")
	}
	if store == nil {
		panic("comments: store must not be nil")
	}
	if analyzer == nil {
		panic("comments: analyzer must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1
	}
	return &Service{
		catalog:          catalog,
		keys:             keys,
		store:            store,
		analyzer:         analyzer,
		useFingerprint:   useFingerprint,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
	}
}

// Submit validates the answer window and stores the comment. body.FeatureURL
// must already be normalized. cookieUserID and timestampToken come from the
// cookies minted by the trigger endpoint; either being empty is
// apperr.ErrMissingCookies.
func (s *Service) Submit(ctx context.Context, body *v1.CommentPostBody, cookieUserID, timestampToken string) (*v1.Comment, error) {
	rule, projectName, ok := s.catalog.Lookup(body.FeatureURL)
	if !ok {
		return nil, apperr.ErrFeatureNotFound
	}

	if cookieUserID == "" || timestampToken == "" {
		return nil, apperr.ErrMissingCookies
	}

	key, err := s.keys.KeyForProject(ctx, projectName)
	if err != nil {
		return nil, fmt.Errorf("comments: %w", err)
	}

	shownAt, err := token.Decrypt(timestampToken, key)
	if err != nil {
		slog.Warn("Undecryptable timestamp cookie on submission", "project", projectName, "error", err)
		return nil, apperr.ErrInvalidToken
	}

	window := time.Duration(rule.DelayToAnswer) * time.Minute
	if time.Since(shownAt) >= window {
		slog.Info("Submission outside answer window",
			"project", projectName,
			"feature_url", body.FeatureURL,
			"shown_at", shownAt)
		return nil, apperr.ErrWindowExpired
	}

	userID := cookieUserID
	if s.useFingerprint {
		userID = body.UserID
	}

	comment := &v1.Comment{
		ProjectName: projectName,
		FeatureURL:  body.FeatureURL,
		UserID:      userID,
		Rating:      body.Rating,
		Comment:     body.Comment,
		// The display instant decrypted server-side, never a client-supplied time.
		Timestamp: shownAt,
	}
	s.attachSentiment(ctx, comment)

	saved, err := s.store.CreateComment(ctx, comment)
	if err != nil {
		return nil, fmt.Errorf("comments: persisting: %w", err)
	}

	slog.Info("Comment stored",
		"comment_id", saved.ID,
		"project", projectName,
		"feature_url", body.FeatureURL,
		"rating", body.Rating)
	return saved, nil
}

// attachSentiment scores a non-empty comment. Analysis failure is never
// fatal; the comment is stored with null sentiment.
func (s *Service) attachSentiment(ctx context.Context, c *v1.Comment) {
	if c.Comment == "" {
		return
	}
	res, err := s.analyzer.Analyze(ctx, c.Comment)
	if errors.Is(err, sentiment.ErrNoSignal) {
		// Neutral text, not a failure.
		slog.Debug("Comment carries no sentiment signal", "comment_id", c.ID)
		return
	}
	if err != nil {
		slog.Warn("Sentiment analysis failed", "error", err)
		return
	}
	c.Language = res.Language
	c.Sentiment = &res.Label
	c.SentimentScore = &res.Score
}

// List returns one page of comments matching the filter plus the total count.
func (s *Service) List(ctx context.Context, f storage.CommentFilter) ([]*v1.Comment, int, error) {
	comments, total, err := s.store.ListComments(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("comments: listing: %w", err)
	}
	return comments, total, nil
}

// Package v1 holds the wire models of the survey API.
package v1

import (
	"fmt"
	"time"
)

// CommentPostBody is the body of POST /comments.
type CommentPostBody struct {
	FeatureURL string `json:"feature_url"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`

	// UserID is the client-supplied fingerprint. It is only honored when the
	// deployment runs in fingerprint mode; otherwise the cookie identity wins.
	UserID string `json:"user_id"`
}

// Validate checks the submission body envelope.
func (b *CommentPostBody) Validate() error {
	if b.FeatureURL == "" {
		return fmt.Errorf("feature_url is required")
	}
	if b.Rating < 1 || b.Rating > 5 {
		return fmt.Errorf("Rating must be an integer between 1 and 5")
	}
	return nil
}

// Comment is a stored rated comment as returned by the API.
type Comment struct {
	ID          int64  `json:"id"`
	ProjectName string `json:"project_name"`
	FeatureURL  string `json:"feature_url"`
	UserID      string `json:"user_id"`
	Rating      int    `json:"rating"`
	Comment     string `json:"comment"`

	// Timestamp is the server-decrypted display instant, never a
	// client-supplied time.
	Timestamp time.Time `json:"timestamp"`

	Language       string   `json:"language,omitempty"`
	Sentiment      *string  `json:"sentiment"`
	SentimentScore *float64 `json:"sentiment_score"`
}

// Display records that the survey was shown to a visitor.
type Display struct {
	ProjectName string
	UserID      string
	FeatureURL  string
	ShownAt     time.Time
}

// Project is a registered project.
type Project struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// AuthToken is the response of POST /token.
type AuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

package postgres

import (
	"database/sql"
	"fmt"

	v1 "github.com/optittm/survey-back-api/internal/api/v1"
)

func scanComment(rows *sql.Rows) (*v1.Comment, error) {
	var c v1.Comment
	var language, sentiment sql.NullString
	var score sql.NullFloat64

	err := rows.Scan(
		&c.ID,
		&c.ProjectName,
		&c.FeatureURL,
		&c.UserID,
		&c.Rating,
		&c.Comment,
		&c.Timestamp,
		&language,
		&sentiment,
		&score,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan comment row: %w", err)
	}

	c.Language = language.String
	if sentiment.Valid {
		c.Sentiment = &sentiment.String
	}
	if score.Valid {
		c.SentimentScore = &score.Float64
	}
	return &c, nil
}

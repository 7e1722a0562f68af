package storage

import (
	"context"
	"errors"
	"time"

	v1 "github.com/optittm/survey-back-api/internal/api/v1"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ProjectStore persists projects and their per-project symmetric keys.
type ProjectStore interface {
	GetProjectByName(ctx context.Context, name string) (*v1.Project, error)
	GetProjectByID(ctx context.Context, id int64) (*v1.Project, error)

	// CreateProject inserts the project if absent and returns the stored row
	// either way. Safe under concurrent first use: the unique constraint on
	// the name is the source of truth.
	CreateProject(ctx context.Context, name string) (*v1.Project, error)

	// GetOrCreateKey stores fresh as the project's key if the project has
	// none yet, and returns whichever key the store holds afterwards. Two
	// concurrent first calls must converge on a single key.
	GetOrCreateKey(ctx context.Context, projectID int64, fresh []byte) ([]byte, error)
}

// CommentFilter narrows a comment listing. Zero values mean "no constraint".
type CommentFilter struct {
	ProjectName    string
	FeatureURL     string
	UserID         string
	TimestampStart time.Time
	TimestampEnd   time.Time
	ContentSearch  string
	RatingMin      int
	RatingMax      int

	Limit  int
	Offset int
}

// CommentStore persists and queries submitted comments.
type CommentStore interface {
	// CreateComment stores the comment and returns it with its assigned ID.
	// The comment's ProjectName must reference an existing project.
	CreateComment(ctx context.Context, c *v1.Comment) (*v1.Comment, error)

	// ListComments returns one page of matching comments plus the total
	// match count before pagination.
	ListComments(ctx context.Context, f CommentFilter) ([]*v1.Comment, int, error)

	// ProjectAvgRating returns the mean rating over all of a project's
	// comments, or ok=false when the project has none.
	ProjectAvgRating(ctx context.Context, projectID int64) (avg float64, ok bool, err error)

	// FeatureAvgRating is ProjectAvgRating narrowed to one feature URL.
	FeatureAvgRating(ctx context.Context, projectID int64, featureURL string) (avg float64, ok bool, err error)
}

// DisplayStore records display events for later reporting. Write-only from
// the core's perspective.
type DisplayStore interface {
	RecordDisplay(ctx context.Context, d *v1.Display) error
}

// Package projects exposes the reporting side of the API: the configured
// projects, their rules, and rating statistics over stored comments.
package projects

import (
	"context"
	"errors"
	"fmt"

	v1 "github.com/optittm/survey-back-api/internal/api/v1"
	"github.com/optittm/survey-back-api/internal/core/rules"
	"github.com/optittm/survey-back-api/internal/core/storage"

	"github.com/shopspring/decimal"
)

// ErrProjectNotFound is returned when a project id is unknown or the project
// is no longer present in the rules configuration.
var ErrProjectNotFound = errors.New("project not found")

type Service struct {
	catalog  rules.Catalog
	projects storage.ProjectStore
	comments storage.CommentStore
}

func NewService(catalog rules.Catalog, projects storage.ProjectStore, comments storage.CommentStore) *Service {
	if catalog == nil {
		panic("projects: catalog must not be nil")
	}
	if projects == nil {
		panic("projects: project store must not be nil")
	}
	if comments == nil {
		panic("projects: comment store must not be nil")
	}
	return &Service{catalog: catalog, projects: projects, comments: comments}
}

// ListProjects returns id and name for every configured project. The rules
// configuration is authoritative for the name set; rows missing from the
// store are created on first sight.
func (s *Service) ListProjects(ctx context.Context) ([]*v1.Project, error) {
	var out []*v1.Project
	for _, name := range s.catalog.ProjectNames() {
		project, err := s.projects.GetProjectByName(ctx, name)
		if errors.Is(err, storage.ErrNotFound) {
			project, err = s.projects.CreateProject(ctx, name)
		}
		if err != nil {
			return nil, fmt.Errorf("projects: resolving %q: %w", name, err)
		}
		out = append(out, project)
	}
	return out, nil
}

// RulesForProject returns the configured rules of one stored project.
func (s *Service) RulesForProject(ctx context.Context, projectID int64) ([]rules.Rule, error) {
	project, err := s.configuredProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	projectRules, _ := s.catalog.RulesForProject(project.Name)
	return projectRules, nil
}

// FeatureRating is the average rating of one configured feature.
type FeatureRating struct {
	URL    string  `json:"url"`
	Rating float64 `json:"rating"`
}

// AvgRating returns the mean rating over all of a project's comments,
// rounded to two decimals. Zero when the project has no comments yet.
func (s *Service) AvgRating(ctx context.Context, projectID int64) (float64, error) {
	project, err := s.configuredProject(ctx, projectID)
	if err != nil {
		return 0, err
	}

	avg, ok, err := s.comments.ProjectAvgRating(ctx, project.ID)
	if err != nil {
		return 0, fmt.Errorf("projects: average rating: %w", err)
	}
	if !ok {
		return 0, nil
	}
	return round2(avg), nil
}

// AvgRatingByFeature returns the mean rating per configured feature URL.
func (s *Service) AvgRatingByFeature(ctx context.Context, projectID int64) ([]FeatureRating, error) {
	project, err := s.configuredProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	projectRules, _ := s.catalog.RulesForProject(project.Name)
	out := make([]FeatureRating, 0, len(projectRules))
	for _, rule := range projectRules {
		avg, ok, err := s.comments.FeatureAvgRating(ctx, project.ID, rule.FeatureURL)
		if err != nil {
			return nil, fmt.Errorf("projects: feature rating: %w", err)
		}
		if !ok {
			avg = 0
		}
		out = append(out, FeatureRating{URL: rule.FeatureURL, Rating: round2(avg)})
	}
	return out, nil
}

// configuredProject resolves a stored project and checks it is still present
// in the rules configuration.
func (s *Service) configuredProject(ctx context.Context, projectID int64) (*v1.Project, error) {
	project, err := s.projects.GetProjectByID(ctx, projectID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("projects: resolving id %d: %w", projectID, err)
	}

	for _, name := range s.catalog.ProjectNames() {
		if name == project.Name {
			return project, nil
		}
	}
	return nil, ErrProjectNotFound
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

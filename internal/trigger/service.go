// Package trigger implements the survey display decision: given a feature
// URL and whatever state the client holds (visitor cookie, timestamp token),
// decide whether to show the micro-survey and mint the replacement state.
package trigger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	v1 "github.com/optittm/survey-back-api/internal/api/v1"
	apperr "github.com/optittm/survey-back-api/internal/core/errors"
	"github.com/optittm/survey-back-api/internal/core/keys"
	"github.com/optittm/survey-back-api/internal/core/random"
	"github.com/optittm/survey-back-api/internal/core/rules"
	"github.com/optittm/survey-back-api/internal/core/token"

	"github.com/google/uuid"
)

// Decision is the outcome of one trigger call. NewUserID and NewToken are
// non-empty when the corresponding cookie must be (re)set on the client.
type Decision struct {
	Display   bool
	NewUserID string
	NewToken  string
}

type Service struct {
	catalog rules.Catalog
	keys    keys.Provider
	store   DisplaySink
	rand    random.Source
}

// DisplaySink receives display events for later reporting.
type DisplaySink interface {
	RecordDisplay(ctx context.Context, d *v1.Display) error
}

func NewService(catalog rules.Catalog, keys keys.Provider, store DisplaySink, rand random.Source) *Service {
	if catalog == nil {
		panic("trigger: catalog must not be nil")
	}
	if keys == nil {
		panic("trigger: key provider must not be nil")
	}
	if store == nil {
		panic("trigger: display sink must not be nil")
	}
	if rand == nil {
		panic("trigger: randomness source must not be nil")
	}
	return &Service{catalog: catalog, keys: keys, store: store, rand: rand}
}

// Decide runs the display decision for one request. featureURL must already
// be normalized. userID and prevToken are empty when the client holds no
// corresponding cookie; an absent token means "cooldown satisfied", while a
// present but undecryptable one is apperr.ErrInvalidToken.
func (s *Service) Decide(ctx context.Context, featureURL, userID, prevToken string) (Decision, error) {
	rule, projectName, ok := s.catalog.Lookup(featureURL)
	if !ok {
		return Decision{}, apperr.ErrFeatureNotFound
	}

	key, err := s.keys.KeyForProject(ctx, projectName)
	if err != nil {
		return Decision{}, fmt.Errorf("trigger: %w", err)
	}

	var d Decision
	if userID == "" {
		userID = uuid.NewString()
		d.NewUserID = userID
		slog.Info("Assigned new visitor id", "project", projectName, "feature_url", featureURL)
	}

	now := time.Now()

	cooldownOK := true
	if prevToken != "" {
		previous, err := token.Decrypt(prevToken, key)
		if err != nil {
			slog.Warn("Undecryptable timestamp cookie on trigger", "project", projectName, "error", err)
			return Decision{}, apperr.ErrInvalidToken
		}
		cooldown := time.Duration(rule.DelayBeforeReanswer) * 24 * time.Hour
		cooldownOK = now.Sub(previous) >= cooldown
	}

	// ratio == 0 never admits, whatever the source returns.
	ratioOK := rule.Ratio > 0 && s.rand.Float64() <= rule.Ratio

	d.Display = rule.IsActive && cooldownOK && ratioOK
	if !d.Display {
		return d, nil
	}

	tok, err := token.Encrypt(now, key)
	if err != nil {
		return Decision{}, fmt.Errorf("trigger: minting token: %w", err)
	}
	d.NewToken = tok

	err = s.store.RecordDisplay(ctx, &v1.Display{
		ProjectName: projectName,
		UserID:      userID,
		FeatureURL:  featureURL,
		ShownAt:     now,
	})
	if err != nil {
		return Decision{}, fmt.Errorf("trigger: recording display: %w", err)
	}

	slog.Info("Survey displayed",
		"project", projectName,
		"feature_url", featureURL,
		"user_id", userID)
	return d, nil
}

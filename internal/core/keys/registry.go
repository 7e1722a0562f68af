// Package keys resolves the per-project symmetric key used by the token
// codec, creating and persisting a fresh one the first time a project is seen.
package keys

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/optittm/survey-back-api/internal/core/storage"
	"github.com/optittm/survey-back-api/internal/core/token"
	"golang.org/x/sync/singleflight"
)

// Provider yields the symmetric key of a project.
type Provider interface {
	KeyForProject(ctx context.Context, projectName string) ([]byte, error)
}

// Registry implements Provider on top of a ProjectStore. In-process
// concurrent first requests for one project are collapsed with singleflight;
// across processes the store's uniqueness constraint decides which freshly
// generated key wins, and the loser transparently receives the stored one.
type Registry struct {
	store storage.ProjectStore
	group singleflight.Group
}

func NewRegistry(store storage.ProjectStore) *Registry {
	if store == nil {
		panic("keys: store must not be nil")
	}
	return &Registry{store: store}
}

func (r *Registry) KeyForProject(ctx context.Context, projectName string) ([]byte, error) {
	v, err, _ := r.group.Do(projectName, func() (interface{}, error) {
		// The flight is shared by every collapsed caller, so it must not
		// die with whichever request happened to start it.
		return r.resolve(context.WithoutCancel(ctx), projectName)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (r *Registry) resolve(ctx context.Context, projectName string) ([]byte, error) {
	project, err := r.store.GetProjectByName(ctx, projectName)
	if errors.Is(err, storage.ErrNotFound) {
		project, err = r.store.CreateProject(ctx, projectName)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving project %q: %w", projectName, err)
	}

	fresh := make([]byte, token.KeySize)
	if _, err := rand.Read(fresh); err != nil {
		return nil, fmt.Errorf("generating project key: %w", err)
	}

	key, err := r.store.GetOrCreateKey(ctx, project.ID, fresh)
	if err != nil {
		return nil, fmt.Errorf("resolving key for project %q: %w", projectName, err)
	}
	return key, nil
}

package keys

import (
	"context"
	"sync"
	"testing"

	v1 "github.com/optittm/survey-back-api/internal/api/v1"
	"github.com/optittm/survey-back-api/internal/core/storage"
	"github.com/stretchr/testify/require"
)

// fakeProjectStore mimics the store's insert-or-fetch contract in memory.
type fakeProjectStore struct {
	mu       sync.Mutex
	projects map[string]int64
	keys     map[int64][]byte
	nextID   int64

	keyInserts int
}

func newFakeProjectStore() *fakeProjectStore {
	return &fakeProjectStore{
		projects: make(map[string]int64),
		keys:     make(map[int64][]byte),
		nextID:   1,
	}
}

func (f *fakeProjectStore) GetProjectByName(_ context.Context, name string) (*v1.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.projects[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &v1.Project{ID: id, Name: name}, nil
}

func (f *fakeProjectStore) GetProjectByID(_ context.Context, id int64) (*v1.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, pid := range f.projects {
		if pid == id {
			return &v1.Project{ID: pid, Name: name}, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeProjectStore) CreateProject(_ context.Context, name string) (*v1.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.projects[name]; ok {
		return &v1.Project{ID: id, Name: name}, nil
	}
	id := f.nextID
	f.nextID++
	f.projects[name] = id
	return &v1.Project{ID: id, Name: name}, nil
}

func (f *fakeProjectStore) GetOrCreateKey(_ context.Context, projectID int64, fresh []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keyInserts++
	if key, ok := f.keys[projectID]; ok {
		return key, nil
	}
	f.keys[projectID] = fresh
	return fresh, nil
}

func TestKeyForProjectCreatesOnce(t *testing.T) {
	store := newFakeProjectStore()
	reg := NewRegistry(store)

	k1, err := reg.KeyForProject(context.Background(), "my-project")
	require.NoError(t, err)
	require.Len(t, k1, 32)

	k2, err := reg.KeyForProject(context.Background(), "my-project")
	require.NoError(t, err)
	require.Equal(t, k1, k2)
}

func TestKeyForProjectDistinctPerProject(t *testing.T) {
	store := newFakeProjectStore()
	reg := NewRegistry(store)

	k1, err := reg.KeyForProject(context.Background(), "alpha")
	require.NoError(t, err)
	k2, err := reg.KeyForProject(context.Background(), "beta")
	require.NoError(t, err)
	require.NotEqual(t, k1, k2)
}

// ctxCheckingStore fails any call whose context is already cancelled.
type ctxCheckingStore struct {
	*fakeProjectStore
}

func (f *ctxCheckingStore) GetProjectByName(ctx context.Context, name string) (*v1.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.fakeProjectStore.GetProjectByName(ctx, name)
}

func TestKeyForProjectSurvivesCancelledCaller(t *testing.T) {
	store := &ctxCheckingStore{fakeProjectStore: newFakeProjectStore()}
	reg := NewRegistry(store)

	// The flight outcome is shared between collapsed callers, so one
	// caller's cancellation must not poison the resolution.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	key, err := reg.KeyForProject(ctx, "my-project")
	require.NoError(t, err)
	require.Len(t, key, 32)
}

func TestConcurrentFirstUseConvergesOnOneKey(t *testing.T) {
	store := newFakeProjectStore()
	reg := NewRegistry(store)

	const callers = 32
	results := make([][]byte, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key, err := reg.KeyForProject(context.Background(), "my-project")
			require.NoError(t, err)
			results[i] = key
		}(i)
	}
	wg.Wait()

	for i := 1; i < callers; i++ {
		require.Equal(t, results[0], results[i])
	}
}

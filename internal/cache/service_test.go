package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-terminal/internal/api"
)

type countingService struct {
	api.Service
	keywordCalls int
	getCalls     int
	keywords     []string
	ref          *api.Reference
	refs         []api.Reference
	deleteErr    error
}

func (c *countingService) ListReferences(ctx context.Context, keywords []string) ([]api.Reference, error) {
	return c.refs, nil
}

func (c *countingService) ReferenceKeywords(ctx context.Context, id string) ([]string, error) {
	c.keywordCalls++
	return c.keywords, nil
}

func (c *countingService) GetReference(ctx context.Context, id string, withContents bool) (*api.Reference, error) {
	c.getCalls++
	ref := *c.ref
	return &ref, nil
}

func (c *countingService) DeleteReference(ctx context.Context, id string) error {
	return c.deleteErr
}

func (c *countingService) ReindexReference(ctx context.Context, id string) (*api.Reference, error) {
	ref := *c.ref
	ref.Indexed = false
	return &ref, nil
}

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("", time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestServiceCachesKeywords(t *testing.T) {
	next := &countingService{keywords: []string{"go", "tui"}}
	svc := NewService(next, openStore(t))

	for i := 0; i < 3; i++ {
		keywords, err := svc.ReferenceKeywords(context.Background(), "r1")
		require.NoError(t, err)
		assert.Equal(t, []string{"go", "tui"}, keywords)
	}
	assert.Equal(t, 1, next.keywordCalls)
}

func TestServiceDoesNotCacheEmptyKeywords(t *testing.T) {
	next := &countingService{keywords: []string{}}
	svc := NewService(next, openStore(t))

	_, err := svc.ReferenceKeywords(context.Background(), "r1")
	require.NoError(t, err)
	_, err = svc.ReferenceKeywords(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, 2, next.keywordCalls)
}

func TestServiceRefetchesKeywordsOnceIndexed(t *testing.T) {
	ctx := context.Background()
	next := &countingService{
		refs:     []api.Reference{{ID: "r1", Indexed: false}},
		keywords: []string{"partial"},
	}
	store := openStore(t)
	svc := NewService(next, store)

	_, err := svc.ListReferences(ctx, nil)
	require.NoError(t, err)
	keywords, err := svc.ReferenceKeywords(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"partial"}, keywords)
	_, ok := store.Keywords("r1")
	assert.False(t, ok, "keywords of a processing reference are not cached")

	next.refs = []api.Reference{{ID: "r1", Indexed: true}}
	next.keywords = []string{"partial", "complete"}
	_, err = svc.ListReferences(ctx, nil)
	require.NoError(t, err)

	keywords, err = svc.ReferenceKeywords(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"partial", "complete"}, keywords)

	_, err = svc.ReferenceKeywords(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 2, next.keywordCalls, "indexed keywords are cached again")
}

func TestServiceDropsKeywordsCachedBeforeProcessing(t *testing.T) {
	ctx := context.Background()
	next := &countingService{refs: []api.Reference{{ID: "r1", Indexed: false}}, keywords: []string{"fresh"}}
	store := openStore(t)
	svc := NewService(next, store)

	require.NoError(t, store.PutKeywords("r1", []string{"stale"}))
	_, err := svc.ListReferences(ctx, nil)
	require.NoError(t, err)

	_, ok := store.Keywords("r1")
	assert.False(t, ok)
	keywords, err := svc.ReferenceKeywords(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, keywords)
}

func TestServiceCachesOnlyIndexedContents(t *testing.T) {
	tests := []struct {
		name      string
		indexed   bool
		wantCalls int
	}{
		{name: "indexed", indexed: true, wantCalls: 1},
		{name: "processing", indexed: false, wantCalls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &countingService{ref: &api.Reference{ID: "r1", Contents: "# Doc", Indexed: tt.indexed}}
			svc := NewService(next, openStore(t))

			for i := 0; i < 2; i++ {
				ref, err := svc.GetReference(context.Background(), "r1", true)
				require.NoError(t, err)
				assert.Equal(t, "# Doc", ref.Contents)
			}
			assert.Equal(t, tt.wantCalls, next.getCalls)
		})
	}
}

func TestServiceInvalidatesOnReindexAndDelete(t *testing.T) {
	next := &countingService{
		keywords: []string{"go"},
		ref:      &api.Reference{ID: "r1", Contents: "# Doc", Indexed: true},
	}
	store := openStore(t)
	svc := NewService(next, store)

	_, err := svc.ReferenceKeywords(context.Background(), "r1")
	require.NoError(t, err)
	_, err = svc.GetReference(context.Background(), "r1", true)
	require.NoError(t, err)

	_, err = svc.ReindexReference(context.Background(), "r1")
	require.NoError(t, err)
	_, ok := store.Keywords("r1")
	assert.False(t, ok)
	_, ok = store.Contents("r1")
	assert.False(t, ok)

	require.NoError(t, store.PutKeywords("r1", []string{"go"}))
	require.NoError(t, svc.DeleteReference(context.Background(), "r1"))
	_, ok = store.Keywords("r1")
	assert.False(t, ok)
}

func TestServiceKeepsCacheWhenDeleteFails(t *testing.T) {
	next := &countingService{deleteErr: errors.New("boom")}
	store := openStore(t)
	svc := NewService(next, store)

	require.NoError(t, store.PutKeywords("r1", []string{"go"}))
	assert.Error(t, svc.DeleteReference(context.Background(), "r1"))

	keywords, ok := store.Keywords("r1")
	assert.True(t, ok)
	assert.Equal(t, []string{"go"}, keywords)
}

func TestKeywordTTLExpires(t *testing.T) {
	store, err := Open("", time.Second)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.PutKeywords("r1", []string{"go"}))
	_, ok := store.Keywords("r1")
	require.True(t, ok)

	// badger TTLs have second granularity
	time.Sleep(2100 * time.Millisecond)
	_, ok = store.Keywords("r1")
	assert.False(t, ok)
}

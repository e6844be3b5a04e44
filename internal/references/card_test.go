package references

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-terminal/internal/api"
)

func TestCardTitleFallback(t *testing.T) {
	tests := []struct {
		name string
		ref  api.Reference
		want string
	}{
		{name: "title", ref: api.Reference{Title: "Go", Source: "https://go.dev"}, want: "Go"},
		{name: "source", ref: api.Reference{Source: "https://go.dev"}, want: "https://go.dev"},
		{name: "neither", ref: api.Reference{}, want: "Untitled Reference"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewCard(tt.ref).Title())
		})
	}
}

func TestCardActionsRequireIndexed(t *testing.T) {
	card := NewCard(api.Reference{ID: "r1", Indexed: false})
	assert.True(t, card.Collapsed)
	assert.False(t, card.CanReindex())
	assert.False(t, card.CanDelete())
	assert.False(t, card.BeginDelete())

	card.Update(api.Reference{ID: "r1", Indexed: true})
	assert.True(t, card.CanReindex())
	assert.True(t, card.CanDelete())
}

func TestCardBusyBlocksOtherActions(t *testing.T) {
	card := NewCard(api.Reference{ID: "r1", Indexed: true})

	require.True(t, card.BeginReindex())
	assert.True(t, card.Reindexing())
	assert.False(t, card.CanDelete())
	assert.False(t, card.BeginReindex())

	assert.True(t, card.FinishReindex(nil))
	assert.False(t, card.Reindexing())
	assert.True(t, card.CanDelete())
}

func TestFailedDeleteKeepsCardAndSkipsRefresh(t *testing.T) {
	card := NewCard(api.Reference{ID: "r1", Indexed: true})

	require.True(t, card.BeginDelete())
	refresh := card.FinishDelete(&api.Error{StatusCode: 500})

	assert.False(t, refresh)
	assert.False(t, card.Deleting())
	assert.True(t, card.CanDelete())
}

func TestFailedReindexSkipsRefresh(t *testing.T) {
	card := NewCard(api.Reference{ID: "r1", Indexed: true})
	require.True(t, card.BeginReindex())
	assert.False(t, card.FinishReindex(errors.New("boom")))
}

func TestCardKeywordsLazyLoad(t *testing.T) {
	supplied := NewCard(api.Reference{ID: "r1", Keywords: []string{"go"}})
	assert.False(t, supplied.NeedsKeywords())
	assert.Equal(t, []string{"go"}, supplied.Keywords())

	suppliedEmpty := NewCard(api.Reference{ID: "r2", Keywords: []string{}})
	assert.False(t, suppliedEmpty.NeedsKeywords())

	lazy := NewCard(api.Reference{ID: "r3"})
	require.True(t, lazy.NeedsKeywords())
	require.True(t, lazy.BeginKeywords())
	assert.True(t, lazy.KeywordsLoading())
	assert.False(t, lazy.BeginKeywords(), "one fetch at a time")

	lazy.SetKeywords([]string{"tui"}, nil)
	assert.False(t, lazy.NeedsKeywords())
	assert.Equal(t, []string{"tui"}, lazy.Keywords())
}

func TestCardKeywordFailureLeavesEmptySet(t *testing.T) {
	card := NewCard(api.Reference{ID: "r1"})
	require.True(t, card.BeginKeywords())
	card.SetKeywords(nil, errors.New("boom"))

	assert.False(t, card.KeywordsLoading())
	assert.False(t, card.NeedsKeywords())
	assert.Empty(t, card.Keywords())
}

func TestCardRefetchesKeywordsOnceIndexed(t *testing.T) {
	card := NewCard(api.Reference{ID: "r1", Indexed: false})
	require.True(t, card.BeginKeywords())
	card.SetKeywords([]string{}, nil)
	assert.False(t, card.NeedsKeywords())

	card.Update(api.Reference{ID: "r1", Indexed: true})
	assert.True(t, card.NeedsKeywords())
}

func TestCardsSyncKeepsLocalState(t *testing.T) {
	cards := NewCards()

	first := cards.Sync([]api.Reference{{ID: "a", Indexed: true}, {ID: "b", Indexed: true}})
	require.Len(t, first, 2)
	first[0].ToggleCollapsed()
	require.True(t, first[1].BeginReindex())

	second := cards.Sync([]api.Reference{{ID: "b", Indexed: true, Title: "B"}, {ID: "a", Indexed: true}})
	require.Len(t, second, 2)
	assert.Equal(t, "b", second[0].Ref.ID)
	assert.Equal(t, "B", second[0].Title())
	assert.True(t, second[0].Reindexing())
	assert.False(t, second[1].Collapsed)

	third := cards.Sync([]api.Reference{{ID: "a", Indexed: true}})
	require.Len(t, third, 1)
	_, ok := cards.Get("b")
	assert.False(t, ok)
}

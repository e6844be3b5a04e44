package references

import (
	"research-terminal/internal/api"
	"research-terminal/internal/logging"
)

const untitled = "Untitled Reference"

// Card is the local state of one rendered reference. It outlives list
// refreshes as long as the reference stays in the list.
type Card struct {
	Ref       api.Reference
	Collapsed bool

	keywords        []string
	keywordsLoaded  bool
	keywordsLoading bool
	keywordsFetched bool

	reindexing bool
	deleting   bool
}

func NewCard(ref api.Reference) *Card {
	c := &Card{Collapsed: true}
	c.Update(ref)
	return c
}

// Update replaces the reference with fresher data from the list.
func (c *Card) Update(ref api.Reference) {
	becameIndexed := !c.Ref.Indexed && ref.Indexed
	c.Ref = ref

	switch {
	case ref.Keywords != nil:
		c.keywords = ref.Keywords
		c.keywordsLoaded = true
	case becameIndexed && c.keywordsFetched && !c.keywordsLoading:
		// keywords fetched while processing were incomplete
		c.keywordsLoaded = false
		c.keywordsFetched = false
	}
}

func (c *Card) Title() string {
	if c.Ref.Title != "" {
		return c.Ref.Title
	}
	if c.Ref.Source != "" {
		return c.Ref.Source
	}
	return untitled
}

func (c *Card) ToggleCollapsed() {
	c.Collapsed = !c.Collapsed
}

// NeedsKeywords reports whether keywords must be fetched: the list did not
// supply them and no fetch has happened yet.
func (c *Card) NeedsKeywords() bool {
	return !c.keywordsLoaded && !c.keywordsLoading
}

func (c *Card) BeginKeywords() bool {
	if !c.NeedsKeywords() {
		return false
	}
	c.keywordsLoading = true
	return true
}

// SetKeywords records the lazy keyword fetch. Failures leave the card
// without keywords.
func (c *Card) SetKeywords(keywords []string, err error) {
	c.keywordsLoading = false
	c.keywordsLoaded = true
	c.keywordsFetched = true
	if err != nil {
		logging.Error("Error fetching keywords for %s: %v", c.Ref.ID, err)
		c.keywords = []string{}
		return
	}
	c.keywords = keywords
}

func (c *Card) Keywords() []string    { return c.keywords }
func (c *Card) KeywordsLoading() bool { return c.keywordsLoading }

func (c *Card) Reindexing() bool { return c.reindexing }
func (c *Card) Deleting() bool   { return c.deleting }

func (c *Card) busy() bool {
	return c.reindexing || c.deleting
}

// CanReindex and CanDelete are false until the reference is indexed and
// while another action on the card is running.
func (c *Card) CanReindex() bool {
	return c.Ref.Indexed && !c.busy()
}

func (c *Card) CanDelete() bool {
	return c.Ref.Indexed && !c.busy()
}

func (c *Card) BeginReindex() bool {
	if !c.CanReindex() {
		return false
	}
	c.reindexing = true
	return true
}

// FinishReindex clears the busy flag and reports whether the list should
// be refreshed.
func (c *Card) FinishReindex(err error) bool {
	c.reindexing = false
	if err != nil {
		logging.Error("Error reindexing reference %s: %v", c.Ref.ID, err)
		return false
	}
	return true
}

func (c *Card) BeginDelete() bool {
	if !c.CanDelete() {
		return false
	}
	c.deleting = true
	return true
}

// FinishDelete clears the busy flag and reports whether the list should be
// refreshed. A failed delete keeps the card as it is.
func (c *Card) FinishDelete(err error) bool {
	c.deleting = false
	if err != nil {
		logging.Error("Error deleting reference %s: %v", c.Ref.ID, err)
		return false
	}
	return true
}

// Cards keeps one Card per reference id across list refreshes.
type Cards struct {
	byID map[string]*Card
}

func NewCards() *Cards {
	return &Cards{byID: make(map[string]*Card)}
}

// Sync updates existing cards, creates cards for new references and drops
// cards of references no longer listed. The result follows items order.
func (cs *Cards) Sync(items []api.Reference) []*Card {
	next := make(map[string]*Card, len(items))
	out := make([]*Card, 0, len(items))
	for _, ref := range items {
		card, ok := cs.byID[ref.ID]
		if ok {
			card.Update(ref)
		} else {
			card = NewCard(ref)
		}
		next[ref.ID] = card
		out = append(out, card)
	}
	cs.byID = next
	return out
}

func (cs *Cards) Get(id string) (*Card, bool) {
	card, ok := cs.byID[id]
	return card, ok
}

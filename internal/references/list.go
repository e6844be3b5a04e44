// Package references holds the view state of the reference list and its
// cards, independent of how they are rendered.
//
// All methods are meant to be called from a single goroutine (the UI update
// loop). Network calls and timers are performed by the caller: the List
// hands out Fetch and Schedule values and is told about their outcome.
package references

import (
	"context"
	"slices"
	"time"

	"research-terminal/internal/api"
	"research-terminal/internal/logging"
)

// DefaultPollInterval is how often the list is refetched while any
// reference is still being indexed.
const DefaultPollInterval = 3 * time.Second

// Fetch is a list request the caller must perform and then report through
// Resolve with the same Seq.
type Fetch struct {
	Seq      uint64
	Keywords []string
	Ctx      context.Context
}

// Schedule asks the caller to call Tick(Gen) after Delay.
type Schedule struct {
	Gen   uint64
	Delay time.Duration
}

// Status is the state the list view renders.
type Status int

const (
	StatusLoading Status = iota
	StatusLoaded
	StatusError
)

// List is the reference collection view: fetch on mount, refetch on filter
// change or external notification, and poll while anything is unindexed.
type List struct {
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	keywords []string
	items    []api.Reference
	loaded   bool
	err      error

	// seq is the latest issued fetch, resolved the latest accepted one
	seq      uint64
	resolved uint64

	// gen invalidates scheduled ticks; bumped whenever polling stops
	gen     uint64
	polling bool
	// awaiting is set while a poll tick's fetch is outstanding and no
	// timer is armed
	awaiting bool
}

// NewList returns an unmounted list polling every interval, or
// DefaultPollInterval when interval is not positive.
func NewList(interval time.Duration) *List {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &List{interval: interval}
}

// Mount starts a list lifetime derived from parent and issues the first
// fetch. Mounting an already mounted list restarts it.
func (l *List) Mount(parent context.Context) Fetch {
	if l.mounted() {
		l.Unmount()
	}
	l.ctx, l.cancel = context.WithCancel(parent)
	return l.issue()
}

// Unmount stops polling and cancels in-flight requests. Late responses and
// ticks are ignored afterwards.
func (l *List) Unmount() {
	if l.cancel != nil {
		l.cancel()
	}
	l.ctx, l.cancel = nil, nil
	l.stopPolling()
}

func (l *List) mounted() bool {
	return l.ctx != nil
}

// SetKeywords changes the tag filter and refetches. Already displayed
// items stay visible until the new result arrives.
func (l *List) SetKeywords(keywords []string) (Fetch, bool) {
	l.keywords = slices.Clone(keywords)
	return l.Refresh()
}

// Refresh refetches with the current filter, e.g. after a reference was
// added or a card action succeeded.
func (l *List) Refresh() (Fetch, bool) {
	if !l.mounted() {
		return Fetch{}, false
	}
	return l.issue(), true
}

// Tick handles a poll timer firing. A tick from a stopped or superseded
// chain does nothing; a live tick refetches. The next tick is armed by
// Resolve once the latest fetch has completed, leaving at most one poll
// request outstanding.
func (l *List) Tick(gen uint64) (Fetch, bool) {
	if !l.mounted() || !l.polling || gen != l.gen {
		return Fetch{}, false
	}
	l.awaiting = true
	return l.issue(), true
}

// Resolve records the outcome of fetch seq and returns a Schedule when the
// caller must arm the poll timer: polling has just started, or a poll fetch
// has completed and the chain continues. Responses older than the latest
// issued fetch are dropped; the newer fetch re-arms the chain instead.
func (l *List) Resolve(seq uint64, items []api.Reference, err error) (Schedule, bool) {
	if !l.mounted() || seq != l.seq {
		return Schedule{}, false
	}
	l.resolved = seq

	if err != nil {
		l.err = err
		if len(l.items) > 0 {
			logging.Error("Error fetching references: %v", err)
		}
		return l.rearm()
	}

	l.err = nil
	l.loaded = true
	l.items = items

	if !HasUnindexed(items) {
		l.stopPolling()
		return Schedule{}, false
	}
	if l.polling {
		return l.rearm()
	}
	l.polling = true
	l.gen++
	return l.schedule(), true
}

// rearm continues a chain whose timer was consumed by Tick.
func (l *List) rearm() (Schedule, bool) {
	if !l.polling || !l.awaiting {
		return Schedule{}, false
	}
	l.awaiting = false
	return l.schedule(), true
}

func (l *List) issue() Fetch {
	l.seq++
	return Fetch{Seq: l.seq, Keywords: slices.Clone(l.keywords), Ctx: l.ctx}
}

func (l *List) schedule() Schedule {
	return Schedule{Gen: l.gen, Delay: l.interval}
}

func (l *List) stopPolling() {
	l.polling = false
	l.awaiting = false
	l.gen++
}

// TimerActive reports whether a live poll chain exists.
func (l *List) TimerActive() bool {
	return l.mounted() && l.polling
}

// Status reports what the list should show.
func (l *List) Status() Status {
	switch {
	case l.err != nil && len(l.items) == 0:
		return StatusError
	case !l.loaded:
		return StatusLoading
	default:
		return StatusLoaded
	}
}

// VisibleError is the fetch error to show, which is only the case while no
// items are displayed.
func (l *List) VisibleError() error {
	if len(l.items) > 0 {
		return nil
	}
	return l.err
}

// Refreshing reports a background fetch over already loaded data.
func (l *List) Refreshing() bool {
	return l.loaded && l.seq != l.resolved
}

// Items are the references of the latest accepted result.
func (l *List) Items() []api.Reference { return l.items }

// Keywords is the current tag filter.
func (l *List) Keywords() []string { return l.keywords }

// Generation identifies the live poll chain.
func (l *List) Generation() uint64 { return l.gen }

// Context is the current lifetime context, nil when unmounted.
func (l *List) Context() context.Context { return l.ctx }

// HasUnindexed reports whether any displayed reference is still processing.
func (l *List) HasUnindexed() bool {
	return HasUnindexed(l.items)
}

func HasUnindexed(items []api.Reference) bool {
	for _, ref := range items {
		if !ref.Indexed {
			return true
		}
	}
	return false
}

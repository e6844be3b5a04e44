// Package tagcloud turns keyword counts into a sized, frequency-ordered tag
// display and manages tag selection sets.
package tagcloud

import (
	"slices"
	"sort"
	"strings"

	"research-terminal/internal/api"
)

// DefaultMaxTags caps the number of tags shown
const DefaultMaxTags = 50

// Tier is the display size bucket of a tag.
type Tier int

const (
	TierSmall Tier = iota
	TierMedium
	TierLarge
	TierXLarge
)

func (t Tier) String() string {
	switch t {
	case TierXLarge:
		return "xlarge"
	case TierLarge:
		return "large"
	case TierMedium:
		return "medium"
	default:
		return "small"
	}
}

// Font size scale the tiers are cut from.
const (
	minSize = 12.0
	maxSize = 20.0
)

// Tag is one entry of the cloud
type Tag struct {
	Keyword string
	Count   int
	Tier    Tier
}

// Derive sorts counts by frequency (ties keep their input order), keeps the
// first maxTags and assigns each a tier by interpolating its count between
// the smallest and largest visible count. maxTags <= 0 means DefaultMaxTags.
func Derive(counts api.KeywordCounts, maxTags int) []Tag {
	if maxTags <= 0 {
		maxTags = DefaultMaxTags
	}

	sorted := slices.Clone(counts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Count > sorted[j].Count
	})
	if len(sorted) > maxTags {
		sorted = sorted[:maxTags]
	}
	if len(sorted) == 0 {
		return []Tag{}
	}

	// sorted descending: first is max, last is min
	hi, lo := sorted[0].Count, sorted[len(sorted)-1].Count

	tags := make([]Tag, len(sorted))
	for i, kc := range sorted {
		tags[i] = Tag{Keyword: kc.Keyword, Count: kc.Count, Tier: tierFor(kc.Count, lo, hi)}
	}
	return tags
}

func tierFor(count, lo, hi int) Tier {
	if hi == lo {
		return TierMedium
	}

	size := minSize + float64(count-lo)/float64(hi-lo)*(maxSize-minSize)
	switch {
	case size >= 18:
		return TierXLarge
	case size >= 16:
		return TierLarge
	case size >= 14:
		return TierMedium
	default:
		return TierSmall
	}
}

// Toggle returns a new selection with tag added if absent or removed if
// present. The input slice is not modified.
func Toggle(selected []string, tag string) []string {
	if i := slices.Index(selected, tag); i >= 0 {
		return slices.Delete(slices.Clone(selected), i, i+1)
	}
	return append(slices.Clone(selected), tag)
}

func Contains(selected []string, tag string) bool {
	return slices.Contains(selected, tag)
}

// Label is the display form of a keyword: underscores become spaces.
func Label(keyword string) string {
	return strings.ReplaceAll(keyword, "_", " ")
}

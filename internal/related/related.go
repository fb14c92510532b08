// Package related ranks candidate posts by taxonomy overlap with a reference
// post.
package related

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Blog-Content-Delivery/internal/content"
)

const (
	DefaultLimit = 3

	tagWeight      = 2
	categoryWeight = 3
)

// ScoredPost is a candidate with its overlap score.
type ScoredPost struct {
	Post  content.Post
	Score int
}

// Related returns up to limit posts from pool that share the reference's
// language, are not the reference itself and share at least one tag or
// category. Higher scores come first; ties keep pool order. A non-positive
// limit selects DefaultLimit.
func Related(reference content.Post, pool []content.Post, limit int) []content.Post {
	ranked := Rank(reference, pool, limit)
	out := make([]content.Post, len(ranked))
	for i, sp := range ranked {
		out[i] = sp.Post
	}
	return out
}

// Rank is Related with the scores kept.
func Rank(reference content.Post, pool []content.Post, limit int) []ScoredPost {
	if limit <= 0 {
		limit = DefaultLimit
	}
	tags := tagKeys(reference.Tags)
	categories := categoryKeys(reference.Categories)

	scored := make([]ScoredPost, 0, len(pool))
	for _, candidate := range pool {
		if candidate.Lang != reference.Lang || candidate.ID == reference.ID {
			continue
		}
		score := overlap(tags, tagKeys(candidate.Tags))*tagWeight +
			overlap(categories, categoryKeys(candidate.Categories))*categoryWeight
		if score == 0 {
			continue
		}
		scored = append(scored, ScoredPost{Post: candidate, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// Score is the overlap score of candidate against reference, ignoring the
// language and identity filters.
func Score(reference, candidate content.Post) int {
	return overlap(tagKeys(reference.Tags), tagKeys(candidate.Tags))*tagWeight +
		overlap(categoryKeys(reference.Categories), categoryKeys(candidate.Categories))*categoryWeight
}

func tagKeys(tags []content.Tag) map[string]struct{} {
	keys := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if k := t.Key(); k != "" {
			keys[k] = struct{}{}
		}
	}
	return keys
}

func categoryKeys(categories []content.Category) map[string]struct{} {
	keys := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		if k := c.Key(); k != "" {
			keys[k] = struct{}{}
		}
	}
	return keys
}

func overlap(reference, candidate map[string]struct{}) int {
	n := 0
	for k := range candidate {
		if _, ok := reference[k]; ok {
			n++
		}
	}
	return n
}

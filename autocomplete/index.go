package autocomplete

import (
	"cmp"
	"slices"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"
)

const (
	// Matches with a larger distance are discarded.
	threshold = 0.3

	// Extra distance for matches found only in a description.
	descriptionPenalty = 0.15

	// Best per-character bonuses of the matcher: the first character at
	// position zero, every following one adjacent to the previous match.
	firstCharBonus = 10
	adjacentBonus  = 5
)

// index is a fuzzy.Source over the searchable keys of a fixed suggestion set.
// It is built once and only read afterwards.
type index struct {
	suggestions []Suggestion
	keys        []string
	owners      []int
	penalties   []float64
}

func newIndex(suggestions ...[]Suggestion) *index {
	ix := &index{suggestions: slices.Concat(suggestions...)}

	for i, s := range ix.suggestions {
		ix.add(i, s.Value, 0)
		if s.Label != s.Value {
			ix.add(i, s.Label, 0)
		}
		if s.Description != "" {
			ix.add(i, s.Description, descriptionPenalty)
		}
	}

	return ix
}

func (ix *index) add(owner int, key string, penalty float64) {
	ix.keys = append(ix.keys, key)
	ix.owners = append(ix.owners, owner)
	ix.penalties = append(ix.penalties, penalty)
}

func (ix *index) String(i int) string {
	return ix.keys[i]
}

func (ix *index) Len() int {
	return len(ix.keys)
}

// search returns at most limit suggestions ordered by ascending distance.
// Each suggestion appears once, scored by its best matching key.
func (ix *index) search(query string, limit int) []Suggestion {
	if query == "" {
		return nil
	}

	best := make(map[int]float64)
	for _, m := range fuzzy.FindFrom(query, ix) {
		d := distance(query, m) + ix.penalties[m.Index]
		if d > threshold {
			continue
		}

		owner := ix.owners[m.Index]
		if cur, ok := best[owner]; !ok || d < cur {
			best[owner] = d
		}
	}

	owners := make([]int, 0, len(best))
	for owner := range best {
		owners = append(owners, owner)
	}

	slices.SortFunc(owners, func(a, b int) int {
		if c := cmp.Compare(best[a], best[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	if len(owners) > limit {
		owners = owners[:limit]
	}

	out := make([]Suggestion, 0, len(owners))
	for _, owner := range owners {
		s := ix.suggestions[owner]
		s.Score = best[owner]
		out = append(out, s)
	}

	return out
}

// distance maps a matcher result to [0, 1], 0 being an exact match. It blends
// how close the match is to a contiguous prefix match with how much of the
// candidate the query covers.
func distance(query string, m fuzzy.Match) float64 {
	n := utf8.RuneCountInString(query)
	length := len(m.Str)
	if n == 0 || length == 0 {
		return 1
	}

	// The matcher subtracts one point per unmatched character; coverage
	// accounts for length separately.
	raw := m.Score + (length - len(m.MatchedIndexes))
	perfect := firstCharBonus + adjacentBonus*(n-1)

	quality := min(max(float64(raw)/float64(perfect), 0), 1)
	coverage := min(float64(n)/float64(utf8.RuneCountInString(m.Str)), 1)

	return 1 - (0.8*quality + 0.2*coverage)
}

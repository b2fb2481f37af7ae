package textstats

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/emirpasic/gods/v2/maps/treemap"
)

// buildFrequencyIndex inverts uniqueWords into count -> word. Words are
// visited in ascending order and a later word overwrites an earlier one with
// the same count, so each count keeps the alphabetically last word holding it.
func (s *WordStats) buildFrequencyIndex() {
	index := treemap.New[int, string]()
	it := s.uniqueWords.Iterator()
	for it.Next() {
		index.Put(it.Value(), it.Key())
	}
	s.frequencyIndex = index
}

// WordCount pairs a word with its number of occurrences.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

func (wc WordCount) String() string {
	return fmt.Sprintf("%s: %d", wc.Word, wc.Count)
}

// MostFrequentWords returns up to n "word: count" entries of the frequency
// index, highest count first. The index holds one word per distinct count,
// so fewer than n entries come back when counts collide.
func (s *WordStats) MostFrequentWords(n int) []string {
	if n <= 0 || s.empty() || s.frequencyIndex == nil {
		return []string{}
	}
	size := min(n, s.frequencyIndex.Size())
	result := make([]string, 0, size)
	it := s.frequencyIndex.Iterator()
	it.End()
	for len(result) < size && it.Prev() {
		result = append(result, WordCount{Word: it.Value(), Count: it.Key()}.String())
	}
	return result
}

// RankedWords returns up to n distinct words ordered by count descending,
// then alphabetically. Unlike MostFrequentWords it loses no ties.
func (s *WordStats) RankedWords(n int) []WordCount {
	if n <= 0 || s.empty() {
		return []WordCount{}
	}
	ranked := make([]WordCount, 0, s.uniqueWords.Size())
	it := s.uniqueWords.Iterator()
	for it.Next() {
		ranked = append(ranked, WordCount{Word: it.Key(), Count: it.Value()})
	}
	// already alphabetical, so a stable sort keeps that as the tie-break
	slices.SortStableFunc(ranked, func(a, b WordCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

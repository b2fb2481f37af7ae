package textstats

import (
	"maps"
	"math"
	"slices"

	"github.com/emirpasic/gods/v2/maps/treemap"

	apperrors "github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/errors"
)

func (s *WordStats) WordCount() int {
	if s == nil {
		return 0
	}
	return s.wordCount
}

func (s *WordStats) UniqueWordCount() int {
	if s.empty() {
		return 0
	}
	return s.uniqueWords.Size()
}

func (s *WordStats) SentenceCount() int {
	if s == nil {
		return 0
	}
	return s.sentenceCount
}

// CharacterCount is the summed length of all normalized words.
func (s *WordStats) CharacterCount() int {
	if s == nil {
		return 0
	}
	return s.charCount
}

// AverageWordLength returns NaN when no word was read.
func (s *WordStats) AverageWordLength() float64 {
	if s == nil || s.wordCount == 0 {
		return math.NaN()
	}
	return float64(s.charCount) / float64(s.wordCount)
}

// AverageSentenceLength is measured in words and returns NaN when no sentence
// was read.
func (s *WordStats) AverageSentenceLength() float64 {
	if s == nil || s.sentenceCount == 0 {
		return math.NaN()
	}
	words := 0
	it := s.sentenceLengths.Iterator()
	for it.Next() {
		words += it.Key() * it.Value()
	}
	return float64(words) / float64(s.sentenceCount)
}

// Frequency returns how often the normalized word occurs.
func (s *WordStats) Frequency(word string) int {
	if s.empty() {
		return 0
	}
	n, _ := s.uniqueWords.Get(word)
	return n
}

// WordLengthHistogram maps a word length to the number of words that long.
func (s *WordStats) WordLengthHistogram() map[int]int {
	if s.empty() {
		return map[int]int{}
	}
	return histogram(s.wordLengths)
}

// SentenceLengthHistogram maps a sentence length in words to the number of
// sentences that long.
func (s *WordStats) SentenceLengthHistogram() map[int]int {
	if s.empty() {
		return map[int]int{}
	}
	return histogram(s.sentenceLengths)
}

func histogram(m *treemap.Map[int, int]) map[int]int {
	h := make(map[int]int, m.Size())
	it := m.Iterator()
	for it.Next() {
		h[it.Key()] = it.Value()
	}
	return h
}

// Corpus returns the whole-text statistics.
func (a *Analysis) Corpus() *WordStats {
	return a.corpus
}

func (a *Analysis) WordCount() int {
	return a.corpus.WordCount()
}

func (a *Analysis) UniqueWordCount() int {
	return a.corpus.UniqueWordCount()
}

func (a *Analysis) SentenceCount() int {
	return a.corpus.SentenceCount()
}

func (a *Analysis) CharacterCount() int {
	return a.corpus.CharacterCount()
}

func (a *Analysis) AverageWordLength() float64 {
	return a.corpus.AverageWordLength()
}

func (a *Analysis) AverageSentenceLength() float64 {
	return a.corpus.AverageSentenceLength()
}

func (a *Analysis) MostFrequentWords(n int) []string {
	return a.corpus.MostFrequentWords(n)
}

func (a *Analysis) RankedWords(n int) []WordCount {
	return a.corpus.RankedWords(n)
}

func (a *Analysis) Frequency(word string) int {
	return a.corpus.Frequency(word)
}

func (a *Analysis) WordLengthHistogram() map[int]int {
	return a.corpus.WordLengthHistogram()
}

// Dictionaries returns the word lists the text was classified with.
func (a *Analysis) Dictionaries() *Dictionaries {
	return a.dictionaries
}

// SectionNames lists the declared sections in the order they first appeared.
// The default section is never included.
func (a *Analysis) SectionNames() []string {
	if len(a.sectionOrder) == 0 {
		return []string{}
	}
	return slices.Clone(a.sectionOrder)
}

// Section looks up a declared section. It never creates one.
func (a *Analysis) Section(name string) (*SectionStats, bool) {
	s, ok := a.sections[name]
	return s, ok
}

// Sections returns the declared sections in first-seen order.
func (a *Analysis) Sections() []*SectionStats {
	result := make([]*SectionStats, 0, len(a.sectionOrder))
	for _, name := range a.sectionOrder {
		result = append(result, a.sections[name])
	}
	return result
}

// PartOfSpeechTotal sums the tallies for pos over every section, including
// text before the first marker, so the five totals add up to WordCount.
func (a *Analysis) PartOfSpeechTotal(pos PartOfSpeech) int {
	total := 0
	if a.fallback != nil {
		total += a.fallback.PartOfSpeechCount(pos)
	}
	for s := range maps.Values(a.sections) {
		total += s.PartOfSpeechCount(pos)
	}
	return total
}

func (a *Analysis) lookup(name string) (*SectionStats, error) {
	s, ok := a.Section(name)
	if !ok {
		return nil, apperrors.SectionNotFound(name)
	}
	return s, nil
}

func (a *Analysis) AverageWordLengthInSection(name string) (float64, error) {
	s, err := a.lookup(name)
	if err != nil {
		return math.NaN(), err
	}
	return s.AverageWordLength(), nil
}

func (a *Analysis) AverageSentenceLengthInSection(name string) (float64, error) {
	s, err := a.lookup(name)
	if err != nil {
		return math.NaN(), err
	}
	return s.AverageSentenceLength(), nil
}

func (a *Analysis) PartOfSpeechCountInSection(name string, pos PartOfSpeech) (int, error) {
	s, err := a.lookup(name)
	if err != nil {
		return 0, err
	}
	return s.PartOfSpeechCount(pos), nil
}

func (a *Analysis) MostFrequentWordsInSection(n int, name string) ([]string, error) {
	s, err := a.lookup(name)
	if err != nil {
		return nil, err
	}
	return s.MostFrequentWords(n), nil
}

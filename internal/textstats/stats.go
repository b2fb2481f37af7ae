package textstats

import "github.com/emirpasic/gods/v2/maps/treemap"

// WordStats accumulates the statistics shared by the whole text and by each
// section. Tables are ordered maps so that iteration is by ascending key.
type WordStats struct {
	wordCount     int
	charCount     int
	sentenceCount int

	uniqueWords     *treemap.Map[string, int]
	frequencyIndex  *treemap.Map[int, string]
	wordLengths     *treemap.Map[int, int]
	sentenceLengths *treemap.Map[int, int]

	// words read since the last sentence boundary
	openSentence int
}

func newWordStats() WordStats {
	return WordStats{
		uniqueWords:     treemap.New[string, int](),
		frequencyIndex:  treemap.New[int, string](),
		wordLengths:     treemap.New[int, int](),
		sentenceLengths: treemap.New[int, int](),
	}
}

func (s *WordStats) addWord(word string, length int) {
	s.wordCount++
	s.charCount += length
	increment(s.uniqueWords, word)
	increment(s.wordLengths, length)
	s.openSentence++
}

func (s *WordStats) closeSentence() {
	if s.openSentence == 0 {
		return
	}
	s.sentenceCount++
	increment(s.sentenceLengths, s.openSentence)
	s.openSentence = 0
}

func (s *WordStats) empty() bool {
	return s == nil || s.uniqueWords == nil
}

func increment[K comparable](m *treemap.Map[K, int], key K) {
	n, _ := m.Get(key)
	m.Put(key, n+1)
}

// SectionStats is the WordStats of one section plus its part-of-speech
// tallies.
type SectionStats struct {
	WordStats
	name          string
	partsOfSpeech [numPartsOfSpeech]int
}

func newSectionStats(name string) *SectionStats {
	return &SectionStats{
		WordStats: newWordStats(),
		name:      name,
	}
}

func (s *SectionStats) Name() string {
	return s.name
}

// PartOfSpeechCount returns how many words of the section were classified as
// pos.
func (s *SectionStats) PartOfSpeechCount(pos PartOfSpeech) int {
	if !pos.valid() {
		return 0
	}
	return s.partsOfSpeech[pos]
}

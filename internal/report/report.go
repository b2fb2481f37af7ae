// Package report turns a textstats.Analysis into a serializable report and
// serves, caches, persists and announces those reports.
package report

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/text-analytics/internal/textstats"
)

// Params selects how a text is read and how much of the rankings a report
// keeps. Two submissions with equal Params and text produce the same report.
type Params struct {
	Title           string `json:"title"`
	TopWords        int    `json:"top_words"`
	SectionTopWords int    `json:"section_top_words"`
	StripHTML       bool   `json:"strip_html"`
	SectionMarker   string `json:"section_marker"`
	SkipEmptyWords  bool   `json:"skip_empty_words"`
}

// AnalysisOptions converts p into textstats options classifying with d.
func (p Params) AnalysisOptions(d *textstats.Dictionaries) []textstats.Option {
	opts := []textstats.Option{
		textstats.WithDictionaries(d),
		textstats.WithSectionMarker(p.SectionMarker),
	}
	if p.StripHTML {
		opts = append(opts, textstats.WithHTMLStripping())
	}
	if p.SkipEmptyWords {
		opts = append(opts, textstats.WithSkipEmptyWords())
	}
	return opts
}

// Key identifies the report for text under p.
func Key(text string, p Params) string {
	h := sha256.New()
	params, _ := json.Marshal(p)
	h.Write(params)
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Float is a float64 whose NaN and infinities encode as JSON null.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func (f *Float) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Float(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

type Report struct {
	ID                    string                `json:"id"`
	Title                 string                `json:"title"`
	CreatedAt             time.Time             `json:"created_at"`
	Words                 int                   `json:"words"`
	UniqueWords           int                   `json:"unique_words"`
	Sentences             int                   `json:"sentences"`
	Characters            int                   `json:"characters"`
	AverageWordLength     Float                 `json:"average_word_length"`
	AverageSentenceLength Float                 `json:"average_sentence_length"`
	TopWords              []string              `json:"top_words"`
	RankedWords           []textstats.WordCount `json:"ranked_words"`
	PartsOfSpeech         map[string]int        `json:"parts_of_speech"`
	WordLengths           map[int]int           `json:"word_lengths"`
	Sections              []SectionReport       `json:"sections"`
}

type SectionReport struct {
	Name                  string         `json:"name"`
	Words                 int            `json:"words"`
	UniqueWords           int            `json:"unique_words"`
	Sentences             int            `json:"sentences"`
	AverageWordLength     Float          `json:"average_word_length"`
	AverageSentenceLength Float          `json:"average_sentence_length"`
	TopWords              []string       `json:"top_words"`
	PartsOfSpeech         map[string]int `json:"parts_of_speech"`
}

// Section finds a section by its exact name.
func (r *Report) Section(name string) (SectionReport, bool) {
	for _, s := range r.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return SectionReport{}, false
}

// Summary is the listing view of a stored report.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Words     int       `json:"words"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *Report) Summary() Summary {
	return Summary{ID: r.ID, Title: r.Title, Words: r.Words, CreatedAt: r.CreatedAt}
}

// Build snapshots a into a report. ID and CreatedAt are left for the caller.
func Build(a *textstats.Analysis, p Params) *Report {
	r := &Report{
		Title:                 p.Title,
		Words:                 a.WordCount(),
		UniqueWords:           a.UniqueWordCount(),
		Sentences:             a.SentenceCount(),
		Characters:            a.CharacterCount(),
		AverageWordLength:     Float(a.AverageWordLength()),
		AverageSentenceLength: Float(a.AverageSentenceLength()),
		TopWords:              a.MostFrequentWords(p.TopWords),
		RankedWords:           a.RankedWords(p.TopWords),
		PartsOfSpeech:         make(map[string]int, len(textstats.PartsOfSpeech())),
		WordLengths:           a.WordLengthHistogram(),
		Sections:              make([]SectionReport, 0, len(a.SectionNames())),
	}
	for _, pos := range textstats.PartsOfSpeech() {
		r.PartsOfSpeech[pos.String()] = a.PartOfSpeechTotal(pos)
	}
	for _, s := range a.Sections() {
		r.Sections = append(r.Sections, buildSection(s, p.SectionTopWords))
	}
	return r
}

func buildSection(s *textstats.SectionStats, topWords int) SectionReport {
	sr := SectionReport{
		Name:                  s.Name(),
		Words:                 s.WordCount(),
		UniqueWords:           s.UniqueWordCount(),
		Sentences:             s.SentenceCount(),
		AverageWordLength:     Float(s.AverageWordLength()),
		AverageSentenceLength: Float(s.AverageSentenceLength()),
		TopWords:              s.MostFrequentWords(topWords),
		PartsOfSpeech:         make(map[string]int, len(textstats.PartsOfSpeech())),
	}
	for _, pos := range textstats.PartsOfSpeech() {
		sr.PartsOfSpeech[pos.String()] = s.PartOfSpeechCount(pos)
	}
	return sr
}

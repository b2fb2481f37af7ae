// Package textstats analyzes a plain-text literary work in a single pass.
//
// New reads the text line by line, splits lines on whitespace, and feeds
// every token through section-marker detection, normalization and
// part-of-speech classification while it updates the whole-text and
// per-section tables. Once the input is exhausted each table's frequency
// index is built and the Analysis becomes read-only: every query method is
// safe for concurrent use and no method ingests more text.
package textstats

import (
	"bufio"
	"html"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// Analysis is the statistical model of one text.
type Analysis struct {
	corpus       *WordStats
	sections     map[string]*SectionStats
	sectionOrder []string
	fallback     *SectionStats
	dictionaries *Dictionaries
}

type options struct {
	marker       string
	dictionaries *Dictionaries
	skipEmpty    bool
	stripHTML    bool
	logger       *slog.Logger
}

// Option customizes New and NewFromFile.
type Option func(*options)

// WithSectionMarker replaces DefaultSectionMarker. An empty marker is ignored.
func WithSectionMarker(marker string) Option {
	return func(o *options) {
		if marker != "" {
			o.marker = marker
		}
	}
}

// WithDictionaries classifies words with d instead of DefaultDictionaries.
func WithDictionaries(d *Dictionaries) Option {
	return func(o *options) {
		if d != nil {
			o.dictionaries = d
		}
	}
}

// WithSkipEmptyWords stops tokens without letters from being counted as
// empty words.
func WithSkipEmptyWords() Option {
	return func(o *options) {
		o.skipEmpty = true
	}
}

// WithHTMLStripping removes markup and decodes entities before tokenizing.
func WithHTMLStripping() Option {
	return func(o *options) {
		o.stripHTML = true
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func resolveOptions(opts []Option) *options {
	o := &options{
		marker: DefaultSectionMarker,
		logger: slog.Default().With("component", "textstats"),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.dictionaries == nil {
		o.dictionaries = DefaultDictionaries()
	}
	return o
}

// New ingests r to exhaustion and returns the finished model. A nil reader
// produces an empty model; a read error keeps everything ingested before it.
func New(r io.Reader, opts ...Option) *Analysis {
	o := resolveOptions(opts)
	tracker := newSectionTracker(o.marker)
	corpus := newWordStats()
	a := &Analysis{
		corpus:       &corpus,
		dictionaries: o.dictionaries,
	}

	if r != nil {
		if o.stripHTML {
			r = stripHTML(r, o.logger)
		}
		a.ingest(r, tracker, o)
	}

	a.sections = tracker.byName
	a.sectionOrder = tracker.order
	a.fallback = tracker.fallback
	a.buildIndexes()

	o.logger.Debug("text analyzed",
		"words", a.corpus.wordCount,
		"unique_words", a.corpus.uniqueWords.Size(),
		"sentences", a.corpus.sentenceCount,
		"sections", len(a.sectionOrder),
	)
	return a
}

// NewFromFile analyzes the file at path. A file that cannot be opened is
// logged and analyzed as an empty text.
func NewFromFile(path string, opts ...Option) *Analysis {
	f, err := os.Open(path)
	if err != nil {
		resolveOptions(opts).logger.Warn("text unavailable, analyzing empty input",
			"path", path,
			"error", err,
		)
		return New(nil, opts...)
	}
	defer f.Close()
	return New(f, opts...)
}

func (a *Analysis) ingest(r io.Reader, tracker *sectionTracker, o *options) {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		for _, token := range strings.Fields(line) {
			a.consume(token, tracker, o)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			o.logger.Warn("text read stopped early", "error", err, "words", a.corpus.wordCount)
			break
		}
	}
	a.closeSentence(tracker.current)
}

func (a *Analysis) consume(token string, tracker *sectionTracker, o *options) {
	if name, ok := tracker.sectionName(token); ok {
		a.closeSentence(tracker.current)
		tracker.switchTo(name)
		return
	}

	word := Normalize(token)
	if word == "" && o.skipEmpty {
		if endsSentence(token) {
			a.closeSentence(tracker.current)
		}
		return
	}

	length := utf8.RuneCountInString(word)
	section := tracker.current
	a.corpus.addWord(word, length)
	section.addWord(word, length)
	section.partsOfSpeech[o.dictionaries.Classify(word)]++

	if endsSentence(token) {
		a.closeSentence(section)
	}
}

func (a *Analysis) closeSentence(section *SectionStats) {
	a.corpus.closeSentence()
	section.closeSentence()
}

func (a *Analysis) buildIndexes() {
	a.corpus.buildFrequencyIndex()
	a.fallback.buildFrequencyIndex()
	for _, s := range a.sections {
		s.buildFrequencyIndex()
	}
}

func stripHTML(r io.Reader, logger *slog.Logger) io.Reader {
	data, err := io.ReadAll(r)
	if err != nil {
		logger.Warn("html input read stopped early", "error", err)
	}
	policy := bluemonday.StripTagsPolicy()
	policy.AddSpaceWhenStrippingTag(true)
	text := html.UnescapeString(policy.Sanitize(string(data)))
	return strings.NewReader(text)
}

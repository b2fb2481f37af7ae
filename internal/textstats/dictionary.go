package textstats

import (
	"bufio"
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"
)

//go:embed wordlists/*.txt
var embeddedWordLists embed.FS

// wordListFiles names the resource each category is loaded from.
var wordListFiles = [Adverb + 1]string{
	Noun:      "nouns.txt",
	Verb:      "verbs.txt",
	Adjective: "adjectives.txt",
	Adverb:    "adverbs.txt",
}

// Dictionaries holds the four word sets used for part-of-speech
// classification. A loaded Dictionaries is never mutated, so one value can
// be shared by any number of analyses and goroutines.
type Dictionaries struct {
	sets [Adverb + 1]map[string]struct{}
}

// NewDictionaries builds dictionaries from in-memory word lists. Every word is
// normalized before insertion.
func NewDictionaries(nouns, verbs, adjectives, adverbs []string) *Dictionaries {
	d := &Dictionaries{}
	for pos, words := range [][]string{nouns, verbs, adjectives, adverbs} {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			if n := Normalize(w); n != "" {
				set[n] = struct{}{}
			}
		}
		d.sets[pos] = set
	}
	return d
}

// LoadDictionaries reads nouns.txt, verbs.txt, adjectives.txt and adverbs.txt
// from fsys concurrently. A list that cannot be opened or read is logged and
// treated as empty; only cancellation of ctx is returned as an error.
func LoadDictionaries(ctx context.Context, fsys fs.FS) (*Dictionaries, error) {
	logger := slog.Default().With("component", "dictionaries")
	d := &Dictionaries{}

	g, ctx := errgroup.WithContext(ctx)
	for pos, name := range wordListFiles {
		g.Go(func() error {
			set, err := readWordList(ctx, fsys, name)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("word list unavailable, using empty set",
					"category", PartOfSpeech(pos).String(),
					"file", name,
					"error", err,
				)
			}
			d.sets[pos] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading word lists: %w", err)
	}

	logger.Debug("word lists loaded",
		"nouns", d.Size(Noun),
		"verbs", d.Size(Verb),
		"adjectives", d.Size(Adjective),
		"adverbs", d.Size(Adverb),
	)
	return d, nil
}

// readWordList always returns a usable set, holding whatever was read before
// an error occurred.
func readWordList(ctx context.Context, fsys fs.FS, name string) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	f, err := fsys.Open(name)
	if err != nil {
		return set, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	lines := 0
	for sc.Scan() {
		lines++
		if lines%4096 == 0 && ctx.Err() != nil {
			return set, ctx.Err()
		}
		if word := Normalize(sc.Text()); word != "" {
			set[word] = struct{}{}
		}
	}
	return set, sc.Err()
}

// Classify returns the category of an already normalized word. Lists are
// checked noun, verb, adjective, adverb; the first list holding the word wins
// and a word in none of them is Other.
func (d *Dictionaries) Classify(word string) PartOfSpeech {
	if d == nil {
		return Other
	}
	for pos := Noun; pos <= Adverb; pos++ {
		if _, ok := d.sets[pos][word]; ok {
			return pos
		}
	}
	return Other
}

// Size returns the number of words loaded for pos. Other has no list.
func (d *Dictionaries) Size(pos PartOfSpeech) int {
	if d == nil || pos < Noun || pos > Adverb {
		return 0
	}
	return len(d.sets[pos])
}

var defaultDictionaries = sync.OnceValue(func() *Dictionaries {
	sub, err := fs.Sub(embeddedWordLists, "wordlists")
	if err != nil {
		panic(fmt.Sprintf("embedded word lists: %v", err))
	}
	d, err := LoadDictionaries(context.Background(), sub)
	if err != nil {
		panic(fmt.Sprintf("embedded word lists: %v", err))
	}
	return d
})

// DefaultDictionaries returns the word lists compiled into the binary. They
// are parsed on first use and shared by the whole process afterwards.
func DefaultDictionaries() *Dictionaries {
	return defaultDictionaries()
}

// dictionariesByDir caches one loader per word-list directory.
var dictionariesByDir sync.Map

// SharedDictionaries returns the dictionaries stored in dir, loading them on
// the first call for that directory and reusing them on every later call. An
// empty dir selects DefaultDictionaries.
func SharedDictionaries(dir string) *Dictionaries {
	if dir == "" {
		return DefaultDictionaries()
	}
	load, _ := dictionariesByDir.LoadOrStore(dir, sync.OnceValue(func() *Dictionaries {
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			slog.Default().With("component", "dictionaries").Warn("word list directory missing", "dir", dir)
		}
		d, err := LoadDictionaries(context.Background(), os.DirFS(dir))
		if err != nil {
			return &Dictionaries{}
		}
		return d
	}))
	return load.(func() *Dictionaries)()
}

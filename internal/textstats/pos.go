package textstats

import (
	"fmt"
	"strings"
)

// PartOfSpeech is the coarse category a word is classified into.
type PartOfSpeech int

const (
	Noun PartOfSpeech = iota
	Verb
	Adjective
	Adverb
	Other
)

const numPartsOfSpeech = int(Other) + 1

var partOfSpeechNames = [numPartsOfSpeech]string{
	Noun:      "noun",
	Verb:      "verb",
	Adjective: "adjective",
	Adverb:    "adverb",
	Other:     "other",
}

func (p PartOfSpeech) String() string {
	if !p.valid() {
		return fmt.Sprintf("PartOfSpeech(%d)", int(p))
	}
	return partOfSpeechNames[p]
}

func (p PartOfSpeech) valid() bool {
	return p >= Noun && p <= Other
}

// PartsOfSpeech lists every category in classification precedence order.
func PartsOfSpeech() []PartOfSpeech {
	return []PartOfSpeech{Noun, Verb, Adjective, Adverb, Other}
}

// ParsePartOfSpeech accepts a category name, singular or plural, in any case.
func ParsePartOfSpeech(s string) (PartOfSpeech, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range partOfSpeechNames {
		if name == n || name == n+"s" {
			return PartOfSpeech(i), nil
		}
	}
	return Other, fmt.Errorf("unknown part of speech %q", s)
}

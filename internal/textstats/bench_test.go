package textstats

import (
	"fmt"
	"strings"
	"testing"
)

var benchTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog.",
	"medium": `*BEGINSECTION_Chapter1 It was the best of times, it was the worst of times,
        it was the age of wisdom, it was the age of foolishness, it was the epoch of
        belief, it was the epoch of incredulity. *BEGINSECTION_Chapter2 There were a
        king with a large jaw and a queen with a plain face, on the throne of England.`,
	"long": strings.Repeat(`*BEGINSECTION_Storm The wind rose in the night and the old house
        groaned. Nobody slept. In the morning the river had climbed the garden wall and
        the hens were gone. "We leave today," said Mother, quietly and firmly. `, 200),
}

func BenchmarkNew(b *testing.B) {
	d := DefaultDictionaries()
	for name, text := range benchTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for b.Loop() {
				New(strings.NewReader(text), WithDictionaries(d))
			}
		})
	}
}

func BenchmarkNewVaryingSize(b *testing.B) {
	d := DefaultDictionaries()
	base := "call me ishmael. some years ago, never mind how long precisely. "
	for _, size := range []int{1 << 10, 16 << 10, 256 << 10} {
		text := strings.Repeat(base, size/len(base)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for b.Loop() {
				New(strings.NewReader(text), WithDictionaries(d))
			}
		})
	}
}

func BenchmarkMostFrequentWordsParallel(b *testing.B) {
	a := New(strings.NewReader(benchTexts["long"]))
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			a.MostFrequentWords(50)
			a.RankedWords(50)
		}
	})
}

func BenchmarkNormalize(b *testing.B) {
	tokens := strings.Fields(benchTexts["medium"])
	b.ReportAllocs()
	for b.Loop() {
		for _, tok := range tokens {
			Normalize(tok)
		}
	}
}

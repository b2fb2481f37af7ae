package report

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
)

// Write renders r as the plain-text overview followed by the per-section
// breakdown.
func Write(w io.Writer, r *Report) error {
	bw := bufio.NewWriter(w)

	if r.Title != "" {
		fmt.Fprintf(bw, "%s\n\n", r.Title)
	}
	fmt.Fprint(bw, "Overview:\n\n")
	fmt.Fprint(bw, "Most frequent words:\n")
	writeList(bw, r.TopWords)
	fmt.Fprintf(bw, "Total words: %d\n", r.Words)
	fmt.Fprintf(bw, "Unique words: %d\n", r.UniqueWords)
	fmt.Fprintf(bw, "Average word length: %s\n", formatFloat(r.AverageWordLength))
	fmt.Fprintf(bw, "Sentences: %d\n", r.Sentences)
	fmt.Fprintf(bw, "Average sentence length: %s\n", formatFloat(r.AverageSentenceLength))
	fmt.Fprint(bw, "Parts of speech:\n")
	for _, name := range []string{"noun", "verb", "adjective", "adverb", "other"} {
		fmt.Fprintf(bw, "  %s: %d\n", name, r.PartsOfSpeech[name])
	}
	fmt.Fprint(bw, "\nSection analysis:\n\n")
	fmt.Fprint(bw, "Sections:\n")
	for _, s := range r.Sections {
		fmt.Fprintf(bw, "  %s\n", s.Name)
	}
	for _, s := range r.Sections {
		fmt.Fprintf(bw, "Most frequent words in %s:\n", s.Name)
		writeList(bw, s.TopWords)
	}
	return bw.Flush()
}

func writeList(w io.Writer, items []string) {
	for _, item := range items {
		fmt.Fprintf(w, "  %s\n", item)
	}
}

// formatFloat prints six significant digits, or "n/a" for an undefined
// average.
func formatFloat(f Float) string {
	v := float64(f)
	if math.IsNaN(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

package main

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	prompt "github.com/c-bata/go-prompt"

	"github.com/Adithya-Monish-Kumar-K/text-analytics/internal/textstats"
)

var commands = []prompt.Suggest{
	{Text: "words", Description: "total word count"},
	{Text: "unique", Description: "distinct word count"},
	{Text: "sentences", Description: "sentence count"},
	{Text: "avg", Description: "average word and sentence length [section]"},
	{Text: "top", Description: "N most frequent words [section]"},
	{Text: "sections", Description: "section names in first-seen order"},
	{Text: "pos", Description: "part of speech count CATEGORY [section]"},
	{Text: "help", Description: "list commands"},
	{Text: "exit", Description: "leave the shell"},
}

// shell answers queries against one finished analysis.
type shell struct {
	a    *textstats.Analysis
	out  io.Writer
	done bool
}

func newShell(a *textstats.Analysis, out io.Writer) *shell {
	return &shell{a: a, out: out}
}

func (s *shell) Run() {
	fmt.Fprintf(s.out, "%d words in %d sections. Type help for commands.\n", s.a.WordCount(), len(s.a.SectionNames()))
	p := prompt.New(
		s.execute,
		s.complete,
		prompt.OptionPrefix("textstats> "),
		prompt.OptionTitle("textstats"),
		prompt.OptionSetExitCheckerOnInput(func(string, bool) bool { return s.done }),
	)
	p.Run()
}

func (s *shell) complete(d prompt.Document) []prompt.Suggest {
	before := d.TextBeforeCursor()
	fields := strings.Fields(before)
	if len(fields) == 0 || (len(fields) == 1 && !strings.HasSuffix(before, " ")) {
		return prompt.FilterHasPrefix(commands, d.GetWordBeforeCursor(), true)
	}
	if fields[0] != "pos" || len(fields) > 2 || (len(fields) == 2 && strings.HasSuffix(before, " ")) {
		return nil
	}
	var cats []prompt.Suggest
	for _, pos := range textstats.PartsOfSpeech() {
		cats = append(cats, prompt.Suggest{Text: pos.String()})
	}
	return prompt.FilterHasPrefix(cats, d.GetWordBeforeCursor(), true)
}

// execute runs one command line. A section argument is the rest of the
// line, so section names may contain spaces.
func (s *shell) execute(line string) {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "":
	case "words":
		fmt.Fprintln(s.out, s.a.WordCount())
	case "unique":
		fmt.Fprintln(s.out, s.a.UniqueWordCount())
	case "sentences":
		fmt.Fprintln(s.out, s.a.SentenceCount())
	case "sections":
		for _, name := range s.a.SectionNames() {
			fmt.Fprintln(s.out, name)
		}
	case "avg":
		s.averages(rest)
	case "top":
		s.top(rest)
	case "pos":
		s.partOfSpeech(rest)
	case "help":
		for _, c := range commands {
			fmt.Fprintf(s.out, "  %-10s %s\n", c.Text, c.Description)
		}
	case "exit", "quit":
		s.done = true
	default:
		fmt.Fprintf(s.out, "unknown command %q, type help\n", cmd)
	}
}

func (s *shell) averages(section string) {
	if section == "" {
		fmt.Fprintf(s.out, "word length: %s\nsentence length: %s\n",
			formatAverage(s.a.AverageWordLength()), formatAverage(s.a.AverageSentenceLength()))
		return
	}
	words, err := s.a.AverageWordLengthInSection(section)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	sentences, _ := s.a.AverageSentenceLengthInSection(section)
	fmt.Fprintf(s.out, "word length: %s\nsentence length: %s\n", formatAverage(words), formatAverage(sentences))
}

func (s *shell) top(args string) {
	raw, section, _ := strings.Cut(args, " ")
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		fmt.Fprintln(s.out, "usage: top N [section]")
		return
	}
	var words []string
	if section = strings.TrimSpace(section); section == "" {
		words = s.a.MostFrequentWords(n)
	} else if words, err = s.a.MostFrequentWordsInSection(n, section); err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	for _, w := range words {
		fmt.Fprintln(s.out, w)
	}
}

func (s *shell) partOfSpeech(args string) {
	raw, section, _ := strings.Cut(args, " ")
	pos, err := textstats.ParsePartOfSpeech(raw)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	if section = strings.TrimSpace(section); section == "" {
		fmt.Fprintln(s.out, s.a.PartOfSpeechTotal(pos))
		return
	}
	n, err := s.a.PartOfSpeechCountInSection(section, pos)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	fmt.Fprintln(s.out, n)
}

func formatAverage(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

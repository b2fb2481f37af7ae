// Command textstats analyzes a single text and prints its report.
//
// The text is read from the FILE argument or, without one, from standard
// input. The report goes to stdout as plain text or, with --json, as JSON;
// logs go to stderr. The shell subcommand keeps the analysis open for
// queries.
//
// Usage:
//
//	textstats [report] [--words 50] [--section-words 20] [--json] [--html] [FILE]
//	textstats shell [--html] [FILE]
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/Adithya-Monish-Kumar-K/text-analytics/internal/report"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/internal/textstats"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/logger"
)

var stdout io.Writer = os.Stdout

type cli struct {
	Config string `name:"config" short:"c" help:"Config file; built-in defaults when empty." type:"path"`

	Report ReportCmd `cmd:"" default:"withargs" help:"Analyze a text and print its report."`
	Shell  ShellCmd  `cmd:"" help:"Analyze a text and open a query shell."`
}

// Input selects the text and how it is read.
type Input struct {
	File string `arg:"" optional:"" help:"Text file to analyze; stdin when omitted." type:"existingfile"`
	HTML bool   `name:"html" help:"Strip HTML markup before analysis."`
}

func (in Input) params(cfg *config.Config) report.Params {
	return report.Params{
		Title:           titleOf(in.File),
		TopWords:        cfg.Analysis.TopWords,
		SectionTopWords: cfg.Analysis.SectionTopWords,
		StripHTML:       in.HTML || cfg.Analysis.StripHTML,
		SectionMarker:   cfg.Analysis.SectionMarker,
		SkipEmptyWords:  cfg.Analysis.SkipEmptyWords,
	}
}

func (in Input) analyze(cfg *config.Config, p report.Params) *textstats.Analysis {
	opts := append(p.AnalysisOptions(textstats.SharedDictionaries(cfg.Analysis.WordListDir)),
		textstats.WithLogger(logger.WithComponent("textstats-cli")))
	if in.File == "" || in.File == "-" {
		return textstats.New(os.Stdin, opts...)
	}
	return textstats.NewFromFile(in.File, opts...)
}

type ReportCmd struct {
	Input        `embed:""`
	Words        int  `name:"words" short:"n" default:"50" help:"Most frequent words to report."`
	SectionWords int  `name:"section-words" default:"20" help:"Most frequent words to report per section."`
	JSON         bool `name:"json" help:"Print the report as JSON."`
}

func (c *ReportCmd) Run(cfg *config.Config) error {
	p := c.params(cfg)
	p.TopWords = c.Words
	p.SectionTopWords = c.SectionWords

	r := report.Build(c.analyze(cfg, p), p)
	if !c.JSON {
		return report.Write(stdout, r)
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

type ShellCmd struct {
	Input `embed:""`
}

func (c *ShellCmd) Run(cfg *config.Config) error {
	newShell(c.analyze(cfg, c.params(cfg)), stdout).Run()
	return nil
}

func titleOf(file string) string {
	if file == "" || file == "-" {
		return ""
	}
	return strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
}

func main() {
	var c cli
	ctx := kong.Parse(&c,
		kong.Name("textstats"),
		kong.Description("Word, sentence, section and part-of-speech statistics for a literary text."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(c.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.SetupWriter(os.Stderr, cfg.Logging.Level, "text")

	ctx.FatalIfErrorf(ctx.Run(cfg))
}

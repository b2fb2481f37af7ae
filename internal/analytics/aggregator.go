// Package analytics aggregates analysis-completed events into running
// totals served by the worker's stats endpoint.
package analytics

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/text-analytics/internal/report"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/kafka"
)

const (
	maxDurations = 10_000
	topTitles    = 10
)

type Stats struct {
	TotalAnalyses     int64            `json:"total_analyses"`
	CachedAnalyses    int64            `json:"cached_analyses"`
	TotalWords        int64            `json:"total_words"`
	BySource          map[string]int64 `json:"by_source"`
	AvgDurationMs     float64          `json:"avg_duration_ms"`
	P50DurationMs     float64          `json:"p50_duration_ms"`
	P95DurationMs     float64          `json:"p95_duration_ms"`
	P99DurationMs     float64          `json:"p99_duration_ms"`
	TopTitles         []TitleCount     `json:"top_titles"`
	AnalysesPerMinute float64          `json:"analyses_per_minute"`
}

type TitleCount struct {
	Title string `json:"title"`
	Count int64  `json:"count"`
}

// Aggregator keeps the running totals. Durations are kept in a ring of the
// most recent maxDurations events.
type Aggregator struct {
	mu          sync.Mutex
	total       int64
	cached      int64
	words       int64
	bySource    map[string]int64
	titleCounts map[string]int64
	durations   []float64
	next        int
	startTime   time.Time
	logger      *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		bySource:    make(map[string]int64),
		titleCounts: make(map[string]int64),
		durations:   make([]float64, 0, 1024),
		startTime:   time.Now(),
		logger:      slog.Default().With("component", "analytics-aggregator"),
	}
}

// HandleEvent decodes completed events off the stream. Malformed messages
// are skipped.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[report.CompletedEvent](value)
		if err != nil {
			return err
		}
		if event.ReportID == "" {
			return errors.Join(kafka.ErrSkip, errors.New("event without report id"))
		}
		agg.Record(event)
		return nil
	}
}

func (a *Aggregator) Record(event report.CompletedEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total++
	if event.Cached {
		a.cached++
	} else {
		a.words += int64(event.Words)
	}
	a.bySource[string(event.Source)]++
	if event.Title != "" {
		a.titleCounts[event.Title]++
	}
	if len(a.durations) < maxDurations {
		a.durations = append(a.durations, event.DurationMs)
	} else {
		a.durations[a.next] = event.DurationMs
		a.next = (a.next + 1) % maxDurations
	}
}

func (a *Aggregator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := Stats{
		TotalAnalyses:  a.total,
		CachedAnalyses: a.cached,
		TotalWords:     a.words,
		BySource:       maps.Clone(a.bySource),
		TopTitles:      topN(a.titleCounts, topTitles),
	}
	if len(a.durations) > 0 {
		sorted := slices.Clone(a.durations)
		slices.Sort(sorted)
		var sum float64
		for _, d := range sorted {
			sum += d
		}
		stats.AvgDurationMs = sum / float64(len(sorted))
		stats.P50DurationMs = percentile(sorted, 50)
		stats.P95DurationMs = percentile(sorted, 95)
		stats.P99DurationMs = percentile(sorted, 99)
	}
	if elapsed := time.Since(a.startTime).Minutes(); elapsed > 0 {
		stats.AnalysesPerMinute = float64(a.total) / elapsed
	}
	return stats
}

// Restore seeds the totals from a persisted snapshot so counts survive a
// restart. Durations and titles are not restored.
func (a *Aggregator) Restore(s Stats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total += s.TotalAnalyses
	a.cached += s.CachedAnalyses
	a.words += s.TotalWords
	for source, n := range s.BySource {
		a.bySource[source] += n
	}
	a.logger.Info("analytics restored from snapshot", "total_analyses", s.TotalAnalyses)
}

func percentile(sorted []float64, pct int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := min((pct*len(sorted))/100, len(sorted)-1)
	return sorted[idx]
}

// topN orders by count descending, then title ascending.
func topN(counts map[string]int64, n int) []TitleCount {
	result := make([]TitleCount, 0, len(counts))
	for title, count := range counts {
		result = append(result, TitleCount{Title: title, Count: count})
	}
	slices.SortFunc(result, func(x, y TitleCount) int {
		if c := cmp.Compare(y.Count, x.Count); c != 0 {
			return c
		}
		return cmp.Compare(x.Title, y.Title)
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}

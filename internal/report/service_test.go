package report

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/resilience"
)

const faulkner = `*BEGINSECTION_April7 Through the fence, between the curling flower spaces,
I could see them hitting. They were coming toward where the flag was.
*BEGINSECTION_June2 The shadow of the sash appeared on the curtains.`

var fastRetry = resilience.RetryConfig{MaxAttempts: 2, InitialDelay: time.Millisecond}

type fakeRepo struct {
	mu      sync.Mutex
	reports map[string]*Report
	saves   int
	saveErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{reports: make(map[string]*Report)}
}

func (f *fakeRepo) Save(_ context.Context, r *Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.reports[r.ID] = r
	return nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (*Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrReportNotFound, http.StatusNotFound, "no report with id %q", id)
	}
	return r, nil
}

func (f *fakeRepo) List(_ context.Context, limit int) ([]Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Summary, 0, len(f.reports))
	for _, r := range f.reports {
		out = append(out, r.Summary())
	}
	return out[:min(limit, len(out))], nil
}

type fakeWriter struct {
	mu     sync.Mutex
	events []kafka.Event
	err    error
}

func (f *fakeWriter) Publish(_ context.Context, e kafka.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

func testConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		SectionMarker:   "*BEGINSECTION_",
		TopWords:        5,
		SectionTopWords: 3,
		MaxTextBytes:    1 << 20,
	}
}

type fixture struct {
	service *Service
	repo    *fakeRepo
	writer  *fakeWriter
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mc, err := NewMemoryCache(16, nil)
	require.NoError(t, err)
	f := &fixture{
		repo:    newFakeRepo(),
		writer:  &fakeWriter{},
		metrics: metrics.NewWithRegistry(prometheus.NewRegistry()),
	}
	f.service = NewService(testConfig(), testDictionaries, mc,
		WithRepository(f.repo),
		WithPublisher(NewPublisher(f.writer, fastRetry)),
		WithMetrics(f.metrics),
		WithSaveRetry(fastRetry),
	)
	return f
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestAnalyzeComputesThenServesFromCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub := &Submission{Title: "  The Sound and the Fury ", Text: faulkner}

	r, cached, err := f.service.Analyze(ctx, sub, SourceHTTP)
	require.NoError(t, err)
	require.False(t, cached)
	require.Equal(t, "The Sound and the Fury", r.Title)
	require.Equal(t, Key(faulkner, f.service.Params(sub)), r.ID)
	require.False(t, r.CreatedAt.IsZero())
	require.Len(t, r.TopWords, 2)
	require.Equal(t, []string{"April7", "June2"}, []string{r.Sections[0].Name, r.Sections[1].Name})
	require.Equal(t, 1, f.repo.saves)

	again, cached, err := f.service.Analyze(ctx, sub, SourceKafka)
	require.NoError(t, err)
	require.True(t, cached)
	require.Same(t, r, again)
	require.Equal(t, 1, f.repo.saves, "cached reports are not saved again")

	require.Len(t, f.writer.events, 2)
	first := f.writer.events[0].Value.(CompletedEvent)
	second := f.writer.events[1].Value.(CompletedEvent)
	require.Equal(t, r.ID, f.writer.events[0].Key)
	require.False(t, first.Cached)
	require.True(t, second.Cached)
	require.Equal(t, SourceKafka, second.Source)
	require.Equal(t, r.Words, first.Words)

	require.InDelta(t, 1, counterValue(t, f.metrics.AnalysesTotal.WithLabelValues("http", "computed")), 0)
	require.InDelta(t, 1, counterValue(t, f.metrics.AnalysesTotal.WithLabelValues("kafka", "cached")), 0)
	require.InDelta(t, 1, counterValue(t, f.metrics.ReportCacheHitsTotal), 0)
	require.InDelta(t, float64(r.Words), counterValue(t, f.metrics.WordsIngestedTotal), 0)

	hits, misses := f.service.CacheStats()
	require.Equal(t, int64(1), hits)
	require.Equal(t, int64(1), misses)
}

func TestAnalyzeOverridesChangeTheReport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base, _, err := f.service.Analyze(ctx, &Submission{Text: faulkner}, SourceHTTP)
	require.NoError(t, err)
	one := 1
	narrow, cached, err := f.service.Analyze(ctx, &Submission{Text: faulkner, TopWords: &one}, SourceHTTP)
	require.NoError(t, err)
	require.False(t, cached)
	require.NotEqual(t, base.ID, narrow.ID)
	require.Len(t, narrow.TopWords, 1)
	require.Len(t, narrow.RankedWords, 1)
}

func TestAnalyzeStripsHTMLOnRequest(t *testing.T) {
	f := newFixture(t)
	yes := true
	r, _, err := f.service.Analyze(context.Background(), &Submission{
		Text:      "<p>the <em>cat</em> sat.</p>",
		StripHTML: &yes,
	}, SourceHTTP)
	require.NoError(t, err)
	require.Equal(t, 3, r.Words)
	require.Equal(t, 1, r.PartsOfSpeech["noun"])
}

func TestAnalyzeRejectsInvalidSubmission(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.service.Analyze(context.Background(), &Submission{Text: "   "}, SourceHTTP)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "text")
	require.Zero(t, f.repo.saves)
	require.Empty(t, f.writer.events)
	require.InDelta(t, 1, counterValue(t, f.metrics.AnalysesTotal.WithLabelValues("http", "invalid")), 0)
}

func TestAnalyzeSurvivesStoreAndBrokerFailures(t *testing.T) {
	f := newFixture(t)
	f.repo.saveErr = errors.New("disk full")
	f.writer.err = errors.New("broker down")

	r, _, err := f.service.Analyze(context.Background(), &Submission{Text: faulkner}, SourceHTTP)
	require.NoError(t, err)
	require.NotNil(t, r)
	require.Equal(t, 2, f.repo.saves, "save is retried")
	require.InDelta(t, 1, counterValue(t, f.metrics.ReportsPersistedTotal.WithLabelValues("error")), 0)
	require.InDelta(t, 1, counterValue(t, f.metrics.EventsPublishedTotal.WithLabelValues("error")), 0)
}

func TestGetFallsBackToRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, _, err := f.service.Analyze(ctx, &Submission{Text: faulkner}, SourceHTTP)
	require.NoError(t, err)

	got, err := f.service.Get(ctx, r.ID)
	require.NoError(t, err)
	require.Same(t, r, got)

	// a fresh process with an empty cache reads the stored copy
	mc, err := NewMemoryCache(4, nil)
	require.NoError(t, err)
	fresh := NewService(testConfig(), testDictionaries, mc, WithRepository(f.repo))
	got, err = fresh.Get(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, r.ID, got.ID)

	_, err = fresh.Get(ctx, "nope")
	require.ErrorIs(t, err, apperrors.ErrReportNotFound)
}

func TestSectionLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r, _, err := f.service.Analyze(ctx, &Submission{Text: faulkner}, SourceHTTP)
	require.NoError(t, err)

	sec, err := f.service.Section(ctx, r.ID, "June2")
	require.NoError(t, err)
	require.Equal(t, 9, sec.Words)

	_, err = f.service.Section(ctx, r.ID, "June3")
	require.ErrorIs(t, err, apperrors.ErrSectionNotFound)
}

func TestServiceWithoutRepository(t *testing.T) {
	mc, err := NewMemoryCache(4, nil)
	require.NoError(t, err)
	s := NewService(testConfig(), testDictionaries, mc)

	_, err = s.List(context.Background(), 10)
	require.ErrorIs(t, err, apperrors.ErrUnavailable)
	_, err = s.Get(context.Background(), "missing")
	require.ErrorIs(t, err, apperrors.ErrReportNotFound)

	r, _, err := s.Analyze(context.Background(), &Submission{Text: "one two"}, SourceCLI)
	require.NoError(t, err)
	require.Equal(t, 2, r.Words)
}

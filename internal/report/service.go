package report

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/text-analytics/internal/textstats"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/tracing"
)

// Repository is the persistent side of the service. *Store implements it.
type Repository interface {
	Save(ctx context.Context, r *Report) error
	Get(ctx context.Context, id string) (*Report, error)
	List(ctx context.Context, limit int) ([]Summary, error)
}

var _ Repository = (*Store)(nil)

// Service analyzes submissions into reports. The repository, publisher and
// metrics are optional.
type Service struct {
	cfg          config.AnalysisConfig
	dictionaries *textstats.Dictionaries
	cache        Cache
	builder      *CachedBuilder
	repo         Repository
	publisher    *Publisher
	metrics      *metrics.Metrics
	saveRetry    resilience.RetryConfig
	now          func() time.Time
	logger       *slog.Logger
}

type ServiceOption func(*Service)

func WithRepository(repo Repository) ServiceOption {
	return func(s *Service) { s.repo = repo }
}

func WithPublisher(p *Publisher) ServiceOption {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

func WithSaveRetry(cfg resilience.RetryConfig) ServiceOption {
	return func(s *Service) { s.saveRetry = cfg }
}

func NewService(cfg config.AnalysisConfig, dictionaries *textstats.Dictionaries, cache Cache, opts ...ServiceOption) *Service {
	s := &Service{
		cfg:          cfg,
		dictionaries: dictionaries,
		cache:        cache,
		builder:      NewCachedBuilder(cache),
		now:          time.Now,
		logger:       slog.Default().With("component", "report-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics != nil {
		for _, pos := range textstats.PartsOfSpeech()[:4] {
			s.metrics.DictionaryWords.WithLabelValues(pos.String()).Set(float64(dictionaries.Size(pos)))
		}
	}
	return s
}

// Params resolves the submission's overrides against the configured
// defaults.
func (s *Service) Params(sub *Submission) Params {
	p := Params{
		Title:           strings.TrimSpace(sub.Title),
		TopWords:        s.cfg.TopWords,
		SectionTopWords: s.cfg.SectionTopWords,
		StripHTML:       s.cfg.StripHTML,
		SectionMarker:   s.cfg.SectionMarker,
		SkipEmptyWords:  s.cfg.SkipEmptyWords,
	}
	if sub.TopWords != nil {
		p.TopWords = *sub.TopWords
	}
	if sub.SectionTopWords != nil {
		p.SectionTopWords = *sub.SectionTopWords
	}
	if sub.StripHTML != nil {
		p.StripHTML = *sub.StripHTML
	}
	return p
}

// Analyze validates sub, then returns the cached report for it or analyzes
// the text, persists the new report and announces it. cached reports whether
// the analysis was skipped. Persistence and publishing failures are logged
// and never fail the call.
func (s *Service) Analyze(ctx context.Context, sub *Submission, source Source) (r *Report, cached bool, err error) {
	log := logger.FromContext(ctx).With("component", "report-service", "source", source)
	start := s.now()

	ctx, span := tracing.StartSpan(ctx, "analyze", logger.RequestID(ctx))
	defer func() {
		span.End()
		span.Log(log)
	}()

	if err := Validate(sub, s.cfg.MaxTextBytes); err != nil {
		s.countAnalysis(source, "invalid")
		return nil, false, err
	}

	params := s.Params(sub)
	key := Key(sub.Text, params)
	span.SetAttr("report_id", key)

	r, cached, err = s.builder.GetOrCompute(ctx, key, func(ctx context.Context) (*Report, error) {
		return s.compute(ctx, key, sub.Text, params)
	})
	if err != nil {
		s.countAnalysis(source, "error")
		log.Error("analysis failed", "report_id", key, "error", err)
		return nil, false, err
	}

	if cached {
		s.countAnalysis(source, "cached")
		if s.metrics != nil {
			s.metrics.ReportCacheHitsTotal.Inc()
		}
	} else {
		s.countAnalysis(source, "computed")
		if s.metrics != nil {
			s.metrics.ReportCacheMissesTotal.Inc()
		}
	}

	s.publish(ctx, r, source, cached, s.now().Sub(start))
	log.Info("analysis complete",
		"report_id", r.ID,
		"words", r.Words,
		"sections", len(r.Sections),
		"cached", cached,
	)
	return r, cached, nil
}

func (s *Service) compute(ctx context.Context, key, text string, params Params) (*Report, error) {
	ctx, span := tracing.StartChildSpan(ctx, "compute")
	defer span.End()

	start := time.Now()
	a := textstats.New(strings.NewReader(text), params.AnalysisOptions(s.dictionaries)...)
	r := Build(a, params)
	r.ID = key
	r.CreatedAt = s.now().UTC()
	span.SetAttr("words", r.Words)

	if s.metrics != nil {
		s.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
		s.metrics.WordsIngestedTotal.Add(float64(r.Words))
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.New(apperrors.ErrTimeout, http.StatusGatewayTimeout, "analysis deadline exceeded")
	}
	s.persist(ctx, r)
	return r, nil
}

func (s *Service) persist(ctx context.Context, r *Report) {
	if s.repo == nil {
		return
	}
	ctx, span := tracing.StartChildSpan(ctx, "persist")
	defer span.End()

	err := resilience.Retry(ctx, "save-report", s.saveRetry, func(ctx context.Context) error {
		return s.repo.Save(ctx, r)
	})
	status := "ok"
	if err != nil {
		status = "error"
		logger.FromContext(ctx).Error("report not persisted", "report_id", r.ID, "error", err)
	}
	if s.metrics != nil {
		s.metrics.ReportsPersistedTotal.WithLabelValues(status).Inc()
	}
}

func (s *Service) publish(ctx context.Context, r *Report, source Source, cached bool, took time.Duration) {
	if s.publisher == nil {
		return
	}
	ctx, span := tracing.StartChildSpan(ctx, "publish")
	defer span.End()

	err := s.publisher.Completed(ctx, CompletedEvent{
		ReportID:    r.ID,
		Title:       r.Title,
		Source:      source,
		Words:       r.Words,
		UniqueWords: r.UniqueWords,
		Sentences:   r.Sentences,
		Sections:    len(r.Sections),
		Cached:      cached,
		DurationMs:  float64(took.Microseconds()) / 1000,
		RequestID:   logger.RequestID(ctx),
		CompletedAt: s.now().UTC(),
	})
	status := "ok"
	if err != nil {
		status = "error"
	}
	if s.metrics != nil {
		s.metrics.EventsPublishedTotal.WithLabelValues(status).Inc()
	}
}

func (s *Service) countAnalysis(source Source, result string) {
	if s.metrics != nil {
		s.metrics.AnalysesTotal.WithLabelValues(string(source), result).Inc()
	}
}

// Get returns a report by ID from the cache or, failing that, the
// repository.
func (s *Service) Get(ctx context.Context, id string) (*Report, error) {
	r, err := s.cache.Get(ctx, id)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		logger.FromContext(ctx).Warn("report cache read failed", "report_id", id, "error", err)
	}
	if s.repo == nil {
		return nil, apperrors.Newf(apperrors.ErrReportNotFound, http.StatusNotFound, "no report with id %q", id)
	}
	return s.repo.Get(ctx, id)
}

// Section returns one section of a stored report.
func (s *Service) Section(ctx context.Context, id, name string) (SectionReport, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return SectionReport{}, err
	}
	sec, ok := r.Section(name)
	if !ok {
		return SectionReport{}, apperrors.SectionNotFound(name)
	}
	return sec, nil
}

// List returns the newest stored reports. It needs a repository.
func (s *Service) List(ctx context.Context, limit int) ([]Summary, error) {
	if s.repo == nil {
		return nil, apperrors.New(apperrors.ErrUnavailable, http.StatusServiceUnavailable, "report listing requires persistence")
	}
	return s.repo.List(ctx, limit)
}

// CacheStats reports builder-level cache hits and misses.
func (s *Service) CacheStats() (hits, misses int64) {
	return s.builder.Stats()
}

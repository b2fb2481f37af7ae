//go:build integration

// Run with:
//
//	go test -v -tags=integration ./internal/report/...
package report

import (
	"context"
	"os"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/text-analytics/internal/textstats"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/postgres"
)

func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	port, err := strconv.Atoi(envOrDefault("TEST_POSTGRES_PORT", "5432"))
	require.NoError(t, err)
	db, err := postgres.New(config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            port,
		Database:        envOrDefault("TEST_POSTGRES_DB", "textanalytics_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "textanalytics"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	})
	if err != nil {
		t.Skipf("skipping integration test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestStoreRoundTrip(t *testing.T) {
	db := skipIfNoPostgres(t)
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))
	store := NewStore(db)
	require.NoError(t, store.Ping(ctx))

	params := Params{Title: "Integration", TopWords: 5, SectionTopWords: 3, SectionMarker: "*BEGINSECTION_"}
	a := textstats.New(strings.NewReader(faulkner), params.AnalysisOptions(testDictionaries)...)
	r := Build(a, params)
	r.ID = Key(faulkner, params) + strconv.FormatInt(time.Now().UnixNano(), 36)
	r.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	t.Cleanup(func() {
		db.DB.ExecContext(context.Background(), "DELETE FROM analysis_reports WHERE id = $1", r.ID)
	})

	require.NoError(t, store.Save(ctx, r))
	require.NoError(t, store.Save(ctx, r), "saving twice upserts")

	got, err := store.Get(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, r.Words, got.Words)
	require.Equal(t, r.TopWords, got.TopWords)
	require.Len(t, got.Sections, len(r.Sections))

	list, err := store.List(ctx, 500)
	require.NoError(t, err)
	idx := slices.IndexFunc(list, func(s Summary) bool { return s.ID == r.ID })
	require.GreaterOrEqual(t, idx, 0)
	require.Equal(t, r.Words, list[idx].Words)
	require.True(t, r.CreatedAt.Equal(list[idx].CreatedAt))

	_, err = store.Get(ctx, "missing-"+r.ID)
	require.ErrorIs(t, err, apperrors.ErrReportNotFound)
}

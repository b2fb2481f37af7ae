package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func up(context.Context) error { return nil }

func TestRunWorstStatusWins(t *testing.T) {
	c := NewChecker()
	c.Register("postgres", Ping(StatusDown, up))
	c.Register("redis", Ping(StatusDegraded, func(context.Context) error { return errors.New("refused") }))

	report := c.Run(context.Background())
	require.Equal(t, StatusDegraded, report.Status)
	require.Equal(t, "refused", report.Components["redis"].Message)
	require.Equal(t, StatusUp, report.Components["postgres"].Status)

	c.Register("postgres", Ping(StatusDown, func(context.Context) error { return errors.New("gone") }))
	require.Equal(t, StatusDown, c.Run(context.Background()).Status)
}

func TestReadyHandler(t *testing.T) {
	c := NewChecker()
	c.Register("redis", Ping(StatusDegraded, func(context.Context) error { return errors.New("refused") }))

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var report Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	require.Equal(t, StatusDegraded, report.Status)

	c.Register("postgres", Ping(StatusDown, func(context.Context) error { return errors.New("gone") }))
	rec = httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

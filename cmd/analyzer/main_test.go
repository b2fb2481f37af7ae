package main

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/metrics"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Kafka.Enabled = false
	cfg.Redis.Enabled = false
	cfg.Postgres.Enabled = false
	cfg.Metrics.Enabled = false
	cfg.Server.Port = 0
	return cfg
}

func TestRunReturnsSetupErrors(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.MemoryEntries = 0
	err := run(context.Background(), cfg, metrics.NewWithRegistry(prometheus.NewRegistry()), false)
	require.ErrorContains(t, err, "memory cache")
}

func TestRunStopsCleanlyWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := run(ctx, testConfig(), metrics.NewWithRegistry(prometheus.NewRegistry()), false)
	require.NoError(t, err)
}

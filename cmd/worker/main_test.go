package main

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/metrics"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Kafka.Enabled = true
	cfg.Redis.Enabled = false
	cfg.Postgres.Enabled = false
	cfg.Metrics.Enabled = false
	cfg.Server.Port = 0
	return cfg
}

func TestRunRequiresKafka(t *testing.T) {
	cfg := testConfig()
	cfg.Kafka.Enabled = false
	err := run(context.Background(), cfg, metrics.NewWithRegistry(prometheus.NewRegistry()), time.Minute)
	require.ErrorContains(t, err, "kafka.enabled")
}

func TestRunReturnsSetupErrors(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.MemoryEntries = 0
	err := run(context.Background(), cfg, metrics.NewWithRegistry(prometheus.NewRegistry()), time.Minute)
	require.ErrorContains(t, err, "memory cache")
}

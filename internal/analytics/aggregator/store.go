// Package aggregator snapshots the analytics totals to PostgreSQL so the
// worker can resume counting after a restart.
package aggregator

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/Adithya-Monish-Kumar-K/text-analytics/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/postgres"
)

// Schema creates the snapshot table.
const Schema = `CREATE TABLE IF NOT EXISTS analytics_snapshots (
    id          BIGSERIAL PRIMARY KEY,
    data        JSONB NOT NULL,
    captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const defaultRetain = 100

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Store keeps the newest snapshots and prunes older ones on every save.
type Store struct {
	client *postgres.Client
	retain int
	now    func() time.Time
	logger *slog.Logger
}

func NewStore(client *postgres.Client) *Store {
	return &Store{
		client: client,
		retain: defaultRetain,
		now:    time.Now,
		logger: logger.WithComponent("analytics-store"),
	}
}

func insertQuery(data []byte, at time.Time) squirrel.InsertBuilder {
	return psql.Insert("analytics_snapshots").
		Columns("data", "captured_at").
		Values(data, at.UTC())
}

// pruneQuery deletes all but the newest retain snapshots.
func pruneQuery(retain int) squirrel.DeleteBuilder {
	newest := psql.Select("id").
		From("analytics_snapshots").
		OrderBy("captured_at DESC", "id DESC").
		Limit(uint64(retain))
	return psql.Delete("analytics_snapshots").
		Where(squirrel.Expr("id NOT IN (?)", newest))
}

func latestQuery() squirrel.SelectBuilder {
	return psql.Select("data").
		From("analytics_snapshots").
		OrderBy("captured_at DESC", "id DESC").
		Limit(1)
}

func (s *Store) SaveSnapshot(ctx context.Context, stats analytics.Stats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	insert, insertArgs, err := insertQuery(data, s.now()).ToSql()
	if err != nil {
		return fmt.Errorf("building snapshot insert: %w", err)
	}
	prune, pruneArgs, err := pruneQuery(s.retain).ToSql()
	if err != nil {
		return fmt.Errorf("building snapshot prune: %w", err)
	}
	err = s.client.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insert, insertArgs...); err != nil {
			return fmt.Errorf("saving analytics snapshot: %w", err)
		}
		if _, err := tx.ExecContext(ctx, prune, pruneArgs...); err != nil {
			return fmt.Errorf("pruning analytics snapshots: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Debug("analytics snapshot saved", "total_analyses", stats.TotalAnalyses)
	return nil
}

// LatestSnapshot returns nil, nil when nothing has been saved yet.
func (s *Store) LatestSnapshot(ctx context.Context) (*analytics.Stats, error) {
	query, args, err := latestQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("building snapshot select: %w", err)
	}
	var data []byte
	err = s.client.DB.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshot: %w", err)
	}

	var stats analytics.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &stats, nil
}

// StartPeriodicSave snapshots agg every interval and once more when ctx is
// cancelled. The returned channel closes after the final snapshot.
func (s *Store) StartPeriodicSave(ctx context.Context, agg *analytics.Aggregator, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.SaveSnapshot(ctx, agg.Stats()); err != nil {
					s.logger.Error("periodic snapshot failed", "error", err)
				}
			case <-ctx.Done():
				finalCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := s.SaveSnapshot(finalCtx, agg.Stats()); err != nil {
					s.logger.Error("final snapshot failed", "error", err)
				}
				cancel()
				return
			}
		}
	}()
	s.logger.Info("periodic snapshot started", "interval", interval)
	return done
}

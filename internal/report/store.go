package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Masterminds/squirrel"

	apperrors "github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/text-analytics/pkg/postgres"
)

const reportsTable = "analysis_reports"

// Schema creates the table Store reads and writes.
const Schema = `CREATE TABLE IF NOT EXISTS analysis_reports (
    id         TEXT PRIMARY KEY,
    title      TEXT NOT NULL DEFAULT '',
    words      INTEGER NOT NULL DEFAULT 0,
    data       JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const maxListLimit = 500

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Store persists reports in PostgreSQL, keyed by report ID.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewStore(client *postgres.Client) *Store {
	return &Store{
		db:     client.DB,
		logger: slog.Default().With("component", "report-store"),
	}
}

// Migrate creates the reports table when missing.
func Migrate(ctx context.Context, client *postgres.Client) error {
	return client.Migrate(ctx, Schema)
}

func saveQuery(r *Report, data []byte) squirrel.InsertBuilder {
	return psql.Insert(reportsTable).
		Columns("id", "title", "words", "data", "created_at").
		Values(r.ID, r.Title, r.Words, data, r.CreatedAt.UTC()).
		Suffix("ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, words = EXCLUDED.words, data = EXCLUDED.data")
}

// Save inserts r, replacing a stored report with the same ID.
func (s *Store) Save(ctx context.Context, r *Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report %s: %w", r.ID, err)
	}
	query, args, err := saveQuery(r, data).ToSql()
	if err != nil {
		return fmt.Errorf("building report insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("saving report %s: %w", r.ID, err)
	}
	s.logger.Debug("report saved", "id", r.ID, "words", r.Words)
	return nil
}

func getQuery(id string) squirrel.SelectBuilder {
	return psql.Select("data").From(reportsTable).Where(squirrel.Eq{"id": id})
}

// Get loads a report. An unknown id yields ErrReportNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Report, error) {
	query, args, err := getQuery(id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building report select: %w", err)
	}
	var data []byte
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Newf(apperrors.ErrReportNotFound, http.StatusNotFound, "no report with id %q", id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading report %s: %w", id, err)
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", id, err)
	}
	return &r, nil
}

func listQuery(limit int) squirrel.SelectBuilder {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	return psql.Select("id", "title", "words", "created_at").
		From(reportsTable).
		OrderBy("created_at DESC", "id").
		Limit(uint64(limit))
}

// List returns summaries of the newest reports, at most limit of them.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	query, args, err := listQuery(limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building report list: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	summaries := make([]Summary, 0)
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Words, &sum.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning report row: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

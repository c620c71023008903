package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"NewsAnalyzer/internal/domain"
	"NewsAnalyzer/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id            TEXT PRIMARY KEY,
    started_at    TEXT NOT NULL,
    finished_at   TEXT NOT NULL,
    terms         TEXT NOT NULL,
    include_terms TEXT NOT NULL,
    exclude_terms TEXT NOT NULL,
    pages         INTEGER NOT NULL,
    status        TEXT NOT NULL,
    article_count INTEGER NOT NULL,
    cluster_count INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS run_articles (
    run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    position   INTEGER NOT NULL,
    cluster    INTEGER NOT NULL,
    title      TEXT NOT NULL,
    source     TEXT NOT NULL,
    published  TEXT NOT NULL,
    origin_url TEXT NOT NULL,
    detail_url TEXT NOT NULL,
    PRIMARY KEY (run_id, position)
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// timeLayout is fixed-width so text order matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// articleBatch keeps multi-row inserts under SQLite's bound-parameter limit.
const articleBatch = 500

// SQLiteArchive records finished runs into a local SQLite file.
type SQLiteArchive struct {
	db *sql.DB
}

var _ ports.RunArchive = (*SQLiteArchive)(nil)

// OpenSQLiteArchive opens (creating when needed) the archive at path.
func OpenSQLiteArchive(ctx context.Context, path string) (*SQLiteArchive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create archive schema: %w", err)
	}
	return &SQLiteArchive{db: db}, nil
}

// Close releases the database handle.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}

// SaveRun stores the run row and one row per clustered article.
func (a *SQLiteArchive) SaveRun(ctx context.Context, run ports.RunRecord) error {
	if _, err := uuid.Parse(run.ID); err != nil {
		return fmt.Errorf("run id %q: %w", run.ID, err)
	}

	articles := 0
	clusters := 0
	for _, c := range run.Clusters {
		articles += len(c.Articles)
		if !c.Noise() {
			clusters++
		}
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := sq.Insert("runs").
		Columns("id", "started_at", "finished_at", "terms", "include_terms", "exclude_terms",
			"pages", "status", "article_count", "cluster_count").
		Values(run.ID, formatTime(run.StartedAt), formatTime(run.FinishedAt), run.Query.Terms(),
			strings.Join(run.Query.Include, ","), strings.Join(run.Query.Exclude, ","),
			run.Query.Pages, string(run.Status), articles, clusters).
		ToSql()
	if err != nil {
		return fmt.Errorf("build run insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if err := insertArticles(ctx, tx, run); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertArticles(ctx context.Context, tx *sql.Tx, run ports.RunRecord) error {
	position := 0
	builder := newArticleInsert()
	pending := 0

	flush := func() error {
		if pending == 0 {
			return nil
		}
		query, args, err := builder.ToSql()
		if err != nil {
			return fmt.Errorf("build article insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert articles: %w", err)
		}
		builder = newArticleInsert()
		pending = 0
		return nil
	}

	for _, c := range run.Clusters {
		for _, art := range c.Articles {
			builder = builder.Values(run.ID, position, c.ID, art.Title, art.Source, art.Timestamp, art.OriginURL, art.DetailURL)
			position++
			pending++
			if pending == articleBatch {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
	return flush()
}

func newArticleInsert() sq.InsertBuilder {
	return sq.Insert("run_articles").
		Columns("run_id", "position", "cluster", "title", "source", "published", "origin_url", "detail_url")
}

// RecentRuns lists the newest runs first.
func (a *SQLiteArchive) RecentRuns(ctx context.Context, limit int) ([]ports.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	query, args, err := sq.Select("id", "started_at", "terms", "pages", "status", "article_count", "cluster_count").
		From("runs").
		OrderBy("started_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build runs query: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	var result []ports.RunSummary
	for rows.Next() {
		var (
			s       ports.RunSummary
			started string
			status  string
		)
		if err := rows.Scan(&s.ID, &started, &s.Terms, &s.Pages, &status, &s.ArticleCount, &s.ClusterCount); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if s.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		s.Status = domain.RunStatus(status)
		result = append(result, s)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

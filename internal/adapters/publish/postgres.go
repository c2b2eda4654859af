package publish

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alexberlino/atp/internal/domain/model"
)

// EntrySource reads the committed dataset.
type EntrySource interface {
	Load(ctx context.Context) ([]model.Entry, bool, error)
}

var mirrorColumns = []string{"rank", "player_name", "age", "country", "points", "rank_change", "updated_at"}

// Postgres mirrors the dataset into a table, replacing its contents in one
// transaction.
type Postgres struct {
	pool   *pgxpool.Pool
	table  string
	source EntrySource
}

// NewPostgres opens a pool for dsn. The table is created on first publish.
func NewPostgres(ctx context.Context, dsn, table string, source EntrySource) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	return &Postgres{pool: pool, table: table, source: source}, nil
}

func (p *Postgres) Name() string { return "postgres" }

func (p *Postgres) Publish(ctx context.Context, n Notice) error {
	entries, found, err := p.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	if !found {
		return fmt.Errorf("dataset %s missing", n.DatasetPath)
	}

	ident := pgx.Identifier{p.table}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, createTableSQL(ident)); err != nil {
		return fmt.Errorf("create %s: %w", p.table, err)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM "+ident.Sanitize()); err != nil {
		return fmt.Errorf("clear %s: %w", p.table, err)
	}
	if _, err := tx.CopyFrom(ctx, ident, mirrorColumns, pgx.CopyFromRows(mirrorRows(entries, n))); err != nil {
		return fmt.Errorf("copy into %s: %w", p.table, err)
	}
	return tx.Commit(ctx)
}

// Close releases the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func createTableSQL(ident pgx.Identifier) string {
	return `CREATE TABLE IF NOT EXISTS ` + ident.Sanitize() + ` (
	rank        integer PRIMARY KEY,
	player_name text    NOT NULL,
	age         integer NOT NULL,
	country     char(3) NOT NULL,
	points      integer NOT NULL,
	rank_change integer,
	updated_at  timestamptz NOT NULL
)`
}

func mirrorRows(entries []model.Entry, n Notice) [][]any {
	rows := make([][]any, len(entries))
	for i, e := range entries {
		var change any
		if e.Change != nil {
			change = int32(*e.Change)
		}
		rows[i] = []any{int32(e.Rank), e.Name, int32(e.Age), e.Country, int32(e.Points), change, n.UpdatedAt}
	}
	return rows
}

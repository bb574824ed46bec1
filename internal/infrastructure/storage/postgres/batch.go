package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CopyTarget is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type CopyTarget interface {
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// TableRows is one bulk load: rows match Columns positionally.
type TableRows struct {
	Table   string
	Columns []string
	Rows    [][]any
}

// LoadTables bulk-inserts every TableRows in order inside one read-write
// transaction, using the COPY protocol. Order matters for foreign keys.
func LoadTables(ctx context.Context, pool *Pool, tables ...TableRows) (int64, error) {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadWrite})
	if err != nil {
		return 0, fmt.Errorf("begin load: %w", err)
	}
	defer func() { _ = tx.Rollback(context.Background()) }()

	var total int64
	for _, t := range tables {
		if len(t.Rows) == 0 {
			continue
		}
		n, err := tx.CopyFrom(ctx, pgx.Identifier{t.Table}, t.Columns, pgx.CopyFromRows(t.Rows))
		if err != nil {
			return 0, fmt.Errorf("copy into %s: %w", t.Table, err)
		}
		total += n
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit load: %w", err)
	}
	return total, nil
}

// CopyStream performs bulk insert from a channel, so generated data never
// has to be held in memory at once. The producer must close rows.
//
// Example:
//
//	rows := make(chan []any, 100)
//	go func() {
//	    defer close(rows)
//	    for _, p := range posts {
//	        rows <- []any{p.ID, p.Title}
//	    }
//	}()
//	n, err := postgres.CopyStream(ctx, pool, "posts", []string{"id", "title"}, rows)
func CopyStream(ctx context.Context, db CopyTarget, table string, columns []string, rows <-chan []any) (int64, error) {
	source := &channelCopyFromSource{ctx: ctx, rows: rows}
	n, err := db.CopyFrom(ctx, pgx.Identifier{table}, columns, source)
	if err != nil {
		return n, fmt.Errorf("copy into %s: %w", table, err)
	}
	return n, nil
}

// channelCopyFromSource implements pgx.CopyFromSource for channel-based row streaming.
type channelCopyFromSource struct {
	ctx     context.Context
	rows    <-chan []any
	current []any
	err     error
}

func (s *channelCopyFromSource) Next() bool {
	select {
	case <-s.ctx.Done():
		s.err = s.ctx.Err()
		return false
	case row, ok := <-s.rows:
		if !ok {
			return false
		}
		s.current = row
		return true
	}
}

func (s *channelCopyFromSource) Values() ([]any, error) {
	return s.current, nil
}

func (s *channelCopyFromSource) Err() error {
	return s.err
}

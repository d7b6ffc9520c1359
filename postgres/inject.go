package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/streamingfast/dstore"
	"go.uber.org/zap"
)

// Injector loads the hash CSV files of a store into a table with COPY FROM,
// one file at a time.
type Injector struct {
	pool   *pgxpool.Pool
	schema string
	table  string

	in dstore.Store
}

func NewInjector(pool *pgxpool.Pool, schema, table string, in dstore.Store) *Injector {
	return &Injector{
		pool:   pool,
		schema: schema,
		table:  table,
		in:     in,
	}
}

// Run injects every CSV file of the input store and returns the total number
// of rows copied.
func (i *Injector) Run(ctx context.Context) (rowCount int64, err error) {
	zlog.Info("hash injector", zap.String("schema", i.schema), zap.String("table", i.table))

	loadFiles, err := FilesToInject(ctx, i.in)
	if err != nil {
		return 0, fmt.Errorf("listing files: %w", err)
	}

	if len(loadFiles) == 0 {
		return 0, fmt.Errorf("no file to process")
	}

	zlog.Info("files to load", zap.String("table", i.table), zap.Int("file_count", len(loadFiles)))

	for _, filename := range loadFiles {
		count, err := i.injectFile(ctx, filename)
		if err != nil {
			return rowCount, fmt.Errorf("failed to inject file %q: %w", filename, err)
		}

		rowCount += count
	}

	return rowCount, nil
}

func (i *Injector) injectFile(ctx context.Context, filename string) (int64, error) {
	fl, err := i.in.OpenObject(ctx, filename)
	if err != nil {
		return 0, fmt.Errorf("opening csv: %w", err)
	}
	defer fl.Close()

	query := copyQuery(i.schema, i.table)
	zlog.Info("loading file into sql", zap.String("filename", filename), zap.String("table_name", i.table))

	t0 := time.Now()

	conn, err := i.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("pool acquire: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Conn().PgConn().CopyFrom(ctx, fl, query)
	if err != nil {
		return 0, fmt.Errorf("failed COPY FROM for %q: %w", i.table, err)
	}

	count := tag.RowsAffected()
	zlog.Info("loaded file into sql",
		zap.String("filename", filename),
		zap.String("table_name", i.table),
		zap.Int64("rows_affected", count),
		zap.Duration("elapsed", time.Since(t0)),
	)

	return count, nil
}

func copyQuery(schema, table string) string {
	return fmt.Sprintf(`COPY %s ("file","line","hash") FROM STDIN WITH (FORMAT CSV, HEADER)`, qualifiedName(schema, table))
}

// FilesToInject lists the CSV files of a store, in store order.
func FilesToInject(ctx context.Context, inputStore dstore.Store) (out []string, err error) {
	err = inputStore.Walk(ctx, "", func(filename string) error {
		if strings.HasSuffix(filename, ".csv") {
			out = append(out, filename)
		}

		return nil
	})
	return
}

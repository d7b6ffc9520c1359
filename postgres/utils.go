package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const MAX_CONNECTIONS = 10

func CreatePostgresDB(ctx context.Context, connectionInfo *DSN) (*sqlx.DB, error) {
	zlog.Info("connecting to postgres", zap.Stringer("data_source", connectionInfo))
	dbConnectCtx, dbCancel := context.WithTimeout(ctx, 5*time.Second)
	defer dbCancel()

	db, err := sqlx.ConnectContext(dbConnectCtx, "postgres", connectionInfo.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(MAX_CONNECTIONS)

	zlog.Info("database connections created")
	return db, nil
}

// ConnectPool opens the connection pool used to COPY hash files.
func ConnectPool(ctx context.Context, connectionInfo *DSN, maxConns int) (*pgxpool.Pool, error) {
	if maxConns <= 0 || maxConns > MAX_CONNECTIONS {
		maxConns = MAX_CONNECTIONS
	}

	pool, err := pgxpool.Connect(ctx, fmt.Sprintf("%s pool_min_conns=%d pool_max_conns=%d", connectionInfo.DSN(), 1, maxConns))
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	return pool, nil
}

// CreateHashTable creates, when missing, the table receiving hash files.
func CreateHashTable(ctx context.Context, db *sqlx.DB, schema, table string) error {
	query := createHashTableQuery(schema, table)
	zlog.Debug("creating hash table", zap.String("query", query))

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table %s.%s: %w", schema, table, err)
	}

	return nil
}

func createHashTableQuery(schema, table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	file text NOT NULL,
	line bigint NOT NULL,
	hash integer NOT NULL,
	PRIMARY KEY (file, line)
)`, qualifiedName(schema, table))
}

func qualifiedName(schema, table string) string {
	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(table)
}

package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const postgresSchema = `
create table if not exists confirmed_items (
    id bigserial,
    item_key text primary key,
    confirmed_at timestamptz not null default now()
)`

// PostgresStore keeps the history in a postgres table, inserts conflict on
// the key so concurrent confirmations of the same key stay idempotent.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, dsn string, maxConns int) (PostgresStore, error) {
	if dsn == "" {
		return PostgresStore{}, fmt.Errorf("open postgres history: no dsn specified")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return PostgresStore{}, fmt.Errorf("open postgres history: %w", err)
	}
	if maxConns <= 0 {
		maxConns = 2
	}
	cfg.MaxConns = int32(maxConns)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return PostgresStore{}, fmt.Errorf("open postgres history: %w", err)
	}
	return NewPostgresStore(ctx, pool)
}

func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (PostgresStore, error) {
	_, err := pool.Exec(ctx, postgresSchema)
	if err != nil {
		pool.Close()
		return PostgresStore{}, fmt.Errorf("create history schema: %w", err)
	}
	return PostgresStore{pool: pool}, nil
}

func (s PostgresStore) Load(ctx context.Context) (*Set, error) {
	ctx, span := tracer.Start(ctx, "PostgresStore:Load")
	defer span.End()

	rows, err := s.pool.Query(ctx, "select item_key from confirmed_items order by id")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query confirmed items")
		return nil, fmt.Errorf("load history: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to scan confirmed items")
		return nil, fmt.Errorf("load history: %w", err)
	}

	span.SetAttributes(attribute.Int("history.keys", len(keys)))
	return NewSet(keys...), nil
}

const postgresInsert = `insert into confirmed_items (item_key) values ($1) on conflict (item_key) do nothing`

func (s PostgresStore) Persist(ctx context.Context, set *Set) error {
	ctx, span := tracer.Start(ctx, "PostgresStore:Persist")
	defer span.End()

	batch := &pgx.Batch{}
	for _, key := range set.Keys() {
		batch.Queue(postgresInsert, key)
	}
	err := s.pool.SendBatch(ctx, batch).Close()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to insert confirmed items")
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}

func (s PostgresStore) RecordConfirmed(ctx context.Context, key string) error {
	ctx, span := tracer.Start(ctx, "PostgresStore:RecordConfirmed")
	defer span.End()

	_, err := s.pool.Exec(ctx, postgresInsert, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to insert confirmed item")
		return fmt.Errorf("record confirmed '%s': %w", key, err)
	}
	return nil
}

func (s PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

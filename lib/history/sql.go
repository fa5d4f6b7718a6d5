package history

import (
	"context"
	"database/sql"
	"diningsync/lib/sqliteutil"
	"diningsync/lib/timezone"
	"fmt"
	"net/url"

	_ "embed"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

//go:embed schema.sql
var Schema string

// SQLStore keeps the history in a sqlite compatible database, either a
// local file or a remote libsql database.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an already opened database, creating the table if it
// is missing.
func NewSQLStore(ctx context.Context, database *sql.DB) (SQLStore, error) {
	_, err := database.ExecContext(ctx, Schema)
	if err != nil {
		return SQLStore{}, fmt.Errorf("create history schema: %w", err)
	}
	return SQLStore{db: database}, nil
}

func OpenSqlite(ctx context.Context, path string) (SQLStore, error) {
	if path == "" {
		return SQLStore{}, fmt.Errorf("open sqlite history: no file specified")
	}
	database, err := sqliteutil.OpenDB(path)
	if err != nil {
		return SQLStore{}, err
	}
	store, err := NewSQLStore(ctx, database)
	if err != nil {
		database.Close()
		return SQLStore{}, err
	}
	return store, nil
}

func OpenLibsql(ctx context.Context, dbUrl, authToken string) (SQLStore, error) {
	if dbUrl == "" {
		return SQLStore{}, fmt.Errorf("open libsql history: no url specified")
	}
	if authToken != "" {
		parsed, err := url.Parse(dbUrl)
		if err != nil {
			return SQLStore{}, fmt.Errorf("open libsql history: %w", err)
		}
		query := parsed.Query()
		query.Set("authToken", authToken)
		parsed.RawQuery = query.Encode()
		dbUrl = parsed.String()
	}

	database, err := sql.Open("libsql", dbUrl)
	if err != nil {
		return SQLStore{}, fmt.Errorf("open libsql history: %w", err)
	}
	store, err := NewSQLStore(ctx, database)
	if err != nil {
		database.Close()
		return SQLStore{}, err
	}
	return store, nil
}

func (s SQLStore) Load(ctx context.Context) (*Set, error) {
	ctx, span := tracer.Start(ctx, "SQLStore:Load")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, "select item_key from confirmed_items order by rowid")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query confirmed items")
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	set := NewSet()
	for rows.Next() {
		var key string
		err := rows.Scan(&key)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to scan confirmed item")
			return nil, fmt.Errorf("load history: %w", err)
		}
		set.Add(key)
	}
	err = rows.Err()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to iterate confirmed items")
		return nil, fmt.Errorf("load history: %w", err)
	}

	span.SetAttributes(attribute.Int("history.keys", set.Len()))
	return set, nil
}

func (s SQLStore) insert(ctx context.Context, exec func(context.Context, string, ...any) (sql.Result, error), key string) error {
	_, err := exec(
		ctx,
		"insert or ignore into confirmed_items (item_key, confirmed_at) values (?, ?)",
		key, timezone.Now().Unix(),
	)
	return err
}

func (s SQLStore) Persist(ctx context.Context, set *Set) error {
	ctx, span := tracer.Start(ctx, "SQLStore:Persist")
	defer span.End()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to begin transaction")
		return fmt.Errorf("persist history: %w", err)
	}
	defer tx.Rollback()

	for _, key := range set.Keys() {
		err := s.insert(ctx, tx.ExecContext, key)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to insert confirmed item")
			return fmt.Errorf("persist history: %w", err)
		}
	}

	err = tx.Commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to commit transaction")
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}

func (s SQLStore) RecordConfirmed(ctx context.Context, key string) error {
	ctx, span := tracer.Start(ctx, "SQLStore:RecordConfirmed")
	defer span.End()

	err := s.insert(ctx, s.db.ExecContext, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to insert confirmed item")
		return fmt.Errorf("record confirmed '%s': %w", key, err)
	}
	return nil
}

func (s SQLStore) Close() error {
	return s.db.Close()
}

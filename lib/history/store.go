package history

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("diningsync/lib/history")

// Store persists the history set across runs.
//
// A key is only ever added once the record it belongs to was confirmed
// committed to the upload sink, and keys are never removed.
type Store interface {
	// Load returns every confirmed key, an empty set if nothing was
	// persisted yet.
	Load(ctx context.Context) (*Set, error)
	// Persist writes the union of set and what is already stored.
	Persist(ctx context.Context, set *Set) error
	// RecordConfirmed durably appends one key before returning.
	RecordConfirmed(ctx context.Context, key string) error
	Close() error
}

const (
	DriverFile     = "file"
	DriverSqlite   = "sqlite"
	DriverLibsql   = "libsql"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver string `json:"driver"`
	// File is the json history file for the file driver or the database
	// file for the sqlite driver.
	File string `json:"file"`
	// Url is the remote database for the libsql driver.
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
	// Dsn is the connection string for the postgres driver.
	Dsn      string `json:"dsn"`
	MaxConns int    `json:"max_conns"`
}

// Open creates the store described by the config.
func Open(ctx context.Context, config Config) (Store, error) {
	if config.AuthToken == "" {
		config.AuthToken = os.Getenv("DININGSYNC_HISTORY_AUTH_TOKEN")
	}

	switch strings.ToLower(config.Driver) {
	case "", DriverFile:
		if config.File == "" {
			return nil, fmt.Errorf("open history: no file specified")
		}
		return NewFileStore(config.File), nil
	case DriverSqlite:
		return OpenSqlite(ctx, config.File)
	case DriverLibsql:
		return OpenLibsql(ctx, config.Url, config.AuthToken)
	case DriverPostgres:
		return OpenPostgres(ctx, config.Dsn, config.MaxConns)
	default:
		return nil, fmt.Errorf("open history: unknown driver '%s'", config.Driver)
	}
}

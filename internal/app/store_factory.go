package app

import (
	"fmt"
	"strings"

	"github.com/shrimpsizemoose/bensin/internal/store"
	"github.com/shrimpsizemoose/bensin/internal/store/postgres"
	"github.com/shrimpsizemoose/bensin/internal/store/sqlite"
)

// NewStore picks the backend from the DSN once at startup. Anything
// starting with postgres:// goes to the postgres store, everything else
// is treated as a sqlite path.
func NewStore(dsn, migrationsDir string) (store.LedgerStore, error) {
	dbType := store.DBTypeSQLite
	if strings.HasPrefix(dsn, "postgres") {
		dbType = store.DBTypePostgres
	}

	switch dbType {
	case store.DBTypePostgres:
		return postgres.NewPostgresStore(dsn, migrationsDir)
	case store.DBTypeSQLite:
		return sqlite.NewSQLiteStore(dsn, migrationsDir)
	default:
		return nil, fmt.Errorf("unable to determine database type from DSN: %s", dsn)
	}
}

package storage

import "fmt"

// Dialect hides the SQL differences between SQLite and PostgreSQL.
type Dialect interface {
	// DriverName is the database/sql driver to open.
	DriverName() string
	// Placeholder returns the parameter marker for a 1-indexed position.
	Placeholder(position int) string
	// InitStatements run once after the connection is opened.
	InitStatements() []string
}

type DialectType string

const (
	DialectSQLite   DialectType = "sqlite"
	DialectPostgres DialectType = "postgres"
)

func NewDialect(t DialectType) Dialect {
	if t == DialectPostgres {
		return postgresDialect{}
	}
	return sqliteDialect{}
}

type sqliteDialect struct{}

func (sqliteDialect) DriverName() string { return "sqlite" }

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) InitStatements() []string {
	return []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
}

type postgresDialect struct{}

func (postgresDialect) DriverName() string { return "postgres" }

func (postgresDialect) Placeholder(position int) string { return fmt.Sprintf("$%d", position) }

func (postgresDialect) InitStatements() []string { return nil }

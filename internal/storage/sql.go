package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tatianab/dungeon-crawler/internal/config"
	"github.com/tatianab/dungeon-crawler/internal/models"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// SQLStore keeps each save as a JSON document in a saves table.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// OpenSQL connects with the given dialect and creates the schema. For SQLite dsn is
// a file path.
func OpenSQL(t DialectType, dsn string) (*SQLStore, error) {
	dialect := NewDialect(t)

	if t == DialectSQLite {
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	for _, stmt := range dialect.InitStatements() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}

	s := &SQLStore{db: db, dialect: dialect}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// PostgresDSN builds a lib/pq connection string.
func PostgresDSN(cfg config.PostgresConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)
}

func (s *SQLStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS saves (
		id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	return err
}

func (s *SQLStore) Save(ctx context.Context, id string, state *models.GameState) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	data, err := state.Encode()
	if err != nil {
		return err
	}

	p := s.dialect.Placeholder
	query := fmt.Sprintf(`INSERT INTO saves (id, state, updated_at) VALUES (%s, %s, %s)
		ON CONFLICT (id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		p(1), p(2), p(3))
	if _, err := s.db.ExecContext(ctx, query, id, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("save %s: %w", id, err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context, id string) (*models.GameState, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	var data string
	query := fmt.Sprintf(`SELECT state FROM saves WHERE id = %s`, s.dialect.Placeholder(1))
	err := s.db.QueryRowContext(ctx, query, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	return models.DecodeGameState([]byte(data))
}

// List returns the ids of all saves, most recently played first.
func (s *SQLStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM saves ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"dreamcut-backend/internal/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Migrator applies the embedded SQL files in name order, each in its own
// transaction, recording them in schema_migrations.
type Migrator struct {
	db    *sql.DB
	files fs.FS
	log   *logger.Logger
}

// NewMigrator runs against an already opened pool; it does not own it.
func NewMigrator(db *sql.DB, log *logger.Logger) *Migrator {
	return &Migrator{db: db, files: migrationsFS, log: log}
}

func (m *Migrator) Run(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	names, err := migrationNames(m.files)
	if err != nil {
		return err
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}

	todo := pending(names, applied)
	for _, name := range todo {
		body, err := fs.ReadFile(m.files, path.Join(migrationsDir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		m.log.Info("applying migration", "name", name)
		if err := m.apply(ctx, name, string(body)); err != nil {
			return err
		}
	}

	m.log.Info("migrations complete", "applied", len(todo), "known", len(names))
	return nil
}

func (m *Migrator) applied(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT name FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	defer rows.Close()

	done := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		done[name] = true
	}
	return done, rows.Err()
}

func (m *Migrator) apply(ctx context.Context, name, body string) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %s: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, body); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", name, err)
	}
	return nil
}

// migrationNames lists the .sql files under migrations/, sorted.
func migrationNames(files fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(files, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func pending(names []string, applied map[string]bool) []string {
	var out []string
	for _, name := range names {
		if !applied[name] {
			out = append(out, name)
		}
	}
	return out
}

package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Migration is one forward-only schema step read from a NNN_name.sql file.
type Migration struct {
	Version int
	Name    string
	Path    string
}

// parseVersion reads the numeric prefix of a migration file name. Files
// without an underscore-terminated positive number are rejected.
func parseVersion(name string) (int, error) {
	prefix, _, ok := strings.Cut(name, "_")
	if !ok || prefix == "" {
		return 0, fmt.Errorf("migration %q: name must start with NNN_", name)
	}
	version, err := strconv.Atoi(prefix)
	if err != nil || version <= 0 || strings.HasPrefix(prefix, "+") || strings.HasPrefix(prefix, "-") {
		return 0, fmt.Errorf("migration %q: invalid version prefix %q", name, prefix)
	}
	return version, nil
}

// LoadMigrations lists the .sql files of dir sorted by version. Other files
// and subdirectories are ignored; duplicate versions are an error.
func LoadMigrations(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var migrations []Migration
	seen := make(map[int]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".sql" {
			continue
		}

		version, err := parseVersion(name)
		if err != nil {
			return nil, err
		}
		if other, dup := seen[version]; dup {
			return nil, fmt.Errorf("migrations %q and %q share version %d", other, name, version)
		}
		seen[version] = name

		migrations = append(migrations, Migration{Version: version, Name: name, Path: filepath.Join(dir, name)})
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

// RunMigrations applies pending migrations from dir in version order, each
// in its own transaction. Applied versions are recorded in
// schema_migrations.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, dir string, logger *zap.Logger) error {
	migrations, err := LoadMigrations(dir)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := pool.Query(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("failed to list applied migrations: %w", err)
	}
	applied, err := pgx.CollectRows(rows, pgx.RowTo[int])
	if err != nil {
		return fmt.Errorf("failed to list applied migrations: %w", err)
	}

	for _, m := range pending(migrations, applied) {
		sql, err := os.ReadFile(m.Path)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", m.Name, err)
		}

		err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(sql)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", m.Version)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", m.Name, err)
		}

		logger.Info("applied migration", zap.Int("version", m.Version), zap.String("file", m.Name))
	}

	return nil
}

// pending drops already applied versions, keeping order.
func pending(migrations []Migration, applied []int) []Migration {
	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	out := make([]Migration, 0, len(migrations))
	for _, m := range migrations {
		if !done[m.Version] {
			out = append(out, m)
		}
	}
	return out
}

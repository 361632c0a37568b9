// Package automigrate runs pending database migrations on startup.
package automigrate

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Run applies all pending up migrations from the given directory. The
// schema_migrations table is shared with the migrate CLI, so inserts adapt
// to whether its dirty column exists.
func Run(db *sql.DB, migrationsDir string, log *zap.Logger) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := db.Query("SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return fmt.Errorf("scan migration version: %w", err)
		}
		applied[v] = true
	}

	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	type migration struct {
		name    string
		version int
	}
	var pending []migration
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		parts := strings.SplitN(name, "_", 2)
		if len(parts) == 0 {
			continue
		}
		ver, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		if !applied[ver] {
			pending = append(pending, migration{name: name, version: ver})
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].version < pending[j].version })

	if len(pending) == 0 {
		log.Info("database up to date", zap.Int("applied", len(applied)))
		return nil
	}

	insertStmt := "INSERT INTO schema_migrations (version) VALUES ($1)"
	var hasDirty bool
	err = db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_name = 'schema_migrations' AND column_name = 'dirty'
		)
	`).Scan(&hasDirty)
	if err != nil {
		return fmt.Errorf("inspect schema_migrations: %w", err)
	}
	if hasDirty {
		insertStmt = "INSERT INTO schema_migrations (version, dirty) VALUES ($1, false)"
	}

	log.Info("applying pending migrations", zap.Int("count", len(pending)))
	for _, m := range pending {
		path := filepath.Join(migrationsDir, m.name)
		sqlBytes, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", m.name, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx for %s: %w", m.name, err)
		}

		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			tx.Rollback()
			// Objects created out of band get recorded so we don't retry.
			errStr := err.Error()
			if strings.Contains(errStr, "already exists") || strings.Contains(errStr, "duplicate key") {
				log.Warn("skipped migration, objects already exist", zap.String("name", m.name))
				db.Exec("INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT DO NOTHING", m.version)
				continue
			}
			return fmt.Errorf("apply %s: %w", m.name, err)
		}

		if _, err := tx.Exec(insertStmt, m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record %s: %w", m.name, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", m.name, err)
		}

		log.Info("applied migration", zap.String("name", m.name))
	}

	return nil
}

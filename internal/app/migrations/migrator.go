package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

//go:embed sql/*.sql
var embedded embed.FS

// DB is the subset of pgxpool.Pool the migrator needs
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Migrator manages database migrations
type Migrator struct {
	db     DB
	logger zerolog.Logger
	files  fs.FS
	dir    string
	now    func() time.Time
}

// NewMigrator creates a migrator over the embedded SQL files
func NewMigrator(db DB, logger zerolog.Logger) *Migrator {
	return &Migrator{
		db:     db,
		logger: logger.With().Str("component", "migrator").Logger(),
		files:  embedded,
		dir:    "sql",
		now:    time.Now,
	}
}

// WithSource replaces the migration files, mainly for tests
func (m *Migrator) WithSource(files fs.FS, dir string) *Migrator {
	m.files = files
	m.dir = dir
	return m
}

// ensureMigrationTableExists creates the migration tracking table if it doesn't exist
func (m *Migrator) ensureMigrationTableExists(ctx context.Context) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version VARCHAR(255) PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := m.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}
	return nil
}

// isMigrationApplied checks if a specific migration has already been applied
func (m *Migrator) isMigrationApplied(ctx context.Context, version string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`
	if err := m.db.QueryRow(ctx, query, version).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check migration status: %w", err)
	}
	return exists, nil
}

// Up applies every pending migration in filename order and returns how many ran
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.ensureMigrationTableExists(ctx); err != nil {
		return 0, err
	}

	entries, err := fs.ReadDir(m.files, m.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}
	sort.Strings(sqlFiles)

	applied := 0
	for _, name := range sqlFiles {
		ran, err := m.apply(ctx, name)
		if err != nil {
			return applied, err
		}
		if ran {
			applied++
		}
	}

	m.logger.Info().Int("applied", applied).Int("total", len(sqlFiles)).Msg("Migrations up to date")
	return applied, nil
}

// apply runs one migration file and records it inside the same transaction
func (m *Migrator) apply(ctx context.Context, name string) (bool, error) {
	// "001_create_users.sql" => "001"
	version := strings.SplitN(name, "_", 2)[0]

	done, err := m.isMigrationApplied(ctx, version)
	if err != nil {
		return false, err
	}
	if done {
		m.logger.Debug().Str("file", name).Msg("Migration already applied, skipping")
		return false, nil
	}

	content, err := fs.ReadFile(m.files, path.Join(m.dir, name))
	if err != nil {
		return false, fmt.Errorf("failed to read migration file %s: %w", name, err)
	}

	tx, err := m.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to start transaction: %w", err)
	}

	if _, err := tx.Exec(ctx, string(content)); err != nil {
		_ = tx.Rollback(ctx)
		return false, fmt.Errorf("migration %s failed: %w", name, err)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES ($1, $2)`, version, m.now()); err != nil {
		_ = tx.Rollback(ctx)
		return false, fmt.Errorf("failed to record migration %s: %w", name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit migration %s: %w", name, err)
	}

	m.logger.Info().Str("file", name).Msg("Migration applied")
	return true, nil
}

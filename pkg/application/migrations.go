package application

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/caseweave/caseweave/pkg/configuration"
)

// NewMigrationManager builds a manager that applies the goose migrations
// modules embed via RegisterSchema. Version numbers must be unique across
// modules; registration order decides apply order.
func NewMigrationManager() MigrationManager {
	return &migrationManager{}
}

type migrationManager struct {
	schemas []*embed.FS
}

func (m *migrationManager) RegisterSchema(fs *embed.FS) {
	m.schemas = append(m.schemas, fs)
}

func (m *migrationManager) Run() error {
	return m.apply(func(db *sql.DB, fsys fs.FS, dir string) error {
		return goose.Up(db, dir, goose.WithAllowMissing())
	})
}

func (m *migrationManager) Rollback() error {
	return m.apply(func(db *sql.DB, fsys fs.FS, dir string) error {
		return goose.Down(db, dir)
	})
}

func (m *migrationManager) apply(fn func(db *sql.DB, fsys fs.FS, dir string) error) error {
	conf := configuration.Use()
	db, err := sql.Open("postgres", conf.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("migrations: open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			conf.Logger().WithError(closeErr).Warn("migrations: failed to close database")
		}
	}()

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("migrations: set dialect: %w", err)
	}
	for _, schema := range m.schemas {
		dirs, err := migrationDirs(schema)
		if err != nil {
			return err
		}
		for _, dir := range dirs {
			goose.SetBaseFS(schema)
			if err := fn(db, schema, dir); err != nil {
				return fmt.Errorf("migrations: apply %q: %w", dir, err)
			}
		}
	}
	return nil
}

// migrationDirs walks an embedded schema FS and returns every directory
// holding .sql files, sorted for deterministic apply order.
func migrationDirs(fsys fs.FS) ([]string, error) {
	seen := make(map[string]struct{})
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".sql") {
			return nil
		}
		seen[path.Dir(p)] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("migrations: walk schema: %w", err)
	}

	dirs := make([]string, 0, len(seen))
	for dir := range seen {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs, nil
}

package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MigrationFile describes a generated up/down pair.
type MigrationFile struct {
	Version  string
	Name     string
	UpPath   string
	DownPath string
}

// CreateMigration writes an empty up/down SQL pair into migrationsDir.
// Versions are second-resolution timestamps so files sort in creation
// order.
func CreateMigration(migrationsDir, name, description string) (*MigrationFile, error) {
	if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory: %w", err)
	}

	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}

	now := time.Now()
	version := now.Format("20060102150405")
	base := version + "_" + slug

	mf := &MigrationFile{
		Version:  version,
		Name:     name,
		UpPath:   filepath.Join(migrationsDir, base+".up.sql"),
		DownPath: filepath.Join(migrationsDir, base+".down.sql"),
	}

	up := migrationHeader(name, description, now) + "-- Forward migration.\n"
	if err := os.WriteFile(mf.UpPath, []byte(up), 0o644); err != nil {
		return nil, fmt.Errorf("write up migration: %w", err)
	}

	down := migrationHeader(name, "rollback of "+description, now) + "-- Rollback migration.\n"
	if err := os.WriteFile(mf.DownPath, []byte(down), 0o644); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, fmt.Errorf("write down migration: %w", err)
	}

	return mf, nil
}

func migrationHeader(name, description string, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "-- %s\n", name)
	fmt.Fprintf(&b, "-- created %s\n", at.Format(time.RFC3339))
	if strings.TrimSpace(description) != "" {
		fmt.Fprintf(&b, "-- %s\n", description)
	}
	b.WriteString("\n")
	return b.String()
}

// sanitizeName lowercases the name and collapses everything that is not
// a letter or digit into single underscores.
func sanitizeName(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})
	return strings.Join(fields, "_")
}

// ListMigrations returns the base names of the up/down pairs found in
// migrationsDir, in lexical (creation) order.
func ListMigrations(migrationsDir string) ([]string, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	migrations := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(entry.Name(), ".up.sql"); ok {
			migrations = append(migrations, base)
		}
	}
	return migrations, nil
}

package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// MigrationFile describes the up/down SQL pair written for a new
// migration.
type MigrationFile struct {
	Version  string
	Name     string
	UpPath   string
	DownPath string
}

const upStub = `-- %s
-- %s

`

const downStub = `-- Revert %s

`

// CreateMigration writes an empty timestamped up/down SQL pair into
// dir, creating the directory if needed. The name is normalized to
// lowercase with underscores so file names stay shell friendly.
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	normalized := normalizeName(name)
	if normalized == "" {
		return nil, fmt.Errorf("migration name %q contains no usable characters", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating migrations directory: %w", err)
	}

	version := time.Now().Format("20060102150405")
	base := version + "_" + normalized
	mf := &MigrationFile{
		Version:  version,
		Name:     normalized,
		UpPath:   filepath.Join(dir, base+".up.sql"),
		DownPath: filepath.Join(dir, base+".down.sql"),
	}

	if description == "" {
		description = "TODO: describe this migration"
	}

	up := fmt.Sprintf(upStub, normalized, description)
	if err := os.WriteFile(mf.UpPath, []byte(up), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", mf.UpPath, err)
	}

	down := fmt.Sprintf(downStub, normalized)
	if err := os.WriteFile(mf.DownPath, []byte(down), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", mf.DownPath, err)
	}

	return mf, nil
}

// ListMigrations returns the sorted base names of the migration pairs
// in dir, one entry per pair.
func ListMigrations(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if base, ok := strings.CutSuffix(entry.Name(), ".up.sql"); ok {
			names = append(names, base)
		}
	}
	sort.Strings(names)
	return names, nil
}

func normalizeName(name string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vvka-141/bcpstage/internal/checksum"
	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// SelectScripts returns the .sql files of dir to run, sorted by name.
// With names empty every .sql file is selected. Otherwise each name or path
// is reduced to its base name (".sql" appended when missing) and must exist
// in dir; all missing names are reported together.
func SelectScripts(dir string, names []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("scripts directory %s: %w", dir, bcpstage.ErrSourceNotFound)
		}
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	available := make(map[string]bool)
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), bcpstage.SQLExtension) {
			available[e.Name()] = true
		}
	}

	var selected []string
	if len(names) == 0 {
		for name := range available {
			selected = append(selected, name)
		}
	} else {
		var missing []string
		seen := make(map[string]bool)
		for _, n := range names {
			n = strings.TrimSpace(n)
			if n == "" {
				continue
			}
			n = filepath.Base(n)
			if !strings.EqualFold(filepath.Ext(n), bcpstage.SQLExtension) {
				n += bcpstage.SQLExtension
			}
			if !available[n] {
				missing = append(missing, n)
				continue
			}
			if !seen[n] {
				seen[n] = true
				selected = append(selected, n)
			}
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("scripts not found in %s: %s: %w", dir, strings.Join(missing, ", "), bcpstage.ErrSourceNotFound)
		}
	}

	if len(selected) == 0 {
		return nil, fmt.Errorf("no .sql scripts in %s: %w", dir, bcpstage.ErrSourceNotFound)
	}

	sort.Strings(selected)
	paths := make([]string, len(selected))
	for i, name := range selected {
		paths[i] = filepath.Join(dir, name)
	}
	return paths, nil
}

// LoadQuery reads a query file and rejects content without statements.
func LoadQuery(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("query file %s: %w", path, bcpstage.ErrSourceNotFound)
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	query := strings.TrimSpace(string(data))
	if checksum.IsBlank(query) {
		return "", fmt.Errorf("query file %s is empty: %w", filepath.Base(path), bcpstage.ErrInvalidConfig)
	}
	return query, nil
}

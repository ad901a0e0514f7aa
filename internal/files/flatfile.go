package files

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// IsFlatFile reports whether name ends in .bcp or .bcp.gz, ignoring case.
func IsFlatFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, bcpstage.BCPExtension) ||
		strings.HasSuffix(lower, bcpstage.BCPExtension+bcpstage.GzipExtension)
}

// ResolveLocal returns the flat file to import from dir.
// A non-empty name selects that file (relative to dir unless absolute);
// otherwise the most recently modified flat file in dir wins.
func ResolveLocal(dir, name string) (string, error) {
	if name != "" {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, name)
		}
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("file %s: %w", path, bcpstage.ErrSourceNotFound)
			}
			return "", fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if info.IsDir() {
			return "", fmt.Errorf("%s is a directory: %w", path, bcpstage.ErrSourceNotFound)
		}
		return path, nil
	}
	return Latest(dir)
}

// Latest returns the newest .bcp or .bcp.gz file in dir by modification time.
func Latest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("directory %s: %w", dir, bcpstage.ErrSourceNotFound)
		}
		return "", fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var newest string
	var newestTime time.Time
	for _, e := range entries {
		if e.IsDir() || !IsFlatFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return "", fmt.Errorf("failed to stat %s: %w", e.Name(), err)
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = e.Name()
			newestTime = info.ModTime()
		}
	}

	if newest == "" {
		return "", fmt.Errorf("no .bcp or .bcp.gz files in %s: %w", dir, bcpstage.ErrSourceNotFound)
	}
	return filepath.Join(dir, newest), nil
}

// StampedName appends _YYYYMMDD_HHMMSS to base.
func StampedName(base string, at time.Time) string {
	return base + "_" + at.Format(bcpstage.ExportTimestampLayout)
}

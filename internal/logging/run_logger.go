package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vvka-141/bcpstage/pkg/bcpstage"
)

// RunLog is the log destination of a single command run.
type RunLog struct {
	Logger *ConsoleLogger
	Path   string
	file   *os.File
}

// Close flushes and closes the log file.
func (r *RunLog) Close() error {
	if r.file == nil {
		return nil
	}
	if err := r.file.Sync(); err != nil {
		r.file.Close()
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	return r.file.Close()
}

// NewRunLogger creates dir when needed and opens <prefix>_<YYYY_MM_DD_HH_MM_SS>.log
// inside it. Messages go to stdout and the file, each line timestamped.
func NewRunLogger(dir, prefix string, verbose bool) (*RunLog, error) {
	return newRunLogger(dir, prefix, verbose, os.Stdout, time.Now())
}

func newRunLogger(dir, prefix string, verbose bool, console io.Writer, started time.Time) (*RunLog, error) {
	if dir == "" {
		return nil, fmt.Errorf("log directory is empty: %w", bcpstage.ErrInvalidConfig)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.log", prefix, started.Format(bcpstage.LogTimestampLayout)))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	return &RunLog{
		Logger: NewWriterLogger(io.MultiWriter(console, f), verbose, true),
		Path:   path,
		file:   f,
	}, nil
}
